package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"online_judge/internal/common"
	"online_judge/internal/common/security"
	"online_judge/internal/domain/model"
	"online_judge/internal/domain/repository"
	"online_judge/internal/platform/database"
)

// JobPusher delivers a judge job to the queue named after the submission language.
// It reports failure instead of returning an error.
type JobPusher interface {
	Push(ctx context.Context, queue string, payload interface{}) bool
}

// Dispatcher stores submissions and hands them to the judges. Queue failures never undo
// a stored submission; they surface as ok=false and the row stays unjudged until a restart.
type Dispatcher struct {
	tx             database.Transactor
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	queue          JobPusher
	validate       *validator.Validate
	log            zerolog.Logger
}

func NewDispatcher(
	tx database.Transactor,
	submissionRepo repository.SubmissionRepository,
	problemRepo repository.ProblemRepository,
	queue JobPusher,
	validate *validator.Validate,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		tx:             tx,
		submissionRepo: submissionRepo,
		problemRepo:    problemRepo,
		queue:          queue,
		validate:       validate,
		log:            log.With().Str("component", "dispatcher").Logger(),
	}
}

type SubmitRequest struct {
	Language  string `json:"language" validate:"required,max=255"`
	Code      string `json:"code" validate:"required"`
	ProblemID int64  `json:"problemId" validate:"gt=0"`
}

type SubmitResult struct {
	SubmissionID int64 `json:"submissionId"`
	OK           bool  `json:"ok"`
}

func (d *Dispatcher) SubmitNew(ctx context.Context, owner model.Principal, req SubmitRequest) (*SubmitResult, error) {
	if err := validateRequest(d.validate, req); err != nil {
		return nil, err
	}

	sub := &model.Submission{
		Language:  req.Language,
		Code:      req.Code,
		ProblemID: req.ProblemID,
		UserID:    owner.UserID,
	}
	var testCases []model.TestCase
	err := d.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := d.submissionRepo.Create(ctx, tx, sub); err != nil {
			return err
		}
		var err error
		testCases, err = d.problemRepo.GetTestCasesByProblemID(ctx, tx, sub.ProblemID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	d.log.Info().Int64("submission_id", sub.ID).Int64("user_id", owner.UserID).Msg("submission stored")
	return &SubmitResult{SubmissionID: sub.ID, OK: d.dispatch(ctx, sub, testCases)}, nil
}

// RestartOne re-dispatches the caller's own submission with the problem's current test cases.
// Elevated callers get no bypass here; they use RestartAllUnjudged.
func (d *Dispatcher) RestartOne(ctx context.Context, caller *model.Principal, id int64) (bool, error) {
	var (
		sub       *model.Submission
		testCases []model.TestCase
	)
	err := d.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		if sub, err = d.submissionRepo.GetByID(ctx, tx, id); err != nil {
			return ownedLookupError(err)
		}
		if err := security.AuthorizeOwner(caller, sub.UserID); err != nil {
			return err
		}
		testCases, err = d.problemRepo.GetTestCasesByProblemID(ctx, tx, sub.ProblemID)
		return err
	})
	if err != nil {
		return false, err
	}
	return d.dispatch(ctx, sub, testCases), nil
}

// RestartAllUnjudged attempts every pending submission even after a failure;
// the result is false if any single push failed.
func (d *Dispatcher) RestartAllUnjudged(ctx context.Context) (bool, error) {
	var (
		pending   []model.Submission
		testCases = map[int64][]model.TestCase{}
	)
	err := d.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		if pending, err = d.submissionRepo.ListUnjudged(ctx, tx); err != nil {
			return err
		}
		for _, sub := range pending {
			if _, seen := testCases[sub.ProblemID]; seen {
				continue
			}
			cases, err := d.problemRepo.GetTestCasesByProblemID(ctx, tx, sub.ProblemID)
			if err != nil {
				return err
			}
			testCases[sub.ProblemID] = cases
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to load unjudged submissions: %w", err)
	}

	ok := true
	failed := 0
	for i := range pending {
		if !d.dispatch(ctx, &pending[i], testCases[pending[i].ProblemID]) {
			ok = false
			failed++
		}
	}
	d.log.Info().Int("total", len(pending)).Int("failed", failed).Msg("unjudged submissions re-dispatched")
	return ok, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, sub *model.Submission, testCases []model.TestCase) bool {
	if d.queue.Push(ctx, sub.Language, model.NewJudgeJob(sub, testCases)) {
		return true
	}
	d.log.Error().Err(common.ErrQueueUnavailable).
		Int64("submission_id", sub.ID).
		Str("queue", sub.Language).
		Msg("judge job not delivered, submission stays unjudged")
	return false
}
