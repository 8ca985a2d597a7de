package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"online_judge/internal/domain/model"
	"online_judge/internal/domain/repository"
	"online_judge/internal/platform/database"
)

type ProblemService struct {
	tx          database.Transactor
	problemRepo repository.ProblemRepository
	validate    *validator.Validate
	log         zerolog.Logger
}

func NewProblemService(tx database.Transactor, problemRepo repository.ProblemRepository, validate *validator.Validate, log zerolog.Logger) *ProblemService {
	return &ProblemService{
		tx:          tx,
		problemRepo: problemRepo,
		validate:    validate,
		log:         log.With().Str("component", "problem_service").Logger(),
	}
}

// TestCaseRequest without an id is a new test case; with an id it updates that one.
type TestCaseRequest struct {
	ID             *int64  `json:"id"`
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expectedOutput"`
	Comment        string  `json:"comment"`
	Score          int     `json:"score" validate:"gte=0"`
	TimeOutSeconds float64 `json:"timeOutSeconds" validate:"gt=0"`
}

type ProblemRequest struct {
	Title       string            `json:"title" validate:"required,max=255"`
	Description string            `json:"description"`
	TestCases   []TestCaseRequest `json:"testCases" validate:"dive"`
}

func (r TestCaseRequest) toModel() model.TestCase {
	tc := model.TestCase{
		Input:          r.Input,
		ExpectedOutput: r.ExpectedOutput,
		Comment:        r.Comment,
		Score:          r.Score,
		TimeOutSeconds: r.TimeOutSeconds,
	}
	if r.ID != nil {
		tc.ID = *r.ID
	}
	return tc
}

// List adds submitted/accepted flags only when a caller is present.
func (s *ProblemService) List(ctx context.Context, caller *model.Principal) ([]model.ProblemListItem, error) {
	var userID *int64
	if caller != nil {
		userID = &caller.UserID
	}

	var items []model.ProblemListItem
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		items, err = s.problemRepo.ListProblems(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	return items, nil
}

func (s *ProblemService) GetSummary(ctx context.Context, id int64) (*model.Problem, error) {
	var problem *model.Problem
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		problem, err = s.problemRepo.FindProblemByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return problem, nil
}

// GetFull includes test cases, read in the same transaction as the problem row.
func (s *ProblemService) GetFull(ctx context.Context, id int64) (*model.Problem, error) {
	var problem *model.Problem
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		if problem, err = s.problemRepo.FindProblemByID(ctx, tx, id); err != nil {
			return err
		}
		problem.TestCases, err = s.problemRepo.GetTestCasesByProblemID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return problem, nil
}

func (s *ProblemService) Create(ctx context.Context, req ProblemRequest) (int64, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return 0, err
	}

	problem := &model.Problem{
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
	}
	testCases := make([]model.TestCase, 0, len(req.TestCases))
	for _, tc := range req.TestCases {
		c := tc.toModel()
		c.ID = 0
		testCases = append(testCases, c)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
			return err
		}
		return s.problemRepo.AddTestCases(ctx, tx, problem.ID, testCases)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create problem: %w", err)
	}

	s.log.Info().Int64("problem_id", problem.ID).Int("test_cases", len(testCases)).Msg("problem created")
	return problem.ID, nil
}

// Replace overwrites the problem and reconciles its test cases by id: ids missing from
// the request are deleted, known ids are updated in place, and entries without an id are inserted.
func (s *ProblemService) Replace(ctx context.Context, id int64, req ProblemRequest) error {
	if err := validateRequest(s.validate, req); err != nil {
		return err
	}

	problem := &model.Problem{
		ID:          id,
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
	}

	var (
		updates []model.TestCase
		inserts []model.TestCase
		keep    []int64
	)
	for _, tc := range req.TestCases {
		if tc.ID == nil {
			inserts = append(inserts, tc.toModel())
			continue
		}
		updates = append(updates, tc.toModel())
		keep = append(keep, *tc.ID)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.problemRepo.UpdateProblem(ctx, tx, problem); err != nil {
			return err
		}
		for i := range updates {
			if err := s.problemRepo.UpdateTestCase(ctx, tx, id, &updates[i]); err != nil {
				return err
			}
		}
		if err := s.problemRepo.DeleteTestCasesExcept(ctx, tx, id, keep); err != nil {
			return err
		}
		return s.problemRepo.AddTestCases(ctx, tx, id, inserts)
	})
	if err != nil {
		return fmt.Errorf("failed to replace problem %d: %w", id, err)
	}

	s.log.Info().Int64("problem_id", id).
		Int("updated", len(updates)).
		Int("inserted", len(inserts)).
		Msg("problem replaced")
	return nil
}

func (s *ProblemService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.problemRepo.DeleteProblem(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete problem %d: %w", id, err)
	}
	s.log.Info().Int64("problem_id", id).Msg("problem deleted")
	return nil
}
