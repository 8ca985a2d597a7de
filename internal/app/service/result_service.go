package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"online_judge/internal/common"
	"online_judge/internal/domain/model"
	"online_judge/internal/domain/repository"
	"online_judge/internal/platform/database"
)

// ResultService is the only writer of a submission's verdict and running time.
type ResultService struct {
	tx             database.Transactor
	submissionRepo repository.SubmissionRepository
	log            zerolog.Logger
}

func NewResultService(tx database.Transactor, submissionRepo repository.SubmissionRepository, log zerolog.Logger) *ResultService {
	return &ResultService{
		tx:             tx,
		submissionRepo: submissionRepo,
		log:            log.With().Str("component", "result_service").Logger(),
	}
}

func (s *ResultService) RecordResult(ctx context.Context, res model.JudgeResult) error {
	if strings.TrimSpace(res.Result) == "" || res.Result == model.ResultPending {
		return fmt.Errorf("%w: result must be a verdict", common.ErrValidation)
	}
	if res.SubmissionID <= 0 {
		return fmt.Errorf("%w: id must be positive", common.ErrValidation)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.submissionRepo.UpdateResult(ctx, tx, res.SubmissionID, res.Result, res.ExecutedTime)
	})
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}

	s.log.Info().
		Int64("submission_id", res.SubmissionID).
		Str("result", res.Result).
		Float64("executed_time", res.ExecutedTime).
		Msg("judge result recorded")
	return nil
}
