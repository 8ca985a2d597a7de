package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"online_judge/internal/common"
	"online_judge/internal/common/security"
	"online_judge/internal/domain/model"
	"online_judge/internal/domain/repository"
	"online_judge/internal/platform/database"
)

type SubmissionService struct {
	tx             database.Transactor
	submissionRepo repository.SubmissionRepository
}

func NewSubmissionService(tx database.Transactor, submissionRepo repository.SubmissionRepository) *SubmissionService {
	return &SubmissionService{tx: tx, submissionRepo: submissionRepo}
}

// SubmissionPage is the joined listing plus the flag that gates bulk restart.
type SubmissionPage struct {
	Data          []model.SubmissionListItem `json:"data"`
	IsRefreshable bool                       `json:"isRefreshable"`
}

func (s *SubmissionService) List(ctx context.Context, caller *model.Principal) (*SubmissionPage, error) {
	var items []model.SubmissionListItem
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		items, err = s.submissionRepo.ListWithMeta(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	for i := range items {
		items[i].IsRefreshable = caller != nil && items[i].UserID == caller.UserID
	}
	return &SubmissionPage{
		Data:          items,
		IsRefreshable: caller != nil && caller.IsElevated(),
	}, nil
}

// Get answers a missing row and somebody else's row the same way.
func (s *SubmissionService) Get(ctx context.Context, caller *model.Principal, id int64) (*model.Submission, error) {
	var sub *model.Submission
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		sub, err = s.submissionRepo.GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, ownedLookupError(err)
	}
	if err := security.AuthorizeOwner(caller, sub.UserID); err != nil {
		return nil, err
	}
	return sub, nil
}

func ownedLookupError(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%v: %w", err, common.ErrUnauthorized)
	}
	return err
}
