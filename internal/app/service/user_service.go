package service

import (
	"context"
	"database/sql"
	"fmt"

	"online_judge/internal/domain/model"
	"online_judge/internal/domain/repository"
	"online_judge/internal/platform/database"
)

type UserService struct {
	tx       database.Transactor
	userRepo repository.UserRepository
}

func NewUserService(tx database.Transactor, userRepo repository.UserRepository) *UserService {
	return &UserService{tx: tx, userRepo: userRepo}
}

func (s *UserService) ListWithSolvedCounts(ctx context.Context) ([]model.UserSolvedCount, error) {
	var counts []model.UserSolvedCount
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		counts, err = s.userRepo.ListWithSolvedCounts(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return counts, nil
}
