package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"online_judge/internal/common"
	"online_judge/internal/common/security"
	"online_judge/internal/domain/model"
	"online_judge/internal/domain/repository"
	"online_judge/internal/platform/database"
	"online_judge/internal/platform/session"
)

// AuthService covers the account lifecycle and the server-held session that carries the Principal.
type AuthService struct {
	tx       database.Transactor
	userRepo repository.UserRepository
	sessions session.Store
	hasher   *security.PasswordHasher
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAuthService(
	tx database.Transactor,
	userRepo repository.UserRepository,
	sessions session.Store,
	hasher *security.PasswordHasher,
	validate *validator.Validate,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		tx:       tx,
		userRepo: userRepo,
		sessions: sessions,
		hasher:   hasher,
		validate: validate,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CheckResponse has a null userId when there is no valid session.
type CheckResponse struct {
	UserID    *int64 `json:"userId"`
	Name      string `json:"name,omitempty"`
	Authority int    `json:"authority,omitempty"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return 0, err
	}

	hashedPassword, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return 0, err
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: hashedPassword,
		Name:         req.Name,
		Email:        req.Email,
		Authority:    model.DefaultAuthority,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.userRepo.Create(ctx, tx, user)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return user.ID, nil
}

// Login verifies the credentials and opens a session for the resulting Principal.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (string, model.Principal, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return "", model.Principal{}, err
	}

	var user *model.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		user, err = s.userRepo.FindByUsername(ctx, tx, req.Username)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", model.Principal{}, fmt.Errorf("unknown username: %w", common.ErrUnauthorized)
		}
		return "", model.Principal{}, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.CheckPasswordHash(req.Password, user.PasswordHash) {
		return "", model.Principal{}, fmt.Errorf("wrong password: %w", common.ErrUnauthorized)
	}

	principal := model.NewPrincipal(user)
	sessionID, err := s.sessions.Create(ctx, principal)
	if err != nil {
		return "", model.Principal{}, fmt.Errorf("failed to open session: %w", err)
	}
	return sessionID, principal, nil
}

// Logout never fails; a store error only leaves an entry that expires on its own.
func (s *AuthService) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete session on logout")
	}
}

// Check re-reads the user row and stores the refreshed Principal under the same session.
func (s *AuthService) Check(ctx context.Context, sessionID string, current *model.Principal) (*CheckResponse, error) {
	if current == nil || sessionID == "" {
		return &CheckResponse{}, nil
	}

	var user *model.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		user, err = s.userRepo.FindByID(ctx, tx, current.UserID)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		s.Logout(ctx, sessionID)
		return &CheckResponse{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	refreshed := model.NewPrincipal(user)
	if refreshed != *current {
		s.log.Info().Int64("user_id", user.ID).Int("authority", user.Authority).Msg("session authority refreshed")
	}
	if err := s.sessions.Put(ctx, sessionID, refreshed); err != nil {
		return nil, fmt.Errorf("failed to store refreshed session: %w", err)
	}

	return &CheckResponse{UserID: &user.ID, Name: user.Name, Authority: user.Authority}, nil
}
