package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"online_judge/internal/common"
	"online_judge/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *model.User) error
	FindByUsername(ctx context.Context, tx *sql.Tx, username string) (*model.User, error)
	FindByID(ctx context.Context, tx *sql.Tx, id int64) (*model.User, error)
	// ListWithSolvedCounts orders by solved count, most first, then by id.
	ListWithSolvedCounts(ctx context.Context, tx *sql.Tx) ([]model.UserSolvedCount, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	query := `INSERT INTO users (username, password_hash, name, email, authority)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := conn(r.db, tx).QueryRowContext(ctx, query, user.Username, user.PasswordHash, user.Name, user.Email, user.Authority).Scan(&user.ID)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

const selectUser = `SELECT id, username, password_hash, name, email, authority FROM users`

func (r *pgUserRepository) FindByUsername(ctx context.Context, tx *sql.Tx, username string) (*model.User, error) {
	user, err := scanUser(conn(r.db, tx).QueryRowContext(ctx, selectUser+` WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgUserRepository.FindByUsername: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, tx *sql.Tx, id int64) (*model.User, error) {
	user, err := scanUser(conn(r.db, tx).QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Name, &user.Email, &user.Authority)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// A user solves a problem once, however many accepted submissions they have for it.
const solvedCountsQuery = `
	SELECT u.id, u.name,
	       COUNT(DISTINCT s.problem_id) FILTER (WHERE s.result LIKE 'Accepted%') AS solved
	FROM users u
	LEFT JOIN submissions s ON s.user_id = u.id
	GROUP BY u.id
	ORDER BY solved DESC, u.id`

func (r *pgUserRepository) ListWithSolvedCounts(ctx context.Context, tx *sql.Tx) ([]model.UserSolvedCount, error) {
	rows, err := conn(r.db, tx).QueryContext(ctx, solvedCountsQuery)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.ListWithSolvedCounts: %w", err)
	}
	defer rows.Close()

	counts := []model.UserSolvedCount{}
	for rows.Next() {
		var c model.UserSolvedCount
		if err := rows.Scan(&c.ID, &c.Name, &c.SolvedProblemCount); err != nil {
			return nil, fmt.Errorf("pgUserRepository.ListWithSolvedCounts scan: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.ListWithSolvedCounts rows: %w", err)
	}
	return counts, nil
}
