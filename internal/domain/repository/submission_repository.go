package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"online_judge/internal/common"
	"online_judge/internal/domain/model"
)

type SubmissionRepository interface {
	// Create stores a pending submission and fills in its id.
	Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetByID(ctx context.Context, tx *sql.Tx, id int64) (*model.Submission, error)
	// ListWithMeta joins owner name and problem title, newest first.
	ListWithMeta(ctx context.Context, tx *sql.Tx) ([]model.SubmissionListItem, error)
	ListUnjudged(ctx context.Context, tx *sql.Tx) ([]model.Submission, error)
	UpdateResult(ctx context.Context, tx *sql.Tx, id int64, result string, executedTime float64) error
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO submissions (language, code, executed_time, result, problem_id, user_id)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	sub.ExecutedTime = model.UnjudgedExecutedTime
	sub.Result = model.ResultPending
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		sub.Language, sub.Code, sub.ExecutedTime, sub.Result, sub.ProblemID, sub.UserID,
	).Scan(&sub.ID)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return fmt.Errorf("problem %d: %w", sub.ProblemID, common.ErrNotFound)
		}
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

const selectSubmission = `SELECT id, language, code, executed_time, result, problem_id, user_id FROM submissions`

func (r *pgSubmissionRepository) GetByID(ctx context.Context, tx *sql.Tx, id int64) (*model.Submission, error) {
	sub := &model.Submission{}
	err := conn(r.db, tx).QueryRowContext(ctx, selectSubmission+` WHERE id = $1`, id).Scan(
		&sub.ID, &sub.Language, &sub.Code, &sub.ExecutedTime, &sub.Result, &sub.ProblemID, &sub.UserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("submission %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetByID: %w", err)
	}
	return sub, nil
}

func (r *pgSubmissionRepository) ListWithMeta(ctx context.Context, tx *sql.Tx) ([]model.SubmissionListItem, error) {
	query := `
		SELECT s.id, s.user_id, u.name, s.problem_id, p.title, s.language, s.result, s.executed_time
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		JOIN problems p ON p.id = s.problem_id
		ORDER BY s.id DESC`

	rows, err := conn(r.db, tx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListWithMeta: %w", err)
	}
	defer rows.Close()

	items := []model.SubmissionListItem{}
	for rows.Next() {
		var it model.SubmissionListItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.OwnerName, &it.ProblemID, &it.ProblemTitle, &it.Language, &it.Result, &it.ExecutedTime); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListWithMeta scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListWithMeta rows: %w", err)
	}
	return items, nil
}

func (r *pgSubmissionRepository) ListUnjudged(ctx context.Context, tx *sql.Tx) ([]model.Submission, error) {
	rows, err := conn(r.db, tx).QueryContext(ctx, selectSubmission+` WHERE result = $1 ORDER BY id`, model.ResultPending)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListUnjudged: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.Language, &s.Code, &s.ExecutedTime, &s.Result, &s.ProblemID, &s.UserID); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListUnjudged scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListUnjudged rows: %w", err)
	}
	return subs, nil
}

func (r *pgSubmissionRepository) UpdateResult(ctx context.Context, tx *sql.Tx, id int64, result string, executedTime float64) error {
	query := `UPDATE submissions SET result = $1, executed_time = $2 WHERE id = $3`

	res, err := conn(r.db, tx).ExecContext(ctx, query, result, executedTime, id)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateResult: %w", err)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateResult: %w", err)
	}
	if !ok {
		return fmt.Errorf("submission %d: %w", id, common.ErrNotFound)
	}
	return nil
}
