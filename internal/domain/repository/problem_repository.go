package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"online_judge/internal/common"
	"online_judge/internal/domain/model"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	UpdateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	DeleteProblem(ctx context.Context, tx *sql.Tx, id int64) error
	FindProblemByID(ctx context.Context, tx *sql.Tx, id int64) (*model.Problem, error)
	// ListProblems computes per-user flags when userID is set.
	ListProblems(ctx context.Context, tx *sql.Tx, userID *int64) ([]model.ProblemListItem, error)

	AddTestCases(ctx context.Context, tx *sql.Tx, problemID int64, testCases []model.TestCase) error
	GetTestCasesByProblemID(ctx context.Context, tx *sql.Tx, problemID int64) ([]model.TestCase, error)
	UpdateTestCase(ctx context.Context, tx *sql.Tx, problemID int64, testCase *model.TestCase) error
	// DeleteTestCasesExcept removes every test case of the problem whose id is not in keep.
	DeleteTestCasesExcept(ctx context.Context, tx *sql.Tx, problemID int64, keep []int64) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (title, slug, description) VALUES ($1, $2, $3) RETURNING id`

	if err := conn(r.db, tx).QueryRowContext(ctx, query, p.Title, p.Slug, p.Description).Scan(&p.ID); err != nil {
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) UpdateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `UPDATE problems SET title = $1, slug = $2, description = $3 WHERE id = $4`

	res, err := conn(r.db, tx).ExecContext(ctx, query, p.Title, p.Slug, p.Description, p.ID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateProblem: %w", err)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateProblem: %w", err)
	}
	if !ok {
		return fmt.Errorf("problem %d: %w", p.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteProblem removes the problem; test cases go with it through ON DELETE CASCADE.
// Submissions keep their problem, so a judged problem cannot be deleted.
func (r *pgProblemRepository) DeleteProblem(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return fmt.Errorf("problem %d still has submissions: %w", id, common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.DeleteProblem: %w", err)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.DeleteProblem: %w", err)
	}
	if !ok {
		return fmt.Errorf("problem %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, tx *sql.Tx, id int64) (*model.Problem, error) {
	query := `SELECT id, title, slug, description FROM problems WHERE id = $1`

	problem := &model.Problem{}
	err := conn(r.db, tx).QueryRowContext(ctx, query, id).Scan(&problem.ID, &problem.Title, &problem.Slug, &problem.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("problem %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return problem, nil
}

// One query serves both callers: a NULL user matches no submission, so the
// flags come back false and are dropped for anonymous listings.
const listProblemsQuery = `
	SELECT p.id, p.title, p.slug,
	       COUNT(s.id) > 0 AS is_submitted,
	       COUNT(s.id) FILTER (WHERE s.result LIKE 'Accepted%') > 0 AS is_accepted
	FROM problems p
	LEFT JOIN submissions s ON s.problem_id = p.id AND s.user_id = $1
	GROUP BY p.id
	ORDER BY p.id`

func (r *pgProblemRepository) ListProblems(ctx context.Context, tx *sql.Tx, userID *int64) ([]model.ProblemListItem, error) {
	var arg interface{}
	if userID != nil {
		arg = *userID
	}

	rows, err := conn(r.db, tx).QueryContext(ctx, listProblemsQuery, arg)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems: %w", err)
	}
	defer rows.Close()

	items := []model.ProblemListItem{}
	for rows.Next() {
		var (
			item                model.ProblemListItem
			submitted, accepted bool
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.Slug, &submitted, &accepted); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		if userID != nil {
			item.IsSubmitted = &submitted
			item.IsAccepted = &accepted
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems rows: %w", err)
	}
	return items, nil
}

func (r *pgProblemRepository) AddTestCases(ctx context.Context, tx *sql.Tx, problemID int64, testCases []model.TestCase) error {
	query := `INSERT INTO test_cases (problem_id, input, expected_output, comment, score, time_out_seconds)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	q := conn(r.db, tx)
	for i := range testCases {
		tc := &testCases[i]
		err := q.QueryRowContext(ctx, query, problemID, tc.Input, tc.ExpectedOutput, tc.Comment, tc.Score, tc.TimeOutSeconds).Scan(&tc.ID)
		if err != nil {
			if common.IsForeignKeyViolation(err) {
				return fmt.Errorf("problem %d: %w", problemID, common.ErrNotFound)
			}
			return fmt.Errorf("pgProblemRepository.AddTestCases: %w", err)
		}
		tc.ProblemID = problemID
	}
	return nil
}

func (r *pgProblemRepository) GetTestCasesByProblemID(ctx context.Context, tx *sql.Tx, problemID int64) ([]model.TestCase, error) {
	query := `SELECT id, problem_id, input, expected_output, comment, score, time_out_seconds
	          FROM test_cases WHERE problem_id = $1 ORDER BY id`

	rows, err := conn(r.db, tx).QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID: %w", err)
	}
	defer rows.Close()

	testCases := []model.TestCase{}
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput, &tc.Comment, &tc.Score, &tc.TimeOutSeconds); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID scan: %w", err)
		}
		testCases = append(testCases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID rows: %w", err)
	}
	return testCases, nil
}

// UpdateTestCase is scoped by problem so a caller cannot rewrite another problem's case.
func (r *pgProblemRepository) UpdateTestCase(ctx context.Context, tx *sql.Tx, problemID int64, tc *model.TestCase) error {
	query := `UPDATE test_cases
	          SET input = $1, expected_output = $2, comment = $3, score = $4, time_out_seconds = $5
	          WHERE id = $6 AND problem_id = $7`

	res, err := conn(r.db, tx).ExecContext(ctx, query, tc.Input, tc.ExpectedOutput, tc.Comment, tc.Score, tc.TimeOutSeconds, tc.ID, problemID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateTestCase: %w", err)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateTestCase: %w", err)
	}
	if !ok {
		return fmt.Errorf("test case %d does not belong to problem %d: %w", tc.ID, problemID, common.ErrBadRequest)
	}
	tc.ProblemID = problemID
	return nil
}

func (r *pgProblemRepository) DeleteTestCasesExcept(ctx context.Context, tx *sql.Tx, problemID int64, keep []int64) error {
	if keep == nil {
		keep = []int64{}
	}
	query := `DELETE FROM test_cases WHERE problem_id = $1 AND NOT (id = ANY($2))`

	if _, err := conn(r.db, tx).ExecContext(ctx, query, problemID, keep); err != nil {
		return fmt.Errorf("pgProblemRepository.DeleteTestCasesExcept: %w", err)
	}
	return nil
}
