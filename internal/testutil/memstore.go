// Package testutil holds in-memory stand-ins for the Postgres repositories,
// the transactor and the judge queue, shared by service and handler tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"online_judge/internal/common"
	"online_judge/internal/domain/model"
	"online_judge/internal/domain/repository"
)

// MemDB keeps the rows of every table and enforces the same keys the schema does.
type MemDB struct {
	mu          sync.Mutex
	problems    map[int64]model.Problem
	testCases   map[int64]model.TestCase
	users       map[int64]model.User
	submissions map[int64]model.Submission
	seq         int64
}

func NewMemDB() *MemDB {
	return &MemDB{
		problems:    map[int64]model.Problem{},
		testCases:   map[int64]model.TestCase{},
		users:       map[int64]model.User{},
		submissions: map[int64]model.Submission{},
	}
}

func (m *MemDB) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *MemDB) Problems() repository.ProblemRepository       { return memProblems{m} }
func (m *MemDB) Users() repository.UserRepository             { return memUsers{m} }
func (m *MemDB) Submissions() repository.SubmissionRepository { return memSubmissions{m} }

// TestCaseCount counts test cases that reference problemID.
func (m *MemDB) TestCaseCount(problemID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tc := range m.testCases {
		if tc.ProblemID == problemID {
			n++
		}
	}
	return n
}

// Submission returns the stored row, bypassing repository error wrapping.
func (m *MemDB) Submission(id int64) (model.Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	return s, ok
}

type memProblems struct{ m *MemDB }

func (r memProblems) CreateProblem(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p.ID = r.m.nextID()
	r.m.problems[p.ID] = p.Summary()
	return nil
}

func (r memProblems) UpdateProblem(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.problems[p.ID]; !ok {
		return fmt.Errorf("problem %d: %w", p.ID, common.ErrNotFound)
	}
	r.m.problems[p.ID] = p.Summary()
	return nil
}

func (r memProblems) DeleteProblem(_ context.Context, _ *sql.Tx, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.problems[id]; !ok {
		return fmt.Errorf("problem %d: %w", id, common.ErrNotFound)
	}
	for _, s := range r.m.submissions {
		if s.ProblemID == id {
			return fmt.Errorf("problem %d still has submissions: %w", id, common.ErrConflict)
		}
	}
	for tcID, tc := range r.m.testCases {
		if tc.ProblemID == id {
			delete(r.m.testCases, tcID)
		}
	}
	delete(r.m.problems, id)
	return nil
}

func (r memProblems) FindProblemByID(_ context.Context, _ *sql.Tx, id int64) (*model.Problem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.problems[id]
	if !ok {
		return nil, fmt.Errorf("problem %d: %w", id, common.ErrNotFound)
	}
	return &p, nil
}

func (r memProblems) ListProblems(_ context.Context, _ *sql.Tx, userID *int64) ([]model.ProblemListItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	items := []model.ProblemListItem{}
	for _, p := range r.m.problems {
		item := model.ProblemListItem{ID: p.ID, Title: p.Title, Slug: p.Slug}
		if userID != nil {
			var submitted, accepted bool
			for _, s := range r.m.submissions {
				if s.ProblemID != p.ID || s.UserID != *userID {
					continue
				}
				submitted = true
				if model.IsAcceptedResult(s.Result) {
					accepted = true
				}
			}
			item.IsSubmitted = &submitted
			item.IsAccepted = &accepted
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r memProblems) AddTestCases(_ context.Context, _ *sql.Tx, problemID int64, testCases []model.TestCase) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.problems[problemID]; !ok {
		return fmt.Errorf("problem %d: %w", problemID, common.ErrNotFound)
	}
	for i := range testCases {
		testCases[i].ID = r.m.nextID()
		testCases[i].ProblemID = problemID
		r.m.testCases[testCases[i].ID] = testCases[i]
	}
	return nil
}

func (r memProblems) GetTestCasesByProblemID(_ context.Context, _ *sql.Tx, problemID int64) ([]model.TestCase, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []model.TestCase{}
	for _, tc := range r.m.testCases {
		if tc.ProblemID == problemID {
			out = append(out, tc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProblems) UpdateTestCase(_ context.Context, _ *sql.Tx, problemID int64, tc *model.TestCase) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.testCases[tc.ID]
	if !ok || existing.ProblemID != problemID {
		return fmt.Errorf("test case %d does not belong to problem %d: %w", tc.ID, problemID, common.ErrBadRequest)
	}
	tc.ProblemID = problemID
	r.m.testCases[tc.ID] = *tc
	return nil
}

func (r memProblems) DeleteTestCasesExcept(_ context.Context, _ *sql.Tx, problemID int64, keep []int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	kept := make(map[int64]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}
	for id, tc := range r.m.testCases {
		if tc.ProblemID == problemID && !kept[id] {
			delete(r.m.testCases, id)
		}
	}
	return nil
}

type memUsers struct{ m *MemDB }

func (r memUsers) Create(_ context.Context, _ *sql.Tx, u *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Username == u.Username {
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
	}
	u.ID = r.m.nextID()
	r.m.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByUsername(_ context.Context, _ *sql.Tx, username string) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, common.ErrNotFound)
}

func (r memUsers) FindByID(_ context.Context, _ *sql.Tx, id int64) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, common.ErrNotFound)
	}
	return &u, nil
}

func (r memUsers) ListWithSolvedCounts(_ context.Context, _ *sql.Tx) ([]model.UserSolvedCount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	solved := map[int64]map[int64]bool{}
	for _, s := range r.m.submissions {
		if !model.IsAcceptedResult(s.Result) {
			continue
		}
		if solved[s.UserID] == nil {
			solved[s.UserID] = map[int64]bool{}
		}
		solved[s.UserID][s.ProblemID] = true
	}

	out := []model.UserSolvedCount{}
	for _, u := range r.m.users {
		out = append(out, model.UserSolvedCount{ID: u.ID, Name: u.Name, SolvedProblemCount: len(solved[u.ID])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SolvedProblemCount != out[j].SolvedProblemCount {
			return out[i].SolvedProblemCount > out[j].SolvedProblemCount
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SetAuthority mimics the out-of-band admin change to a user row.
func (m *MemDB) SetAuthority(userID int64, authority int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.Authority = authority
	m.users[userID] = u
}

// DeleteUser removes the row without touching its submissions.
func (m *MemDB) DeleteUser(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}

type memSubmissions struct{ m *MemDB }

func (r memSubmissions) Create(_ context.Context, _ *sql.Tx, s *model.Submission) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.problems[s.ProblemID]; !ok {
		return fmt.Errorf("problem %d: %w", s.ProblemID, common.ErrNotFound)
	}
	if _, ok := r.m.users[s.UserID]; !ok {
		return fmt.Errorf("user %d: %w", s.UserID, common.ErrNotFound)
	}
	s.ID = r.m.nextID()
	s.Result = model.ResultPending
	s.ExecutedTime = model.UnjudgedExecutedTime
	r.m.submissions[s.ID] = *s
	return nil
}

func (r memSubmissions) GetByID(_ context.Context, _ *sql.Tx, id int64) (*model.Submission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %d: %w", id, common.ErrNotFound)
	}
	return &s, nil
}

func (r memSubmissions) ListWithMeta(_ context.Context, _ *sql.Tx) ([]model.SubmissionListItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []model.SubmissionListItem{}
	for _, s := range r.m.submissions {
		out = append(out, model.SubmissionListItem{
			ID:           s.ID,
			UserID:       s.UserID,
			OwnerName:    r.m.users[s.UserID].Name,
			ProblemID:    s.ProblemID,
			ProblemTitle: r.m.problems[s.ProblemID].Title,
			Language:     s.Language,
			Result:       s.Result,
			ExecutedTime: s.ExecutedTime,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memSubmissions) ListUnjudged(_ context.Context, _ *sql.Tx) ([]model.Submission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []model.Submission{}
	for _, s := range r.m.submissions {
		if !s.IsJudged() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memSubmissions) UpdateResult(_ context.Context, _ *sql.Tx, id int64, result string, executedTime float64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.submissions[id]
	if !ok {
		return fmt.Errorf("submission %d: %w", id, common.ErrNotFound)
	}
	s.Result = result
	s.ExecutedTime = executedTime
	r.m.submissions[id] = s
	return nil
}
