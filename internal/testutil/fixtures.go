package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"online_judge/internal/domain/model"
)

// SeedUser stores a user with a placeholder hash.
func (m *MemDB) SeedUser(t *testing.T, username string, authority int) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "unused", Name: username, Email: username + "@example.com", Authority: authority}
	require.NoError(t, m.Users().Create(context.Background(), nil, u))
	return u
}

// SeedProblem stores a problem with the given test cases.
func (m *MemDB) SeedProblem(t *testing.T, title string, cases ...model.TestCase) *model.Problem {
	t.Helper()
	p := &model.Problem{Title: title, Slug: title, Description: title + " description"}
	require.NoError(t, m.Problems().CreateProblem(context.Background(), nil, p))
	require.NoError(t, m.Problems().AddTestCases(context.Background(), nil, p.ID, cases))
	p.TestCases = cases
	return p
}

// SeedSubmission stores a submission and, unless result is pending, a verdict for it.
func (m *MemDB) SeedSubmission(t *testing.T, userID, problemID int64, language, result string) *model.Submission {
	t.Helper()
	s := &model.Submission{Language: language, Code: "code", ProblemID: problemID, UserID: userID}
	require.NoError(t, m.Submissions().Create(context.Background(), nil, s))
	if result != model.ResultPending {
		require.NoError(t, m.Submissions().UpdateResult(context.Background(), nil, s.ID, result, 0.5))
		s.Result = result
		s.ExecutedTime = 0.5
	}
	return s
}
