package service

import (
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"online_judge/internal/common/security"
	"online_judge/internal/testutil"
)

type fixture struct {
	db       *testutil.MemDB
	tx       *testutil.Transactor
	sessions *testutil.SessionStore
	pusher   *testutil.Pusher

	auth        *AuthService
	users       *UserService
	problems    *ProblemService
	submissions *SubmissionService
	dispatcher  *Dispatcher
	results     *ResultService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:       testutil.NewMemDB(),
		tx:       &testutil.Transactor{},
		sessions: testutil.NewSessionStore(),
		pusher:   &testutil.Pusher{Fail: map[string]bool{}},
	}
	validate := NewValidator()
	log := zerolog.Nop()

	f.auth = NewAuthService(f.tx, f.db.Users(), f.sessions, security.NewPasswordHasher(bcrypt.MinCost), validate, log)
	f.users = NewUserService(f.tx, f.db.Users())
	f.problems = NewProblemService(f.tx, f.db.Problems(), validate, log)
	f.submissions = NewSubmissionService(f.tx, f.db.Submissions())
	f.dispatcher = NewDispatcher(f.tx, f.db.Submissions(), f.db.Problems(), f.pusher, validate, log)
	f.results = NewResultService(f.tx, f.db.Submissions(), log)
	return f
}
