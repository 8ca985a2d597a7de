package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"online_judge/internal/common"
	"online_judge/internal/domain/model"
)

func register(t *testing.T, f *fixture, username string) int64 {
	t.Helper()
	id, err := f.auth.Register(testContext(t), RegisterRequest{
		Username: username,
		Password: "s3cret",
		Name:     "Name " + username,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return id
}

func TestRegisterAssignsDefaultAuthorityAndHashes(t *testing.T) {
	f := newFixture(t)
	id := register(t, f, "alice")

	u, err := f.db.Users().FindByID(testContext(t), nil, id)
	require.NoError(t, err)
	require.Equal(t, model.DefaultAuthority, u.Authority)
	require.NotEqual(t, "s3cret", u.PasswordHash)
	require.NotEmpty(t, u.PasswordHash)
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")

	_, err := f.auth.Register(testContext(t), RegisterRequest{Username: "alice", Password: "x", Name: "A", Email: "a@example.com"})
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(testContext(t), RegisterRequest{Username: "bob", Password: "x", Name: "Bob", Email: "not-an-email"})
	require.ErrorIs(t, err, common.ErrValidation)
	require.Contains(t, err.Error(), "email")

	_, err = f.auth.Register(testContext(t), RegisterRequest{Username: "", Password: "x", Name: "Bob", Email: "b@example.com"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestLoginOpensSession(t *testing.T) {
	f := newFixture(t)
	id := register(t, f, "alice")

	sid, p, err := f.auth.Login(testContext(t), LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	require.Equal(t, model.Principal{UserID: id, Authority: 1}, p)

	stored, err := f.sessions.Get(testContext(t), sid)
	require.NoError(t, err)
	require.Equal(t, p, *stored)
}

func TestLoginFailuresAreUnauthorized(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")

	_, _, err := f.auth.Login(testContext(t), LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, common.ErrUnauthorized)

	_, _, err = f.auth.Login(testContext(t), LoginRequest{Username: "nobody", Password: "s3cret"})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	require.NotErrorIs(t, err, common.ErrNotFound)

	require.Zero(t, f.sessions.Len())
}

func TestLogoutTwiceIsHarmless(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")
	sid, _, err := f.auth.Login(testContext(t), LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	f.auth.Logout(testContext(t), sid)
	require.Zero(t, f.sessions.Len())
	f.auth.Logout(testContext(t), sid)
	require.Zero(t, f.sessions.Len())
	f.auth.Logout(testContext(t), "")
}

func TestCheckRefreshesAuthorityFromStore(t *testing.T) {
	f := newFixture(t)
	id := register(t, f, "alice")
	sid, p, err := f.auth.Login(testContext(t), LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	f.db.SetAuthority(id, 2)

	resp, err := f.auth.Check(testContext(t), sid, &p)
	require.NoError(t, err)
	require.Equal(t, id, *resp.UserID)
	require.Equal(t, "Name alice", resp.Name)
	require.Equal(t, 2, resp.Authority)

	stored, err := f.sessions.Get(testContext(t), sid)
	require.NoError(t, err)
	require.True(t, stored.IsElevated())
}

func TestCheckWithoutSession(t *testing.T) {
	f := newFixture(t)

	resp, err := f.auth.Check(testContext(t), "", nil)
	require.NoError(t, err)
	require.Nil(t, resp.UserID)
}

func TestCheckDropsSessionOfDeletedUser(t *testing.T) {
	f := newFixture(t)
	id := register(t, f, "ghost")
	sid, p, err := f.auth.Login(testContext(t), LoginRequest{Username: "ghost", Password: "s3cret"})
	require.NoError(t, err)

	f.db.DeleteUser(id)

	resp, err := f.auth.Check(testContext(t), sid, &p)
	require.NoError(t, err)
	require.Nil(t, resp.UserID)
	require.Zero(t, f.sessions.Len())
}

func TestCheckSurfacesStoreFailure(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")
	sid, p, err := f.auth.Login(testContext(t), LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	f.sessions.Broken = true
	_, err = f.auth.Check(testContext(t), sid, &p)
	require.Error(t, err)
	require.NotErrorIs(t, err, common.ErrUnauthorized)
}
