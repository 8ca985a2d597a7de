package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"online_judge/internal/api/handler"
	"online_judge/internal/api/middleware"
	"online_judge/internal/app/service"
	"online_judge/internal/common/security"
	"online_judge/internal/domain/model"
	"online_judge/internal/platform/metrics"
	"online_judge/internal/testutil"
)

const judgeToken = "judge-secret"

type harness struct {
	t        *testing.T
	srv      *httptest.Server
	db       *testutil.MemDB
	sessions *testutil.SessionStore
	pusher   *testutil.Pusher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewMemDB()
	tx := &testutil.Transactor{}
	sessions := testutil.NewSessionStore()
	pusher := &testutil.Pusher{Fail: map[string]bool{}}
	validate := service.NewValidator()
	log := zerolog.Nop()
	reg := prometheus.NewRegistry()

	router := NewRouter(Deps{
		Auth:        service.NewAuthService(tx, db.Users(), sessions, security.NewPasswordHasher(bcrypt.MinCost), validate, log),
		Users:       service.NewUserService(tx, db.Users()),
		Problems:    service.NewProblemService(tx, db.Problems(), validate, log),
		Submissions: service.NewSubmissionService(tx, db.Submissions()),
		Dispatcher:  service.NewDispatcher(tx, db.Submissions(), db.Problems(), pusher, validate, log),
		Results:     service.NewResultService(tx, db.Submissions(), log),
		Tokens:      security.NewSessionTokens([]byte("test-secret"), time.Hour),
		Sessions:    sessions,
		Cookie:      handler.CookieConfig{Name: "login_data", SameSite: http.SameSiteLaxMode},
		JudgeToken:  judgeToken,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		Log:         log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, db: db, sessions: sessions, pusher: pusher}
}

// client is one browser with its own cookie jar.
type client struct {
	h    *harness
	http *http.Client
}

func (h *harness) anonymous() *client {
	jar, err := cookiejar.New(nil)
	require.NoError(h.t, err)
	return &client{h: h, http: &http.Client{Jar: jar}}
}

// user registers username, sets its stored authority and logs in.
func (h *harness) user(username string, authority int) (*client, int64) {
	c := h.anonymous()
	status, body := c.do(http.MethodPost, "/users", map[string]string{
		"username": username, "password": "pw", "name": username, "email": username + "@example.com",
	})
	require.Equal(h.t, http.StatusCreated, status, body)
	var created struct {
		UserID int64 `json:"userId"`
	}
	require.NoError(h.t, json.Unmarshal([]byte(body), &created))
	if authority != model.DefaultAuthority {
		h.db.SetAuthority(created.UserID, authority)
	}
	c.login(username, "pw")
	return c, created.UserID
}

func (c *client) login(username, password string) {
	status, body := c.do(http.MethodPost, "/users/login", map[string]string{"username": username, "password": password})
	require.Equal(c.h.t, http.StatusOK, status, body)
}

func (c *client) do(method, path string, payload interface{}) (int, string) {
	return c.doWithHeader(method, path, payload, nil)
}

func (c *client) doWithHeader(method, path string, payload interface{}, header http.Header) (int, string) {
	c.h.t.Helper()
	var reader io.Reader
	switch p := payload.(type) {
	case nil:
	case string:
		reader = strings.NewReader(p)
	default:
		raw, err := json.Marshal(p)
		require.NoError(c.h.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.h.srv.URL+path, reader)
	require.NoError(c.h.t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := c.http.Do(req)
	require.NoError(c.h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.h.t, err)
	return resp.StatusCode, string(body)
}

func TestRootAndHealth(t *testing.T) {
	h := newHarness(t)
	c := h.anonymous()

	status, body := c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"ok":true}`, body)

	status, body = c.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "OK", body)
}

func TestElevatedRoutesFollowAuthority(t *testing.T) {
	h := newHarness(t)
	p := h.db.SeedProblem(t, "P", model.TestCase{Input: "1", TimeOutSeconds: 1})
	problemPath := fmt.Sprintf("/problems/%d", p.ID)
	body := map[string]interface{}{"title": "T", "description": "d", "testCases": []interface{}{}}

	routes := []struct {
		method, path string
		payload      interface{}
	}{
		{http.MethodPost, "/problems", body},
		{http.MethodGet, problemPath + "/all", nil},
		{http.MethodPut, problemPath, body},
		{http.MethodPost, "/submissions/restart", nil},
		{http.MethodDelete, problemPath, nil},
	}

	anon := h.anonymous()
	plain, _ := h.user("plain", 1)
	for _, rt := range routes {
		status, _ := anon.do(rt.method, rt.path, rt.payload)
		require.Equal(t, http.StatusUnauthorized, status, "anonymous %s %s", rt.method, rt.path)
		status, _ = plain.do(rt.method, rt.path, rt.payload)
		require.Equal(t, http.StatusUnauthorized, status, "authority 1 %s %s", rt.method, rt.path)
	}

	admin, _ := h.user("admin", 2)
	for _, rt := range routes {
		status, resp := admin.do(rt.method, rt.path, rt.payload)
		require.Less(t, status, 300, "authority 2 %s %s: %s", rt.method, rt.path, resp)
	}
}

func TestProblemEndpoints(t *testing.T) {
	h := newHarness(t)
	admin, _ := h.user("admin", 2)

	status, body := admin.do(http.MethodPost, "/problems", map[string]interface{}{
		"title": "Hello World", "description": "print it",
		"testCases": []map[string]interface{}{{"input": "", "expectedOutput": "hello", "comment": "c", "score": 100, "timeOutSeconds": 1}},
	})
	require.Equal(t, http.StatusCreated, status, body)
	var created struct {
		ProblemID int64 `json:"problemId"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))

	anon := h.anonymous()
	status, body = anon.do(http.MethodGet, fmt.Sprintf("/problems/%d", created.ProblemID), nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, fmt.Sprintf(`{"data":{"id":%d,"title":"Hello World","slug":"hello-world","description":"print it"}}`, created.ProblemID), body)

	status, body = admin.do(http.MethodGet, fmt.Sprintf("/problems/%d/all", created.ProblemID), nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"expectedOutput":"hello"`)

	status, body = anon.do(http.MethodGet, "/problems", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, body, "isSubmitted")

	user, _ := h.user("solver", 1)
	status, body = user.do(http.MethodGet, "/problems", nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"isSubmitted":false`)
	require.Contains(t, body, `"isAccepted":false`)

	status, _ = anon.do(http.MethodGet, "/problems/abc", nil)
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = anon.do(http.MethodGet, "/problems/9999", nil)
	require.Equal(t, http.StatusNotFound, status)
	status, _ = admin.do(http.MethodPut, "/problems/abc", map[string]string{"title": "x"})
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = admin.do(http.MethodPost, "/problems", "{not json")
	require.Equal(t, http.StatusBadRequest, status)
	status, body = admin.do(http.MethodPost, "/problems", map[string]string{"description": "no title"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body, "title")
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	h := newHarness(t)
	h.user("dup", 1)

	status, _ := h.anonymous().do(http.MethodPost, "/users", map[string]string{
		"username": "dup", "password": "pw", "name": "n", "email": "d@example.com",
	})
	require.Equal(t, http.StatusConflict, status)
}

func TestLoginWithWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.user("alice", 1)

	status, body := h.anonymous().do(http.MethodPost, "/users/login", map[string]string{"username": "alice", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.JSONEq(t, `{"error":"unauthorized access"}`, body)
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	h := newHarness(t)
	c, id := h.user("alice", 1)

	status, _ := c.do(http.MethodPost, "/users/login", map[string]string{"username": "alice", "password": "typo"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, 1, h.sessions.Len())

	status, body := c.do(http.MethodGet, "/users/check", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, fmt.Sprintf(`{"userId":%d,"name":"alice","authority":1}`, id), body)
}

func TestSecondLoginReplacesSession(t *testing.T) {
	h := newHarness(t)
	c, _ := h.user("alice", 1)

	c.login("alice", "pw")
	require.Equal(t, 1, h.sessions.Len())
}

func TestLogoutTwiceIsHarmless(t *testing.T) {
	h := newHarness(t)
	c, _ := h.user("alice", 1)
	require.Equal(t, 1, h.sessions.Len())

	for i := 0; i < 2; i++ {
		status, body := c.do(http.MethodPost, "/users/logout", nil)
		require.Equal(t, http.StatusOK, status)
		require.JSONEq(t, `{"ok":true}`, body)
		require.Zero(t, h.sessions.Len())

		status, body = c.do(http.MethodGet, "/users/check", nil)
		require.Equal(t, http.StatusOK, status)
		require.JSONEq(t, `{"userId":null}`, body)
	}
}

func TestCheckRefreshesAuthority(t *testing.T) {
	h := newHarness(t)
	c, id := h.user("alice", 1)

	status, _ := c.do(http.MethodPost, "/submissions/restart", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	h.db.SetAuthority(id, 2)
	status, body := c.do(http.MethodGet, "/users/check", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, fmt.Sprintf(`{"userId":%d,"name":"alice","authority":2}`, id), body)

	status, _ = c.do(http.MethodPost, "/submissions/restart", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	h := newHarness(t)
	h.user("alice", 1)

	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/users/check", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "login_data", Value: "not-a-token"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"userId":null}`, string(body))
}

func TestSubmitAndRestartKeepSentinel(t *testing.T) {
	h := newHarness(t)
	p := h.db.SeedProblem(t, "P", model.TestCase{Input: "1", ExpectedOutput: "1", Score: 100, TimeOutSeconds: 1})
	c, _ := h.user("alice", 1)

	status, body := h.anonymous().do(http.MethodPost, "/submissions", map[string]interface{}{"language": "c", "code": "x", "problemId": p.ID})
	require.Equal(t, http.StatusUnauthorized, status)

	status, body = c.do(http.MethodPost, "/submissions", map[string]interface{}{"language": "python3", "code": "print(1)", "problemId": p.ID})
	require.Equal(t, http.StatusCreated, status, body)
	var created struct {
		SubmissionID int64 `json:"submissionId"`
		OK           bool  `json:"ok"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	require.True(t, created.OK)

	status, body = c.do(http.MethodPost, fmt.Sprintf("/submissions/%d/restart", created.SubmissionID), nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"ok":true}`, body)
	require.Len(t, h.pusher.Recorded(), 2)

	status, body = c.do(http.MethodGet, fmt.Sprintf("/submissions/%d", created.SubmissionID), nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Data model.Submission `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Equal(t, model.ResultPending, got.Data.Result)
	require.Equal(t, model.UnjudgedExecutedTime, got.Data.ExecutedTime)
	require.Equal(t, "print(1)", got.Data.Code)
}

func TestSubmitReportsQueueFailureAsFlag(t *testing.T) {
	h := newHarness(t)
	p := h.db.SeedProblem(t, "P")
	c, _ := h.user("alice", 1)
	h.pusher.Fail["rust"] = true

	status, body := c.do(http.MethodPost, "/submissions", map[string]interface{}{"language": "rust", "code": "fn main(){}", "problemId": p.ID})
	require.Equal(t, http.StatusCreated, status)
	require.Contains(t, body, `"ok":false`)

	status, body = c.do(http.MethodGet, "/submissions", nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"result":"-"`)
	require.Contains(t, body, `"isRefreshable":true`)
}

func TestSubmissionOwnershipIsIndistinguishable(t *testing.T) {
	h := newHarness(t)
	p := h.db.SeedProblem(t, "P")
	a, _ := h.user("alice", 1)
	_, bID := h.user("bob", 1)
	bSub := h.db.SeedSubmission(t, bID, p.ID, "c", model.ResultPending)

	for _, suffix := range []string{"", "/restart"} {
		method := http.MethodGet
		if suffix != "" {
			method = http.MethodPost
		}
		notMineStatus, notMineBody := a.do(method, fmt.Sprintf("/submissions/%d%s", bSub.ID, suffix), nil)
		missingStatus, missingBody := a.do(method, fmt.Sprintf("/submissions/%d%s", 987654, suffix), nil)
		anonStatus, anonBody := h.anonymous().do(method, fmt.Sprintf("/submissions/%d%s", bSub.ID, suffix), nil)

		require.Equal(t, http.StatusUnauthorized, notMineStatus)
		require.Equal(t, notMineStatus, missingStatus)
		require.Equal(t, notMineStatus, anonStatus)
		require.Equal(t, notMineBody, missingBody)
		require.Equal(t, notMineBody, anonBody)
	}
	require.Empty(t, h.pusher.Recorded())
}

func TestSubmissionIDMustBeNumeric(t *testing.T) {
	h := newHarness(t)
	c, _ := h.user("alice", 1)

	status, _ := c.do(http.MethodGet, "/submissions/abc", nil)
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = c.do(http.MethodPost, "/submissions/-3/restart", nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestIDsBeyond32BitsAreUnknownResources(t *testing.T) {
	h := newHarness(t)
	c, _ := h.user("alice", 1)
	const big = "2147483648"

	status, _ := c.do(http.MethodGet, "/problems/"+big, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, body := c.do(http.MethodGet, "/submissions/"+big, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.JSONEq(t, `{"error":"unauthorized access"}`, body)

	status, _ = c.do(http.MethodPost, "/submissions", `{"language":"c","code":"x","problemId":`+big+`}`)
	require.Equal(t, http.StatusNotFound, status)
	require.Empty(t, h.pusher.Recorded())

	status, _ = c.do(http.MethodGet, "/problems/9223372036854775808", nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestUsersListedWithSolvedCounts(t *testing.T) {
	h := newHarness(t)
	p := h.db.SeedProblem(t, "P")
	_, x := h.user("userX", 1)
	_, y := h.user("userY", 1)
	h.db.SeedSubmission(t, x, p.ID, "c", "Accepted")
	h.db.SeedSubmission(t, x, p.ID, "c", "Wrong Answer")
	h.db.SeedSubmission(t, y, p.ID, "c", "Accepted")

	status, body := h.anonymous().do(http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, fmt.Sprintf(`{"data":[
		{"id":%d,"name":"userX","solvedProblemCount":1},
		{"id":%d,"name":"userY","solvedProblemCount":1}
	]}`, x, y), body)
}

func TestJudgeResultsRequireToken(t *testing.T) {
	h := newHarness(t)
	p := h.db.SeedProblem(t, "P")
	u := h.db.SeedUser(t, "u", 1)
	sub := h.db.SeedSubmission(t, u.ID, p.ID, "c", model.ResultPending)
	c := h.anonymous()
	payload := map[string]interface{}{"id": sub.ID, "result": "Accepted", "executedTime": 0.2}

	status, _ := c.do(http.MethodPost, "/judge/results", payload)
	require.Equal(t, http.StatusUnauthorized, status)
	status, _ = c.doWithHeader(http.MethodPost, "/judge/results", payload, http.Header{middleware.JudgeTokenHeader: {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, status)

	good := http.Header{middleware.JudgeTokenHeader: {judgeToken}}
	status, _ = c.doWithHeader(http.MethodPost, "/judge/results", map[string]interface{}{"id": sub.ID, "result": "-"}, good)
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = c.doWithHeader(http.MethodPost, "/judge/results", map[string]interface{}{"id": 424242, "result": "Accepted"}, good)
	require.Equal(t, http.StatusNotFound, status)

	status, body := c.doWithHeader(http.MethodPost, "/judge/results", payload, good)
	require.Equal(t, http.StatusOK, status, body)
	stored, _ := h.db.Submission(sub.ID)
	require.Equal(t, "Accepted", stored.Result)
}

func TestMetricsEndpointCountsRoutes(t *testing.T) {
	h := newHarness(t)
	c := h.anonymous()
	c.do(http.MethodGet, "/problems/abc", nil)

	status, body := c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `http_requests_total{method="GET",route="/problems/{id}",status="400"} 1`)
}
