package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"online_judge/internal/api/handler"
	"online_judge/internal/api/middleware"
	"online_judge/internal/app/service"
	"online_judge/internal/common"
	"online_judge/internal/common/security"
	"online_judge/internal/platform/metrics"
	"online_judge/internal/platform/session"
)

// Deps is everything the HTTP layer needs; main builds it once.
type Deps struct {
	Auth        *service.AuthService
	Users       *service.UserService
	Problems    *service.ProblemService
	Submissions *service.SubmissionService
	Dispatcher  *service.Dispatcher
	Results     *service.ResultService

	Tokens   *security.SessionTokens
	Sessions session.Store
	Cookie   handler.CookieConfig

	// JudgeToken guards POST /judge/results; empty leaves the route unmounted.
	JudgeToken string

	// RequestTimeout cancels each request's context; zero means 60s.
	RequestTimeout time.Duration

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      zerolog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	requestTimeout := d.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	if d.Metrics != nil {
		r.Use(middleware.CountRequests(d.Metrics))
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))
	r.Use(middleware.LoadSession(d.Tokens, d.Sessions, d.Cookie.Name, d.Log))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, common.OKResponse{OK: true})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	problemHandler := handler.NewProblemHandler(d.Problems)
	r.Route("/problems", problemHandler.RegisterRoutes)

	userHandler := handler.NewUserHandler(d.Auth, d.Users, d.Tokens, d.Cookie, d.Log)
	r.Route("/users", userHandler.RegisterRoutes)

	submissionHandler := handler.NewSubmissionHandler(d.Submissions, d.Dispatcher)
	r.Route("/submissions", submissionHandler.RegisterRoutes)

	if d.JudgeToken != "" {
		judgeHandler := handler.NewJudgeHandler(d.Results)
		r.Route("/judge", func(jr chi.Router) {
			jr.Use(middleware.RequireJudgeToken(d.JudgeToken))
			judgeHandler.RegisterRoutes(jr)
		})
	}

	return r
}
