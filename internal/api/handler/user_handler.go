package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"online_judge/internal/api/middleware"
	"online_judge/internal/app/service"
	"online_judge/internal/common"
	"online_judge/internal/common/security"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps lax|strict|none; anything else is lax.
func ParseSameSite(v string) http.SameSite {
	switch v {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

type UserHandler struct {
	authService *service.AuthService
	userService *service.UserService
	tokens      *security.SessionTokens
	cookie      CookieConfig
	log         zerolog.Logger
}

func NewUserHandler(auth *service.AuthService, users *service.UserService, tokens *security.SessionTokens, cookie CookieConfig, log zerolog.Logger) *UserHandler {
	return &UserHandler{authService: auth, userService: users, tokens: tokens, cookie: cookie, log: log}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/check", h.check)
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	id, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]int64{"userId": id})
}

func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	sessionID, _, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	// The new session replaces whatever the browser had.
	h.authService.Logout(r.Context(), middleware.SessionIDFromContext(r.Context()))
	token, err := h.tokens.Issue(sessionID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to sign session token")
		common.RespondWithDomainError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, h.tokens.TTL()))
	respondOK(w, true)
}

func (h *UserHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(r.Context(), middleware.SessionIDFromContext(r.Context()))
	http.SetCookie(w, h.sessionCookie("", -1))
	respondOK(w, true)
}

func (h *UserHandler) check(w http.ResponseWriter, r *http.Request) {
	resp, err := h.authService.Check(r.Context(),
		middleware.SessionIDFromContext(r.Context()),
		middleware.PrincipalFromContext(r.Context()),
	)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	counts, err := h.userService.ListWithSolvedCounts(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.DataResponse{Data: counts})
}

// sessionCookie expires the cookie when ttl is negative.
func (h *UserHandler) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	}
	if ttl < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		return c
	}
	c.MaxAge = int(ttl.Seconds())
	return c
}
