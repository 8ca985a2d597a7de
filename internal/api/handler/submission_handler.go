package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"online_judge/internal/api/middleware"
	"online_judge/internal/app/service"
	"online_judge/internal/common"
	"online_judge/internal/domain/model"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
	dispatcher        *service.Dispatcher
}

func NewSubmissionHandler(ss *service.SubmissionService, d *service.Dispatcher) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss, dispatcher: d}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listSubmissions)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireCapability(model.CapabilityAuthenticated))
		authed.Post("/", h.submit)
		authed.Get("/{id}", h.getSubmission)
		authed.Post("/{id}/restart", h.restartOne)
	})

	r.Group(func(elevated chi.Router) {
		elevated.Use(middleware.RequireCapability(model.CapabilityElevated))
		elevated.Post("/restart", h.restartAll)
	})
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	page, err := h.submissionService.List(r.Context(), middleware.PrincipalFromContext(r.Context()))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		common.RespondWithDomainError(w, fmt.Errorf("no session: %w", common.ErrUnauthorized))
		return
	}
	var req service.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	res, err := h.dispatcher.SubmitNew(r.Context(), *principal, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, res)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	sub, err := h.submissionService.Get(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.DataResponse{Data: sub})
}

func (h *SubmissionHandler) restartOne(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	ok, err := h.dispatcher.RestartOne(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	respondOK(w, ok)
}

func (h *SubmissionHandler) restartAll(w http.ResponseWriter, r *http.Request) {
	ok, err := h.dispatcher.RestartAllUnjudged(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	respondOK(w, ok)
}
