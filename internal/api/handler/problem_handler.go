package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"online_judge/internal/api/middleware"
	"online_judge/internal/app/service"
	"online_judge/internal/common"
	"online_judge/internal/domain/model"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)
	r.Get("/{id}", h.getProblem)

	r.Group(func(elevated chi.Router) {
		elevated.Use(middleware.RequireCapability(model.CapabilityElevated))
		elevated.Post("/", h.createProblem)
		elevated.Get("/{id}/all", h.getProblemWithTestCases)
		elevated.Put("/{id}", h.replaceProblem)
		elevated.Delete("/{id}", h.deleteProblem)
	})
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	items, err := h.problemService.List(r.Context(), middleware.PrincipalFromContext(r.Context()))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.DataResponse{Data: items})
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	problem, err := h.problemService.GetSummary(r.Context(), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.DataResponse{Data: problem})
}

func (h *ProblemHandler) getProblemWithTestCases(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	problem, err := h.problemService.GetFull(r.Context(), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	// Always send the list, even when empty.
	type fullProblem struct {
		*model.Problem
		TestCases []model.TestCase `json:"testCases"`
	}
	common.RespondWithJSON(w, http.StatusOK, common.DataResponse{Data: fullProblem{Problem: problem, TestCases: problem.TestCases}})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var req service.ProblemRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	id, err := h.problemService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]int64{"problemId": id})
}

func (h *ProblemHandler) replaceProblem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	var req service.ProblemRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if err := h.problemService.Replace(r.Context(), id, req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	respondOK(w, true)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if err := h.problemService.Delete(r.Context(), id); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	respondOK(w, true)
}
