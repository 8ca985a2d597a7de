package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"online_judge/internal/app/service"
	"online_judge/internal/common"
	"online_judge/internal/domain/model"
)

// JudgeHandler receives verdicts from judges that report over HTTP instead of the result queue.
type JudgeHandler struct {
	resultService *service.ResultService
}

func NewJudgeHandler(rs *service.ResultService) *JudgeHandler {
	return &JudgeHandler{resultService: rs}
}

func (h *JudgeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/results", h.recordResult)
}

func (h *JudgeHandler) recordResult(w http.ResponseWriter, r *http.Request) {
	var result model.JudgeResult
	if err := decodeJSON(r, &result); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if err := h.resultService.RecordResult(r.Context(), result); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	respondOK(w, true)
}
