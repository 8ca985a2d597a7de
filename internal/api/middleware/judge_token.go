package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"online_judge/internal/common"
)

const JudgeTokenHeader = "X-Judge-Token"

// RequireJudgeToken admits only callers presenting the shared judge secret.
func RequireJudgeToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(JudgeTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				common.RespondWithDomainError(w, fmt.Errorf("bad judge token: %w", common.ErrUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
