package security

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const sessionIDClaim = "sid"

// SessionTokens signs the cookie value. The token only names a server-held session;
// identity and authority never leave the server.
type SessionTokens struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewSessionTokens(secret []byte, ttl time.Duration) *SessionTokens {
	return &SessionTokens{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
	}
}

func (s *SessionTokens) Auth() *jwtauth.JWTAuth {
	return s.auth
}

func (s *SessionTokens) TTL() time.Duration {
	return s.ttl
}

func (s *SessionTokens) Issue(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		sessionIDClaim: sessionID,
		"exp":          time.Now().Add(s.ttl).Unix(),
		"iat":          time.Now().Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	return tokenString, err
}

// TokenFromCookie returns a jwtauth token finder for the named cookie.
func TokenFromCookie(name string) func(r *http.Request) string {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

func GetSessionIDFromClaims(claims jwt.MapClaims) (string, error) {
	sid, ok := claims[sessionIDClaim].(string)
	if !ok || sid == "" {
		return "", errors.New("sid claim is missing or not a string")
	}
	return sid, nil
}
