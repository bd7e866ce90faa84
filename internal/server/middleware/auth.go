package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/garagedesk/internal/auth"
)

const unauthorizedDetail = "Session expired. Please sign in again."

// Auth requires a valid bearer session token and stores its user ID in the
// request context.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				writeProblem(w, http.StatusUnauthorized, unauthorizedDetail)
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, tok)
			if err != nil {
				log.Debug().Err(err).Msg("middleware.Auth: rejected token")
				writeProblem(w, http.StatusUnauthorized, unauthorizedDetail)
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil || userID == uuid.Nil {
				writeProblem(w, http.StatusUnauthorized, unauthorizedDetail)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
