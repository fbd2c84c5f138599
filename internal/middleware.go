package internal

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/johndosdos/chatter-client/internal/auth"
)

// Middleware validates the session JWT carried in cookieName. Valid
// requests continue with the user ID in their context; everything else
// is answered with 401.
func Middleware(cookieName, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				unauthorized(w)
				return
			}

			claims, err := auth.ValidateJWT(cookie.Value, secret)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejecting session")
				unauthorized(w)
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				unauthorized(w)
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, userID))
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"success": false,
		"message": "Unauthorized",
	})
}
