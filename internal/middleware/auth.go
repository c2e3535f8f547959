package middleware

import (
	"context"
	"net/http"

	"github.com/asanalab/flowbuilder/internal/auth"
	"github.com/asanalab/flowbuilder/internal/models"
)

// Sessions resolves a session ID to a user ID.
type Sessions interface {
	Get(ctx context.Context, sessionID string) (string, error)
}

// UserLoader loads a user by ID, for admin checks.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth is middleware that validates the session cookie and
// injects the user_id into the request context. Banned users lose
// their sessions when the ban lands, so no extra check happens here.
func RequireAuth(sessions Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			userID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil || userID == "" {
				http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after RequireAuth. It loads the user and
// refuses anyone without the admin flag.
func RequireAdmin(users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := r.Context().Value("user_id").(string)
			if userID == "" {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil || user == nil || !user.IsAdmin {
				http.Error(w, `{"error":"admin only"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
