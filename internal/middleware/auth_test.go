package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asanalab/flowbuilder/internal/auth"
	"github.com/asanalab/flowbuilder/internal/models"
)

type fakeSessions map[string]string

// Get mirrors the session store: an unknown ID is an empty user, not
// an error.
func (f fakeSessions) Get(_ context.Context, sessionID string) (string, error) {
	return f[sessionID], nil
}

type fakeLoader map[string]*models.User

func (f fakeLoader) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthMissingCookie(t *testing.T) {
	var called bool
	h := RequireAuth(fakeSessions{})(okHandler(&called))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/poses", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestRequireAuthExpiredSession(t *testing.T) {
	var called bool
	h := RequireAuth(fakeSessions{})(okHandler(&called))

	r := httptest.NewRequest(http.MethodGet, "/api/poses", nil)
	r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "stale-sid"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestRequireAuthInjectsUserID(t *testing.T) {
	var gotUser string
	h := RequireAuth(fakeSessions{"sid-1": "u1"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser = UserID(r)
		}))

	r := httptest.NewRequest(http.MethodGet, "/api/poses", nil)
	r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "sid-1"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", gotUser)
}

func adminRequest(userID string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	if userID == "" {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), "user_id", userID))
}

func TestRequireAdmin(t *testing.T) {
	users := fakeLoader{
		"admin":   {ID: "admin", IsAdmin: true},
		"teacher": {ID: "teacher"},
	}

	cases := []struct {
		name   string
		userID string
		want   int
	}{
		{"admin passes", "admin", http.StatusOK},
		{"non-admin refused", "teacher", http.StatusForbidden},
		{"unknown user refused", "ghost", http.StatusForbidden},
		{"unauthenticated", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			h := RequireAdmin(users)(okHandler(&called))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, adminRequest(tc.userID))

			assert.Equal(t, tc.want, w.Code)
			assert.Equal(t, tc.want == http.StatusOK, called)
		})
	}
}
