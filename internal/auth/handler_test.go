package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/asanalab/flowbuilder/internal/models"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Maya Levine":      "maya-levine",
		"yoga_with_ben":    "yoga-with-ben",
		"  Zoë!  ":         "zo",
		"already-slugged":  "already-slugged",
		"UPPER case 123":   "upper-case-123",
		"---":              "",
		"trailing punct!!": "trailing-punct",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

type fakeUsers struct {
	byEmail map[string]*models.User
	slugs   map[string]bool
	creates int
	failAll error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]*models.User), slugs: make(map[string]bool)}
}

func (f *fakeUsers) CreateUser(_ context.Context, username, email, hashedPw, shareSlug string) (*models.User, error) {
	f.creates++
	if f.failAll != nil {
		return nil, f.failAll
	}
	if _, exists := f.byEmail[email]; exists {
		return nil, fmt.Errorf("create user: %w",
			&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	}
	if f.slugs[shareSlug] {
		return nil, fmt.Errorf("create profile: %w",
			&pgconn.PgError{Code: "23505", ConstraintName: "profiles_share_slug_key"})
	}
	f.slugs[shareSlug] = true
	u := &models.User{ID: uuid.New().String(), Username: username, Email: email, Password: hashedPw}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

type fakeMailer struct{ welcomed []string }

func (m *fakeMailer) SendWelcome(email, _ string) { m.welcomed = append(m.welcomed, email) }

func register(t *testing.T, h *Handler, req models.RegisterRequest) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(b)))
	return w
}

func TestRegister(t *testing.T) {
	users := newFakeUsers()
	mail := &fakeMailer{}
	h := NewHandler(users, nil, mail)

	w := register(t, h, models.RegisterRequest{Username: "Maya Levine", Email: "maya@example.com", Password: "s3cret"})
	require.Equal(t, http.StatusCreated, w.Code)

	var u models.User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&u))
	assert.Equal(t, "Maya Levine", u.Username)
	assert.Empty(t, u.Password, "password hash must never serialize")
	assert.Equal(t, []string{"maya@example.com"}, mail.welcomed)

	// Password was stored hashed.
	stored := users.byEmail["maya@example.com"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret")))
	assert.True(t, users.slugs["maya-levine"])
}

func TestRegisterSlugConflictRetries(t *testing.T) {
	users := newFakeUsers()
	h := NewHandler(users, nil, nil)

	w := register(t, h, models.RegisterRequest{Username: "Maya L", Email: "one@example.com", Password: "x"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Same slug, different email: the handler retries with a suffix.
	w = register(t, h, models.RegisterRequest{Username: "maya l", Email: "two@example.com", Password: "x"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, users.byEmail, 2)

	// Same email outright conflicts, with no slug retry.
	creates := users.creates
	w = register(t, h, models.RegisterRequest{Username: "other", Email: "one@example.com", Password: "x"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, creates+1, users.creates, "email conflict must not trigger the slug retry")
}

func TestRegisterStoreFailureIsNotAConflict(t *testing.T) {
	users := newFakeUsers()
	users.failAll = errors.New("connection reset")
	h := NewHandler(users, nil, nil)

	w := register(t, h, models.RegisterRequest{Username: "Maya", Email: "maya@example.com", Password: "x"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, users.creates, "transient failures must not double the insert")
}

func TestRegisterMissingFields(t *testing.T) {
	h := NewHandler(newFakeUsers(), nil, nil)
	w := register(t, h, models.RegisterRequest{Username: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func login(t *testing.T, h *Handler, req models.LoginRequest) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(b)))
	return w
}

func seedUser(t *testing.T, users *fakeUsers, email, password string, banned bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	users.byEmail[email] = &models.User{
		ID: uuid.New().String(), Username: "maya", Email: email,
		Password: string(hash), IsBanned: banned,
	}
}

func TestLoginBannedUserForbidden(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "maya@example.com", "s3cret", true)
	h := NewHandler(users, nil, nil)

	// Correct credentials still refuse a banned account.
	w := login(t, h, models.LoginRequest{Email: "maya@example.com", Password: "s3cret"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Result().Cookies(), "no session cookie for a banned account")
}

func TestLoginWrongCredentialsUnauthorized(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "maya@example.com", "s3cret", false)
	h := NewHandler(users, nil, nil)

	w := login(t, h, models.LoginRequest{Email: "maya@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = login(t, h, models.LoginRequest{Email: "nobody@example.com", Password: "s3cret"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
