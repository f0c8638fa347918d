package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/notes-api/internal/middleware"
	"github.com/ayush/notes-api/internal/models"
	"github.com/ayush/notes-api/internal/store"
)

type fixture struct {
	users   *store.MemoryStore
	tokens  *TokenService
	handler *Handler
}

func newFixture(t *testing.T, profiles ProfileCache) *fixture {
	t.Helper()
	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	users := store.NewMemoryStore()
	return &fixture{
		users:   users,
		tokens:  tokens,
		handler: NewHandler(users, hasher, tokens, profiles),
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func (f *fixture) register(t *testing.T, name, email, password string) {
	t.Helper()
	rec := postJSON(t, f.handler.Register, models.RegisterRequest{
		Name: name, Email: email, Password: password, ConfirmPassword: password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRegister(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "Alice", "a@x.com", "pw1")

	tests := []struct {
		name    string
		body    interface{}
		status  int
		message string
	}{
		{
			name:    "password mismatch",
			body:    models.RegisterRequest{Name: "Bob", Email: "b@x.com", Password: "pw1", ConfirmPassword: "pw2"},
			status:  http.StatusBadRequest,
			message: "Passwords do not match",
		},
		{
			name:    "missing email",
			body:    models.RegisterRequest{Name: "Bob", Password: "pw1", ConfirmPassword: "pw1"},
			status:  http.StatusBadRequest,
			message: "Name, email, and password are required",
		},
		{
			name:    "missing password",
			body:    models.RegisterRequest{Name: "Bob", Email: "b@x.com"},
			status:  http.StatusBadRequest,
			message: "Name, email, and password are required",
		},
		{
			name:    "duplicate email with different fields",
			body:    models.RegisterRequest{Name: "Other", Email: "a@x.com", Password: "zzz", ConfirmPassword: "zzz"},
			status:  http.StatusBadRequest,
			message: "Error registering user",
		},
		{
			name:    "password longer than bcrypt accepts",
			body:    models.RegisterRequest{Name: "Bob", Email: "b@x.com", Password: strings.Repeat("p", 80), ConfirmPassword: strings.Repeat("p", 80)},
			status:  http.StatusBadRequest,
			message: "Password must be at most 72 bytes",
		},
		{
			name:    "malformed body",
			body:    "not an object",
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, f.handler.Register, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["message"])
		})
	}

	t.Run("password at the bcrypt limit is accepted", func(t *testing.T) {
		f.register(t, "Max", "max@x.com", strings.Repeat("p", MaxPasswordBytes))
	})

	t.Run("stores a digest, not the password", func(t *testing.T) {
		u, err := f.users.GetUserByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.NotEqual(t, "pw1", u.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("pw1")))
	})
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)

	// Registrations with distinct emails can all log in with their own credentials.
	type cred struct{ email, password string }
	var creds []cred
	for i := 0; i < 3; i++ {
		c := cred{email: gofakeit.Email(), password: gofakeit.Password(true, true, true, false, false, 12)}
		f.register(t, gofakeit.Name(), c.email, c.password)
		creds = append(creds, c)
	}

	for _, c := range creds {
		rec := postJSON(t, f.handler.Login, models.LoginRequest{Email: c.email, Password: c.password})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Login successful", body["message"])

		userID, err := f.tokens.Verify(body["token"].(string))
		require.NoError(t, err)
		u, err := f.users.GetUserByEmail(context.Background(), c.email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, userID)

		rec = postJSON(t, f.handler.Login, models.LoginRequest{Email: c.email, Password: c.password + "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["message"])
	}

	t.Run("unknown email", func(t *testing.T) {
		rec := postJSON(t, f.handler.Login, models.LoginRequest{Email: "nobody@x.com", Password: "pw"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", decodeBody(t, rec)["message"])
	})

	t.Run("email is matched exactly", func(t *testing.T) {
		f.register(t, "Carol", "carol@x.com", "pw")
		rec := postJSON(t, f.handler.Login, models.LoginRequest{Email: "Carol@x.com", Password: "pw"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func meRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestMe(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "Alice", "a@x.com", "pw1")
	u, err := f.users.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	t.Run("returns only name and email", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.Me(rec, meRequest(u.ID))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]interface{}{"name": "Alice", "email": "a@x.com"}, decodeBody(t, rec))
	})

	t.Run("user gone", func(t *testing.T) {
		f.users.DeleteUser(context.Background(), u.ID)
		rec := httptest.NewRecorder()
		f.handler.Me(rec, meRequest(u.ID))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("no identity in context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.Me(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMe_ProfileCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	rdb, err := store.NewRedisClient(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	defer rdb.Close()

	f := newFixture(t, store.NewProfileCache(rdb, time.Minute))
	f.register(t, "Alice", "a@x.com", "pw1")
	u, err := f.users.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.handler.Me(rec, meRequest(u.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mr.Exists("profile:"+u.ID))

	// Served from cache even once the backing record is gone.
	f.users.DeleteUser(context.Background(), u.ID)
	rec = httptest.NewRecorder()
	f.handler.Me(rec, meRequest(u.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decodeBody(t, rec)["name"])
}

type brokenCache struct{}

func (brokenCache) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return nil, errors.New("cache down")
}

func (brokenCache) SetProfile(ctx context.Context, userID string, p models.Profile) error {
	return errors.New("cache down")
}

func TestMe_CacheFailureFallsBackToStore(t *testing.T) {
	f := newFixture(t, brokenCache{})
	f.register(t, "Alice", "a@x.com", "pw1")
	u, err := f.users.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.handler.Me(rec, meRequest(u.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", decodeBody(t, rec)["email"])
}
