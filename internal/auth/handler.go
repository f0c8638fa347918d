package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ayush/notes-api/internal/middleware"
	"github.com/ayush/notes-api/internal/models"
)

// UserStore defines the credential persistence the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TokenIssuer mints a bearer token for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// ProfileCache is an optional read-through cache for profile lookups. A miss
// is reported as (nil, nil).
type ProfileCache interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SetProfile(ctx context.Context, userID string, p models.Profile) error
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	hasher   Hasher
	tokens   TokenIssuer
	profiles ProfileCache
}

// NewHandler wires the auth handlers. profiles may be nil.
func NewHandler(users UserStore, hasher Hasher, tokens TokenIssuer, profiles ProfileCache) *Handler {
	return &Handler{users: users, hasher: hasher, tokens: tokens, profiles: profiles}
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.RespondWithError(w, models.NewValidationError("Invalid request body"))
		return
	}
	if req.Password != req.ConfirmPassword {
		models.RespondWithError(w, models.NewValidationError("Passwords do not match"))
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		models.RespondWithError(w, models.NewValidationError("Name, email, and password are required"))
		return
	}
	if len(req.Password) > MaxPasswordBytes {
		models.RespondWithError(w, models.NewValidationError(
			fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes)))
		return
	}

	hashed, err := h.hasher.Hash(req.Password)
	if err != nil {
		models.RespondWithError(w, models.NewStoreError(err))
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Name, req.Email, hashed)
	if err != nil {
		if !errors.Is(err, models.ErrDuplicateEmail) {
			slog.ErrorContext(r.Context(), "register failed", slog.String("error", err.Error()))
		}
		models.RespondWithError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "user registered", slog.String("user_id", user.ID))
	models.WriteJSON(w, http.StatusOK, messageResponse{Message: "User registered successfully"})
}

// Login verifies credentials and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.RespondWithError(w, models.NewValidationError("Invalid request body"))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		models.RespondWithError(w, err)
		return
	}

	if !h.hasher.Verify(req.Password, user.Password) {
		models.RespondWithError(w, models.NewUnauthenticatedError("Invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		models.RespondWithError(w, models.NewStoreError(err))
		return
	}

	models.WriteJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: token})
}

// Me returns the name and email of the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserID(ctx)
	if !ok {
		models.RespondWithError(w, models.NewUnauthenticatedError("Unauthorized"))
		return
	}

	if h.profiles != nil {
		cached, err := h.profiles.GetProfile(ctx, userID)
		if err != nil {
			slog.WarnContext(ctx, "profile cache read failed", slog.String("error", err.Error()))
		} else if cached != nil {
			models.WriteJSON(w, http.StatusOK, cached)
			return
		}
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		models.RespondWithError(w, err)
		return
	}

	profile := user.Profile()
	if h.profiles != nil {
		if err := h.profiles.SetProfile(ctx, userID, profile); err != nil {
			slog.WarnContext(ctx, "profile cache write failed", slog.String("error", err.Error()))
		}
	}
	models.WriteJSON(w, http.StatusOK, profile)
}
