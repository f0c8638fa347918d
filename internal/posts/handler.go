package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/notes-api/internal/middleware"
	"github.com/ayush/notes-api/internal/models"
)

// ExportStore archives JSON exports of a user's posts. Archive returns the
// name Fetch later accepts for the same user.
type ExportStore interface {
	Archive(ctx context.Context, userID string, data []byte) (string, error)
	Fetch(ctx context.Context, userID, name string) ([]byte, error)
}

type postsResponse struct {
	Message string        `json:"message"`
	Posts   []models.Post `json:"posts"`
}

// Handler holds post HTTP handlers. All routes sit behind RequireAuth.
type Handler struct {
	posts   *Service
	exports ExportStore
}

// NewHandler wires the post handlers. exports may be nil, in which case
// exports are streamed but not archived.
func NewHandler(posts *Service, exports ExportStore) *Handler {
	return &Handler{posts: posts, exports: exports}
}

// Create appends a post to the caller's collection.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, postsResponse{Message: "Post created successfully", Posts: posts})
}

// List returns the caller's posts as a bare array.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.List(r.Context(), userID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, posts)
}

// Update overwrites title and description of one post.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.Update(r.Context(), userID, chi.URLParam(r, "postId"), req.Title, req.Description)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, postsResponse{Message: "Post updated successfully", Posts: posts})
}

// Delete removes one post; unknown ids succeed with the collection unchanged.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.Delete(r.Context(), userID, chi.URLParam(r, "postId"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, postsResponse{Message: "Post deleted successfully", Posts: posts})
}

// Export streams the caller's posts as a JSON attachment and archives a copy
// when an export store is configured. Archive failures are non-fatal.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.List(r.Context(), userID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if h.exports != nil {
		name, err := h.exports.Archive(r.Context(), userID, data)
		if err != nil {
			slog.WarnContext(r.Context(), "post export archive failed", slog.String("error", err.Error()))
		} else {
			w.Header().Set("X-Export-Key", name)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=posts.json")
	w.Write(data)
}

// DownloadExport returns a previously archived export of the caller's posts.
// Only objects under the caller's own prefix are reachable.
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	if h.exports == nil || !validExportName(name) {
		models.RespondWithError(w, models.NewNotFoundError("Export not found"))
		return
	}

	data, err := h.exports.Fetch(r.Context(), userID, name)
	if err != nil {
		slog.WarnContext(r.Context(), "post export fetch failed", slog.String("error", err.Error()))
		models.RespondWithError(w, models.NewNotFoundError("Export not found"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.Write(data)
}

func validExportName(name string) bool {
	return strings.HasPrefix(name, "posts-") &&
		strings.HasSuffix(name, ".json") &&
		!strings.ContainsAny(name, `/\`) &&
		!strings.Contains(name, "..")
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		models.RespondWithError(w, models.NewUnauthenticatedError("Unauthorized"))
	}
	return userID, ok
}

func decodePostRequest(w http.ResponseWriter, r *http.Request) (models.PostRequest, bool) {
	var req models.PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.RespondWithError(w, models.NewValidationError("Invalid request body"))
		return req, false
	}
	return req, true
}

func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	appErr := models.FromStoreError(err)
	if appErr.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "post operation failed", slog.String("error", err.Error()))
	}
	models.RespondWithError(w, appErr)
}
