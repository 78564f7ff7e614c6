package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BorisDmv/blog-api/internal/middleware"
	"github.com/BorisDmv/blog-api/internal/models"
	"github.com/BorisDmv/blog-api/internal/posts"
)

type PostsHandler struct {
	posts  *posts.Service
	logger *slog.Logger
}

type PostsResponse struct {
	Posts []models.Post `json:"posts"`
}

type PostResponse struct {
	Post *models.Post `json:"post"`
}

type CommentResponse struct {
	Comment *models.Comment `json:"comment"`
}

func NewPostsHandler(svc *posts.Service, logger *slog.Logger) *PostsHandler {
	return &PostsHandler{posts: svc, logger: logger}
}

func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.posts.List(r.Context())
	if err != nil {
		respondFailure(w, r, h.logger, err, "failed to load posts")
		return
	}
	respondJSON(w, http.StatusOK, PostsResponse{Posts: list})
}

// Create adds a post authored by the admin behind the request (admin guarded).
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req models.PostInput
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, r, h.logger, err, "Please check post field requirements")
		return
	}
	created, err := h.posts.Create(r.Context(), principal.User.DisplayName, req)
	if err != nil {
		respondFailure(w, r, h.logger, err, "Please check post field requirements")
		return
	}
	h.logger.Info("post created", "post_id", created.ID, "author", created.Author)
	respondJSON(w, http.StatusOK, PostResponse{Post: created})
}

func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.PostPatch
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, r, h.logger, err, "Could not update post.")
		return
	}
	updated, err := h.posts.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondFailure(w, r, h.logger, err, "Could not update post.")
		return
	}
	respondJSON(w, http.StatusOK, PostResponse{Post: updated})
}

func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.posts.Delete(r.Context(), id); err != nil {
		respondFailure(w, r, h.logger, err, "Could not delete post.")
		return
	}
	h.logger.Info("post deleted", "post_id", id)
	w.WriteHeader(http.StatusOK)
}

// AddComment appends a comment signed with the caller's display name
// (auth guarded).
func (h *PostsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req models.CommentInput
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, r, h.logger, err, "Unable to post comment.")
		return
	}
	comment, err := h.posts.AppendComment(r.Context(), chi.URLParam(r, "id"), req.Comment, principal.User.DisplayName)
	if err != nil {
		respondFailure(w, r, h.logger, err, "Unable to post comment.")
		return
	}
	respondJSON(w, http.StatusOK, CommentResponse{Comment: comment})
}
