package handlers

import (
	"log/slog"
	"net/http"

	"github.com/BorisDmv/blog-api/internal/apperrors"
	"github.com/BorisDmv/blog-api/internal/middleware"
	"github.com/BorisDmv/blog-api/internal/models"
	"github.com/BorisDmv/blog-api/internal/users"
)

const msgBadLogin = "The email or password you entered is incorrect. Please try again."

type UsersHandler struct {
	users  *users.Directory
	logger *slog.Logger
}

func NewUsersHandler(dir *users.Directory, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{users: dir, logger: logger}
}

// Signup creates a regular user and logs them in. The token goes out in the
// x-auth header, never in the body.
func (h *UsersHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupInput
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, r, h.logger, err, "could not create user")
		return
	}
	user, err := h.users.Create(r.Context(), req)
	if err != nil {
		respondFailure(w, r, h.logger, err, "could not create user")
		return
	}
	token, err := h.users.IssueSession(r.Context(), user)
	if err != nil {
		respondFailure(w, r, h.logger, err, "could not create user")
		return
	}
	w.Header().Set(middleware.AuthHeader, token)
	respondJSON(w, http.StatusOK, models.NewUserView(user))
}

// Login checks credentials and rotates the user's session token. Every
// credential failure gets the same 401.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, r, h.logger, err, "invalid body")
		return
	}
	user, err := h.users.FindByCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			h.logger.Error("login lookup failed", "error", err)
		}
		respondError(w, http.StatusUnauthorized, msgBadLogin)
		return
	}
	token, err := h.users.IssueSession(r.Context(), user)
	if err != nil {
		respondFailure(w, r, h.logger, err, "could not log in")
		return
	}
	h.logger.Info("user logged in", "user_id", user.ID)
	w.Header().Set(middleware.AuthHeader, token)
	respondJSON(w, http.StatusOK, models.NewUserView(user))
}

// Logout clears the token the caller authenticated with (auth guarded).
func (h *UsersHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.users.ClearSession(r.Context(), principal.User, principal.Token); err != nil {
		respondFailure(w, r, h.logger, err, "could not log out")
		return
	}
	w.WriteHeader(http.StatusOK)
}
