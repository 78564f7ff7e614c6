// Package users owns account records: signup, credential checks and the
// single live session token each user may hold.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BorisDmv/blog-api/internal/apperrors"
	"github.com/BorisDmv/blog-api/internal/auth"
	"github.com/BorisDmv/blog-api/internal/db"
	"github.com/BorisDmv/blog-api/internal/models"
	"github.com/BorisDmv/blog-api/internal/validation"
)

const (
	msgBadCredentials = "The email or password you entered is incorrect. Please try again."
	msgUnauthorized   = "unauthorized"
)

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(userID string, role models.Role) (string, error)
	Verify(token string) (auth.Identity, error)
}

type Directory struct {
	store  db.UserStore
	tokens TokenIssuer
	logger *slog.Logger
}

func NewDirectory(store db.UserStore, tokens TokenIssuer, logger *slog.Logger) *Directory {
	return &Directory{store: store, tokens: tokens, logger: logger}
}

// Create registers a regular user. The role is always user; admins only come
// from EnsureAdmin.
func (d *Directory) Create(ctx context.Context, in models.SignupInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	user := &models.User{Email: in.Email, DisplayName: in.DisplayName, Role: models.RoleUser}
	user.SetPassword(in.Password)
	if err := d.insert(ctx, user); err != nil {
		return nil, err
	}
	d.logger.Info("user created", "user_id", user.ID, "display_name", user.DisplayName)
	return user, nil
}

// insert hashes a staged password, if any, then persists the record.
func (d *Directory) insert(ctx context.Context, user *models.User) error {
	if user.PasswordModified() {
		hash, err := auth.HashPassword(user.PendingPassword())
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, "could not save user", err)
		}
		user.ApplyPasswordHash(hash)
	}
	if user.PasswordHash == "" {
		return apperrors.Validation("password is required")
	}
	if err := d.store.CreateUser(ctx, user); err != nil {
		var dup *db.DuplicateError
		if errors.As(err, &dup) {
			return apperrors.Validation(fmt.Sprintf("The %s %s is already in use. Please use another.", dup.Field, dup.Value))
		}
		return apperrors.Wrap(apperrors.KindInternal, "could not save user", err)
	}
	return nil
}

// FindByCredentials returns the user owning email if password matches. An
// unknown email and a wrong password fail the same way.
func (d *Directory) FindByCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := d.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.NotFound(msgBadCredentials)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, msgBadCredentials, err)
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, apperrors.NotFound(msgBadCredentials)
	}
	return user, nil
}

// FindByToken resolves a presented token to its user. The token must verify
// and must still be the user's current token.
func (d *Directory) FindByToken(ctx context.Context, token string) (*models.User, error) {
	id, err := d.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnauthorized, msgUnauthorized, err)
	}
	user, err := d.store.GetUserByToken(ctx, id.UserID, token)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgUnauthorized)
		}
		return nil, apperrors.Wrap(apperrors.KindUnauthorized, msgUnauthorized, err)
	}
	return user, nil
}

// IssueSession signs a new token for user and stores it as the current one,
// which invalidates whatever token the user held before.
func (d *Directory) IssueSession(ctx context.Context, user *models.User) (string, error) {
	token, err := d.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, "could not issue token", err)
	}
	if err := d.store.SetUserToken(ctx, user.ID, token); err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, "could not issue token", err)
	}
	user.CurrentToken = token
	return token, nil
}

// ClearSession drops the stored token if it is still token.
func (d *Directory) ClearSession(ctx context.Context, user *models.User, token string) error {
	if err := d.store.ClearUserToken(ctx, user.ID, token); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "could not log out", err)
	}
	if user.CurrentToken == token {
		user.CurrentToken = ""
	}
	return nil
}

// AdminSeed describes the admin account created on startup.
type AdminSeed struct {
	Email       string
	Password    string
	DisplayName string
}

// EnsureAdmin creates the seed admin when the store has no admin yet. It is
// a no-op for an empty seed.
func (d *Directory) EnsureAdmin(ctx context.Context, seed AdminSeed) error {
	if seed.Email == "" {
		return nil
	}
	exists, err := d.store.HasUserWithRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return nil
	}
	in := models.SignupInput{
		Email:       strings.TrimSpace(seed.Email),
		Password:    seed.Password,
		DisplayName: strings.TrimSpace(seed.DisplayName),
	}
	if err := validation.Check(in); err != nil {
		return fmt.Errorf("admin seed: %w", err)
	}
	admin := &models.User{Email: in.Email, DisplayName: in.DisplayName, Role: models.RoleAdmin}
	admin.SetPassword(in.Password)
	if err := d.insert(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	d.logger.Info("admin user created", "user_id", admin.ID, "email", admin.Email)
	return nil
}
