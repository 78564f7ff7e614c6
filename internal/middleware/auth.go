package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BorisDmv/blog-api/internal/auth"
	"github.com/BorisDmv/blog-api/internal/models"
)

// AuthHeader carries the session token on requests and responses.
const AuthHeader = "x-auth"

var (
	errMissingToken  = errors.New("missing token")
	errForbiddenRole = errors.New("insufficient role")
)

// Principal is what the guard pipeline has established about the caller.
type Principal struct {
	Token    string
	Identity auth.Identity
	User     *models.User
}

// Check is one step of a guard. It may fill in the principal; any error
// rejects the request.
type Check func(ctx context.Context, p *Principal) error

type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type UserResolver interface {
	FindByToken(ctx context.Context, token string) (*models.User, error)
}

type contextKey string

const principalKey contextKey = "principal"

// Chain runs checks in order against the token in the x-auth header. The
// first failure answers 401 and the handler never runs.
func Chain(logger *slog.Logger, checks ...Check) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := &Principal{Token: strings.TrimSpace(r.Header.Get(AuthHeader))}
			for _, check := range checks {
				if err := check(r.Context(), p); err != nil {
					logger.Debug("request rejected by guard", "path", r.URL.Path, "reason", err)
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
			}
			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireToken rejects requests without a token.
func RequireToken() Check {
	return func(_ context.Context, p *Principal) error {
		if p.Token == "" {
			return errMissingToken
		}
		return nil
	}
}

// VerifySignature decodes the token without touching storage.
func VerifySignature(tokens TokenVerifier) Check {
	return func(_ context.Context, p *Principal) error {
		id, err := tokens.Verify(p.Token)
		if err != nil {
			return err
		}
		p.Identity = id
		return nil
	}
}

// RequireRole checks the role claimed by the token and, once resolved, the
// role stored on the user.
func RequireRole(role models.Role) Check {
	return func(_ context.Context, p *Principal) error {
		if p.User != nil {
			if p.User.Role != role {
				return errForbiddenRole
			}
			return nil
		}
		if p.Identity.Role != role {
			return errForbiddenRole
		}
		return nil
	}
}

// MatchStoredToken resolves the user and requires the token to be the one
// currently stored for them.
func MatchStoredToken(users UserResolver) Check {
	return func(ctx context.Context, p *Principal) error {
		user, err := users.FindByToken(ctx, p.Token)
		if err != nil {
			return err
		}
		p.User = user
		if p.Identity.UserID == "" {
			p.Identity = auth.Identity{UserID: user.ID, Role: user.Role}
		}
		return nil
	}
}

// AuthGuard admits any user presenting their current token.
func AuthGuard(users UserResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return Chain(logger,
		RequireToken(),
		MatchStoredToken(users),
	)
}

// AdminGuard admits admins presenting their current token. The role claim
// is checked before any store lookup.
func AdminGuard(tokens TokenVerifier, users UserResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return Chain(logger,
		RequireToken(),
		VerifySignature(tokens),
		RequireRole(models.RoleAdmin),
		MatchStoredToken(users),
		RequireRole(models.RoleAdmin),
	)
}

// PrincipalFrom returns the principal attached by a guard.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil && p.User != nil
}
