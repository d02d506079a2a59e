// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	adminstore "github.com/dalemusser/hackreg/internal/app/store/admins"
	"github.com/dalemusser/hackreg/internal/app/system/httpjson"
	"github.com/dalemusser/hackreg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Messages returned by RequireAdmin.
const (
	MsgNoToken      = "Access denied. No token provided."
	MsgInvalidToken = "Invalid token"
	MsgAdminGone    = "Admin no longer exists"
)

// AdminFetcher loads an admin by id. It returns adminstore.ErrNotFound for
// unknown ids.
type AdminFetcher interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Admin, error)
}

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Session is the authenticated admin together with the token that proved it.
type Session struct {
	Admin  models.Admin
	Claims *Claims
}

type ctxKey string

const currentAdminKey ctxKey = "currentAdmin"

// CurrentAdmin returns the admin injected by RequireAdmin.
func CurrentAdmin(r *http.Request) (*Session, bool) {
	s, ok := r.Context().Value(currentAdminKey).(*Session)
	return s, ok
}

// WithAdmin returns r with s attached, as RequireAdmin does.
func WithAdmin(r *http.Request, s *Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentAdminKey, s))
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAdmin authenticates every request from its bearer token. The admin
// is loaded from the database each time, so deleted admins and revoked
// tokens are refused immediately.
func RequireAdmin(tokens *Tokens, admins AdminFetcher, revoked RevocationChecker, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				httpjson.Message(w, http.StatusUnauthorized, MsgNoToken)
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				httpjson.Message(w, http.StatusUnauthorized, MsgInvalidToken)
				return
			}

			ctx := r.Context()
			if revoked != nil {
				isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
				if err != nil {
					log.Error("check token revocation", zap.Error(err))
					httpjson.Message(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				if isRevoked {
					httpjson.Message(w, http.StatusUnauthorized, MsgInvalidToken)
					return
				}
			}

			id, _ := claims.AdminID()
			admin, err := admins.GetByID(ctx, id)
			if errors.Is(err, adminstore.ErrNotFound) {
				httpjson.Message(w, http.StatusUnauthorized, MsgAdminGone)
				return
			}
			if err != nil {
				log.Error("load admin", zap.String("admin_id", id.Hex()), zap.Error(err))
				httpjson.Message(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, WithAdmin(r, &Session{Admin: admin, Claims: claims}))
		})
	}
}
