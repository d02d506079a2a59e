// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/hackreg/internal/app/system/apierr"
	"github.com/dalemusser/hackreg/internal/app/system/auditlog"
	"github.com/dalemusser/hackreg/internal/app/system/auth"
	"github.com/dalemusser/hackreg/internal/app/system/httpjson"
	"github.com/dalemusser/hackreg/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MsgLoggedOut is returned after the token has been revoked.
const MsgLoggedOut = "Logout successful"

// Revoker records a revoked token id. revocationstore.Store implements it.
type Revoker interface {
	Revoke(ctx context.Context, jti string, adminID primitive.ObjectID, expiresAt time.Time) error
}

type Handler struct {
	Revocations Revoker
	Log         *zap.Logger
	Audit       *auditlog.Logger
}

func NewHandler(revocations Revoker, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Revocations: revocations,
		Log:         logger,
		Audit:       audit,
	}
}

type logoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ServeLogout handles POST /auth/logout. The bearer token stays revoked
// until it would have expired on its own.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	s, ok := auth.CurrentAdmin(r)
	if !ok || s.Claims == nil {
		httpjson.Message(w, http.StatusUnauthorized, auth.MsgNoToken)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "revoke token")
	defer cancel()

	expiresAt := time.Now().Add(auth.DefaultTokenTTL)
	if s.Claims.ExpiresAt != nil {
		expiresAt = s.Claims.ExpiresAt.Time
	}
	if err := h.Revocations.Revoke(ctx, s.Claims.ID, s.Admin.ID, expiresAt); err != nil {
		httpjson.Error(w, h.Log, apierr.Internal(err, "Server error during logout"))
		return
	}

	h.Audit.Logout(ctx, s.Admin.ID, s.Admin.Username)
	httpjson.Write(w, http.StatusOK, logoutResponse{Success: true, Message: MsgLoggedOut})
}
