// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	adminstore "github.com/dalemusser/hackreg/internal/app/store/admins"
	"github.com/dalemusser/hackreg/internal/app/system/apierr"
	"github.com/dalemusser/hackreg/internal/app/system/auditlog"
	"github.com/dalemusser/hackreg/internal/app/system/auth"
	"github.com/dalemusser/hackreg/internal/app/system/httpjson"
	"github.com/dalemusser/hackreg/internal/app/system/ratelimit"
	"github.com/dalemusser/hackreg/internal/app/system/timeouts"
	"github.com/dalemusser/hackreg/internal/domain/models"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgMissingFields      = "Please provide username and password"
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginSuccess       = "Login successful"
)

// Authenticator checks admin credentials. adminstore.Store implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (models.Admin, error)
}

type Handler struct {
	Admins Authenticator
	Tokens *auth.Tokens
	Guard  *ratelimit.Guard
	Log    *zap.Logger
	Audit  *auditlog.Logger
}

func NewHandler(admins Authenticator, tokens *auth.Tokens, guard *ratelimit.Guard, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Admins: admins,
		Tokens: tokens,
		Guard:  guard,
		Log:    logger,
		Audit:  audit,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminView is the public shape of an admin account.
type AdminView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Token   string    `json:"token"`
	Admin   AdminView `json:"admin"`
}

// MeResponse is returned by GET /auth/me.
type MeResponse struct {
	Success bool      `json:"success"`
	Admin   AdminView `json:"admin"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/login                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := httpjson.Decode(w, r, &in); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		httpjson.Message(w, http.StatusBadRequest, MsgMissingFields)
		return
	}

	if ok, reason := h.Guard.Check(r, username); !ok {
		h.Audit.LoginRateLimited(r.Context(), username)
		httpjson.Message(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin login")
	defer cancel()

	admin, err := h.Admins.Authenticate(ctx, username, in.Password)
	if errors.Is(err, adminstore.ErrInvalidCredentials) {
		h.Audit.LoginFailed(ctx, username, "wrong username or password")
		httpjson.Message(w, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apierr.Internal(err, "Server error during login"))
		return
	}

	token, _, err := h.Tokens.Issue(admin.ID, admin.Username)
	if err != nil {
		httpjson.Error(w, h.Log, apierr.Internal(err, "Server error during login"))
		return
	}

	h.Guard.ResetSubject(username)
	h.Audit.LoginSuccess(ctx, admin.ID, admin.Username)

	httpjson.Write(w, http.StatusOK, LoginResponse{
		Success: true,
		Message: MsgLoginSuccess,
		Token:   token,
		Admin:   AdminView{ID: admin.ID.Hex(), Username: admin.Username},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/me                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	s, ok := auth.CurrentAdmin(r)
	if !ok {
		httpjson.Message(w, http.StatusUnauthorized, auth.MsgNoToken)
		return
	}
	created := s.Admin.CreatedAt
	httpjson.Write(w, http.StatusOK, MeResponse{
		Success: true,
		Admin:   AdminView{ID: s.Admin.ID.Hex(), Username: s.Admin.Username, CreatedAt: &created},
	})
}
