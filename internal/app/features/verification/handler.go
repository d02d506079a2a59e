// internal/app/features/verification/handler.go
package verification

import (
	"net/http"

	"github.com/dalemusser/hackreg/internal/app/system/httpjson"
	"github.com/dalemusser/hackreg/internal/app/system/ratelimit"
	"github.com/dalemusser/hackreg/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves the verification endpoints.
type Handler struct {
	Svc         *Service
	ResendGuard *ratelimit.Guard
	Log         *zap.Logger
}

func NewHandler(svc *Service, resendGuard *ratelimit.Guard, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Svc: svc, ResendGuard: resendGuard, Log: logger}
}

// ServeVerify handles POST /otp/verify and its alias POST /teams/verify-otp.
func (h *Handler) ServeVerify(w http.ResponseWriter, r *http.Request) {
	var in VerifyInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "verify codes")
	defer cancel()

	res, err := h.Svc.Verify(ctx, in)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

type resendRequest struct {
	Email string `json:"email"`
}

type resendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ServeResend handles POST /otp/resend.
func (h *Handler) ServeResend(w http.ResponseWriter, r *http.Request) {
	var in resendRequest
	if err := httpjson.Decode(w, r, &in); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	if ok, reason := h.ResendGuard.Check(r, in.Email); !ok {
		h.Log.Warn("resend rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		httpjson.Message(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "resend code")
	defer cancel()

	msg, err := h.Svc.Resend(ctx, in.Email)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, resendResponse{Success: true, Message: msg})
}
