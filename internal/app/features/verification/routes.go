// internal/app/features/verification/routes.go
package verification

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the code endpoints under "/otp". Both are public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/verify", h.ServeVerify)
	r.Post("/resend", h.ServeResend)
	return r
}
