// internal/app/system/httpjson/httpjson.go
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/hackreg/internal/app/system/apierr"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// MsgInvalidBody is returned for bodies that are not valid JSON.
const MsgInvalidBody = "Invalid request body"

// Decode reads a JSON request body into dst. Unknown fields are ignored,
// matching what browser clients send.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierr.Validation(MsgInvalidBody)
		}
		return &apierr.Error{Kind: apierr.KindValidation, Message: MsgInvalidBody, Err: err}
	}
	return nil
}

// Write encodes v with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// messageResponse is the error body shape: {"message": "..."}.
type messageResponse struct {
	Message string `json:"message"`
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	Write(w, status, messageResponse{Message: msg})
}

// Error writes err as {"message": ...} with the status for its kind.
// Internal errors are logged with their cause and reported generically.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apierr.Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	Message(w, status, apierr.PublicMessage(err))
}
