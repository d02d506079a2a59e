// internal/app/features/teams/handler.go
package teams

import (
	"net/http"

	"github.com/dalemusser/hackreg/internal/app/system/auth"
	"github.com/dalemusser/hackreg/internal/app/system/httpjson"
	"github.com/dalemusser/hackreg/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the team endpoints.
type Handler struct {
	Svc *Service
	Log *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Svc: svc, Log: logger}
}

// ServeRegister handles POST /teams.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "register team")
	defer cancel()

	res, err := h.Svc.Register(ctx, in)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, res)
}

// ServeGet handles GET /teams/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get team")
	defer cancel()

	team, err := h.Svc.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, team)
}

// listParams reads status (or its alias filter) and search.
func listParams(r *http.Request) ListParams {
	status := query.Get(r, "status")
	if status == "" {
		status = query.Get(r, "filter")
	}
	return ListParams{Status: status, Search: query.Search(r, "search")}
}

// ServeList handles GET /teams (admin).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list teams")
	defer cancel()

	teams, err := h.Svc.List(ctx, listParams(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, teams)
}

func actorFrom(r *http.Request) Actor {
	s, ok := auth.CurrentAdmin(r)
	if !ok {
		return Actor{}
	}
	return Actor{ID: s.Admin.ID, Username: s.Admin.Username}
}

// ServeSetStatus handles PATCH /teams/{id}/status (admin).
func (h *Handler) ServeSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set team status")
	defer cancel()

	team, err := h.Svc.SetStatus(ctx, actorFrom(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, statusResponse{Message: MsgStatusUpdated, Team: team})
}

// ServeExport handles GET /teams/export/excel (admin). It honors the same
// status and search parameters as the list.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "export teams")
	defer cancel()

	teams, err := h.Svc.List(ctx, listParams(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	f, err := BuildWorkbook(teams)
	if err != nil {
		h.Log.Error("build teams workbook", zap.Error(err))
		httpjson.Message(w, http.StatusInternalServerError, "Server error while exporting teams")
		return
	}
	defer f.Close()

	actor := actorFrom(r)
	h.Svc.Audit.TeamsExported(ctx, actor.ID, actor.Username, len(teams))

	w.Header().Set("Content-Type", exportMIME)
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename)
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		h.Log.Warn("write teams workbook", zap.Error(err))
	}
}
