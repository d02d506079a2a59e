// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/dalemusser/hackreg/internal/app/store/audit"
	"github.com/dalemusser/hackreg/internal/app/system/apierr"
	"github.com/dalemusser/hackreg/internal/app/system/httpjson"
	"github.com/dalemusser/hackreg/internal/app/system/normalize"
	"github.com/dalemusser/hackreg/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const pageSize = 50

// parseFilter reads category, event_type, team_id, email, success,
// start_date, end_date and page from the query string.
func parseFilter(r *http.Request) (audit.QueryFilter, int, error) {
	filter := audit.QueryFilter{
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "event_type"),
		Email:     normalize.Email(query.Get(r, "email")),
		Limit:     pageSize,
	}

	if filter.Category != "" && eventTypesForCategory(filter.Category) == nil {
		return filter, 0, apierr.Validation(MsgInvalidFilter)
	}
	if filter.EventType != "" && !slices.Contains(eventTypesForCategory(filter.Category), filter.EventType) {
		return filter, 0, apierr.Validation(MsgInvalidFilter)
	}

	if s := query.Get(r, "team_id"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return filter, 0, apierr.Validation(MsgInvalidFilter)
		}
		filter.TeamID = &id
	}

	if s := query.Get(r, "success"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return filter, 0, apierr.Validation(MsgInvalidFilter)
		}
		filter.Success = &b
	}

	if s := query.Get(r, "start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, 0, apierr.Validation(MsgInvalidFilter)
		}
		filter.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, 0, apierr.Validation(MsgInvalidFilter)
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}
	filter.Offset = int64((page - 1) * pageSize)
	return filter, page, nil
}

// ServeList handles GET /audit (admin): audit events newest first, one
// page at a time.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseFilter(r)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		httpjson.Error(w, h.Log, apierr.Internal(err, "Server error while loading audit log"))
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		httpjson.Error(w, h.Log, apierr.Internal(err, "Server error while loading audit log"))
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e))
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	httpjson.Write(w, http.StatusOK, listResponse{
		Events:     items,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	})
}
