// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/hackreg/internal/app/store/audit"
)

// MsgInvalidFilter is returned for unknown categories or malformed ids and
// dates.
const MsgInvalidFilter = "Invalid audit filter"

// listItem is one audit event as returned to the console.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	TeamID        string            `json:"teamId,omitempty"`
	Email         string            `json:"email,omitempty"`
	Actor         string            `json:"actor,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func toItem(e audit.Event) listItem {
	item := listItem{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		Email:         e.Email,
		Actor:         e.Actor,
		IP:            e.IP,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
	if e.TeamID != nil {
		item.TeamID = e.TeamID.Hex()
	}
	return item
}

// listResponse is the body of GET /audit.
type listResponse struct {
	Events     []listItem `json:"events"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	registrationEvents := []string{
		audit.EventTeamRegistered,
		audit.EventCodeSent,
		audit.EventCodeSendFailed,
		audit.EventCodeResent,
		audit.EventMemberVerified,
		audit.EventVerificationFailed,
	}

	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
	}

	adminEvents := []string{
		audit.EventTeamStatusChanged,
		audit.EventTeamsExported,
	}

	switch category {
	case audit.CategoryRegistration:
		return registrationEvents
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(registrationEvents)+len(authEvents)+len(adminEvents))
		all = append(all, registrationEvents...)
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}
