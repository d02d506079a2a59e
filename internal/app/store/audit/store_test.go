package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/hackreg/internal/app/store/audit"
	"github.com/dalemusser/hackreg/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamID := primitive.NewObjectID()
	event := audit.Event{
		Category:  audit.CategoryRegistration,
		EventType: audit.EventTeamRegistered,
		TeamID:    &teamID,
		Email:     "lead.21bce0001@vitapstudent.ac.in",
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
		Details:   map[string]string{"team_name": "Byte Me"},
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByTeam(ctx, teamID, 10)
	if err != nil {
		t.Fatalf("GetByTeam failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if got.Details["team_name"] != "Byte Me" {
		t.Errorf("details not stored: %v", got.Details)
	}
}

func TestStore_GetRecent_Order(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Category:  audit.CategoryAuth,
			EventType: audit.EventLoginSuccess,
			Actor:     "admin",
			Success:   true,
			Details:   map[string]string{"n": string(rune('0' + i))},
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetRecent(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Details["n"] != "2" || events[1].Details["n"] != "1" {
		t.Errorf("expected newest first, got %v then %v", events[0].Details, events[1].Details)
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	email := "mira.21bce0002@vitapstudent.ac.in"
	events := []audit.Event{
		{Category: audit.CategoryRegistration, EventType: audit.EventCodeSent, Email: email, Success: true},
		{Category: audit.CategoryRegistration, EventType: audit.EventVerificationFailed, Email: email, Success: false, FailureReason: "invalid code"},
		{Category: audit.CategoryRegistration, EventType: audit.EventMemberVerified, Email: email, Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, Actor: "admin", Success: false},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	byEmail, err := store.Query(ctx, audit.QueryFilter{Email: email})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byEmail) != 3 {
		t.Errorf("expected 3 events for email, got %d", len(byEmail))
	}

	byType, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventMemberVerified})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byType) != 1 {
		t.Errorf("expected 1 member_verified event, got %d", len(byType))
	}

	failed := false
	n, err := store.CountByFilter(ctx, audit.QueryFilter{Success: &failed})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 failed events, got %d", n)
	}

	n, err = store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 auth event, got %d", n)
	}
}

func TestStore_Query_ByTimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	for _, ts := range []time.Time{now.Add(-3 * time.Hour), now.Add(-time.Hour), now} {
		err := store.Log(ctx, audit.Event{
			Timestamp: ts,
			Category:  audit.CategoryAdmin,
			EventType: audit.EventTeamStatusChanged,
			Success:   true,
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	start := now.Add(-2 * time.Hour)
	events, err := store.Query(ctx, audit.QueryFilter{StartTime: &start})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events in range, got %d", len(events))
	}

	end := now.Add(-2 * time.Hour)
	events, err = store.Query(ctx, audit.QueryFilter{EndTime: &end})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event before range end, got %d", len(events))
	}
}

func TestStore_Query_WithOffset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.Query(ctx, audit.QueryFilter{Limit: 10, Offset: 3})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events after offset, got %d", len(events))
	}
}

func TestStore_GetRecent_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}
