package teamstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	teamstore "github.com/dalemusser/hackreg/internal/app/store/teams"
	"github.com/dalemusser/hackreg/internal/app/system/indexes"
	"github.com/dalemusser/hackreg/internal/domain/models"
	"github.com/dalemusser/hackreg/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (*teamstore.Store, *mongo.Database, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return teamstore.New(db, nil), db, ctx
}

func count(t *testing.T, ctx context.Context, c *mongo.Collection, filter bson.M) int64 {
	t.Helper()
	n, err := c.CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	return n
}

func TestStore_Create(t *testing.T) {
	store, db, ctx := setup(t)

	in := testutil.NewTeam("Byte Me", 2)
	in.Members[0].Verified = true

	got, err := store.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got.Status != models.TeamStatusRegistered {
		t.Errorf("status = %q, want registered", got.Status)
	}
	if got.TeamNameCI != "byte me" {
		t.Errorf("TeamNameCI = %q", got.TeamNameCI)
	}
	for _, m := range got.Members {
		if m.Verified {
			t.Errorf("member %s should start unverified", m.Email)
		}
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	if n := count(t, ctx, db.Collection("participants"), bson.M{"team_id": got.ID}); n != 3 {
		t.Errorf("expected 3 participant claims, got %d", n)
	}

	loaded, err := store.GetByID(ctx, got.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.TeamName != "Byte Me" || len(loaded.Members) != 2 {
		t.Errorf("unexpected team loaded: %+v", loaded)
	}
}

func TestStore_Create_LeaderTaken(t *testing.T) {
	store, db, ctx := setup(t)

	first, err := store.Create(ctx, testutil.NewTeam("Alpha", 1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := testutil.NewTeam("Beta", 1)
	second.Leader.Email = first.Leader.Email
	_, err = store.Create(ctx, second)

	var taken *teamstore.EmailTakenError
	if !errors.As(err, &taken) {
		t.Fatalf("expected EmailTakenError, got %v", err)
	}
	if taken.Email != first.Leader.Email || taken.Role != models.ParticipantLeader {
		t.Errorf("unexpected conflict: %+v", taken)
	}

	if n := count(t, ctx, db.Collection("teams"), bson.M{}); n != 1 {
		t.Errorf("expected 1 team, got %d", n)
	}
	if n := count(t, ctx, db.Collection("participants"), bson.M{"team_id": first.ID}); n != 2 {
		t.Errorf("first team's claims should be untouched, got %d", n)
	}
}

func TestStore_Create_MemberTakenReleasesClaims(t *testing.T) {
	store, db, ctx := setup(t)

	first, err := store.Create(ctx, testutil.NewTeam("Alpha", 1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := testutil.NewTeam("Beta", 2)
	second.Members[1].Email = first.Members[0].Email
	_, err = store.Create(ctx, second)

	var taken *teamstore.EmailTakenError
	if !errors.As(err, &taken) {
		t.Fatalf("expected EmailTakenError, got %v", err)
	}
	if taken.Role != models.ParticipantMember {
		t.Errorf("role = %q, want member", taken.Role)
	}

	// Beta's leader and first member must be free again.
	for _, email := range []string{second.Leader.Email, second.Members[0].Email} {
		ok, err := store.EmailTaken(ctx, email)
		if err != nil {
			t.Fatalf("EmailTaken failed: %v", err)
		}
		if ok {
			t.Errorf("%s should have been released", email)
		}
	}
	if n := count(t, ctx, db.Collection("teams"), bson.M{"team_name": "Beta"}); n != 0 {
		t.Errorf("failed team should not be stored")
	}
}

func TestStore_Create_NameTakenCaseInsensitive(t *testing.T) {
	store, db, ctx := setup(t)

	if _, err := store.Create(ctx, testutil.NewTeam("Null Pointers", 1)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dupe := testutil.NewTeam("NULL POINTERS", 1)
	dupe.Leader.Email = testutil.Email("other", "21bce9999")
	dupe.Members[0].Email = testutil.Email("another", "21bce9998")

	if _, err := store.Create(ctx, dupe); !errors.Is(err, teamstore.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if n := count(t, ctx, db.Collection("participants"), bson.M{"team_id": dupe.ID}); n != 0 {
		t.Errorf("claims of the rejected team should be released, got %d", n)
	}

	taken, err := store.NameTaken(ctx, "null pointers")
	if err != nil {
		t.Fatalf("NameTaken failed: %v", err)
	}
	if !taken {
		t.Error("NameTaken should match case-insensitively")
	}
}

func TestStore_Create_ConcurrentSameEmail(t *testing.T) {
	store, db, ctx := setup(t)

	shared := testutil.Email("shared", "21bce4242")

	const n = 5
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			team := testutil.NewTeam("Team "+string(rune('A'+i)), 1)
			team.Members[0].Email = shared
			_, errs[i] = store.Create(ctx, team)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 {
		t.Errorf("expected exactly one successful registration, got %d (%v)", ok, errs)
	}
	if c := count(t, ctx, db.Collection("teams"), bson.M{"members.email": shared}); c != 1 {
		t.Errorf("email should appear on exactly one team, got %d", c)
	}
}

func TestStore_EmailTaken(t *testing.T) {
	store, _, ctx := setup(t)

	team, err := store.Create(ctx, testutil.NewTeam("Gamma", 1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, email := range team.Emails() {
		taken, err := store.EmailTaken(ctx, email)
		if err != nil {
			t.Fatalf("EmailTaken failed: %v", err)
		}
		if !taken {
			t.Errorf("%s should be taken", email)
		}
	}

	taken, err := store.EmailTaken(ctx, testutil.Email("nobody", "21bce0101"))
	if err != nil {
		t.Fatalf("EmailTaken failed: %v", err)
	}
	if taken {
		t.Error("unknown email should be free")
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	store, _, ctx := setup(t)

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, teamstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_FindByMemberEmail(t *testing.T) {
	store, _, ctx := setup(t)

	team, err := store.Create(ctx, testutil.NewTeam("Delta", 2))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.FindByMemberEmail(ctx, team.Members[1].Email)
	if err != nil {
		t.Fatalf("FindByMemberEmail failed: %v", err)
	}
	if got.ID != team.ID {
		t.Errorf("found wrong team %v", got.ID)
	}

	if _, err := store.FindByMemberEmail(ctx, team.Leader.Email); !errors.Is(err, teamstore.ErrNotFound) {
		t.Errorf("leader email should not match a member, got %v", err)
	}
}

func TestStore_MarkVerified(t *testing.T) {
	store, _, ctx := setup(t)

	team, err := store.Create(ctx, testutil.NewTeam("Epsilon", 2))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.MarkVerified(ctx, team.ID, []string{team.Members[0].Email})
	if err != nil {
		t.Fatalf("MarkVerified failed: %v", err)
	}
	if !got.Members[0].Verified || got.Members[1].Verified {
		t.Errorf("unexpected verification state: %+v", got.Members)
	}
	if got.AllVerified() {
		t.Error("team should not be fully verified yet")
	}

	got, err = store.MarkVerified(ctx, team.ID, []string{team.Members[1].Email})
	if err != nil {
		t.Fatalf("MarkVerified failed: %v", err)
	}
	if !got.AllVerified() {
		t.Error("team should be fully verified")
	}

	if _, err := store.MarkVerified(ctx, primitive.NewObjectID(), []string{"x"}); !errors.Is(err, teamstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetStatus(t *testing.T) {
	store, _, ctx := setup(t)

	team, err := store.Create(ctx, testutil.NewTeam("Zeta", 1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.SetStatus(ctx, team.ID, models.TeamStatusRegistered)
	if err != nil {
		t.Fatalf("re-applying registered should be a no-op, got %v", err)
	}
	if got.Status != models.TeamStatusRegistered {
		t.Errorf("status = %q", got.Status)
	}

	got, err = store.SetStatus(ctx, team.ID, models.TeamStatusQualified)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if got.Status != models.TeamStatusQualified {
		t.Errorf("status = %q, want qualified", got.Status)
	}

	if _, err := store.SetStatus(ctx, team.ID, models.TeamStatusQualified); err != nil {
		t.Errorf("re-applying qualified should succeed, got %v", err)
	}
	if _, err := store.SetStatus(ctx, team.ID, models.TeamStatusRegistered); !errors.Is(err, teamstore.ErrStatusDowngrade) {
		t.Errorf("expected ErrStatusDowngrade, got %v", err)
	}
	if _, err := store.SetStatus(ctx, primitive.NewObjectID(), models.TeamStatusQualified); !errors.Is(err, teamstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	store, _, ctx := setup(t)

	a, err := store.Create(ctx, testutil.NewTeam("Alpha", 1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	b, err := store.Create(ctx, testutil.NewTeam("Beta Squad", 2))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.SetStatus(ctx, a.ID, models.TeamStatusQualified); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	all, err := store.List(ctx, teamstore.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(all))
	}
	if all[0].ID != b.ID {
		t.Error("newest team should come first")
	}

	qualified, err := store.List(ctx, teamstore.Filter{Status: models.TeamStatusQualified})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(qualified) != 1 || qualified[0].ID != a.ID {
		t.Errorf("status filter returned %d teams", len(qualified))
	}

	cases := map[string]int{
		"beta":             1,
		"SQUAD":            1,
		b.Members[1].Email: 1,
		"leader":           2,
		"21BCE0000":        2,
		"(no-such.team)":   0,
	}
	for search, want := range cases {
		got, err := store.List(ctx, teamstore.Filter{Search: search})
		if err != nil {
			t.Fatalf("List(%q) failed: %v", search, err)
		}
		if len(got) != want {
			t.Errorf("List(%q) = %d teams, want %d", search, len(got), want)
		}
	}

	empty, err := store.List(ctx, teamstore.Filter{Search: "zzz"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if empty == nil {
		t.Error("no matches should give an empty slice, not nil")
	}
}
