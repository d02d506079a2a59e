package teams_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/hackreg/internal/app/services/otp"
	teamstore "github.com/dalemusser/hackreg/internal/app/store/teams"
	"github.com/dalemusser/hackreg/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory teams store with the same uniqueness rules as
// teamstore.Store.
type memStore struct {
	mu     sync.Mutex
	teams  map[primitive.ObjectID]models.Team
	claims map[string]primitive.ObjectID
	err    error
}

func newMemStore() *memStore {
	return &memStore{
		teams:  map[primitive.ObjectID]models.Team{},
		claims: map[string]primitive.ObjectID{},
	}
}

func (s *memStore) Create(_ context.Context, t models.Team) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Team{}, s.err
	}
	for i, email := range t.Emails() {
		if _, ok := s.claims[email]; ok {
			role := models.ParticipantMember
			if i == 0 {
				role = models.ParticipantLeader
			}
			return models.Team{}, &teamstore.EmailTakenError{Email: email, Role: role}
		}
	}
	t.TeamNameCI = text.Fold(t.TeamName)
	for _, other := range s.teams {
		if other.TeamNameCI == t.TeamNameCI {
			return models.Team{}, teamstore.ErrNameTaken
		}
	}
	t.ID = primitive.NewObjectID()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	for _, email := range t.Emails() {
		s.claims[email] = t.ID
	}
	s.teams[t.ID] = t
	return t, nil
}

func (s *memStore) EmailTaken(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.claims[email]
	return ok, nil
}

func (s *memStore) NameTaken(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.teams {
		if t.TeamNameCI == text.Fold(name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return models.Team{}, teamstore.ErrNotFound
	}
	return t, nil
}

func (s *memStore) SetStatus(_ context.Context, id primitive.ObjectID, status string) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return models.Team{}, teamstore.ErrNotFound
	}
	if t.Status == models.TeamStatusQualified && status == models.TeamStatusRegistered {
		return models.Team{}, teamstore.ErrStatusDowngrade
	}
	t.Status = status
	s.teams[id] = t
	return t, nil
}

func (s *memStore) List(_ context.Context, f teamstore.Filter) ([]models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []models.Team{}
	for _, t := range s.teams {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.TeamName), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.teams)
}

type issued struct {
	teamID primitive.ObjectID
	email  string
	kind   otp.Kind
}

// fakeIssuer records issued codes; emails in fail get a send failure.
type fakeIssuer struct {
	mu     sync.Mutex
	issued []issued
	fail   map[string]bool
}

func (f *fakeIssuer) Issue(_ context.Context, team models.Team, email string, kind otp.Kind) (otp.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, issued{teamID: team.ID, email: email, kind: kind})
	if f.fail[email] {
		return otp.Delivery{Email: email, Error: otp.ReasonSend}, otp.ErrSend
	}
	return otp.Delivery{Email: email, Sent: true}, nil
}

var errDB = errors.New("db unavailable")
