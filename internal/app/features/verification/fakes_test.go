package verification_test

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/hackreg/internal/app/services/otp"
	teamstore "github.com/dalemusser/hackreg/internal/app/store/teams"
	"github.com/dalemusser/hackreg/internal/app/store/verifycodes"
	"github.com/dalemusser/hackreg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errDB = errors.New("db unavailable")

type memTeams struct {
	mu      sync.Mutex
	teams   map[primitive.ObjectID]models.Team
	markErr error
}

func newMemTeams(teams ...models.Team) *memTeams {
	s := &memTeams{teams: map[primitive.ObjectID]models.Team{}}
	for _, t := range teams {
		s.teams[t.ID] = t
	}
	return s
}

func (s *memTeams) GetByID(_ context.Context, id primitive.ObjectID) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return models.Team{}, teamstore.ErrNotFound
	}
	return clone(t), nil
}

func (s *memTeams) FindByMemberEmail(_ context.Context, email string) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.teams {
		if t.MemberIndex(email) >= 0 {
			return clone(t), nil
		}
	}
	return models.Team{}, teamstore.ErrNotFound
}

func (s *memTeams) MarkVerified(_ context.Context, id primitive.ObjectID, emails []string) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return models.Team{}, s.markErr
	}
	t, ok := s.teams[id]
	if !ok {
		return models.Team{}, teamstore.ErrNotFound
	}
	t = clone(t)
	for _, e := range emails {
		if i := t.MemberIndex(e); i >= 0 {
			t.Members[i].Verified = true
		}
	}
	s.teams[id] = t
	return clone(t), nil
}

func clone(t models.Team) models.Team {
	t.Members = append([]models.Member(nil), t.Members...)
	return t
}

type codeKey struct {
	team  primitive.ObjectID
	email string
}

type codeEntry struct {
	code    string
	expired bool
}

// memCodes holds at most one code per (team, email), consumed at most once.
type memCodes struct {
	mu    sync.Mutex
	codes map[codeKey]codeEntry
	err   error
}

func newMemCodes() *memCodes {
	return &memCodes{codes: map[codeKey]codeEntry{}}
}

func (c *memCodes) set(team primitive.ObjectID, email, code string, expired bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[codeKey{team, email}] = codeEntry{code: code, expired: expired}
}

func (c *memCodes) Consume(_ context.Context, team primitive.ObjectID, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	k := codeKey{team, email}
	e, ok := c.codes[k]
	if !ok || e.code != code {
		return verifycodes.ErrInvalidCode
	}
	delete(c.codes, k)
	if e.expired {
		return verifycodes.ErrExpired
	}
	return nil
}

// fakeIssuer stores a fixed code for each resend; emails in fail get a
// send failure.
type fakeIssuer struct {
	codes *memCodes
	next  string
	fail  map[string]bool
	sent  []string
}

func (f *fakeIssuer) Issue(_ context.Context, team models.Team, email string, kind otp.Kind) (otp.Delivery, error) {
	if kind != otp.Resend {
		return otp.Delivery{}, errors.New("unexpected kind")
	}
	f.codes.set(team.ID, email, f.next, false)
	if f.fail[email] {
		return otp.Delivery{Email: email, Error: otp.ReasonSend}, otp.ErrSend
	}
	f.sent = append(f.sent, email)
	return otp.Delivery{Email: email, Sent: true}, nil
}
