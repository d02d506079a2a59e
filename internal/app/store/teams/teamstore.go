// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dalemusser/hackreg/internal/app/system/txn"
	"github.com/dalemusser/hackreg/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("team not found")
	// ErrNameTaken is returned when another team already uses the name
	// (compared case-insensitively).
	ErrNameTaken = errors.New("team name is already taken")
	// ErrStatusDowngrade is returned when a qualified team would go back
	// to registered.
	ErrStatusDowngrade = errors.New("team status cannot move backwards")
)

// EmailTakenError reports that an email already belongs to a team.
type EmailTakenError struct {
	Email string
	Role  string // role the email was being claimed for
}

func (e *EmailTakenError) Error() string {
	return fmt.Sprintf("%s %s is already part of a team", e.Role, e.Email)
}

// Store persists teams together with the participant claims that keep
// every email on at most one team.
type Store struct {
	c      *mongo.Collection
	p      *mongo.Collection
	client *mongo.Client
	log    *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		c:      db.Collection("teams"),
		p:      db.Collection("participants"),
		client: db.Client(),
		log:    log,
	}
}

// Create inserts the team and claims every email on it. Claims go in leader
// first, so a conflict is reported for the first taken email in team order;
// the team name is checked last. On any failure nothing from this call is
// left behind.
func (s *Store) Create(ctx context.Context, team models.Team) (models.Team, error) {
	now := time.Now().UTC()
	if team.ID.IsZero() {
		team.ID = primitive.NewObjectID()
	}
	team.TeamNameCI = text.Fold(team.TeamName)
	if team.Status == "" {
		team.Status = models.TeamStatusRegistered
	}
	for i := range team.Members {
		team.Members[i].Verified = false
	}
	team.CreatedAt = now
	team.UpdatedAt = now

	err := txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		for i, email := range team.Emails() {
			role := models.ParticipantMember
			if i == 0 {
				role = models.ParticipantLeader
			}
			_, err := s.p.InsertOne(ctx, models.Participant{
				Email:     email,
				TeamID:    team.ID,
				Role:      role,
				CreatedAt: now,
			})
			if err != nil {
				if wafflemongo.IsDup(err) {
					return &EmailTakenError{Email: email, Role: role}
				}
				return fmt.Errorf("claim %s: %w", email, err)
			}
		}
		if _, err := s.c.InsertOne(ctx, team); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrNameTaken
			}
			return fmt.Errorf("insert team: %w", err)
		}
		return nil
	})
	if err != nil {
		s.release(team.ID)
		return models.Team{}, err
	}
	return team, nil
}

// release removes whatever a failed Create managed to write. Filters are
// scoped to the team id so claims held by other teams are never touched.
func (s *Store) release(teamID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.p.DeleteMany(ctx, bson.M{"team_id": teamID}); err != nil {
		s.log.Warn("release participant claims", zap.String("team_id", teamID.Hex()), zap.Error(err))
	}
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": teamID}); err != nil {
		s.log.Warn("release team", zap.String("team_id", teamID.Hex()), zap.Error(err))
	}
}

// EmailTaken reports whether email already belongs to a team, as leader or
// member.
func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	err := s.p.FindOne(ctx, bson.M{"_id": email}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NameTaken reports whether a team with the case-insensitive name exists.
func (s *Store) NameTaken(ctx context.Context, name string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"team_name_ci": text.Fold(name)}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Team{}, ErrNotFound
	}
	if err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// FindByMemberEmail returns the team listing email as a member. Leaders are
// not matched.
func (s *Store) FindByMemberEmail(ctx context.Context, email string) (models.Team, error) {
	var t models.Team
	err := s.c.FindOne(ctx, bson.M{"members.email": email}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Team{}, ErrNotFound
	}
	if err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// MarkVerified flags the given members as verified in one update and
// returns the team as stored afterwards.
func (s *Store) MarkVerified(ctx context.Context, teamID primitive.ObjectID, emails []string) (models.Team, error) {
	if len(emails) == 0 {
		return s.GetByID(ctx, teamID)
	}
	opts := options.FindOneAndUpdate().
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m.email": bson.M{"$in": emails}}},
		}).
		SetReturnDocument(options.After)

	var t models.Team
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": teamID},
		bson.M{"$set": bson.M{
			"members.$[m].verified": true,
			"updated_at":            time.Now().UTC(),
		}},
		opts,
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Team{}, ErrNotFound
	}
	if err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// SetStatus moves a team to status. Setting the current status again is a
// no-op; qualified teams cannot go back to registered.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (models.Team, error) {
	filter := bson.M{"_id": id}
	if status == models.TeamStatusRegistered {
		filter["status"] = models.TeamStatusRegistered
	}

	var t models.Team
	err := s.c.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return models.Team{}, gerr
		}
		return models.Team{}, ErrStatusDowngrade
	}
	if err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status string
	Search string
}

// searchFields are matched by Filter.Search.
var searchFields = []string{
	"team_name",
	"leader.name",
	"leader.email",
	"leader.reg_no",
	"members.name",
	"members.email",
	"members.reg_no",
}

func (f Filter) bson() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := make([]bson.M, 0, len(searchFields))
		for _, field := range searchFields {
			or = append(or, bson.M{field: re})
		}
		q["$or"] = or
	}
	return q
}

// List returns matching teams, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Team, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, f.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	teams := []models.Team{}
	if err := cur.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}
