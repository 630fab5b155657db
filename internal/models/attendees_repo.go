package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AttendeesColName = "event_attendees"

// AttendeesRepo stores the membership set, one record per (event, user).
type AttendeesRepo interface {
	// AddAttendee reports whether a new membership was created.
	AddAttendee(ctx context.Context, attendee Attendee) (bool, error)
	// RemoveAttendee reports whether a membership existed and was removed.
	RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	IsAttendee(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	// GetAttendee looks up one membership; found is false when there is none.
	GetAttendee(ctx context.Context, eventID, userID uuid.UUID) (attendee Attendee, found bool, err error)
	ListAttendees(ctx context.Context, eventID uuid.UUID, limit int) ([]Attendee, error)
	EventsAttendedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	DeleteAttendees(ctx context.Context, eventID uuid.UUID) error
}

type attendeeDoc struct {
	EventID   string    `bson:"event_id"`
	UserID    string    `bson:"user_id"`
	AvatarURL string    `bson:"avatar_url"`
	JoinedAt  time.Time `bson:"joined_at"`
}

func (d attendeeDoc) toAttendee() (Attendee, error) {
	eventID, err := uuid.Parse(d.EventID)
	if err != nil {
		return Attendee{}, fmt.Errorf("invalid event_id %q: %w", d.EventID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return Attendee{}, fmt.Errorf("invalid user_id %q: %w", d.UserID, err)
	}
	return Attendee{EventID: eventID, UserID: userID, AvatarURL: d.AvatarURL, JoinedAt: d.JoinedAt}, nil
}

// EnsureAttendeeIndexes creates the unique membership index.
func (mdb *MongodbRepo) EnsureAttendeeIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, AttendeesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "event_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("event_user_unique"),
		},
		{
			Keys: bson.D{
				{Key: "event_id", Value: 1},
				{Key: "joined_at", Value: -1},
			},
			Options: options.Index().SetName("event_joined_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) AddAttendee(ctx context.Context, attendee Attendee) (bool, error) {
	col, err := mdb.GetCollection(ctx, AttendeesColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %v", err)
	}

	if attendee.JoinedAt.IsZero() {
		attendee.JoinedAt = time.Now()
	}

	filter := bson.M{
		"event_id": attendee.EventID.String(),
		"user_id":  attendee.UserID.String(),
	}
	update := bson.M{
		"$setOnInsert": attendeeDoc{
			EventID:   attendee.EventID.String(),
			UserID:    attendee.UserID.String(),
			AvatarURL: attendee.AvatarURL,
			JoinedAt:  attendee.JoinedAt,
		},
	}

	res, err := col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// a concurrent upsert of the same pair loses on the unique index
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("error upserting attendee: %v", err)
	}

	return res.UpsertedCount == 1, nil
}

func (mdb *MongodbRepo) RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	col, err := mdb.GetCollection(ctx, AttendeesColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{
		"event_id": eventID.String(),
		"user_id":  userID.String(),
	})
	if err != nil {
		return false, fmt.Errorf("error removing attendee: %v", err)
	}

	return res.DeletedCount == 1, nil
}

func (mdb *MongodbRepo) IsAttendee(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	col, err := mdb.GetCollection(ctx, AttendeesColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %v", err)
	}

	count, err := col.CountDocuments(ctx, bson.M{
		"event_id": eventID.String(),
		"user_id":  userID.String(),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking attendee: %v", err)
	}

	return count > 0, nil
}

func (mdb *MongodbRepo) GetAttendee(ctx context.Context, eventID, userID uuid.UUID) (Attendee, bool, error) {
	col, err := mdb.GetCollection(ctx, AttendeesColName)
	if err != nil {
		return Attendee{}, false, fmt.Errorf("error getting collection: %v", err)
	}

	var doc attendeeDoc
	err = col.FindOne(ctx, bson.M{
		"event_id": eventID.String(),
		"user_id":  userID.String(),
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Attendee{}, false, nil
	}
	if err != nil {
		return Attendee{}, false, fmt.Errorf("error finding attendee: %v", err)
	}

	a, err := doc.toAttendee()
	if err != nil {
		return Attendee{}, false, err
	}
	return a, true, nil
}

// ListAttendees returns the most recent joiners first.
func (mdb *MongodbRepo) ListAttendees(ctx context.Context, eventID uuid.UUID, limit int) ([]Attendee, error) {
	col, err := mdb.GetCollection(ctx, AttendeesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := col.Find(ctx, bson.M{"event_id": eventID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding attendees: %v", err)
	}
	defer cursor.Close(ctx)

	var docs []attendeeDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding attendees: %v", err)
	}

	attendees := make([]Attendee, 0, len(docs))
	for _, d := range docs {
		a, err := d.toAttendee()
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, nil
}

func (mdb *MongodbRepo) EventsAttendedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	col, err := mdb.GetCollection(ctx, AttendeesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	raw, err := col.Distinct(ctx, "event_id", bson.M{"user_id": userID.String()})
	if err != nil {
		return nil, fmt.Errorf("error listing attended events: %v", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (mdb *MongodbRepo) DeleteAttendees(ctx context.Context, eventID uuid.UUID) error {
	col, err := mdb.GetCollection(ctx, AttendeesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	if _, err := col.DeleteMany(ctx, bson.M{"event_id": eventID.String()}); err != nil {
		return fmt.Errorf("error deleting attendees: %v", err)
	}
	return nil
}
