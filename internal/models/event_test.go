package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	cases := map[string]EventType{
		"Tasting":   EventTypeTasting,
		"music":     EventTypeMusic,
		"Pop-up":    EventTypePopUp,
		"POP UP":    EventTypePopUp,
		" Active ":  EventTypeActive,
		"":          EventTypeOther,
		"Community": EventTypeCommunity,
	}
	for in, want := range cases {
		got, err := ParseEventType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseEventType("rave")
	assert.Error(t, err)
}

func TestEventCloneDoesNotShareAttendees(t *testing.T) {
	ev := &Event{RecentAttendees: []AttendeeSummary{{UserID: uuid.New()}}}
	c := ev.Clone()
	c.RecentAttendees[0].AvatarURL = "changed"
	assert.Empty(t, ev.RecentAttendees[0].AvatarURL)
}

func TestIsPubliclyVisible(t *testing.T) {
	assert.True(t, (&Event{IsPublished: true, Status: EventStatusApproved}).IsPubliclyVisible())
	assert.True(t, (&Event{IsPublished: true, Status: EventStatusPending}).IsPubliclyVisible())
	assert.False(t, (&Event{IsPublished: true, Status: EventStatusRejected}).IsPubliclyVisible())
	assert.False(t, (&Event{IsPublished: false, Status: EventStatusApproved}).IsPubliclyVisible())
}

func TestEffectiveEnd(t *testing.T) {
	ev := &Event{StartDateTime: "2024-03-15T09:30"}
	end, explicit := ev.EffectiveEnd()
	assert.Equal(t, "2024-03-15T09:30", end)
	assert.False(t, explicit)

	ev.EndDateTime = "2024-03-15T11:00"
	end, explicit = ev.EffectiveEnd()
	assert.Equal(t, "2024-03-15T11:00", end)
	assert.True(t, explicit)
}

func TestDraftValidateRequired(t *testing.T) {
	valid := EventDraft{ShopID: uuid.New(), Title: "Wine night", StartDateTime: "2024-03-15T19:00"}
	require.NoError(t, valid.ValidateRequired())

	missingShop := valid
	missingShop.ShopID = uuid.Nil
	missingTitle := valid
	missingTitle.Title = ""
	missingStart := valid
	missingStart.StartDateTime = ""
	badTicket := valid
	badTicket.TicketURL = "not a url"

	for name, d := range map[string]EventDraft{
		"shop_id":         missingShop,
		"title":           missingTitle,
		"start_date_time": missingStart,
		"ticket_url":      badTicket,
	} {
		err := d.ValidateRequired()
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr), name)
		assert.Equal(t, name, vErr.Field)
	}
}

func TestActorPrivilege(t *testing.T) {
	shop := uuid.New()
	assert.True(t, Actor{IsAdmin: true}.IsPrivilegedFor(shop))
	assert.True(t, Actor{OwnedShopIDs: []uuid.UUID{uuid.New(), shop}}.IsPrivilegedFor(shop))
	assert.False(t, Actor{OwnedShopIDs: []uuid.UUID{uuid.New()}}.IsPrivilegedFor(shop))
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := fmt.Errorf("join: %w", &PersistenceError{Op: "put event", Err: cause})
	assert.True(t, IsPersistence(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidation(err))
}

func TestMemoryRepo_AttendeeMembershipIsKeyed(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	eventID, userID := uuid.New(), uuid.New()

	created, err := repo.AddAttendee(ctx, Attendee{EventID: eventID, UserID: userID})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.AddAttendee(ctx, Attendee{EventID: eventID, UserID: userID})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, repo.CountAttendees(eventID))

	attended, err := repo.EventsAttendedBy(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{eventID}, attended)

	removed, err := repo.RemoveAttendee(ctx, eventID, userID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveAttendee(ctx, eventID, userID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryRepo_FailNextPuts(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	ev := &Event{ID: uuid.New(), Title: "first"}

	repo.FailNextPuts(1, errors.New("store down"))
	require.Error(t, repo.PutEvent(ctx, ev))
	_, err := repo.GetEvent(ctx, ev.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	require.NoError(t, repo.PutEvent(ctx, ev))
	got, err := repo.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	// stored copies are isolated from caller mutation
	got.Title = "mutated"
	again, _ := repo.GetEvent(ctx, ev.ID)
	assert.Equal(t, "first", again.Title)
}
