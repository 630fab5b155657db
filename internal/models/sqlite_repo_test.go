package models

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSqlite(t *testing.T) *SqliteRepo {
	t.Helper()
	repo, err := NewSqliteRepo(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSqliteRepo_EventRoundTrip(t *testing.T) {
	repo := newTestSqlite(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	ev := &Event{
		ID:            uuid.New(),
		ShopID:        uuid.New(),
		Title:         "Latte Art Night",
		EventType:     EventTypeWorkshop,
		StartDateTime: "2024-03-20T18:00",
		EndDateTime:   "2024-03-20T20:00",
		Status:        EventStatusPending,
		SubmittedBy:   uuid.New(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.PutEvent(ctx, ev))

	got, err := repo.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.Title, got.Title)
	assert.Equal(t, ev.SubmittedBy, got.SubmittedBy)
	assert.Equal(t, EventStatusPending, got.Status)
	assert.False(t, got.IsPublished)
	assert.Empty(t, got.RecentAttendees)
	assert.True(t, now.Equal(got.CreatedAt))

	ev.Status = EventStatusApproved
	ev.IsPublished = true
	ev.AttendeeCount = 1
	ev.RecentAttendees = []AttendeeSummary{{UserID: uuid.New(), AvatarURL: "https://img.test/a.png"}}
	require.NoError(t, repo.PutEvent(ctx, ev))

	got, err = repo.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, EventStatusApproved, got.Status)
	assert.True(t, got.IsPublished)
	assert.Equal(t, 1, got.AttendeeCount)
	assert.Equal(t, ev.RecentAttendees, got.RecentAttendees)

	all, err := repo.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteEvent(ctx, ev.ID))
	_, err = repo.GetEvent(ctx, ev.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestSqliteRepo_AttendeesAreUnique(t *testing.T) {
	repo := newTestSqlite(t)
	ctx := context.Background()
	eventID, userID := uuid.New(), uuid.New()

	joined := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	added, err := repo.AddAttendee(ctx, Attendee{EventID: eventID, UserID: userID, AvatarURL: "https://img.test/u.png", JoinedAt: joined})
	require.NoError(t, err)
	assert.True(t, added)

	got, found, err := repo.GetAttendee(ctx, eventID, userID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://img.test/u.png", got.AvatarURL)
	assert.True(t, joined.Equal(got.JoinedAt))

	_, found, err = repo.GetAttendee(ctx, eventID, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)

	added, err = repo.AddAttendee(ctx, Attendee{EventID: eventID, UserID: userID})
	require.NoError(t, err)
	assert.False(t, added)

	ok, err := repo.IsAttendee(ctx, eventID, userID)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := repo.EventsAttendedBy(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{eventID}, ids)

	removed, err := repo.RemoveAttendee(ctx, eventID, userID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveAttendee(ctx, eventID, userID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSqliteRepo_ListAttendeesNewestFirst(t *testing.T) {
	repo := newTestSqlite(t)
	ctx := context.Background()
	eventID := uuid.New()
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	var users []uuid.UUID
	for i := 0; i < 4; i++ {
		u := uuid.New()
		users = append(users, u)
		_, err := repo.AddAttendee(ctx, Attendee{EventID: eventID, UserID: u, JoinedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	got, err := repo.ListAttendees(ctx, eventID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, users[3], got[0].UserID)
	assert.Equal(t, users[2], got[1].UserID)

	require.NoError(t, repo.DeleteAttendees(ctx, eventID))
	got, err = repo.ListAttendees(ctx, eventID, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSqliteRepo_Shops(t *testing.T) {
	repo := newTestSqlite(t)
	ctx := context.Background()
	owner := uuid.New()

	roasters := &Shop{ID: uuid.New(), OwnerID: owner, Name: "Corner Coffee Roasters", Images: []string{"https://img.test/1.png"}}
	bakery := &Shop{ID: uuid.New(), OwnerID: uuid.New(), Name: "Bakery on Fifth"}
	require.NoError(t, repo.PutShop(ctx, roasters))
	require.NoError(t, repo.PutShop(ctx, bakery))

	got, err := repo.GetShop(ctx, roasters.ID)
	require.NoError(t, err)
	assert.Equal(t, roasters.Images, got.Images)

	_, err = repo.GetShop(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrShopNotFound)

	page, total, err := repo.ListShops(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Bakery on Fifth", page[0].Name)

	_, _, err = repo.ListShops(ctx, -1, 1)
	assert.True(t, IsValidation(err))

	owned, err := repo.ListShopIDsByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{roasters.ID}, owned)

	names, err := repo.ShopNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Corner Coffee Roasters", names[roasters.ID])
}

func TestSqliteRepo_Users(t *testing.T) {
	repo := newTestSqlite(t)
	ctx := context.Background()

	user := &User{ID: uuid.New(), Username: "ama", Email: "ama@nearby.test", Role: "guest"}
	require.NoError(t, repo.PutUser(ctx, user))

	got, err := repo.GetUser(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "ama@nearby.test", got.Email)

	_, err = repo.GetUser(ctx, uuid.New(), "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.AuthenticateUser(ctx, "ama@nearby.test", "secret")
	assert.Error(t, err)
}
