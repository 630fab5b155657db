package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedTitles(items []FeedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Event.Title
	}
	return out
}

func TestFeed_GroupsAndOrders(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for _, d := range []struct{ title, start string }{
		{"Tomorrow late", "2024-03-16T20:00"},
		{"Today evening", "2024-03-15T18:00"},
		{"Today morning", "2024-03-15T08:00"},
		{"Next week", "2024-03-22T10:00"},
		{"Yesterday", "2024-03-14T10:00"},
		{"Tomorrow early", "2024-03-16T07:00"},
	} {
		_, err := env.events.Submit(ctx, env.draft(d.title, d.start), env.owner)
		require.NoError(t, err)
	}

	feed, err := env.feed.Build(ctx, FeedQuery{}, uuid.Nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, []string{"Today morning", "Today evening"}, feedTitles(feed.Today))
	assert.Equal(t, []string{"Tomorrow early", "Tomorrow late", "Next week"}, feedTitles(feed.Upcoming))
	assert.Equal(t, "Corner Coffee Roasters", feed.Today[0].ShopName)
	assert.Equal(t, "Be the first to join", feed.Today[0].AttendanceLabel)
}

func TestFeed_EndedTodayIsExpired(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	d := env.draft("Breakfast club", "2024-03-15T07:00")
	d.EndDateTime = "2024-03-15T09:00"
	_, err := env.events.Submit(ctx, d, env.owner)
	require.NoError(t, err)

	multi := env.draft("Market week", "2024-03-13T09:00")
	multi.EndDateTime = "2024-03-17T18:00"
	_, err = env.events.Submit(ctx, multi, env.owner)
	require.NoError(t, err)

	feed, err := env.feed.Build(ctx, FeedQuery{}, uuid.Nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Market week"}, feedTitles(feed.Today))
	assert.Empty(t, feed.Upcoming)
}

func TestFeed_Visibility(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	rejected, err := env.events.Submit(ctx, env.draft("Rejected but published", "2024-03-16T10:00"), env.owner)
	require.NoError(t, err)
	_, err = env.events.SetStatus(ctx, rejected.ID, models.EventStatusRejected, env.admin)
	require.NoError(t, err)
	_, err = env.events.SetPublished(ctx, rejected.ID, true, env.owner)
	require.NoError(t, err)

	_, err = env.events.Submit(ctx, env.draft("Pending", "2024-03-16T11:00"), env.guest)
	require.NoError(t, err)

	pendingPublished, err := env.events.Submit(ctx, env.draft("Pending but published", "2024-03-16T12:00"), env.guest)
	require.NoError(t, err)
	_, err = env.events.SetPublished(ctx, pendingPublished.ID, true, env.owner)
	require.NoError(t, err)

	feed, err := env.feed.Build(ctx, FeedQuery{}, uuid.Nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pending but published"}, feedTitles(feed.Upcoming))
	assert.Empty(t, feed.Today)
}

func TestFeed_ModerationScenario(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, err := env.events.Submit(ctx, env.draft("Event A", "2024-03-15T20:00"), env.guest)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPending, a.Status)

	approved, err := env.events.SetStatus(ctx, a.ID, models.EventStatusApproved, env.admin)
	require.NoError(t, err)
	assert.False(t, approved.IsPublished)

	feed, err := env.feed.Build(ctx, FeedQuery{}, uuid.Nil, testNow)
	require.NoError(t, err)
	assert.Empty(t, feed.Today)

	_, err = env.events.SetPublished(ctx, a.ID, true, env.owner)
	require.NoError(t, err)

	feed, err = env.feed.Build(ctx, FeedQuery{}, uuid.Nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Event A"}, feedTitles(feed.Today))
}

func TestFeed_Filters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	otherShop := uuid.New()
	env.repo.PutShop(&models.Shop{ID: otherShop, Name: "Greenleaf Books"})

	music := env.draft("Open mic", "2024-03-16T19:00")
	_, err := env.events.Submit(ctx, music, env.owner)
	require.NoError(t, err)

	workshop := &models.EventDraft{ShopID: otherShop, Title: "Bookbinding", EventType: "workshop", StartDateTime: "2024-03-17T10:00", IsPublished: true}
	_, err = env.events.Submit(ctx, workshop, env.admin)
	require.NoError(t, err)

	feed, err := env.feed.Build(ctx, FeedQuery{EventType: "Workshop"}, uuid.Nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bookbinding"}, feedTitles(feed.Upcoming))

	feed, err = env.feed.Build(ctx, FeedQuery{Query: "OPEN"}, uuid.Nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Open mic"}, feedTitles(feed.Upcoming))

	feed, err = env.feed.Build(ctx, FeedQuery{Query: "greenleaf"}, uuid.Nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bookbinding"}, feedTitles(feed.Upcoming), "matches the shop name")

	_, err = env.feed.Build(ctx, FeedQuery{EventType: "rave"}, uuid.Nil, testNow)
	assert.True(t, models.IsValidation(err))
}

func TestFeed_SearchFoldsCase(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.events.Submit(ctx, env.draft("Straßenfest", "2024-03-16T12:00"), env.owner)
	require.NoError(t, err)

	feed, err := env.feed.Build(ctx, FeedQuery{Query: "STRASSEN"}, uuid.Nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Straßenfest"}, feedTitles(feed.Upcoming))
}

func TestFeed_ViewerLabel(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	ev, err := env.events.Submit(ctx, env.draft("Jazz night", "2024-03-15T19:00"), env.owner)
	require.NoError(t, err)

	viewer := uuid.New()
	_, err = env.attendance.Join(ctx, ev.ID, viewer, "")
	require.NoError(t, err)
	_, err = env.attendance.Join(ctx, ev.ID, uuid.New(), "")
	require.NoError(t, err)

	feed, err := env.feed.Build(ctx, FeedQuery{}, viewer, testNow)
	require.NoError(t, err)
	require.Len(t, feed.Today, 1)
	assert.True(t, feed.Today[0].ViewerAttending)
	assert.Equal(t, "You and 1 other", feed.Today[0].AttendanceLabel)

	feed, err = env.feed.Build(ctx, FeedQuery{}, uuid.Nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, "2 going", feed.Today[0].AttendanceLabel)
}
