package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttendanceEvent(t *testing.T, env *testEnv) *models.Event {
	t.Helper()
	ev, err := env.events.Submit(context.Background(), env.draft("Jazz night", "2024-03-20T19:00"), env.owner)
	require.NoError(t, err)
	return ev
}

func TestJoinLeave_SingleUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ev := newAttendanceEvent(t, env)
	user := uuid.New()

	snap, err := env.attendance.Join(ctx, ev.ID, user, "https://cdn.example.com/u.png")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.AttendeeCount)
	assert.Equal(t, []models.AttendeeSummary{{UserID: user, AvatarURL: "https://cdn.example.com/u.png"}}, snap.RecentAttendees)

	snap, err = env.attendance.Leave(ctx, ev.ID, user)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.AttendeeCount)
	assert.Empty(t, snap.RecentAttendees)
}

func TestJoinLeave_Idempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ev := newAttendanceEvent(t, env)
	user := uuid.New()

	first, err := env.attendance.Join(ctx, ev.ID, user, "")
	require.NoError(t, err)
	second, err := env.attendance.Join(ctx, ev.ID, user, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.repo.CountAttendees(ev.ID))

	_, err = env.attendance.Leave(ctx, ev.ID, user)
	require.NoError(t, err)
	snap, err := env.attendance.Leave(ctx, ev.ID, user)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.AttendeeCount)
}

func TestJoin_RecentIsBoundedAndNewestFirst(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ev := newAttendanceEvent(t, env)

	users := make([]uuid.UUID, 5)
	for i := range users {
		users[i] = uuid.New()
		snap, err := env.attendance.Join(ctx, ev.ID, users[i], "")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(snap.RecentAttendees), min(models.MaxRecentAttendees, snap.AttendeeCount))
	}

	snap, err := env.attendance.Snapshot(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.AttendeeCount)
	require.Len(t, snap.RecentAttendees, 3)
	assert.Equal(t, users[4], snap.RecentAttendees[0].UserID)
	assert.Equal(t, users[3], snap.RecentAttendees[1].UserID)
	assert.Equal(t, users[2], snap.RecentAttendees[2].UserID)

	// leaving from the preview shrinks it below the count
	snap, err = env.attendance.Leave(ctx, ev.ID, users[4])
	require.NoError(t, err)
	assert.Equal(t, 4, snap.AttendeeCount)
	assert.Len(t, snap.RecentAttendees, 2)
}

func TestJoin_ConcurrentDistinctUsers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ev := newAttendanceEvent(t, env)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.attendance.Join(ctx, ev.ID, uuid.New(), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := env.attendance.Snapshot(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, n, snap.AttendeeCount)
	assert.Equal(t, n, env.repo.CountAttendees(ev.ID))
	assert.Len(t, snap.RecentAttendees, models.MaxRecentAttendees)
}

func TestJoinLeave_ConcurrentSameUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ev := newAttendanceEvent(t, env)
	user := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.attendance.Join(ctx, ev.ID, user, "")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := env.attendance.Leave(ctx, ev.ID, user)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := env.attendance.Snapshot(ctx, ev.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, snap.AttendeeCount, 0)
	assert.Equal(t, env.repo.CountAttendees(ev.ID), snap.AttendeeCount)
}

func TestJoin_RollsBackOnStoreFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ev := newAttendanceEvent(t, env)
	user := uuid.New()

	env.repo.FailNextPuts(1, errors.New("timeout"))
	_, err := env.attendance.Join(ctx, ev.ID, user, "")
	require.Error(t, err)

	var perr *models.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable())

	member, err := env.attendance.IsAttending(ctx, ev.ID, user)
	require.NoError(t, err)
	assert.False(t, member, "membership is undone")
	assert.Equal(t, []NotificationLevel{NotifyError}, env.notifier.levelsFor(user))

	snap, err := env.attendance.Snapshot(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.AttendeeCount)
	assert.Empty(t, snap.RecentAttendees)

	// a retry succeeds
	snap, err = env.attendance.Join(ctx, ev.ID, user, "")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.AttendeeCount)
}

func TestLeave_RollsBackOnStoreFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ev := newAttendanceEvent(t, env)
	user := uuid.New()

	_, err := env.attendance.Join(ctx, ev.ID, user, "https://img.test/u.png")
	require.NoError(t, err)
	before, found, err := env.repo.GetAttendee(ctx, ev.ID, user)
	require.NoError(t, err)
	require.True(t, found)

	env.repo.FailNextPuts(1, errors.New("timeout"))
	_, err = env.attendance.Leave(ctx, ev.ID, user)
	assert.True(t, models.IsPersistence(err))
	assert.Equal(t, []NotificationLevel{NotifyError}, env.notifier.levelsFor(user))

	member, err := env.attendance.IsAttending(ctx, ev.ID, user)
	require.NoError(t, err)
	assert.True(t, member, "membership is restored")

	after, found, err := env.repo.GetAttendee(ctx, ev.ID, user)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, before, after, "restored record keeps its avatar and join time")

	snap, err := env.attendance.Snapshot(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.AttendeeCount)
	assert.Len(t, snap.RecentAttendees, 1)
}

func TestJoin_Errors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ev := newAttendanceEvent(t, env)

	_, err := env.attendance.Join(ctx, ev.ID, uuid.Nil, "")
	assert.True(t, models.IsAuthorization(err))

	_, err = env.attendance.Join(ctx, uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, models.ErrEventNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = env.attendance.Join(cancelled, ev.ID, uuid.New(), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttendedSet(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := newAttendanceEvent(t, env)
	b := newAttendanceEvent(t, env)
	user := uuid.New()

	_, err := env.attendance.Join(ctx, a.ID, user, "")
	require.NoError(t, err)

	set, err := env.attendance.AttendedSet(ctx, user)
	require.NoError(t, err)
	assert.True(t, set[a.ID])
	assert.False(t, set[b.ID])

	empty, err := env.attendance.AttendedSet(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPrependRecent(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	recent := []models.AttendeeSummary{{UserID: c}, {UserID: b}, {UserID: a}}

	got := prependRecent(recent, models.AttendeeSummary{UserID: d}, 4)
	assert.Equal(t, []models.AttendeeSummary{{UserID: d}, {UserID: c}, {UserID: b}}, got)

	got = prependRecent(recent, models.AttendeeSummary{UserID: a}, 3)
	assert.Equal(t, []models.AttendeeSummary{{UserID: a}, {UserID: c}, {UserID: b}}, got)

	got = prependRecent(nil, models.AttendeeSummary{UserID: a}, 1)
	assert.Len(t, got, 1)
}
