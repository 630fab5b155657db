package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/models"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) levels() []NotificationLevel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationLevel, len(r.items))
	for i, n := range r.items {
		out[i] = n.Level
	}
	return out
}

func (r *recordingNotifier) levelsFor(userID uuid.UUID) []NotificationLevel {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []NotificationLevel
	for _, n := range r.items {
		if n.UserID == userID.String() {
			out = append(out, n.Level)
		}
	}
	return out
}

type stubUploader struct {
	folder string
	calls  int
}

func (s *stubUploader) Upload(_ context.Context, images []string, folder string) ([]string, error) {
	s.calls++
	s.folder = folder
	urls := make([]string, len(images))
	for i := range images {
		urls[i] = "https://res.cloudinary.com/demo/image/upload/cover.png"
	}
	return urls, nil
}

type testEnv struct {
	repo       *models.MemoryRepo
	events     *EventService
	attendance *AttendanceService
	feed       *FeedService
	notifier   *recordingNotifier

	shopID uuid.UUID
	owner  models.Actor
	admin  models.Actor
	guest  models.Actor
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv() *testEnv {
	repo := models.NewMemoryRepo()
	locker := NewKeyedLocker()
	notifier := &recordingNotifier{}
	logger := discardLogger()

	ownerID := uuid.New()
	shopID := uuid.New()
	repo.PutShop(&models.Shop{ID: shopID, OwnerID: ownerID, Name: "Corner Coffee Roasters"})

	es := NewEventService(repo, repo, locker, notifier, logger)
	es.now = func() time.Time { return testNow }
	as := NewAttendanceService(repo, repo, locker, notifier, logger)
	as.now = func() time.Time { return testNow }
	fs := NewFeedService(repo, repo, repo, logger).WithLocation(time.UTC)

	return &testEnv{
		repo:       repo,
		events:     es,
		attendance: as,
		feed:       fs,
		notifier:   notifier,
		shopID:     shopID,
		owner:      models.Actor{UserID: ownerID, OwnedShopIDs: []uuid.UUID{shopID}},
		admin:      models.Actor{UserID: uuid.New(), IsAdmin: true},
		guest:      models.Actor{UserID: uuid.New()},
	}
}

func (env *testEnv) draft(title, start string) *models.EventDraft {
	return &models.EventDraft{
		ShopID:        env.shopID,
		Title:         title,
		EventType:     "Music",
		StartDateTime: start,
		IsPublished:   true,
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
