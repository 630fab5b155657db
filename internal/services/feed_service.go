package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/calendar"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/joshua-takyi/nearby/internal/monitoring"
	"golang.org/x/text/cases"
)

type FeedQuery struct {
	Query     string
	EventType string
}

type FeedItem struct {
	Event           *models.Event `json:"event"`
	ShopName        string        `json:"shop_name,omitempty"`
	Bucket          string        `json:"bucket"`
	ViewerAttending bool          `json:"viewer_attending"`
	AttendanceLabel string        `json:"attendance_label"`
}

type Feed struct {
	Today    []FeedItem `json:"today"`
	Upcoming []FeedItem `json:"upcoming"`
}

// FeedService builds the public event listing. Visibility is decided here at
// read time and never trusted from the write path.
type FeedService struct {
	eventsRepo    models.EventsRepo
	shopsRepo     models.ShopsRepo
	attendeesRepo models.AttendeesRepo
	loc           *time.Location
	logger        *slog.Logger
}

func NewFeedService(eventsRepo models.EventsRepo, shopsRepo models.ShopsRepo, attendeesRepo models.AttendeesRepo, logger *slog.Logger) *FeedService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedService{
		eventsRepo:    eventsRepo,
		shopsRepo:     shopsRepo,
		attendeesRepo: attendeesRepo,
		loc:           time.Local,
		logger:        logger,
	}
}

// WithLocation sets the zone naive event times are read in.
func (fs *FeedService) WithLocation(loc *time.Location) *FeedService {
	if loc != nil {
		fs.loc = loc
	}
	return fs
}

type feedEntry struct {
	item  FeedItem
	start time.Time
}

// Build keeps published, non-rejected events that have not expired relative
// to now, applies the optional type and text filters, and returns them split
// into Today and Upcoming, each ordered by start time.
func (fs *FeedService) Build(ctx context.Context, q FeedQuery, viewerID uuid.UUID, now time.Time) (*Feed, error) {
	began := time.Now()
	defer func() { monitoring.ObserveFeedBuild(time.Since(began)) }()

	var typeFilter models.EventType
	if strings.TrimSpace(q.EventType) != "" {
		t, err := models.ParseEventType(q.EventType)
		if err != nil {
			return nil, &models.ValidationError{Field: "type", Reason: err.Error()}
		}
		typeFilter = t
	}
	// a Caser keeps state, so each build gets its own
	fold := cases.Fold()
	text := fold.String(strings.TrimSpace(q.Query))

	events, err := fs.eventsRepo.ListEvents(ctx)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list events", Err: err}
	}
	names, err := fs.shopsRepo.ShopNames(ctx)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list shops", Err: err}
	}
	attending := map[uuid.UUID]bool{}
	if viewerID != uuid.Nil {
		ids, err := fs.attendeesRepo.EventsAttendedBy(ctx, viewerID)
		if err != nil {
			return nil, &models.PersistenceError{Op: "list attended events", Err: err}
		}
		for _, id := range ids {
			attending[id] = true
		}
	}

	now = now.In(fs.loc)
	var today, upcoming []feedEntry
	for _, ev := range events {
		if !ev.IsPubliclyVisible() {
			continue
		}
		if typeFilter != "" && ev.EventType != typeFilter {
			continue
		}
		shopName := names[ev.ShopID]
		if text != "" &&
			!strings.Contains(fold.String(ev.Title), text) &&
			!strings.Contains(fold.String(shopName), text) {
			continue
		}

		start, err := calendar.ParseLocalIn(ev.StartDateTime, fs.loc)
		if err != nil {
			fs.logger.Warn("skipping event with unreadable start", "event_id", ev.ID, "start_date_time", ev.StartDateTime)
			continue
		}
		end, hasEnd := start, false
		if raw, explicit := ev.EffectiveEnd(); explicit {
			if parsed, err := calendar.ParseLocalIn(raw, fs.loc); err == nil {
				end, hasEnd = parsed, true
			}
		}

		bucket := calendar.ClassifySpan(start, end, hasEnd, now)
		if bucket == calendar.Expired {
			continue
		}

		member := attending[ev.ID]
		entry := feedEntry{
			item: FeedItem{
				Event:           ev,
				ShopName:        shopName,
				Bucket:          bucket.String(),
				ViewerAttending: member,
				AttendanceLabel: AttendanceLabel(models.SnapshotOf(ev), member),
			},
			start: start,
		}
		if bucket == calendar.Today {
			today = append(today, entry)
		} else {
			upcoming = append(upcoming, entry)
		}
	}

	return &Feed{Today: sortEntries(today), Upcoming: sortEntries(upcoming)}, nil
}

func sortEntries(entries []feedEntry) []FeedItem {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].start.Before(entries[j].start) })
	out := make([]FeedItem, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}
