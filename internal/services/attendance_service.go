package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/joshua-takyi/nearby/internal/monitoring"
)

// AttendanceService owns attendee membership and the counters cached on the
// event. Join and leave for one event run one at a time under the event lock;
// different events never wait on each other.
type AttendanceService struct {
	eventsRepo    models.EventsRepo
	attendeesRepo models.AttendeesRepo
	locker        EventLocker
	notifier      Notifier
	logger        *slog.Logger
	now           func() time.Time
}

func NewAttendanceService(
	eventsRepo models.EventsRepo,
	attendeesRepo models.AttendeesRepo,
	locker EventLocker,
	notifier Notifier,
	logger *slog.Logger,
) *AttendanceService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceService{
		eventsRepo:    eventsRepo,
		attendeesRepo: attendeesRepo,
		locker:        locker,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

// Join adds userID to the event. Joining twice returns the current snapshot
// unchanged. If the counters cannot be saved the membership is removed again
// and a retryable PersistenceError is returned.
func (as *AttendanceService) Join(ctx context.Context, eventID, userID uuid.UUID, avatarURL string) (models.AttendanceSnapshot, error) {
	snap, result, err := as.join(ctx, eventID, userID, avatarURL)
	monitoring.TrackAttendance("join", result)
	if err != nil {
		notifyError(ctx, as.notifier, userID, eventID, "We couldn't add you to this event", err)
	}
	return snap, err
}

func (as *AttendanceService) join(ctx context.Context, eventID, userID uuid.UUID, avatarURL string) (models.AttendanceSnapshot, string, error) {
	if userID == uuid.Nil {
		return models.AttendanceSnapshot{}, monitoring.ResultDenied, &models.AuthorizationError{Action: "join events"}
	}

	unlock, err := lockEvent(ctx, as.locker, eventID.String())
	if err != nil {
		return models.AttendanceSnapshot{}, monitoring.ResultError, err
	}
	defer unlock()

	ev, err := as.loadEvent(ctx, eventID)
	if err != nil {
		return models.AttendanceSnapshot{}, monitoring.ResultError, err
	}

	member, err := as.attendeesRepo.IsAttendee(ctx, eventID, userID)
	if err != nil {
		return models.AttendanceSnapshot{}, monitoring.ResultError, &models.PersistenceError{Op: "check attendance", Err: err}
	}
	if member {
		return models.SnapshotOf(ev), monitoring.ResultNoop, nil
	}

	created, err := as.attendeesRepo.AddAttendee(ctx, models.Attendee{
		EventID:   eventID,
		UserID:    userID,
		AvatarURL: avatarURL,
		JoinedAt:  as.now(),
	})
	if err != nil {
		return models.AttendanceSnapshot{}, monitoring.ResultError, &models.PersistenceError{Op: "add attendee", Err: err}
	}
	if !created {
		// lost a race with a writer that bypassed the lock
		return models.SnapshotOf(ev), monitoring.ResultNoop, nil
	}

	ev.AttendeeCount++
	ev.RecentAttendees = prependRecent(ev.RecentAttendees, models.AttendeeSummary{UserID: userID, AvatarURL: avatarURL}, ev.AttendeeCount)
	ev.UpdatedAt = as.now()

	if err := as.eventsRepo.PutEvent(ctx, ev); err != nil {
		_, rbErr := as.attendeesRepo.RemoveAttendee(ctx, eventID, userID)
		as.rolledBack("join", eventID, userID, err, rbErr)
		return models.AttendanceSnapshot{}, monitoring.ResultError, &models.PersistenceError{Op: "save attendance", Err: err}
	}

	as.logger.Info("attendee joined", "event_id", eventID, "user_id", userID, "attendee_count", ev.AttendeeCount)
	return models.SnapshotOf(ev), monitoring.ResultOK, nil
}

// Leave removes userID from the event. Leaving when absent is a no-op. The
// count never drops below zero.
func (as *AttendanceService) Leave(ctx context.Context, eventID, userID uuid.UUID) (models.AttendanceSnapshot, error) {
	snap, result, err := as.leave(ctx, eventID, userID)
	monitoring.TrackAttendance("leave", result)
	if err != nil {
		notifyError(ctx, as.notifier, userID, eventID, "We couldn't remove you from this event", err)
	}
	return snap, err
}

func (as *AttendanceService) leave(ctx context.Context, eventID, userID uuid.UUID) (models.AttendanceSnapshot, string, error) {
	if userID == uuid.Nil {
		return models.AttendanceSnapshot{}, monitoring.ResultDenied, &models.AuthorizationError{Action: "leave events"}
	}

	unlock, err := lockEvent(ctx, as.locker, eventID.String())
	if err != nil {
		return models.AttendanceSnapshot{}, monitoring.ResultError, err
	}
	defer unlock()

	ev, err := as.loadEvent(ctx, eventID)
	if err != nil {
		return models.AttendanceSnapshot{}, monitoring.ResultError, err
	}

	removedRecord, found, err := as.findAttendee(ctx, eventID, userID)
	if err != nil {
		return models.AttendanceSnapshot{}, monitoring.ResultError, err
	}
	if !found {
		return models.SnapshotOf(ev), monitoring.ResultNoop, nil
	}

	removed, err := as.attendeesRepo.RemoveAttendee(ctx, eventID, userID)
	if err != nil {
		return models.AttendanceSnapshot{}, monitoring.ResultError, &models.PersistenceError{Op: "remove attendee", Err: err}
	}
	if !removed {
		return models.SnapshotOf(ev), monitoring.ResultNoop, nil
	}

	if ev.AttendeeCount > 0 {
		ev.AttendeeCount--
	}
	ev.RecentAttendees = removeRecent(ev.RecentAttendees, userID)
	ev.UpdatedAt = as.now()

	if err := as.eventsRepo.PutEvent(ctx, ev); err != nil {
		_, rbErr := as.attendeesRepo.AddAttendee(ctx, removedRecord)
		as.rolledBack("leave", eventID, userID, err, rbErr)
		return models.AttendanceSnapshot{}, monitoring.ResultError, &models.PersistenceError{Op: "save attendance", Err: err}
	}

	as.logger.Info("attendee left", "event_id", eventID, "user_id", userID, "attendee_count", ev.AttendeeCount)
	return models.SnapshotOf(ev), monitoring.ResultOK, nil
}

// Snapshot reads the cached counters without taking the lock.
func (as *AttendanceService) Snapshot(ctx context.Context, eventID uuid.UUID) (models.AttendanceSnapshot, error) {
	ev, err := as.loadEvent(ctx, eventID)
	if err != nil {
		return models.AttendanceSnapshot{}, err
	}
	return models.SnapshotOf(ev), nil
}

func (as *AttendanceService) IsAttending(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	ok, err := as.attendeesRepo.IsAttendee(ctx, eventID, userID)
	if err != nil {
		return false, &models.PersistenceError{Op: "check attendance", Err: err}
	}
	return ok, nil
}

// AttendedSet returns the ids of every event userID is a member of.
func (as *AttendanceService) AttendedSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	set := make(map[uuid.UUID]bool)
	if userID == uuid.Nil {
		return set, nil
	}
	ids, err := as.attendeesRepo.EventsAttendedBy(ctx, userID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list attended events", Err: err}
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (as *AttendanceService) loadEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	ev, err := as.eventsRepo.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrEventNotFound) {
			return nil, err
		}
		return nil, &models.PersistenceError{Op: "load event", Err: err}
	}
	return ev, nil
}

// findAttendee returns the stored record so a failed leave can restore it as it was.
func (as *AttendanceService) findAttendee(ctx context.Context, eventID, userID uuid.UUID) (models.Attendee, bool, error) {
	record, found, err := as.attendeesRepo.GetAttendee(ctx, eventID, userID)
	if err != nil {
		return models.Attendee{}, false, &models.PersistenceError{Op: "check attendance", Err: err}
	}
	return record, found, nil
}

func (as *AttendanceService) rolledBack(op string, eventID, userID uuid.UUID, cause, rbErr error) {
	monitoring.TrackRollback(op, rbErr == nil)
	if rbErr != nil {
		as.logger.Error("attendance rollback failed",
			"operation", op,
			"event_id", eventID,
			"user_id", userID,
			"error", cause,
			"rollback_error", rbErr,
		)
		return
	}
	as.logger.Warn("attendance rolled back",
		"operation", op,
		"event_id", eventID,
		"user_id", userID,
		"error", cause,
	)
}

// prependRecent puts a at the front, drops any older entry for the same
// user, and keeps at most MaxRecentAttendees entries and never more than count.
func prependRecent(recent []models.AttendeeSummary, a models.AttendeeSummary, count int) []models.AttendeeSummary {
	out := make([]models.AttendeeSummary, 0, models.MaxRecentAttendees)
	out = append(out, a)
	for _, r := range recent {
		if r.UserID == a.UserID {
			continue
		}
		out = append(out, r)
	}

	limit := models.MaxRecentAttendees
	if count < limit {
		limit = count
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func removeRecent(recent []models.AttendeeSummary, userID uuid.UUID) []models.AttendeeSummary {
	out := make([]models.AttendeeSummary, 0, len(recent))
	for _, r := range recent {
		if r.UserID != userID {
			out = append(out, r)
		}
	}
	return out
}
