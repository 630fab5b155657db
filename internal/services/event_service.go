package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/calendar"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/joshua-takyi/nearby/internal/monitoring"
)

// ImageUploader stores images (data URIs or file paths) and returns public URLs.
type ImageUploader interface {
	Upload(ctx context.Context, images []string, folder string) ([]string, error)
}

// EventService is the single authority over an event's moderation status and
// publish flag. Every write happens under the event's lock so that content
// edits never overwrite attendance counters written concurrently.
type EventService struct {
	eventsRepo    models.EventsRepo
	attendeesRepo models.AttendeesRepo
	locker        EventLocker
	notifier      Notifier
	uploader      ImageUploader
	logger        *slog.Logger
	now           func() time.Time
}

func NewEventService(
	eventsRepo models.EventsRepo,
	attendeesRepo models.AttendeesRepo,
	locker EventLocker,
	notifier Notifier,
	logger *slog.Logger,
) *EventService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		eventsRepo:    eventsRepo,
		attendeesRepo: attendeesRepo,
		locker:        locker,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

// WithUploader enables data-URI cover images.
func (es *EventService) WithUploader(u ImageUploader) *EventService {
	es.uploader = u
	return es
}

// Submit creates an event. Privileged submitters (admin or owner of the shop)
// get an approved event with the requested publish flag; everyone else gets a
// pending, unpublished event regardless of what the draft asks for.
func (es *EventService) Submit(ctx context.Context, draft *models.EventDraft, actor models.Actor) (*models.Event, error) {
	ev, err := es.submit(ctx, draft, actor)
	track("submit", err)
	if err != nil {
		es.notifyError(ctx, actor.UserID, uuid.Nil, "We couldn't submit your event", err)
		return nil, err
	}
	return ev, nil
}

func (es *EventService) submit(ctx context.Context, draft *models.EventDraft, actor models.Actor) (*models.Event, error) {
	if draft == nil {
		return nil, &models.ValidationError{Reason: "event details are required"}
	}

	draft.Sanitize()
	if err := draft.ValidateRequired(); err != nil {
		return nil, err
	}

	start, err := calendar.NormalizeLocal(draft.StartDateTime)
	if err != nil {
		return nil, &models.ValidationError{Field: "start_date_time", Reason: err.Error()}
	}
	end := ""
	if draft.EndDateTime != "" {
		if end, err = calendar.NormalizeLocal(draft.EndDateTime); err != nil {
			return nil, &models.ValidationError{Field: "end_date_time", Reason: err.Error()}
		}
	}
	eventType, err := models.ParseEventType(draft.EventType)
	if err != nil {
		return nil, &models.ValidationError{Field: "event_type", Reason: err.Error()}
	}
	cover, err := es.resolveCover(ctx, draft.CoverImageURL)
	if err != nil {
		return nil, err
	}

	now := es.now()
	ev := &models.Event{
		ID:              uuid.New(),
		ShopID:          draft.ShopID,
		Title:           draft.Title,
		Description:     draft.Description,
		EventType:       eventType,
		StartDateTime:   start,
		EndDateTime:     end,
		Location:        draft.Location,
		TicketURL:       draft.TicketURL,
		CoverImageURL:   cover,
		Status:          models.EventStatusPending,
		IsPublished:     false,
		SubmittedBy:     actor.UserID,
		RecentAttendees: []models.AttendeeSummary{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if actor.IsPrivilegedFor(draft.ShopID) {
		ev.Status = models.EventStatusApproved
		ev.IsPublished = draft.IsPublished
	}

	if err := es.eventsRepo.PutEvent(ctx, ev); err != nil {
		return nil, &models.PersistenceError{Op: "create event", Err: err}
	}

	es.logger.Info("event submitted",
		"event_id", ev.ID,
		"shop_id", ev.ShopID,
		"status", ev.Status,
		"is_published", ev.IsPublished,
		"submitted_by", actor.UserID,
	)

	msg := "Event submitted for review"
	if ev.Status == models.EventStatusApproved {
		msg = "Event created"
	}
	es.notifySuccess(ctx, actor.UserID, ev.ID, msg)
	return ev, nil
}

// UpdateContent applies patch. The submitter of an event may edit its content;
// only privileged actors may change is_published. shop_id never changes.
func (es *EventService) UpdateContent(ctx context.Context, id uuid.UUID, patch *models.EventPatch, actor models.Actor) (*models.Event, error) {
	ev, err := es.updateContent(ctx, id, patch, actor)
	track("update", err)
	if err != nil {
		es.notifyError(ctx, actor.UserID, id, "We couldn't save your changes", err)
		return nil, err
	}
	es.notifySuccess(ctx, actor.UserID, id, "Event updated")
	return ev, nil
}

func (es *EventService) updateContent(ctx context.Context, id uuid.UUID, patch *models.EventPatch, actor models.Actor) (*models.Event, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, &models.ValidationError{Reason: "no fields to update"}
	}

	unlock, err := lockEvent(ctx, es.locker, id.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	ev, err := es.loadEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	privileged := actor.IsPrivilegedFor(ev.ShopID)
	if !privileged && (actor.UserID == uuid.Nil || actor.UserID != ev.SubmittedBy) {
		return nil, &models.AuthorizationError{Action: "edit this event"}
	}
	if patch.ShopID != nil && *patch.ShopID != ev.ShopID {
		return nil, &models.ImmutableFieldError{Field: "shop_id"}
	}
	if patch.IsPublished != nil && !privileged {
		return nil, &models.AuthorizationError{Action: "change event visibility"}
	}

	updated := ev.Clone()
	if err := es.applyPatch(ctx, updated, patch); err != nil {
		return nil, err
	}
	updated.UpdatedAt = es.now()

	if err := es.eventsRepo.PutEvent(ctx, updated); err != nil {
		return nil, &models.PersistenceError{Op: "update event", Err: err}
	}

	es.logger.Info("event updated", "event_id", id, "actor", actor.UserID)
	return updated, nil
}

func (es *EventService) applyPatch(ctx context.Context, ev *models.Event, patch *models.EventPatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return &models.ValidationError{Field: "title", Reason: "is required"}
		}
		ev.Title = title
	}
	if patch.Description != nil {
		ev.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.EventType != nil {
		t, err := models.ParseEventType(*patch.EventType)
		if err != nil {
			return &models.ValidationError{Field: "event_type", Reason: err.Error()}
		}
		ev.EventType = t
	}
	if patch.StartDateTime != nil {
		raw := strings.TrimSpace(*patch.StartDateTime)
		if raw == "" {
			return &models.ValidationError{Field: "start_date_time", Reason: "is required"}
		}
		start, err := calendar.NormalizeLocal(raw)
		if err != nil {
			return &models.ValidationError{Field: "start_date_time", Reason: err.Error()}
		}
		ev.StartDateTime = start
	}
	if patch.EndDateTime != nil {
		raw := strings.TrimSpace(*patch.EndDateTime)
		if raw == "" {
			ev.EndDateTime = ""
		} else {
			end, err := calendar.NormalizeLocal(raw)
			if err != nil {
				return &models.ValidationError{Field: "end_date_time", Reason: err.Error()}
			}
			ev.EndDateTime = end
		}
	}
	if patch.Location != nil {
		ev.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.TicketURL != nil {
		ticket := strings.TrimSpace(*patch.TicketURL)
		if err := models.Validate.Var(ticket, "omitempty,url"); err != nil {
			return &models.ValidationError{Field: "ticket_url", Reason: "must be a valid URL"}
		}
		ev.TicketURL = ticket
	}
	if patch.CoverImageURL != nil {
		cover, err := es.resolveCover(ctx, strings.TrimSpace(*patch.CoverImageURL))
		if err != nil {
			return err
		}
		ev.CoverImageURL = cover
	}
	if patch.IsPublished != nil {
		ev.IsPublished = *patch.IsPublished
	}
	return nil
}

// SetStatus moderates an event. Admin only. The target must be approved or
// rejected; approving does not publish.
func (es *EventService) SetStatus(ctx context.Context, id uuid.UUID, status models.EventStatus, actor models.Actor) (*models.Event, error) {
	ev, err := es.setStatus(ctx, id, status, actor)
	track("set_status", err)
	if err != nil {
		es.notifyError(ctx, actor.UserID, id, "We couldn't update the event status", err)
		return nil, err
	}
	return ev, nil
}

func (es *EventService) setStatus(ctx context.Context, id uuid.UUID, status models.EventStatus, actor models.Actor) (*models.Event, error) {
	if !actor.IsAdmin {
		return nil, &models.AuthorizationError{Action: "moderate events"}
	}
	if status != models.EventStatusApproved && status != models.EventStatusRejected {
		return nil, &models.ValidationError{Field: "status", Reason: "must be approved or rejected"}
	}

	unlock, err := lockEvent(ctx, es.locker, id.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	ev, err := es.loadEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.Status == status {
		return ev, nil
	}

	previous := ev.Status
	ev.Status = status
	ev.UpdatedAt = es.now()
	if err := es.eventsRepo.PutEvent(ctx, ev); err != nil {
		return nil, &models.PersistenceError{Op: "set event status", Err: err}
	}

	es.logger.Info("event status changed",
		"event_id", id,
		"from", previous,
		"to", status,
		"admin", actor.UserID,
	)
	es.notifySuccess(ctx, actor.UserID, id, fmt.Sprintf("Event %s", status))
	if ev.SubmittedBy != uuid.Nil && ev.SubmittedBy != actor.UserID {
		es.notifySuccess(ctx, ev.SubmittedBy, id, fmt.Sprintf("Your event %q was %s", ev.Title, status))
	}
	return ev, nil
}

// SetPublished toggles public visibility independently of status. Publishing a
// rejected event is stored as asked; the feed still hides it.
func (es *EventService) SetPublished(ctx context.Context, id uuid.UUID, published bool, actor models.Actor) (*models.Event, error) {
	ev, err := es.setPublished(ctx, id, published, actor)
	track("set_published", err)
	if err != nil {
		es.notifyError(ctx, actor.UserID, id, "We couldn't change the event visibility", err)
		return nil, err
	}
	return ev, nil
}

func (es *EventService) setPublished(ctx context.Context, id uuid.UUID, published bool, actor models.Actor) (*models.Event, error) {
	unlock, err := lockEvent(ctx, es.locker, id.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	ev, err := es.loadEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsPrivilegedFor(ev.ShopID) {
		return nil, &models.AuthorizationError{Action: "change event visibility"}
	}
	if ev.IsPublished == published {
		return ev, nil
	}

	ev.IsPublished = published
	ev.UpdatedAt = es.now()
	if err := es.eventsRepo.PutEvent(ctx, ev); err != nil {
		return nil, &models.PersistenceError{Op: "set event visibility", Err: err}
	}

	if published && ev.Status == models.EventStatusRejected {
		es.logger.Warn("rejected event marked published; it stays hidden from the feed", "event_id", id)
	}
	es.logger.Info("event visibility changed", "event_id", id, "is_published", published, "actor", actor.UserID)

	msg := "Event hidden"
	if published {
		msg = "Event published"
	}
	es.notifySuccess(ctx, actor.UserID, id, msg)
	return ev, nil
}

// Delete hard-deletes an event and its attendance records. Deleting an
// unknown id succeeds, and also clears any membership left behind by an
// earlier partially failed delete.
func (es *EventService) Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	err := es.delete(ctx, id, actor)
	track("delete", err)
	if err != nil {
		es.notifyError(ctx, actor.UserID, id, "We couldn't delete the event", err)
		return err
	}
	return nil
}

func (es *EventService) delete(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	unlock, err := lockEvent(ctx, es.locker, id.String())
	if err != nil {
		return err
	}
	defer unlock()

	ev, err := es.loadEvent(ctx, id)
	if errors.Is(err, models.ErrEventNotFound) {
		if err := es.attendeesRepo.DeleteAttendees(ctx, id); err != nil {
			return &models.PersistenceError{Op: "delete attendees", Err: err}
		}
		return nil
	}
	if err != nil {
		return err
	}
	if !actor.IsPrivilegedFor(ev.ShopID) {
		return &models.AuthorizationError{Action: "delete this event"}
	}

	if err := es.eventsRepo.DeleteEvent(ctx, id); err != nil {
		return &models.PersistenceError{Op: "delete event", Err: err}
	}
	if err := es.attendeesRepo.DeleteAttendees(ctx, id); err != nil {
		return &models.PersistenceError{Op: "delete attendees", Err: err}
	}

	es.logger.Info("event deleted", "event_id", id, "actor", actor.UserID)
	es.notifySuccess(ctx, actor.UserID, id, "Event deleted")
	return nil
}

func (es *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if id == uuid.Nil {
		return nil, models.ErrEventNotFound
	}
	return es.loadEvent(ctx, id)
}

// ListByStatus is the admin moderation queue, oldest first.
func (es *EventService) ListByStatus(ctx context.Context, status models.EventStatus, actor models.Actor) ([]*models.Event, error) {
	if !actor.IsAdmin {
		return nil, &models.AuthorizationError{Action: "view the moderation queue"}
	}
	if !status.IsValid() {
		return nil, &models.ValidationError{Field: "status", Reason: "is not a known status"}
	}

	all, err := es.eventsRepo.ListEvents(ctx)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list events", Err: err}
	}

	out := make([]*models.Event, 0)
	for _, ev := range all {
		if ev.Status == status {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListByShop returns every event of a shop, whatever its status, for the
// shop's owner or an admin.
func (es *EventService) ListByShop(ctx context.Context, shopID uuid.UUID, actor models.Actor) ([]*models.Event, error) {
	if !actor.IsPrivilegedFor(shopID) {
		return nil, &models.AuthorizationError{Action: "view this shop's events"}
	}

	all, err := es.eventsRepo.ListEvents(ctx)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list events", Err: err}
	}

	out := make([]*models.Event, 0)
	for _, ev := range all {
		if ev.ShopID == shopID {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDateTime < out[j].StartDateTime })
	return out, nil
}

func (es *EventService) loadEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	ev, err := es.eventsRepo.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrEventNotFound) {
			return nil, err
		}
		return nil, &models.PersistenceError{Op: "load event", Err: err}
	}
	return ev, nil
}

func (es *EventService) resolveCover(ctx context.Context, cover string) (string, error) {
	if !strings.HasPrefix(cover, "data:") {
		return cover, nil
	}
	if es.uploader == nil {
		return "", &models.ValidationError{Field: "cover_image_url", Reason: "image upload is not configured"}
	}

	urls, err := es.uploader.Upload(ctx, []string{cover}, helpers.EventsFolder)
	if err != nil {
		return "", &models.PersistenceError{Op: "upload cover image", Err: err}
	}
	if len(urls) == 0 {
		return "", &models.PersistenceError{Op: "upload cover image", Err: errors.New("no URL returned")}
	}
	return urls[0], nil
}

func (es *EventService) notifySuccess(ctx context.Context, userID, eventID uuid.UUID, msg string) {
	es.notifier.Notify(ctx, Notification{
		UserID:  idString(userID),
		EventID: idString(eventID),
		Level:   NotifySuccess,
		Message: msg,
	})
}

func (es *EventService) notifyError(ctx context.Context, userID, eventID uuid.UUID, msg string, err error) {
	notifyError(ctx, es.notifier, userID, eventID, msg, err)
}

func track(action string, err error) {
	monitoring.TrackTransition(action, resultOf(err))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return monitoring.ResultOK
	case models.IsAuthorization(err):
		return monitoring.ResultDenied
	default:
		return monitoring.ResultError
	}
}
