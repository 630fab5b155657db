package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// EventsRepo is the record store for events. Each call is atomic per key.
type EventsRepo interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	PutEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

const eventColumns = "id,shop_id,title,description,event_type,start_date_time,end_date_time,location,ticket_url," +
	"cover_image_url,status,is_published,submitted_by,attendee_count,recent_attendees,created_at,updated_at"

func (su *SupabaseRepo) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	if id == uuid.Nil {
		return nil, ErrEventNotFound
	}

	raw, status, err := su.supabaseClient.From(EventsTable).
		Select(eventColumns, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}

	// Supabase returns an array even for single results
	var events []*Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event rows: %w", err)
	}

	if len(events) == 0 {
		return nil, ErrEventNotFound
	}
	if len(events) > 1 {
		return nil, fmt.Errorf("multiple events found for ID %s", id)
	}

	return events[0], nil
}

func (su *SupabaseRepo) ListEvents(ctx context.Context) ([]*Event, error) {
	raw, _, err := su.supabaseClient.From(EventsTable).
		Select(eventColumns, "exact", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var events []*Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	if events == nil {
		events = []*Event{}
	}

	return events, nil
}

// PutEvent upserts the full row keyed by id.
func (su *SupabaseRepo) PutEvent(ctx context.Context, event *Event) error {
	if event == nil || event.ID == uuid.Nil {
		return fmt.Errorf("event with a valid ID is required")
	}

	row := *event
	if row.RecentAttendees == nil {
		row.RecentAttendees = []AttendeeSummary{}
	}

	raw, status, err := su.supabaseClient.From(EventsTable).
		Insert(row, true, "id", "minimal", "").
		Execute()
	if err != nil {
		if status != 0 {
			return fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err)
		}
		return fmt.Errorf("failed to upsert event: %w", err)
	}

	return nil
}

// DeleteEvent removes the row; deleting a missing id is not an error.
func (su *SupabaseRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}

	_, _, err := su.supabaseClient.From(EventsTable).
		Delete("minimal", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}
