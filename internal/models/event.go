package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusRejected EventStatus = "rejected"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusPending, EventStatusApproved, EventStatusRejected:
		return true
	}
	return false
}

type EventType string

const (
	EventTypeTasting   EventType = "tasting"
	EventTypeMusic     EventType = "music"
	EventTypeWorkshop  EventType = "workshop"
	EventTypePopUp     EventType = "popup"
	EventTypeCommunity EventType = "community"
	EventTypeActive    EventType = "active"
	EventTypeOther     EventType = "other"
)

var eventTypes = []EventType{
	EventTypeTasting,
	EventTypeMusic,
	EventTypeWorkshop,
	EventTypePopUp,
	EventTypeCommunity,
	EventTypeActive,
	EventTypeOther,
}

// ParseEventType accepts the display spelling ("Pop-up", "Music") as well as
// the stored one. An empty string maps to EventTypeOther.
func ParseEventType(s string) (EventType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, " ", "")
	if normalized == "" {
		return EventTypeOther, nil
	}
	for _, t := range eventTypes {
		if string(t) == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// MaxRecentAttendees bounds the recent joiners preview stored on an event.
const MaxRecentAttendees = 3

type AttendeeSummary struct {
	UserID    uuid.UUID `json:"user_id"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

type Event struct {
	ID     uuid.UUID `db:"id" json:"id"`
	ShopID uuid.UUID `db:"shop_id" json:"shop_id"`

	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	EventType     EventType `db:"event_type" json:"event_type"`
	StartDateTime string    `db:"start_date_time" json:"start_date_time"` // naive local, e.g. "2024-03-15T09:30"
	EndDateTime   string    `db:"end_date_time" json:"end_date_time"`     // same format, defaults to start
	Location      string    `db:"location" json:"location,omitempty"`
	TicketURL     string    `db:"ticket_url" json:"ticket_url,omitempty"`
	CoverImageURL string    `db:"cover_image_url" json:"cover_image_url,omitempty"`

	// STATUS & VISIBILITY
	Status      EventStatus `db:"status" json:"status"`
	IsPublished bool        `db:"is_published" json:"is_published"`
	SubmittedBy uuid.UUID   `db:"submitted_by" json:"submitted_by"`

	// ATTENDANCE
	AttendeeCount   int               `db:"attendee_count" json:"attendee_count"`
	RecentAttendees []AttendeeSummary `db:"recent_attendees" json:"recent_attendees"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Clone returns a copy that shares no slices with e.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.RecentAttendees != nil {
		c.RecentAttendees = make([]AttendeeSummary, len(e.RecentAttendees))
		copy(c.RecentAttendees, e.RecentAttendees)
	}
	return &c
}

// IsPubliclyVisible is the read-time visibility gate: published and not rejected.
func (e *Event) IsPubliclyVisible() bool {
	return e.IsPublished && e.Status != EventStatusRejected
}

// EffectiveEnd returns EndDateTime, falling back to StartDateTime. explicit
// reports whether an end was stored at all.
func (e *Event) EffectiveEnd() (end string, explicit bool) {
	if strings.TrimSpace(e.EndDateTime) == "" {
		return e.StartDateTime, false
	}
	return e.EndDateTime, true
}

// Attendee is a membership record; (EventID, UserID) is its identity.
type Attendee struct {
	EventID   uuid.UUID `bson:"event_id" json:"event_id"`
	UserID    uuid.UUID `bson:"user_id" json:"user_id"`
	AvatarURL string    `bson:"avatar_url" json:"avatar_url,omitempty"`
	JoinedAt  time.Time `bson:"joined_at" json:"joined_at"`
}

type AttendeeKey struct {
	EventID uuid.UUID
	UserID  uuid.UUID
}

func (a Attendee) Key() AttendeeKey {
	return AttendeeKey{EventID: a.EventID, UserID: a.UserID}
}

type AttendanceSnapshot struct {
	AttendeeCount   int               `json:"attendee_count"`
	RecentAttendees []AttendeeSummary `json:"recent_attendees"`
}

func SnapshotOf(e *Event) AttendanceSnapshot {
	recent := make([]AttendeeSummary, len(e.RecentAttendees))
	copy(recent, e.RecentAttendees)
	return AttendanceSnapshot{
		AttendeeCount:   e.AttendeeCount,
		RecentAttendees: recent,
	}
}
