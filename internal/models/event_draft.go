package models

import (
	"strings"

	"github.com/google/uuid"
)

type EventDraft struct {
	ShopID        uuid.UUID `json:"shop_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	EventType     string    `json:"event_type"`
	StartDateTime string    `json:"start_date_time"`
	EndDateTime   string    `json:"end_date_time"`
	Location      string    `json:"location"`
	TicketURL     string    `json:"ticket_url"`
	CoverImageURL string    `json:"cover_image_url"`
	IsPublished   bool      `json:"is_published"`
}

func (d *EventDraft) Sanitize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.StartDateTime = strings.TrimSpace(d.StartDateTime)
	d.EndDateTime = strings.TrimSpace(d.EndDateTime)
	d.Location = strings.TrimSpace(d.Location)
	d.TicketURL = strings.TrimSpace(d.TicketURL)
	d.CoverImageURL = strings.TrimSpace(d.CoverImageURL)
}

// ValidateRequired checks the fields a submission cannot do without.
func (d *EventDraft) ValidateRequired() error {
	if d.ShopID == uuid.Nil {
		return &ValidationError{Field: "shop_id", Reason: "is required"}
	}
	if d.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if d.StartDateTime == "" {
		return &ValidationError{Field: "start_date_time", Reason: "is required"}
	}
	if err := Validate.Var(d.TicketURL, "omitempty,url"); err != nil {
		return &ValidationError{Field: "ticket_url", Reason: "must be a valid URL"}
	}
	return nil
}

// EventPatch carries only the fields a caller wants to change.
type EventPatch struct {
	ShopID        *uuid.UUID `json:"shop_id,omitempty"`
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	EventType     *string    `json:"event_type,omitempty"`
	StartDateTime *string    `json:"start_date_time,omitempty"`
	EndDateTime   *string    `json:"end_date_time,omitempty"`
	Location      *string    `json:"location,omitempty"`
	TicketURL     *string    `json:"ticket_url,omitempty"`
	CoverImageURL *string    `json:"cover_image_url,omitempty"`
	IsPublished   *bool      `json:"is_published,omitempty"`
}

func (p *EventPatch) IsEmpty() bool {
	return p.ShopID == nil && p.Title == nil && p.Description == nil && p.EventType == nil &&
		p.StartDateTime == nil && p.EndDateTime == nil && p.Location == nil &&
		p.TicketURL == nil && p.CoverImageURL == nil && p.IsPublished == nil
}

// Actor is the identity collaborator's view of the caller.
type Actor struct {
	UserID       uuid.UUID
	IsAdmin      bool
	OwnedShopIDs []uuid.UUID
	AvatarURL    string
}

func (a Actor) OwnsShop(shopID uuid.UUID) bool {
	for _, id := range a.OwnedShopIDs {
		if id == shopID {
			return true
		}
	}
	return false
}

// IsPrivilegedFor reports whether the actor is a global admin or owns shopID.
func (a Actor) IsPrivilegedFor(shopID uuid.UUID) bool {
	return a.IsAdmin || a.OwnsShop(shopID)
}
