package models

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a listed local business. Events are hosted by a shop.
type Shop struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug,omitempty"`
	Description string    `db:"description" json:"description,omitempty"`
	Category    string    `db:"category" json:"category,omitempty"`
	Location    string    `db:"location" json:"location,omitempty"`
	Region      string    `db:"region" json:"region,omitempty"`
	Images      []string  `db:"images" json:"images,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
