// Package storage defines the reminder records the remindme app keeps and
// the backend interface they are kept in.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a reminder id is unknown.
var ErrNotFound = errors.New("storage: reminder not found")

// Reminder is a message to be posted in a channel at a given time.
type Reminder struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	UserID     string    `json:"user_id"`
	RemindAt   time.Time `json:"reminder_date"`
	CreatedAt  time.Time `json:"creation_date"`
	Text       string    `json:"reminder"`
	Recurrence string    `json:"recurrence,omitempty"`
	Active     bool      `json:"active"`
}

// Store is the pluggable backend for reminders. Implementations must be
// safe for concurrent use.
type Store interface {
	// Add stores r, assigning an ID and CreatedAt if they are empty.
	Add(ctx context.Context, r *Reminder) error

	// Future returns active reminders due after now, soonest first.
	Future(ctx context.Context, now time.Time) ([]*Reminder, error)

	// Due returns active reminders due at or before now, oldest first.
	Due(ctx context.Context, now time.Time) ([]*Reminder, error)

	// ByUser returns every reminder created by the user, soonest first.
	ByUser(ctx context.Context, userID string) ([]*Reminder, error)

	// Deactivate marks the reminder as delivered.
	Deactivate(ctx context.Context, id string) error

	// Delete removes the reminder. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
