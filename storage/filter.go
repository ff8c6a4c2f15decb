package storage

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Prepare fills in the ID and creation time of a new reminder and marks
// it active.
func Prepare(r *Reminder, now time.Time) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.Active = true
}

// Filter returns the reminders keep accepts, ordered by RemindAt. Backends
// that cannot query share it.
func Filter(all []*Reminder, keep func(*Reminder) bool) []*Reminder {
	out := make([]*Reminder, 0, len(all))
	for _, r := range all {
		if keep(r) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].RemindAt.Before(out[j].RemindAt) })
	return out
}

// IsFuture matches active reminders due after now.
func IsFuture(now time.Time) func(*Reminder) bool {
	return func(r *Reminder) bool { return r.Active && r.RemindAt.After(now) }
}

// IsDue matches active reminders due at or before now.
func IsDue(now time.Time) func(*Reminder) bool {
	return func(r *Reminder) bool { return r.Active && !r.RemindAt.After(now) }
}

// ByUserID matches reminders created by the user.
func ByUserID(userID string) func(*Reminder) bool {
	return func(r *Reminder) bool { return r.UserID == userID }
}
