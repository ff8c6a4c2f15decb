// Package memory is an in-process reminder store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jasperbot/jasper/storage"
)

// Store keeps reminders in a map. The zero value is not usable, call New.
type Store struct {
	mu        sync.RWMutex
	reminders map[string]*storage.Reminder
	now       func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{reminders: make(map[string]*storage.Reminder), now: time.Now}
}

// Add implements storage.Store.Add
func (s *Store) Add(_ context.Context, r *storage.Reminder) error {
	storage.Prepare(r, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	s.reminders[r.ID] = &cp
	return nil
}

// Future implements storage.Store.Future
func (s *Store) Future(_ context.Context, now time.Time) ([]*storage.Reminder, error) {
	return s.query(storage.IsFuture(now)), nil
}

// Due implements storage.Store.Due
func (s *Store) Due(_ context.Context, now time.Time) ([]*storage.Reminder, error) {
	return s.query(storage.IsDue(now)), nil
}

// ByUser implements storage.Store.ByUser
func (s *Store) ByUser(_ context.Context, userID string) ([]*storage.Reminder, error) {
	return s.query(storage.ByUserID(userID)), nil
}

// Deactivate implements storage.Store.Deactivate
func (s *Store) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.Active = false
	return nil
}

// Delete implements storage.Store.Delete
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.reminders, id)
	s.mu.Unlock()
	return nil
}

func (s *Store) query(keep func(*storage.Reminder) bool) []*storage.Reminder {
	s.mu.RLock()
	all := make([]*storage.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		cp := *r
		all = append(all, &cp)
	}
	s.mu.RUnlock()

	return storage.Filter(all, keep)
}
