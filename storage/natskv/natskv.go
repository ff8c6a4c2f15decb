// Package natskv keeps reminders in a NATS JetStream key-value bucket, one
// JSON document per reminder id.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/jasperbot/jasper/storage"
)

// DefaultBucket is used when no bucket name is configured.
const DefaultBucket = "jasper_reminders"

// Bucket is the part of jetstream.KeyValue the store uses.
type Bucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	ListKeys(ctx context.Context, opts ...jetstream.WatchOpt) (jetstream.KeyLister, error)
}

// Store implements storage.Store on a KV bucket.
type Store struct {
	kv  Bucket
	nc  *nats.Conn
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New wraps an existing bucket.
func New(kv Bucket) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Connect dials the NATS server at url and opens, creating if needed, the
// named bucket.
func Connect(ctx context.Context, url, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	nc, err := nats.Connect(url, nats.Name("jasper"))
	if err != nil {
		return nil, fmt.Errorf("natskv: connect %s: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natskv: jetstream: %w", err)
	}

	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "jasper remindme reminders",
	})
	if errors.Is(err, jetstream.ErrBucketExists) {
		kv, err = js.KeyValue(ctx, bucket)
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natskv: open bucket %s: %w", bucket, err)
	}

	s := New(kv)
	s.nc = nc
	return s, nil
}

// Close drains the NATS connection opened by Connect.
func (s *Store) Close() error {
	if s.nc == nil {
		return nil
	}
	return s.nc.Drain()
}

// Add implements storage.Store.Add
func (s *Store) Add(ctx context.Context, r *storage.Reminder) error {
	storage.Prepare(r, s.now())
	return s.put(ctx, r)
}

// Future implements storage.Store.Future
func (s *Store) Future(ctx context.Context, now time.Time) ([]*storage.Reminder, error) {
	return s.query(ctx, storage.IsFuture(now))
}

// Due implements storage.Store.Due
func (s *Store) Due(ctx context.Context, now time.Time) ([]*storage.Reminder, error) {
	return s.query(ctx, storage.IsDue(now))
}

// ByUser implements storage.Store.ByUser
func (s *Store) ByUser(ctx context.Context, userID string) ([]*storage.Reminder, error) {
	return s.query(ctx, storage.ByUserID(userID))
}

// Deactivate implements storage.Store.Deactivate
func (s *Store) Deactivate(ctx context.Context, id string) error {
	r, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	r.Active = false
	return s.put(ctx, r)
}

// Delete implements storage.Store.Delete
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.kv.Delete(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (s *Store) put(ctx context.Context, r *storage.Reminder) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}

	if _, err := s.kv.Put(ctx, r.ID, b); err != nil {
		return fmt.Errorf("natskv: put %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, id string) (*storage.Reminder, error) {
	entry, err := s.kv.Get(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("natskv: get %s: %w", id, err)
	}

	r := &storage.Reminder{}
	if err := json.Unmarshal(entry.Value(), r); err != nil {
		return nil, fmt.Errorf("natskv: decode %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) query(ctx context.Context, keep func(*storage.Reminder) bool) ([]*storage.Reminder, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("natskv: list keys: %w", err)
	}
	defer lister.Stop()

	var all []*storage.Reminder
	for key := range lister.Keys() {
		r, err := s.get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			// deleted between listing and reading
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, r)
	}

	return storage.Filter(all, keep), nil
}
