// Package memstore provides an in-memory [gift.Store].
//
// It is used by tests and by `--store memory`. Data is lost when the
// process exits.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/giftgraph/pkg/gift"
)

// Store is a mutex-guarded [gift.Dataset].
type Store struct {
	mu   sync.RWMutex
	data gift.Dataset
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ListUsers(ctx context.Context) ([]gift.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Snapshot().Users, nil
}

func (s *Store) ListGifts(ctx context.Context) ([]gift.Gift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Snapshot().Gifts, nil
}

func (s *Store) ResolveOrCreateUser(ctx context.Context, name string) (gift.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.data.ResolveOrCreateUser(name, s.now())
	return u, nil
}

func (s *Store) RecordGift(ctx context.Context, senderID, receiverID, item string) (gift.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.RecordGift(senderID, receiverID, item, s.now())
}

func (s *Store) UpdateGift(ctx context.Context, id, senderID, receiverID, item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UpdateGift(id, senderID, receiverID, item)
}

func (s *Store) DeleteGift(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteGift(id)
}

func (s *Store) AddComment(ctx context.Context, giftID, userName, text string) (gift.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.AddComment(giftID, userName, text, s.now())
}

func (s *Store) IncrementTip(ctx context.Context, giftID string, currentTips int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.IncrementTip(giftID, currentTips)
}

// Seed merges demo or fixture data into the store.
func (s *Store) Seed(ctx context.Context, users []gift.User, gifts []gift.Gift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Seed(users, gifts)
	return nil
}

// Close does nothing.
func (s *Store) Close() error { return nil }

var (
	_ gift.Store  = (*Store)(nil)
	_ gift.Seeder = (*Store)(nil)
)
