// Package filestore provides a [gift.Store] backed by a single JSON file.
//
// The file holds one document:
//
//	{"users": [...], "gifts": [...]}
//
// Every mutation reads the document, applies the change and writes it back
// through a temporary file and rename, so readers never observe a partial
// write. This is the default backend for the CLI.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/giftgraph/pkg/gift"
)

// DefaultFilename is the data file name inside the data directory.
const DefaultFilename = "gifts.json"

// Store is a file-backed gift store.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// DefaultPath returns ~/.config/giftgraph/gifts.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "giftgraph", DefaultFilename), nil
}

// New opens the store at path, creating its directory if needed. The file
// itself is created on the first write. An empty path uses [DefaultPath].
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the data file path.
func (s *Store) Path() string { return s.path }

func (s *Store) load() (*gift.Dataset, error) {
	var d gift.Dataset
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(data) == 0 {
		return &d, nil
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", s.path, err)
	}
	return &d, nil
}

func (s *Store) save(d *gift.Dataset) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".gifts-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// read runs fn against the current document without writing it back.
func (s *Store) read(fn func(*gift.Dataset)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.load()
	if err != nil {
		return err
	}
	fn(d)
	return nil
}

// update runs fn against the current document and persists the result if
// fn succeeds.
func (s *Store) update(fn func(*gift.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		return err
	}
	return s.save(d)
}

func (s *Store) ListUsers(ctx context.Context) ([]gift.User, error) {
	var users []gift.User
	err := s.read(func(d *gift.Dataset) { users = d.Snapshot().Users })
	return users, err
}

func (s *Store) ListGifts(ctx context.Context) ([]gift.Gift, error) {
	var gifts []gift.Gift
	err := s.read(func(d *gift.Dataset) { gifts = d.Snapshot().Gifts })
	return gifts, err
}

func (s *Store) ResolveOrCreateUser(ctx context.Context, name string) (gift.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.load()
	if err != nil {
		return gift.User{}, err
	}
	u, created := d.ResolveOrCreateUser(name, s.now())
	if created {
		if err := s.save(d); err != nil {
			return gift.User{}, err
		}
	}
	return u, nil
}

func (s *Store) RecordGift(ctx context.Context, senderID, receiverID, item string) (gift.Gift, error) {
	var g gift.Gift
	err := s.update(func(d *gift.Dataset) error {
		var err error
		g, err = d.RecordGift(senderID, receiverID, item, s.now())
		return err
	})
	return g, err
}

func (s *Store) UpdateGift(ctx context.Context, id, senderID, receiverID, item string) error {
	return s.update(func(d *gift.Dataset) error {
		return d.UpdateGift(id, senderID, receiverID, item)
	})
}

func (s *Store) DeleteGift(ctx context.Context, id string) error {
	return s.update(func(d *gift.Dataset) error { return d.DeleteGift(id) })
}

func (s *Store) AddComment(ctx context.Context, giftID, userName, text string) (gift.Comment, error) {
	var c gift.Comment
	err := s.update(func(d *gift.Dataset) error {
		var err error
		c, err = d.AddComment(giftID, userName, text, s.now())
		return err
	})
	return c, err
}

func (s *Store) IncrementTip(ctx context.Context, giftID string, currentTips int) error {
	return s.update(func(d *gift.Dataset) error { return d.IncrementTip(giftID, currentTips) })
}

// Seed merges users and gifts into the file.
func (s *Store) Seed(ctx context.Context, users []gift.User, gifts []gift.Gift) error {
	return s.update(func(d *gift.Dataset) error {
		d.Seed(users, gifts)
		return nil
	})
}

// Close does nothing for the file store.
func (s *Store) Close() error { return nil }

var (
	_ gift.Store  = (*Store)(nil)
	_ gift.Seeder = (*Store)(nil)
)
