// Package state owns the four application collections. It loads them once
// from a BlobStore, serializes every mutation behind a lock and saves the
// touched collections before reporting success.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownAccount = errors.New("unknown account")
)

// Snapshot is a read-only copy of every collection.
type Snapshot struct {
	Accounts     []core.Account     `json:"accounts"`
	Transactions core.Transactions  `json:"transactions"`
	Categories   core.Taxonomy      `json:"categories"`
	Charts       []core.ChartConfig `json:"customCharts"`
}

// Change describes a committed mutation.
type Change struct {
	Collections []string
	Operation   string
	Revision    uint64
}

// ChangeHook runs after a mutation has been saved.
type ChangeHook func(ctx context.Context, c Change)

type Store struct {
	mu       sync.RWMutex
	blobs    storage.BlobStore
	logger   *log.Logger
	now      func() time.Time
	snap     Snapshot
	revision uint64
	lastID   int64
	hooks    []ChangeHook
}

type Option func(*Store)

// WithClock replaces the clock used for id generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(blobs storage.BlobStore, opts ...Option) *Store {
	s := &Store{
		blobs:  blobs,
		now:    time.Now,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentState),
		snap:   seed(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnChange registers a hook. Hooks run synchronously, in registration order,
// outside the store lock.
func (s *Store) OnChange(h ChangeHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Load replaces the in-memory collections with what the backend holds.
// Missing or unreadable collections fall back to their defaults.
func (s *Store) Load(ctx context.Context) error {
	next := seed()
	for _, key := range storage.Keys() {
		data, found, err := s.blobs.Load(ctx, key)
		if err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
		if !found {
			continue
		}
		if err := decodeInto(&next, key, data); err != nil {
			s.logger.WarnContext(ctx, "Discarding unreadable collection, using defaults",
				log.FieldCollection, key, log.FieldError, err)
			fallback := seed()
			copyCollection(&next, &fallback, key)
		}
	}

	s.mu.Lock()
	s.snap = next
	s.revision++
	s.lastID = maxID(next)
	rev := s.revision
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "State loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldRevision, rev,
		"accounts", len(next.Accounts),
		"transactions", len(next.Transactions),
		"charts", len(next.Charts))
	return nil
}

// Snapshot returns a deep copy of the current collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Revision increases with every load and every successful mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Ping checks the backend connection when the backend supports it.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.blobs.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// mutate applies fn to a copy of the state, persists the touched collections
// and only then publishes the copy.
func (s *Store) mutate(ctx context.Context, op string, keys []string, fn func(next *Snapshot) error) (Change, error) {
	s.mu.Lock()
	next := s.snap.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Change{}, err
	}
	for _, key := range keys {
		data, err := encode(&next, key)
		if err != nil {
			s.mu.Unlock()
			return Change{}, fmt.Errorf("encode %s: %w", key, err)
		}
		if err := s.blobs.Save(ctx, key, data); err != nil {
			s.mu.Unlock()
			s.logger.ErrorContext(ctx, "Failed to save collection",
				log.FieldCollection, key, log.FieldOperation, op, log.FieldError, err)
			return Change{}, fmt.Errorf("save %s: %w", key, err)
		}
	}
	s.snap = next
	s.revision++
	change := Change{Collections: keys, Operation: op, Revision: s.revision}
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	for _, h := range hooks {
		h(ctx, change)
	}
	return change, nil
}

// nextID hands out millisecond timestamps, bumped when two calls land in
// the same millisecond. Callers hold the write lock.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Accounts:     slices.Clone(s.Accounts),
		Transactions: slices.Clone(s.Transactions),
		Categories:   s.Categories.Clone(),
		Charts:       make([]core.ChartConfig, len(s.Charts)),
	}
	for i, c := range s.Charts {
		c.Options.SelectedAccounts = slices.Clone(c.Options.SelectedAccounts)
		out.Charts[i] = c
	}
	return out
}

func maxID(s Snapshot) int64 {
	var m int64
	for _, a := range s.Accounts {
		m = max(m, a.ID)
	}
	for _, tx := range s.Transactions {
		m = max(m, tx.TxID())
	}
	for _, c := range s.Charts {
		m = max(m, c.ID)
	}
	return m
}

func decodeInto(s *Snapshot, key string, data []byte) error {
	switch key {
	case storage.KeyAccounts:
		var v []core.Account
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		s.Accounts = v
	case storage.KeyTransactions:
		var v core.Transactions
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		s.Transactions = v
	case storage.KeyCategories:
		var v core.Taxonomy
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		s.Categories = v
	case storage.KeyCharts:
		var v []core.ChartConfig
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		s.Charts = v
	default:
		return fmt.Errorf("unknown collection %q", key)
	}
	return nil
}

func encode(s *Snapshot, key string) ([]byte, error) {
	switch key {
	case storage.KeyAccounts:
		return json.Marshal(nonNil(s.Accounts))
	case storage.KeyTransactions:
		return json.Marshal(s.Transactions)
	case storage.KeyCategories:
		return json.Marshal(s.Categories)
	case storage.KeyCharts:
		return json.Marshal(nonNil(s.Charts))
	}
	return nil, fmt.Errorf("unknown collection %q", key)
}

func copyCollection(dst, src *Snapshot, key string) {
	switch key {
	case storage.KeyAccounts:
		dst.Accounts = src.Accounts
	case storage.KeyTransactions:
		dst.Transactions = src.Transactions
	case storage.KeyCategories:
		dst.Categories = src.Categories
	case storage.KeyCharts:
		dst.Charts = src.Charts
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func seed() Snapshot {
	return Snapshot{
		Accounts:     core.DefaultAccounts(),
		Transactions: core.Transactions{},
		Categories:   core.DefaultTaxonomy(),
		Charts:       []core.ChartConfig{},
	}
}
