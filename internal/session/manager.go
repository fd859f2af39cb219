package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager serializes access to sessions by id on top of a Store.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager wraps store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, locks: make(map[string]*keyLock)}
}

// Store returns the underlying store.
func (m *Manager) Store() Store { return m.store }

// NewID returns a fresh session id.
func NewID() string { return uuid.NewString() }

// Lock blocks until the caller holds id exclusively and returns the release
// function. Lock entries are dropped once nobody holds or waits on them.
func (m *Manager) Lock(id string) (unlock func()) {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &keyLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

// Tx is the view of one locked session handed to WithSession.
type Tx struct {
	m       *Manager
	Session *Session
	Created bool // true when no stored session existed for the id
	deleted bool
}

// Checkpoint persists the current session state.
func (t *Tx) Checkpoint(ctx context.Context) error {
	t.Session.UpdatedAt = time.Now().UTC()
	return t.m.store.Put(ctx, t.Session)
}

// Delete removes the session from the store.
func (t *Tx) Delete(ctx context.Context) error {
	t.deleted = true
	return t.m.store.Delete(ctx, t.Session.ID)
}

// Deleted reports whether Delete was called.
func (t *Tx) Deleted() bool { return t.deleted }

// WithSession loads the session for id, or creates one with message when the
// id is empty or unknown (an unknown id is kept), and runs fn while holding
// the id's lock. fn decides when to checkpoint.
func (m *Manager) WithSession(ctx context.Context, id, message string, fn func(*Tx) error) error {
	if id == "" {
		id = NewID()
	}
	unlock := m.Lock(id)
	defer unlock()

	tx := &Tx{m: m}
	s, err := m.store.Get(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		tx.Session = New(id, message)
		tx.Created = true
	case err != nil:
		return err
	default:
		tx.Session = s
	}
	return fn(tx)
}

// Len reports how many ids currently hold or wait on a lock.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
