// Package session owns the process-wide authentication state. All changes go
// through Container; nothing else writes the session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"rewards-dashboard/models"
	"rewards-dashboard/storage"

	"github.com/sirupsen/logrus"
)

var ErrInvalidStore = errors.New("store record has no id")

// State is a snapshot of the session. IsAuthenticated is true exactly when
// Store is non-nil.
type State struct {
	Store           *models.Store `json:"store"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	IsLoading       bool          `json:"isLoading"`
}

// persistedAuth is the stored subset, in the same envelope the browser
// dashboard used so existing records stay readable.
type persistedAuth struct {
	State struct {
		Store           *models.Store `json:"store"`
		IsAuthenticated bool          `json:"isAuthenticated"`
	} `json:"state"`
	Version int `json:"version"`
}

type Container struct {
	mu      sync.RWMutex
	store   *models.Store
	loading bool

	storage storage.Storage
	log     *logrus.Entry

	subMu   sync.Mutex
	subs    map[uint64]func(State)
	nextSub uint64
}

// NewContainer returns an unauthenticated container that is still loading;
// call Rehydrate to restore the persisted record.
func NewContainer(st storage.Storage, log *logrus.Entry) *Container {
	return &Container{
		loading: true,
		storage: st,
		log:     log,
		subs:    make(map[uint64]func(State)),
	}
}

// Get returns the current state.
func (c *Container) Get() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

func (c *Container) stateLocked() State {
	var store *models.Store
	if c.store != nil {
		cp := *c.store
		store = &cp
	}
	return State{
		Store:           store,
		IsAuthenticated: store != nil,
		IsLoading:       c.loading,
	}
}

// StoreID returns the authenticated store's id.
func (c *Container) StoreID() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.store == nil {
		return "", false
	}
	return c.store.ID, true
}

// Subscribe registers fn to receive every new state. The returned func
// unregisters it.
func (c *Container) Subscribe(fn func(State)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Container) publish(s State) {
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Login persists the token and the store record, then authenticates.
// On a persistence failure the session is left unchanged.
func (c *Container) Login(ctx context.Context, store models.Store, token string) error {
	if store.ID == "" {
		return ErrInvalidStore
	}

	var record persistedAuth
	record.State.Store = &store
	record.State.IsAuthenticated = true
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode auth record: %w", err)
	}

	if token != "" {
		if err := c.storage.SetItem(ctx, storage.KeyToken, token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
	}
	if err := c.storage.SetItem(ctx, storage.KeyAuth, string(data)); err != nil {
		_ = c.storage.RemoveItem(ctx, storage.KeyToken)
		return fmt.Errorf("persist auth record: %w", err)
	}

	c.mu.Lock()
	c.store = &store
	s := c.stateLocked()
	c.mu.Unlock()

	c.log.WithField("store_id", store.ID).Info("store logged in")
	c.publish(s)
	return nil
}

// Logout clears the session and the persisted record. The in-memory state
// is cleared even if storage fails.
func (c *Container) Logout(ctx context.Context) error {
	c.mu.Lock()
	storeID := ""
	if c.store != nil {
		storeID = c.store.ID
	}
	c.store = nil
	s := c.stateLocked()
	c.mu.Unlock()

	errAuth := c.storage.RemoveItem(ctx, storage.KeyAuth)
	errToken := c.storage.RemoveItem(ctx, storage.KeyToken)

	c.log.WithField("store_id", storeID).Info("store logged out")
	c.publish(s)
	return errors.Join(errAuth, errToken)
}

// SetLoading sets the transient loading flag.
func (c *Container) SetLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	s := c.stateLocked()
	c.mu.Unlock()
	c.publish(s)
}

// Rehydrate restores the persisted record. Loading is false afterwards
// whatever the outcome; an unreadable record leaves the session signed out.
func (c *Container) Rehydrate(ctx context.Context) error {
	defer c.SetLoading(false)

	raw, ok, err := c.storage.GetItem(ctx, storage.KeyAuth)
	if err != nil {
		return fmt.Errorf("read auth record: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}

	var record persistedAuth
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return fmt.Errorf("decode auth record: %w", err)
	}

	store := record.State.Store
	if store != nil && store.ID == "" {
		store = nil
	}
	if record.State.IsAuthenticated != (store != nil) {
		c.log.Warn("persisted auth record disagrees with itself, trusting the store field")
	}

	c.mu.Lock()
	c.store = store
	c.mu.Unlock()
	return nil
}
