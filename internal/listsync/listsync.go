// Package listsync keeps a local mirror of the remote todo collection.
//
// Every mutation is sent to the server and then settled by a Policy; the
// default FullResync throws the local list away and fetches a new snapshot.
// Operations are serialized: a second call waits for the first one (request
// and follow-up reload) to finish, so the last operation issued is the one
// whose snapshot ends up displayed.
package listsync

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/model"
)

// Collection is the remote collection resource.
type Collection interface {
	List(ctx context.Context, f model.ListFilter) ([]model.Item, error)
	Create(ctx context.Context, req model.CreateRequest) error
	Update(ctx context.Context, id int64, req model.UpdateRequest) error
	Delete(ctx context.Context, id int64) error
}

// Synchronizer owns the local list state. It is safe for concurrent use.
type Synchronizer struct {
	coll   Collection
	policy Policy
	logger *log.Logger

	ops sync.Mutex // one operation at a time

	mu      sync.RWMutex
	state   State
	filter  model.ListFilter
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithPolicy replaces the default FullResync policy.
func WithPolicy(p Policy) Option {
	return func(s *Synchronizer) { s.policy = p }
}

// WithLogger sets the logger; by default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// WithFilter sets the initial list filter.
func WithFilter(f model.ListFilter) Option {
	return func(s *Synchronizer) { s.filter = f }
}

// New creates a Synchronizer with an empty list. Call Reload to fill it.
func New(coll Collection, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		coll:   coll,
		policy: FullResync{},
		logger: log.New(io.Discard),
		state:  State{Items: []model.Item{}},
		subs:   make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Items returns a copy of the last snapshot.
func (s *Synchronizer) Items() []model.Item {
	return s.State().Items
}

// PendingInput returns the unsent new-item text.
func (s *Synchronizer) PendingInput() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.PendingInput
}

// SetPendingInput replaces the unsent new-item text.
func (s *Synchronizer) SetPendingInput(text string) {
	s.update(func(st *State) { st.PendingInput = text })
}

// Filter returns the filter applied to list requests.
func (s *Synchronizer) Filter() model.ListFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetFilter changes the filter used by subsequent reloads.
func (s *Synchronizer) SetFilter(f model.ListFilter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
}

// Subscribe registers fn to receive a copy of the state after every change.
// fn runs on the goroutine that made the change. The returned func unsubscribes.
func (s *Synchronizer) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Reload fetches a fresh snapshot and replaces the held items with it.
// On failure the held items are left as they were.
func (s *Synchronizer) Reload(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()
	return s.reload(ctx)
}

// Create adds a new item with the trimmed description. Blank input is
// ignored without a request. Once the create request has completed, whatever
// its outcome, the list is resynced and the pending input is cleared.
func (s *Synchronizer) Create(ctx context.Context, description string) error {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return nil
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	err := s.create(ctx, model.CreateRequest{Description: desc})
	serr := s.policy.Settle(ctx, s.reload)
	s.SetPendingInput("")
	return errors.Join(err, serr)
}

// Restore re-creates a previously deleted item from its description and due
// date, then resyncs. The pending input is left alone.
func (s *Synchronizer) Restore(ctx context.Context, item model.Item) error {
	desc := strings.TrimSpace(item.Description)
	if desc == "" {
		return nil
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	err := s.create(ctx, model.CreateRequest{Description: desc, DueDate: item.DueDate})
	return errors.Join(err, s.policy.Settle(ctx, s.reload))
}

func (s *Synchronizer) create(ctx context.Context, req model.CreateRequest) error {
	err := s.coll.Create(ctx, req)
	if err != nil {
		s.logger.Warn("create failed", "description", req.Description, "err", err)
	} else {
		s.logger.Debug("created", "description", req.Description)
	}
	return err
}

// Submit creates an item from the pending input.
func (s *Synchronizer) Submit(ctx context.Context) error {
	return s.Create(ctx, s.PendingInput())
}

// ToggleComplete flips item's completion flag on the server, then resyncs.
func (s *Synchronizer) ToggleComplete(ctx context.Context, item model.Item) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	err := s.coll.Update(ctx, item.ID, model.UpdateRequest{IsCompleted: model.Bool(!item.IsCompleted)})
	if err != nil {
		s.logger.Warn("toggle failed", "id", item.ID, "err", err)
	} else {
		s.logger.Debug("toggled", "id", item.ID, "is_completed", !item.IsCompleted)
	}
	return errors.Join(err, s.policy.Settle(ctx, s.reload))
}

// Delete removes item on the server, then resyncs.
func (s *Synchronizer) Delete(ctx context.Context, item model.Item) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	err := s.coll.Delete(ctx, item.ID)
	if err != nil {
		s.logger.Warn("delete failed", "id", item.ID, "err", err)
	} else {
		s.logger.Debug("deleted", "id", item.ID)
	}
	return errors.Join(err, s.policy.Settle(ctx, s.reload))
}

// reload must be called with ops held.
func (s *Synchronizer) reload(ctx context.Context) error {
	items, err := s.coll.List(ctx, s.Filter())
	if err != nil {
		s.logger.Warn("reload failed, keeping previous snapshot", "err", err)
		return err
	}
	if items == nil {
		items = []model.Item{}
	}
	s.logger.Debug("reloaded", "items", len(items))
	s.update(func(st *State) { st.Items = items })
	return nil
}

func (s *Synchronizer) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}
