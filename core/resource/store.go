// Package resource keeps a client-side copy of one server collection together with the
// form used to create and edit its records.
package resource

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/session"
)

type (
	// Schema maps records of one entity to their form draft and write payload.
	Schema[R, D, P any] interface {
		Name() string
		RecordID(r R) core.ID
		EmptyDraft() D
		DraftFrom(r R) D
		// Payload validates the draft and builds the request body.
		Payload(d D) (P, error)
	}

	// Backend is the REST collection of one entity.
	Backend[R, P any] interface {
		List(ctx context.Context) ([]R, error)
		Create(ctx context.Context, p P) (R, error)
		Update(ctx context.Context, id core.ID, p P) (R, error)
		Delete(ctx context.Context, id core.ID) error
	}

	Session interface {
		Authenticated() bool
		Subscribe(fn func(session.State)) (cancel func())
	}

	// Store owns the collection, its fetch status, the form draft and the form status.
	// The fetch and form status machines are independent. Methods are safe for concurrent use;
	// requests are made outside the lock.
	Store[R, D, P any] struct {
		schema  Schema[R, D, P]
		backend Backend[R, P]
		session Session
		log     core.Logger

		mu         sync.RWMutex
		items      []R
		fetch      core.Operation[int]
		fetchGen   int
		draft      D
		editingID  core.ID
		form       core.Operation[R]
		removing   map[core.ID]bool
		lastRemove core.Operation[core.ID]
		closed     bool
		authed     bool
		unsub      func()
		// life scopes the refetches started by session changes; Close cancels it
		life     context.Context
		stopLife context.CancelFunc
	}
)

func NewStore[R, D, P any](schema Schema[R, D, P], backend Backend[R, P], sess Session, logger core.Logger) *Store[R, D, P] {
	return &Store[R, D, P]{
		schema:   schema,
		backend:  backend,
		session:  sess,
		log:      logger,
		draft:    schema.EmptyDraft(),
		removing: make(map[core.ID]bool),
	}
}

// Mount fetches the collection if a session exists and refetches whenever a session starts.
// Refetches keep the values of ctx but not its cancellation; they stop with Close.
func (s *Store[R, D, P]) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.unsub == nil {
		s.life, s.stopLife = context.WithCancel(context.WithoutCancel(ctx))
		life := s.life
		s.authed = s.session.Authenticated()
		s.unsub = s.session.Subscribe(func(st session.State) {
			s.mu.Lock()
			gained := !s.authed && st.Authenticated() && !s.closed
			s.authed = st.Authenticated()
			s.mu.Unlock()
			if gained {
				go func() { _ = s.Refresh(life) }()
			}
		})
	}
	s.mu.Unlock()

	if !s.session.Authenticated() {
		return nil
	}
	return s.Refresh(ctx)
}

// Close detaches the store; responses that arrive afterwards are dropped.
func (s *Store[R, D, P]) Close() {
	s.mu.Lock()
	s.closed = true
	unsub := s.unsub
	s.unsub = nil
	stop := s.stopLife
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	if stop != nil {
		stop()
	}
}

// Refresh replaces the collection with the server's. On failure the previous collection is kept.
func (s *Store[R, D, P]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if !s.session.Authenticated() {
		s.fetch = core.Fail[int](core.ErrSessionExpired)
		s.mu.Unlock()
		return core.ErrSessionExpired
	}
	s.fetchGen++
	gen := s.fetchGen
	s.fetch = core.Begin[int]()
	s.mu.Unlock()

	items, err := s.backend.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.fetchGen {
		return err
	}
	if err != nil {
		s.fetch = core.Fail[int](err)
		return errors.Wrapf(err, "listing %ss", s.schema.Name())
	}
	s.items = items
	s.fetch = core.Succeed(len(items))
	return nil
}

// Save creates the draft (create mode) or updates the record being edited.
func (s *Store[R, D, P]) Save(ctx context.Context) (R, error) {
	var zero R

	s.mu.Lock()
	if s.form.IsPending() {
		s.mu.Unlock()
		return zero, core.ErrBusy
	}
	if !s.session.Authenticated() {
		s.form = core.Fail[R](core.ErrSessionExpired)
		s.mu.Unlock()
		return zero, core.ErrSessionExpired
	}
	payload, err := s.schema.Payload(s.draft)
	if err != nil {
		s.form = core.Fail[R](err)
		s.mu.Unlock()
		return zero, err
	}
	id := s.editingID
	s.form = core.Begin[R]()
	s.mu.Unlock()

	var rec R
	if id == 0 {
		rec, err = s.backend.Create(ctx, payload)
	} else {
		rec, err = s.backend.Update(ctx, id, payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if !s.closed {
			s.form = core.Fail[R](err)
		}
		if id == 0 {
			return zero, errors.Wrapf(err, "creating %s", s.schema.Name())
		}
		return zero, errors.Wrapf(err, "updating %s %d", s.schema.Name(), id)
	}
	if s.closed {
		return rec, nil
	}

	if id == 0 {
		s.prepend(rec)
	} else {
		s.replace(rec)
	}
	s.draft = s.schema.EmptyDraft()
	s.editingID = 0
	s.form = core.Succeed(rec)
	return rec, nil
}

// Remove deletes a record. A record the server no longer has counts as removed.
func (s *Store[R, D, P]) Remove(ctx context.Context, id core.ID) error {
	s.mu.Lock()
	if !s.session.Authenticated() {
		s.lastRemove = core.Fail[core.ID](core.ErrSessionExpired)
		s.mu.Unlock()
		return core.ErrSessionExpired
	}
	if s.removing[id] {
		s.mu.Unlock()
		return core.ErrBusy
	}
	s.removing[id] = true
	s.lastRemove = core.Begin[core.ID]()
	s.mu.Unlock()

	err := s.backend.Delete(ctx, id)
	if err != nil && core.IsNotFound(err) {
		err = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.removing, id)
	if err != nil {
		s.log.Error("deleting "+s.schema.Name(), id, err)
		if !s.closed {
			s.lastRemove = core.Fail[core.ID](err)
		}
		return errors.Wrapf(err, "deleting %s %d", s.schema.Name(), id)
	}
	if s.closed {
		return nil
	}

	s.removeLocked(id)
	if s.editingID == id {
		s.draft = s.schema.EmptyDraft()
		s.editingID = 0
	}
	s.lastRemove = core.Succeed(id)
	return nil
}

// StartEditing seeds the draft from rec and switches the form to update mode.
func (s *Store[R, D, P]) StartEditing(rec R) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = s.schema.DraftFrom(rec)
	s.editingID = s.schema.RecordID(rec)
	s.form = core.Operation[R]{}
}

// CancelEdit goes back to an empty draft in create mode.
func (s *Store[R, D, P]) CancelEdit() {
	s.ResetForm()
}

func (s *Store[R, D, P]) ResetForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = s.schema.EmptyDraft()
	s.editingID = 0
	s.form = core.Operation[R]{}
}

func (s *Store[R, D, P]) SetDraft(d D) {
	s.EditDraft(func(draft *D) { *draft = d })
}

// EditDraft applies fn to the draft. Editing after a failed save clears the error.
func (s *Store[R, D, P]) EditDraft(fn func(d *D)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.draft)
	if s.form.State() == core.OpFailed {
		s.form = core.Operation[R]{}
	}
}

// SetField sets one draft field by its JSON name.
func (s *Store[R, D, P]) SetField(name, value string) error {
	var err error
	s.EditDraft(func(d *D) { err = core.SetField(d, name, value) })
	return err
}

// Replace patches one record in place, e.g. after a nested resource changed it.
func (s *Store[R, D, P]) Replace(rec R) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(rec)
}

func (s *Store[R, D, P]) Items() []R {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]R(nil), s.items...)
}

// Get returns the cached record with the given id.
func (s *Store[R, D, P]) Get(id core.ID) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if s.schema.RecordID(it) == id {
			return it, true
		}
	}
	var zero R
	return zero, false
}

func (s *Store[R, D, P]) Draft() D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// EditingID is zero in create mode.
func (s *Store[R, D, P]) EditingID() core.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editingID
}

func (s *Store[R, D, P]) Fetch() core.Operation[int] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetch
}

func (s *Store[R, D, P]) Form() core.Operation[R] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form
}

func (s *Store[R, D, P]) LastRemove() core.Operation[core.ID] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRemove
}

func (s *Store[R, D, P]) IsRemoving(id core.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.removing[id]
}

func (s *Store[R, D, P]) prepend(rec R) {
	s.removeLocked(s.schema.RecordID(rec))
	s.items = append([]R{rec}, s.items...)
}

// replace puts rec where the record with the same id was, or at the head when absent.
func (s *Store[R, D, P]) replace(rec R) {
	id := s.schema.RecordID(rec)
	for i, it := range s.items {
		if s.schema.RecordID(it) == id {
			items := append([]R(nil), s.items...)
			items[i] = rec
			s.items = items
			return
		}
	}
	s.items = append([]R{rec}, s.items...)
}

func (s *Store[R, D, P]) removeLocked(id core.ID) {
	items := make([]R, 0, len(s.items))
	for _, it := range s.items {
		if s.schema.RecordID(it) != id {
			items = append(items, it)
		}
	}
	s.items = items
}
