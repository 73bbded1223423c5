package resource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/session"
	"github.com/trezcool/edunet/storage/tokenstore"
	"github.com/trezcool/edunet/tests"
)

type (
	unit struct {
		ID   core.ID
		Name string
	}

	unitDraft struct {
		Name string `json:"name" validate:"notblank"`
	}

	unitPayload struct {
		Name string
	}

	unitSchema struct {
		validate *core.Validator
	}

	backendMock struct {
		mu        sync.Mutex
		calls     int
		items     []unit
		nextID    core.ID
		listErr   error
		createErr error
		updateErr error
		deleteErr error
		block     chan struct{}
	}
)

func (unitSchema) Name() string               { return "unit" }
func (unitSchema) RecordID(u unit) core.ID    { return u.ID }
func (unitSchema) EmptyDraft() unitDraft      { return unitDraft{} }
func (unitSchema) DraftFrom(u unit) unitDraft { return unitDraft{Name: u.Name} }

func (s unitSchema) Payload(d unitDraft) (unitPayload, error) {
	if err := s.validate.Struct(d); err != nil {
		return unitPayload{}, err
	}
	return unitPayload{Name: core.CleanString(d.Name)}, nil
}

func (m *backendMock) hit() {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (m *backendMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *backendMock) List(ctx context.Context) ([]unit, error) {
	m.hit()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]unit(nil), m.items...), nil
}

func (m *backendMock) Create(_ context.Context, p unitPayload) (unit, error) {
	m.hit()
	if m.createErr != nil {
		return unit{}, m.createErr
	}
	m.nextID++
	return unit{ID: m.nextID, Name: p.Name}, nil
}

func (m *backendMock) Update(_ context.Context, id core.ID, p unitPayload) (unit, error) {
	m.hit()
	if m.updateErr != nil {
		return unit{}, m.updateErr
	}
	return unit{ID: id, Name: p.Name}, nil
}

func (m *backendMock) Delete(_ context.Context, _ core.ID) error {
	m.hit()
	return m.deleteErr
}

func setup(t *testing.T, token string, items ...unit) (*Store[unit, unitDraft, unitPayload], *backendMock, *session.Session, *testutil.Logger) {
	logger := new(testutil.Logger)
	sess := session.New(tokenstore.NewMemoryStore(token), logger)
	if err := sess.Restore(); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	backend := &backendMock{items: items, nextID: 100}
	store := NewStore[unit, unitDraft, unitPayload](unitSchema{validate: core.NewValidator()}, backend, sess, logger)
	return store, backend, sess, logger
}

func TestStore_Refresh(t *testing.T) {
	store, backend, _, _ := setup(t, "tok", unit{ID: 1, Name: "A"}, unit{ID: 2, Name: "B"})
	ctx := context.Background()

	assert.True(t, store.Fetch().IsIdle())
	require.NoError(t, store.Mount(ctx))
	assert.Len(t, store.Items(), 2)
	n, ok := store.Fetch().Value()
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	backend.listErr = &core.APIError{Status: 500, Message: "server down"}
	err := store.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, core.OpFailed, store.Fetch().State())
	assert.Equal(t, "server down", store.Fetch().Message("could not load"))
	assert.Len(t, store.Items(), 2, "previous collection is kept")
}

func TestStore_MountWithoutSession(t *testing.T) {
	store, backend, sess, _ := setup(t, "")
	ctx := context.Background()

	require.NoError(t, store.Mount(ctx))
	assert.Equal(t, 0, backend.Calls())
	assert.True(t, store.Fetch().IsIdle())

	err := store.Refresh(ctx)
	assert.Equal(t, core.ErrSessionExpired, err)
	assert.Equal(t, 0, backend.Calls())
	assert.Equal(t, "session expired, please log in again", store.Fetch().Message(""))

	// logging in triggers the fetch
	backend.items = []unit{{ID: 1, Name: "A"}}
	require.NoError(t, sess.Begin("tok"))
	assert.Eventually(t, func() bool { return len(store.Items()) == 1 }, time.Second, 5*time.Millisecond)

	store.Close()
	require.NoError(t, sess.Clear())
	require.NoError(t, sess.Begin("tok2"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, backend.Calls(), "closed stores do not refetch")
}

func TestStore_RefetchOutlivesMountContext(t *testing.T) {
	store, backend, sess, _ := setup(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, store.Mount(ctx))
	cancel()

	backend.items = []unit{{ID: 1, Name: "A"}}
	require.NoError(t, sess.Begin("tok"))
	assert.Eventually(t, func() bool { return store.Fetch().State() == core.OpSucceeded }, time.Second, 5*time.Millisecond)
	assert.Len(t, store.Items(), 1)

	store.Close()
	assert.Equal(t, context.Canceled, store.life.Err())
}

func TestStore_SaveCreate(t *testing.T) {
	store, backend, _, _ := setup(t, "tok", unit{ID: 1, Name: "A"}, unit{ID: 2, Name: "B"})
	ctx := context.Background()
	require.NoError(t, store.Mount(ctx))

	require.NoError(t, store.SetField("name", "  New  "))
	rec, err := store.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, unit{ID: 101, Name: "New"}, rec)

	items := store.Items()
	require.Len(t, items, 3)
	assert.Equal(t, rec, items[0])

	var count int
	for _, it := range items {
		if it.ID == rec.ID {
			count++
		}
	}
	assert.Equal(t, 1, count)

	got, ok := store.Form().Value()
	assert.True(t, ok)
	assert.Equal(t, rec, got)
	assert.Equal(t, unitDraft{}, store.Draft())
	assert.Equal(t, 2, backend.Calls())
}

func TestStore_SaveCreateAfterRefetch(t *testing.T) {
	store, backend, _, _ := setup(t, "tok")
	ctx := context.Background()
	require.NoError(t, store.Mount(ctx))

	store.SetDraft(unitDraft{Name: "New"})
	rec, err := store.Save(ctx)
	require.NoError(t, err)

	// a refetch that raced the create already holds the record
	backend.items = []unit{rec}
	require.NoError(t, store.Refresh(ctx))
	store.mu.Lock()
	store.prepend(rec)
	store.mu.Unlock()
	assert.Equal(t, []unit{rec}, store.Items())
}

func TestStore_SaveUpdate(t *testing.T) {
	store, _, _, _ := setup(t, "tok", unit{ID: 1, Name: "A"}, unit{ID: 2, Name: "B"}, unit{ID: 3, Name: "C"})
	ctx := context.Background()
	require.NoError(t, store.Mount(ctx))

	store.StartEditing(unit{ID: 2, Name: "B"})
	assert.Equal(t, core.ID(2), store.EditingID())
	assert.Equal(t, unitDraft{Name: "B"}, store.Draft())

	store.EditDraft(func(d *unitDraft) { d.Name = "B2" })
	_, err := store.Save(ctx)
	require.NoError(t, err)

	assert.Equal(t, []unit{{ID: 1, Name: "A"}, {ID: 2, Name: "B2"}, {ID: 3, Name: "C"}}, store.Items())
	assert.Equal(t, core.ID(0), store.EditingID())
}

func TestStore_SaveFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		store, backend, _, _ := setup(t, "")
		store.SetDraft(unitDraft{Name: "X"})
		_, err := store.Save(ctx)
		assert.Equal(t, core.ErrSessionExpired, err)
		assert.Equal(t, 0, backend.Calls())
		assert.Equal(t, "session expired, please log in again", store.Form().Message(""))
	})

	t.Run("validation", func(t *testing.T) {
		store, backend, _, _ := setup(t, "tok")
		_, err := store.Save(ctx)
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
		assert.Equal(t, "name is required", store.Form().Message(""))
		assert.Equal(t, 0, backend.Calls())

		// editing clears the error
		require.NoError(t, store.SetField("name", "X"))
		assert.True(t, store.Form().IsIdle())
	})

	t.Run("server error", func(t *testing.T) {
		store, backend, _, _ := setup(t, "tok", unit{ID: 1, Name: "A"})
		require.NoError(t, store.Mount(ctx))
		backend.updateErr = &core.APIError{Status: 409, Message: "code already in use"}

		store.StartEditing(unit{ID: 1, Name: "A"})
		store.EditDraft(func(d *unitDraft) { d.Name = "B" })
		_, err := store.Save(ctx)
		require.Error(t, err)
		assert.Equal(t, "code already in use", store.Form().Message("could not save"))
		assert.Equal(t, []unit{{ID: 1, Name: "A"}}, store.Items())
		assert.Equal(t, unitDraft{Name: "B"}, store.Draft(), "draft is kept for a retry")
		assert.Equal(t, core.ID(1), store.EditingID())
	})

	t.Run("update not found", func(t *testing.T) {
		store, backend, _, _ := setup(t, "tok", unit{ID: 1, Name: "A"})
		require.NoError(t, store.Mount(ctx))
		backend.updateErr = &core.NotFoundError{Path: "/units/1"}

		store.StartEditing(unit{ID: 1, Name: "A"})
		_, err := store.Save(ctx)
		require.Error(t, err)
		assert.True(t, core.IsNotFound(err))
		assert.Equal(t, core.OpFailed, store.Form().State())
	})
}

func TestStore_SaveBusy(t *testing.T) {
	store, backend, _, _ := setup(t, "tok")
	ctx := context.Background()
	backend.block = make(chan struct{})

	store.SetDraft(unitDraft{Name: "X"})
	done := make(chan error)
	go func() {
		_, err := store.Save(ctx)
		done <- err
	}()
	assert.Eventually(t, func() bool { return store.Form().IsPending() }, time.Second, time.Millisecond)

	_, err := store.Save(ctx)
	assert.Equal(t, core.ErrBusy, err)

	close(backend.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, backend.Calls())
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		deleteErr error
		id        core.ID
		wantErr   bool
		wantItems []unit
	}{
		{name: "success", id: 2, wantItems: []unit{{ID: 1, Name: "A"}, {ID: 3, Name: "C"}}},
		{name: "already gone", id: 2, deleteErr: &core.NotFoundError{Path: "/units/2"}, wantItems: []unit{{ID: 1, Name: "A"}, {ID: 3, Name: "C"}}},
		{name: "not cached and gone", id: 9, deleteErr: &core.NotFoundError{Path: "/units/9"}, wantItems: []unit{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}},
		{name: "server error", id: 2, deleteErr: &core.APIError{Status: 500}, wantErr: true, wantItems: []unit{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, _, logger := setup(t, "tok", unit{ID: 1, Name: "A"}, unit{ID: 2, Name: "B"}, unit{ID: 3, Name: "C"})
			require.NoError(t, store.Mount(ctx))
			backend.deleteErr = tt.deleteErr

			err := store.Remove(ctx, tt.id)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantItems, store.Items())
			assert.False(t, store.IsRemoving(tt.id))
			if tt.wantErr {
				assert.True(t, logger.Contains("ERROR: deleting unit"))
				assert.Equal(t, core.OpFailed, store.LastRemove().State())
			} else {
				id, ok := store.LastRemove().Value()
				assert.True(t, ok)
				assert.Equal(t, tt.id, id)
			}
		})
	}
}

func TestStore_RemoveWithoutSession(t *testing.T) {
	store, backend, _, _ := setup(t, "")
	err := store.Remove(context.Background(), 1)
	assert.True(t, core.IsAuth(err))
	assert.Equal(t, 0, backend.Calls())
	assert.Equal(t, core.OpFailed, store.LastRemove().State())
}

func TestStore_RemoveEditedRecord(t *testing.T) {
	store, _, _, _ := setup(t, "tok", unit{ID: 1, Name: "A"})
	ctx := context.Background()
	require.NoError(t, store.Mount(ctx))

	store.StartEditing(unit{ID: 1, Name: "A"})
	require.NoError(t, store.Remove(ctx, 1))
	assert.Equal(t, core.ID(0), store.EditingID())
	assert.Empty(t, store.Items())
}

func TestStore_CloseDropsLateResponses(t *testing.T) {
	store, backend, _, _ := setup(t, "tok", unit{ID: 1, Name: "A"})
	ctx := context.Background()
	backend.block = make(chan struct{})

	done := make(chan error)
	go func() { done <- store.Refresh(ctx) }()
	assert.Eventually(t, func() bool { return store.Fetch().IsPending() }, time.Second, time.Millisecond)

	store.Close()
	close(backend.block)
	require.NoError(t, <-done)
	assert.Empty(t, store.Items())
}

func TestStore_CancelEdit(t *testing.T) {
	store, backend, _, _ := setup(t, "tok")
	store.StartEditing(unit{ID: 4, Name: "D"})
	store.CancelEdit()
	assert.Equal(t, core.ID(0), store.EditingID())
	assert.Equal(t, unitDraft{}, store.Draft())
	assert.Equal(t, 0, backend.Calls())

	assert.Error(t, store.SetField("nope", "x"))
	_, err := store.Save(context.Background())
	assert.True(t, core.IsValidation(err))
}
