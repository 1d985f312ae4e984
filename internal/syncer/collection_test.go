package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsboard/pkg/models"
)

// fakeRemote is a controllable in-memory record store for categories.
type fakeRemote struct {
	mu     sync.Mutex
	nextID int64

	insertErr error
	updateErr error
	deleteErr error

	// when set, Insert blocks until the channel is closed
	insertGate chan struct{}

	inserted []models.Category
	updates  []map[string]any
	deleted  []int64
	selected []models.Category
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{nextID: 100}
}

func (f *fakeRemote) Insert(ctx context.Context, rec models.Category) (models.Category, error) {
	f.mu.Lock()
	gate := f.insertGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return models.Category{}, f.insertErr
	}
	f.nextID++
	stored := rec.WithRecordID(f.nextID)
	f.inserted = append(f.inserted, stored)
	return stored, nil
}

func (f *fakeRemote) Update(ctx context.Context, id int64, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, fields)
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) Select(ctx context.Context, filter map[string]string) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Category, len(f.selected))
	copy(out, f.selected)
	return out, nil
}

func (f *fakeRemote) deletedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.deleted))
	copy(out, f.deleted)
	return out
}

func collectErrors() (func(MutationError), *[]MutationError, *sync.Mutex) {
	var mu sync.Mutex
	var errs []MutationError
	return func(e MutationError) {
		mu.Lock()
		errs = append(errs, e)
		mu.Unlock()
	}, &errs, &mu
}

func TestCreateIsVisibleImmediately(t *testing.T) {
	remote := newFakeRemote()
	remote.insertGate = make(chan struct{})
	defer close(remote.insertGate)

	col := NewCollection[models.Category](remote)
	rec := col.Create(context.Background(), models.Category{Name: "Turnos", Section: "inicio"})

	assert.True(t, IsTempID(rec.ID))
	got, ok := col.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, "Turnos", got.Name)
}

func TestCreateReconcilesToStoreID(t *testing.T) {
	remote := newFakeRemote()
	col := NewCollection[models.Category](remote)

	rec := col.Create(context.Background(), models.Category{Name: "Turnos", Section: "inicio"})
	col.Wait()

	items := col.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(101), items[0].ID)
	assert.Equal(t, "Turnos", items[0].Name)

	// the temporary identity is gone
	_, ok := col.Get(rec.ID)
	assert.False(t, ok)
}

func TestCreatesReconcileByIdentityNotPosition(t *testing.T) {
	remote := newFakeRemote()
	gate := make(chan struct{})
	remote.insertGate = gate

	col := NewCollection[models.Category](remote)
	a := col.Create(context.Background(), models.Category{Name: "A", Section: "inicio"})
	b := col.Create(context.Background(), models.Category{Name: "B", Section: "inicio"})
	require.NotEqual(t, a.ID, b.ID)

	close(gate)
	col.Wait()

	items := col.Items()
	require.Len(t, items, 2)
	// local order preserved; each record carries a store id now
	assert.Equal(t, "A", items[0].Name)
	assert.Equal(t, "B", items[1].Name)
	assert.Positive(t, items[0].ID)
	assert.Positive(t, items[1].ID)
	assert.NotEqual(t, items[0].ID, items[1].ID)
}

func TestInsertFailureKeepsOptimisticRecord(t *testing.T) {
	remote := newFakeRemote()
	remote.insertErr = errors.New("store down")

	onErr, errs, mu := collectErrors()
	col := NewCollection[models.Category](remote, WithErrorHandler[models.Category](onErr))

	rec := col.Create(context.Background(), models.Category{Name: "Turnos", Section: "inicio"})
	col.Wait()

	got, ok := col.Get(rec.ID)
	require.True(t, ok)
	assert.True(t, IsTempID(got.ID))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *errs, 1)
	assert.Equal(t, "insert", (*errs)[0].Op)
	assert.Equal(t, rec.ID, (*errs)[0].ID)
}

func TestRemoveIsSynchronousAndSubmitsDelete(t *testing.T) {
	remote := newFakeRemote()
	remote.selected = []models.Category{{ID: 7, Name: "Turnos", Section: "inicio"}}

	col := NewCollection[models.Category](remote)
	_, err := col.Refresh(context.Background(), nil)
	require.NoError(t, err)

	col.Remove(context.Background(), 7)
	assert.Equal(t, 0, col.Len())

	col.Wait()
	assert.Equal(t, []int64{7}, remote.deletedIDs())
}

func TestRemoveKeepsLocalDeleteOnRemoteFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.selected = []models.Category{{ID: 7, Name: "Turnos", Section: "inicio"}}
	remote.deleteErr = errors.New("store down")

	onErr, errs, mu := collectErrors()
	col := NewCollection[models.Category](remote, WithErrorHandler[models.Category](onErr))
	_, err := col.Refresh(context.Background(), nil)
	require.NoError(t, err)

	col.Remove(context.Background(), 7)
	col.Wait()

	// no rollback: the record stays deleted locally, the failure is reported
	assert.Equal(t, 0, col.Len())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *errs, 1)
	assert.Equal(t, "delete", (*errs)[0].Op)
}

func TestRemovePendingCreateNeverResurrects(t *testing.T) {
	remote := newFakeRemote()
	gate := make(chan struct{})
	remote.insertGate = gate

	col := NewCollection[models.Category](remote)
	rec := col.Create(context.Background(), models.Category{Name: "Turnos", Section: "inicio"})

	// delete before the insert acks
	col.Remove(context.Background(), rec.ID)
	assert.Equal(t, 0, col.Len())

	close(gate)
	col.Wait()

	// still gone, and the row the store created was cleaned up
	assert.Equal(t, 0, col.Len())
	assert.Equal(t, []int64{101}, remote.deletedIDs())
}

func TestUpdateFieldAppliesLocallyAndSubmitsPatch(t *testing.T) {
	remote := newFakeRemote()
	remote.selected = []models.Category{{ID: 7, Name: "Turnos", Section: "inicio"}}

	col := NewCollection[models.Category](remote)
	_, err := col.Refresh(context.Background(), nil)
	require.NoError(t, err)

	ok := col.UpdateField(context.Background(), 7, "name", "Guardias")
	require.True(t, ok)

	got, found := col.Get(7)
	require.True(t, found)
	assert.Equal(t, "Guardias", got.Name)

	col.Wait()
	remote.mu.Lock()
	defer remote.mu.Unlock()
	require.Len(t, remote.updates, 1)
	assert.Equal(t, map[string]any{"name": "Guardias"}, remote.updates[0])
}

func TestUpdateFieldRejectsUnknownFieldAndMissingID(t *testing.T) {
	remote := newFakeRemote()
	remote.selected = []models.Category{{ID: 7, Name: "Turnos", Section: "inicio"}}

	col := NewCollection[models.Category](remote)
	_, err := col.Refresh(context.Background(), nil)
	require.NoError(t, err)

	assert.False(t, col.UpdateField(context.Background(), 7, "id", "9"))
	assert.False(t, col.UpdateField(context.Background(), 99, "name", "x"))

	col.Wait()
	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Empty(t, remote.updates)
}

func TestRefreshReplacesWholesale(t *testing.T) {
	remote := newFakeRemote()
	remote.insertErr = errors.New("store down")

	onErr, _, _ := collectErrors()
	col := NewCollection[models.Category](remote, WithErrorHandler[models.Category](onErr))

	// a failed create leaves an optimistic record behind
	col.Create(context.Background(), models.Category{Name: "Huerfana", Section: "inicio"})
	col.Wait()
	require.Equal(t, 1, col.Len())

	remote.mu.Lock()
	remote.selected = []models.Category{
		{ID: 1, Name: "Turnos", Section: "inicio"},
		{ID: 2, Name: "Guardias", Section: "inicio"},
	}
	remote.mu.Unlock()

	items, err := col.Refresh(context.Background(), map[string]string{"section": "inicio"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	// the optimistic leftover is gone; the store view wins
	got := col.Items()
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestTempIDsAreNegativeAndUnique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := NextTempID()
		assert.Negative(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
