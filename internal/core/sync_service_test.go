package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntrise.com/core/internal/store"
)

type fakeDropStore struct {
	failUpsertFor    map[string]bool
	failEmbeddingFor map[string]bool

	drops      map[string]store.Drop // keyed by user_id + "/" + external_id
	embeddings map[string][]float32
	syncLogs   []store.SyncLog
}

func newFakeDropStore() *fakeDropStore {
	return &fakeDropStore{
		drops:      map[string]store.Drop{},
		embeddings: map[string][]float32{},
	}
}

func (f *fakeDropStore) UpsertDrop(ctx context.Context, drop store.Drop) (string, error) {
	if f.failUpsertFor[drop.ExternalID] {
		return "", errors.New("store rejected drop")
	}
	key := drop.UserID + "/" + drop.ExternalID
	if existing, ok := f.drops[key]; ok {
		drop.ID = existing.ID
	} else {
		drop.ID = "drop-" + drop.ExternalID
	}
	f.drops[key] = drop
	return drop.ID, nil
}

func (f *fakeDropStore) UpsertDropEmbedding(ctx context.Context, dropID string, embedding []float32) error {
	if f.failEmbeddingFor[dropID] {
		return errors.New("embedding write failed")
	}
	f.embeddings[dropID] = embedding
	return nil
}

func (f *fakeDropStore) InsertSyncLog(ctx context.Context, entry store.SyncLog) error {
	f.syncLogs = append(f.syncLogs, entry)
	return nil
}

func TestSyncDrops_AllItemsSucceed(t *testing.T) {
	st := newFakeDropStore()
	svc := NewSyncService(st, &fakeEmbedder{})

	result := svc.SyncDrops(context.Background(), "u1", []DropItem{
		{ID: "a", Content: "idea A"},
		{ID: "b", Text: "idea B"}, // content under the alternate field
	})

	assert.Equal(t, 2, result.Synced)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "success", result.Status())

	require.Len(t, st.syncLogs, 1)
	assert.Equal(t, 2, st.syncLogs[0].ItemsSynced)
	assert.Equal(t, "success", st.syncLogs[0].Status)
	assert.Equal(t, "droplit", st.syncLogs[0].Source)
}

func TestSyncDrops_MissingContentIsPerItemError(t *testing.T) {
	st := newFakeDropStore()
	svc := NewSyncService(st, &fakeEmbedder{})

	result := svc.SyncDrops(context.Background(), "u1", []DropItem{
		{ID: "a", Content: "idea A"},
		{ID: "b"},
	})

	assert.Equal(t, 1, result.Synced)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "b", result.Errors[0].ID)
	assert.NotEmpty(t, result.Errors[0].Error)
	assert.Equal(t, "partial", result.Status())

	require.Len(t, st.syncLogs, 1)
	assert.Equal(t, "partial", st.syncLogs[0].Status)
	assert.Equal(t, 1, st.syncLogs[0].ItemsSynced)
}

func TestSyncDrops_FailureDoesNotStopBatch(t *testing.T) {
	st := newFakeDropStore()
	st.failUpsertFor = map[string]bool{"b": true}
	svc := NewSyncService(st, &fakeEmbedder{})

	result := svc.SyncDrops(context.Background(), "u1", []DropItem{
		{ID: "a", Content: "first"},
		{ID: "b", Content: "second"},
		{ID: "c", Content: "third"},
	})

	assert.Equal(t, 2, result.Synced)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "b", result.Errors[0].ID)

	// Items after the failed one were still processed.
	assert.Contains(t, st.drops, "u1/c")
}

func TestSyncDrops_EmbeddingFailureIsPerItemError(t *testing.T) {
	st := newFakeDropStore()
	svc := NewSyncService(st, &fakeEmbedder{fail: true})

	result := svc.SyncDrops(context.Background(), "u1", []DropItem{
		{ID: "a", Content: "idea A"},
	})

	assert.Zero(t, result.Synced)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "a", result.Errors[0].ID)
}

func TestSyncDrops_ResyncUpdatesExistingDrop(t *testing.T) {
	st := newFakeDropStore()
	svc := NewSyncService(st, &fakeEmbedder{})

	first := svc.SyncDrops(context.Background(), "u1", []DropItem{{ID: "a", Content: "v1"}})
	second := svc.SyncDrops(context.Background(), "u1", []DropItem{{ID: "a", Content: "v2"}})

	assert.Equal(t, 1, first.Synced)
	assert.Equal(t, 1, second.Synced)

	// Total drop count is unchanged; content reflects the latest sync.
	assert.Len(t, st.drops, 1)
	assert.Equal(t, "v2", st.drops["u1/a"].Content)
	assert.Len(t, st.embeddings, 1)
}

func TestSyncDrops_AppliesDefaults(t *testing.T) {
	st := newFakeDropStore()
	svc := NewSyncService(st, &fakeEmbedder{})

	svc.SyncDrops(context.Background(), "u1", []DropItem{{ID: "a", Content: "idea A"}})

	drop := st.drops["u1/a"]
	assert.Equal(t, "uncategorized", drop.Category)
	assert.Equal(t, "droplit", drop.Source)
}

func TestSyncDrops_EmptyBatch(t *testing.T) {
	st := newFakeDropStore()
	svc := NewSyncService(st, &fakeEmbedder{})

	result := svc.SyncDrops(context.Background(), "u1", nil)

	assert.Zero(t, result.Synced)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "success", result.Status())
	assert.Len(t, st.syncLogs, 1)
}
