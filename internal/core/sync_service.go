package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog/log"
	"syntrise.com/core/internal/store"
)

const dropSource = "droplit"

// DropStore is the slice of the store client the sync service needs.
type DropStore interface {
	UpsertDrop(ctx context.Context, drop store.Drop) (string, error)
	UpsertDropEmbedding(ctx context.Context, dropID string, embedding []float32) error
	InsertSyncLog(ctx context.Context, entry store.SyncLog) error
}

// DropItem is one element of a sync batch as submitted by the caller.
// Content may arrive under either "content" or "text".
type DropItem struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Text      string          `json:"text"`
	Category  string          `json:"category"`
	Tags      []string        `json:"tags"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt *time.Time      `json:"created_at"`
}

// SyncItemError attributes a failure to a single batch item.
type SyncItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// SyncResult is the outcome of a sync batch.
type SyncResult struct {
	Synced int             `json:"synced"`
	Errors []SyncItemError `json:"errors"`
}

// Status is "success" when every item synced, "partial" otherwise.
func (r SyncResult) Status() string {
	if len(r.Errors) > 0 {
		return "partial"
	}
	return "success"
}

// SyncService persists batches of drops together with their embeddings.
type SyncService struct {
	store    DropStore
	embedder Embedder
}

func NewSyncService(st DropStore, embedder Embedder) *SyncService {
	return &SyncService{store: st, embedder: embedder}
}

// SyncDrops processes a batch sequentially, continuing past per-item
// failures. Each failed item ends up in the error list; the rest of the
// batch is unaffected. A sync_log row is written afterwards regardless of
// outcome.
func (s *SyncService) SyncDrops(ctx context.Context, userID string, items []DropItem) SyncResult {
	result := SyncResult{Errors: []SyncItemError{}}

	for _, item := range items {
		if err := s.syncOne(ctx, userID, item); err != nil {
			result.Errors = append(result.Errors, SyncItemError{ID: item.ID, Error: err.Error()})
			continue
		}
		result.Synced++
	}

	logEntry := store.SyncLog{
		UserID:      userID,
		Source:      dropSource,
		LastSyncAt:  time.Now().UTC(),
		ItemsSynced: result.Synced,
		Status:      result.Status(),
	}
	if err := s.store.InsertSyncLog(ctx, logEntry); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to write sync log")
	}

	return result
}

func (s *SyncService) syncOne(ctx context.Context, userID string, item DropItem) error {
	content := item.Content
	if content == "" {
		content = item.Text
	}
	if content == "" {
		return fmt.Errorf("drop content is required")
	}

	category := item.Category
	if category == "" {
		category = "uncategorized"
	}

	drop := store.Drop{
		UserID:     userID,
		ExternalID: item.ID,
		Content:    content,
		Category:   category,
		Tags:       item.Tags,
		Source:     dropSource,
	}
	if len(item.Metadata) > 0 {
		drop.Metadata = types.JSONText(item.Metadata)
	}
	if item.CreatedAt != nil {
		drop.CreatedAt = *item.CreatedAt
	}

	dropID, err := s.store.UpsertDrop(ctx, drop)
	if err != nil {
		return err
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return err
	}

	return s.store.UpsertDropEmbedding(ctx, dropID, embedding)
}
