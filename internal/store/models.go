package store

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Drop is a user-saved content item subject to semantic search. Drops are
// unique per (user_id, external_id); re-syncing the same external id updates
// the existing row.
type Drop struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"user_id"`
	ExternalID string         `db:"external_id" json:"external_id"`
	Content    string         `db:"content" json:"content"`
	Category   string         `db:"category" json:"category"`
	Tags       pq.StringArray `db:"tags" json:"tags"`
	Source     string         `db:"source" json:"source"`
	Metadata   types.JSONText `db:"metadata" json:"metadata"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// DropMatch is a similarity search result, most-similar first.
type DropMatch struct {
	ID         string         `db:"id" json:"id"`
	ExternalID string         `db:"external_id" json:"external_id"`
	Content    string         `db:"content" json:"content"`
	Category   string         `db:"category" json:"category"`
	Tags       pq.StringArray `db:"tags" json:"tags"`
	Similarity float64        `db:"similarity" json:"similarity"`
}

// MemoryEntry is a durable key/value fact about a user. Last write wins.
type MemoryEntry struct {
	ID        int64          `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Key       string         `db:"key" json:"key"`
	Value     types.JSONText `db:"value" json:"value"`
	Source    string         `db:"source" json:"source"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ChatMessage is a single turn in a conversation's message history.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ConversationSummary is the lightweight view of a stored conversation used
// for context assembly. "Most recent" is determined purely by updated_at.
type ConversationSummary struct {
	ID        string    `db:"id" json:"id"`
	Title     *string   `db:"title" json:"title"`
	Summary   *string   `db:"summary" json:"summary"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SyncLog is an audit record of a bulk sync attempt.
type SyncLog struct {
	UserID      string    `db:"user_id" json:"user_id"`
	Source      string    `db:"source" json:"source"`
	LastSyncAt  time.Time `db:"last_sync_at" json:"last_sync_at"`
	ItemsSynced int       `db:"items_synced" json:"items_synced"`
	Status      string    `db:"status" json:"status"` // "success" or "partial"
}
