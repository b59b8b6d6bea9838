package api

import (
	"context"
	"net/http"

	"syntrise.com/core/internal/core"
	"syntrise.com/core/internal/store"
)

// EntityStore covers the store operations handlers call directly.
type EntityStore interface {
	UpsertMemoryEntry(ctx context.Context, entry store.MemoryEntry) (*store.MemoryEntry, error)
	ListMemory(ctx context.Context, userID, key string) ([]store.MemoryEntry, error)
	InsertConversation(ctx context.Context, userID string, messages []store.ChatMessage) error
}

// ContextProvider gathers optional context fragments and runs the primary
// drop search.
type ContextProvider interface {
	Collect(ctx context.Context, userID string, opts core.ContextOptions) core.UserContext
	SearchDrops(ctx context.Context, userID, query string, threshold float64, limit int) ([]store.DropMatch, error)
}

// DropSyncer persists a batch of drops with continue-on-error semantics.
type DropSyncer interface {
	SyncDrops(ctx context.Context, userID string, items []core.DropItem) core.SyncResult
}

// Completer generates a reply from a system instruction and message list.
type Completer interface {
	Complete(ctx context.Context, system string, messages []store.ChatMessage) (string, error)
}

type APIHandler struct {
	store       EntityStore
	contexts    ContextProvider
	syncer      DropSyncer
	completions Completer
}

func NewAPIHandler(st EntityStore, contexts ContextProvider, syncer DropSyncer, completions Completer) *APIHandler {
	return &APIHandler{
		store:       st,
		contexts:    contexts,
		syncer:      syncer,
		completions: completions,
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
