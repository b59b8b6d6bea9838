package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"syntrise.com/core/internal/store"
)

// Embedder is the slice of the embedding client the context service needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ContextStore is the slice of the store client used for context lookups.
type ContextStore interface {
	SearchDrops(ctx context.Context, query []float32, threshold float64, limit int, userID string) ([]store.DropMatch, error)
	ListMemory(ctx context.Context, userID, key string) ([]store.MemoryEntry, error)
	RecentConversations(ctx context.Context, userID string, limit int) ([]store.ConversationSummary, error)
}

// ContextOptions controls which fragments Collect gathers and how the
// similarity search is tuned. Thresholds are endpoint-level configuration,
// passed in by the caller.
type ContextOptions struct {
	Query          string
	IncludeDrops   bool
	IncludeMemory  bool
	IncludeHistory bool
	MatchThreshold float64
	MatchCount     int
	HistoryLimit   int
}

// UserContext holds whatever context could be gathered for a user. Any of
// its fields may be empty.
type UserContext struct {
	Drops         []store.DropMatch
	Memory        map[string]json.RawMessage
	Conversations []store.ConversationSummary
}

// Fragments shapes the gathered context for prompt assembly. The prior
// summary is taken from the most recent conversation, when present.
func (c UserContext) Fragments() ContextFragments {
	fragments := ContextFragments{
		Memory: c.Memory,
		Drops:  c.Drops,
	}
	if len(c.Conversations) > 0 && c.Conversations[0].Summary != nil {
		fragments.Summary = *c.Conversations[0].Summary
	}
	return fragments
}

// HasHistory reports whether a prior-conversation summary was found.
func (c UserContext) HasHistory() bool {
	return len(c.Conversations) > 0 && c.Conversations[0].Summary != nil && *c.Conversations[0].Summary != ""
}

// ContextService gathers the optional enrichment fragments used to
// personalize generated replies.
type ContextService struct {
	store    ContextStore
	embedder Embedder
}

func NewContextService(st ContextStore, embedder Embedder) *ContextService {
	return &ContextService{store: st, embedder: embedder}
}

// Collect runs up to three independent lookups: similarity search over the
// user's drops, stored memory, and recent conversations. The lookups are
// isolated: a failure in one yields an empty fragment and never aborts the
// others or the request.
func (s *ContextService) Collect(ctx context.Context, userID string, opts ContextOptions) UserContext {
	uc := UserContext{}

	if opts.IncludeDrops && opts.Query != "" {
		matches, err := s.searchByText(ctx, userID, opts.Query, opts.MatchThreshold, opts.MatchCount)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Context drop search skipped")
		} else {
			uc.Drops = matches
		}
	}

	if opts.IncludeMemory {
		entries, err := s.store.ListMemory(ctx, userID, "")
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Context memory lookup skipped")
		} else if len(entries) > 0 {
			uc.Memory = make(map[string]json.RawMessage, len(entries))
			for _, e := range entries {
				uc.Memory[e.Key] = json.RawMessage(e.Value)
			}
		}
	}

	if opts.IncludeHistory {
		limit := opts.HistoryLimit
		if limit <= 0 {
			limit = 1
		}
		conversations, err := s.store.RecentConversations(ctx, userID, limit)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Context history lookup skipped")
		} else {
			uc.Conversations = conversations
		}
	}

	return uc
}

// SearchDrops embeds the query text and runs the scoped similarity search.
// Unlike Collect, failures here propagate: this is the primary action of the
// search endpoint.
func (s *ContextService) SearchDrops(ctx context.Context, userID, query string, threshold float64, limit int) ([]store.DropMatch, error) {
	return s.searchByText(ctx, userID, query, threshold, limit)
}

func (s *ContextService) searchByText(ctx context.Context, userID, query string, threshold float64, limit int) ([]store.DropMatch, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	matches, err := s.store.SearchDrops(ctx, embedding, threshold, limit, userID)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return matches, nil
}
