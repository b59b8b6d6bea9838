package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pgvector/pgvector-go"
)

// PostgresStore is the client for the hosted relational/vector store. All
// entity state lives there; this type only issues SQL over the wire.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err = store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS drops (
        id UUID PRIMARY KEY,
        user_id TEXT NOT NULL,
        external_id TEXT NOT NULL,
        content TEXT NOT NULL,
        category TEXT NOT NULL DEFAULT 'uncategorized',
        tags TEXT[] NOT NULL DEFAULT '{}',
        source TEXT NOT NULL DEFAULT 'droplit',
        metadata JSONB NOT NULL DEFAULT '{}',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        UNIQUE (user_id, external_id)
    );

    CREATE TABLE IF NOT EXISTS embeddings (
        drop_id UUID PRIMARY KEY REFERENCES drops (id) ON DELETE CASCADE,
        embedding VECTOR(1536) NOT NULL
    );

    CREATE TABLE IF NOT EXISTS memory (
        id BIGSERIAL PRIMARY KEY,
        user_id TEXT NOT NULL,
        key TEXT NOT NULL,
        value JSONB NOT NULL,
        source TEXT NOT NULL DEFAULT 'api',
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        UNIQUE (user_id, key)
    );

    CREATE TABLE IF NOT EXISTS conversations (
        id UUID PRIMARY KEY,
        user_id TEXT NOT NULL,
        title TEXT,
        messages JSONB NOT NULL DEFAULT '[]',
        summary TEXT,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );

    CREATE TABLE IF NOT EXISTS sync_log (
        id BIGSERIAL PRIMARY KEY,
        user_id TEXT NOT NULL,
        source TEXT NOT NULL,
        last_sync_at TIMESTAMPTZ NOT NULL,
        items_synced INT NOT NULL,
        status TEXT NOT NULL
    );

    CREATE OR REPLACE FUNCTION search_drops(
        query_embedding VECTOR(1536),
        match_threshold FLOAT,
        match_count INT,
        p_user_id TEXT
    )
    RETURNS TABLE (
        id UUID,
        external_id TEXT,
        content TEXT,
        category TEXT,
        tags TEXT[],
        similarity FLOAT
    )
    LANGUAGE sql STABLE AS $$
        SELECT d.id, d.external_id, d.content, d.category, d.tags,
               1 - (e.embedding <=> query_embedding) AS similarity
        FROM drops d
        JOIN embeddings e ON e.drop_id = d.id
        WHERE d.user_id = p_user_id
          AND 1 - (e.embedding <=> query_embedding) >= match_threshold
        ORDER BY e.embedding <=> query_embedding
        LIMIT match_count
    $$;
    `
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Drop methods

// UpsertDrop inserts a drop or, when the (user_id, external_id) pair already
// exists, updates it in place. Returns the drop's store identifier.
func (s *PostgresStore) UpsertDrop(ctx context.Context, drop Drop) (string, error) {
	if drop.ID == "" {
		drop.ID = uuid.NewString()
	}
	if drop.CreatedAt.IsZero() {
		drop.CreatedAt = time.Now().UTC()
	}
	if drop.Tags == nil {
		drop.Tags = []string{}
	}
	if drop.Metadata == nil {
		drop.Metadata = types.JSONText("{}")
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO drops (id, user_id, external_id, content, category, tags, source, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (user_id, external_id) DO UPDATE SET
            content = EXCLUDED.content,
            category = EXCLUDED.category,
            tags = EXCLUDED.tags,
            source = EXCLUDED.source,
            metadata = EXCLUDED.metadata
        RETURNING id`,
		drop.ID, drop.UserID, drop.ExternalID, drop.Content, drop.Category,
		drop.Tags, drop.Source, drop.Metadata, drop.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert drop: %w", err)
	}
	return id, nil
}

// UpsertDropEmbedding stores the embedding for a drop, replacing any
// previous vector for that drop.
func (s *PostgresStore) UpsertDropEmbedding(ctx context.Context, dropID string, embedding []float32) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO embeddings (drop_id, embedding)
        VALUES ($1, $2)
        ON CONFLICT (drop_id) DO UPDATE SET embedding = EXCLUDED.embedding`,
		dropID, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// SearchDrops calls the store-side search_drops procedure: matches ranked by
// cosine similarity, most-similar first, below-threshold and out-of-scope
// rows excluded.
func (s *PostgresStore) SearchDrops(ctx context.Context, query []float32, threshold float64, limit int, userID string) ([]DropMatch, error) {
	matches := []DropMatch{}
	err := s.db.SelectContext(ctx, &matches,
		`SELECT id, external_id, content, category, tags, similarity
         FROM search_drops($1, $2, $3, $4)`,
		pgvector.NewVector(query), threshold, limit, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search drops: %w", err)
	}
	return matches, nil
}

// Memory methods

// UpsertMemoryEntry writes a key/value fact for a user. A second write to
// the same (user_id, key) pair overwrites the value.
func (s *PostgresStore) UpsertMemoryEntry(ctx context.Context, entry MemoryEntry) (*MemoryEntry, error) {
	if entry.Source == "" {
		entry.Source = "api"
	}

	var stored MemoryEntry
	err := s.db.GetContext(ctx, &stored, `
        INSERT INTO memory (user_id, key, value, source, updated_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (user_id, key) DO UPDATE SET
            value = EXCLUDED.value,
            source = EXCLUDED.source,
            updated_at = now()
        RETURNING id, user_id, key, value, source, updated_at`,
		entry.UserID, entry.Key, entry.Value, entry.Source,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert memory entry: %w", err)
	}
	return &stored, nil
}

// ListMemory returns a user's memory entries, optionally filtered to one key.
func (s *PostgresStore) ListMemory(ctx context.Context, userID, key string) ([]MemoryEntry, error) {
	entries := []MemoryEntry{}
	var err error
	if key != "" {
		err = s.db.SelectContext(ctx, &entries,
			`SELECT id, user_id, key, value, source, updated_at
             FROM memory WHERE user_id = $1 AND key = $2 ORDER BY key`,
			userID, key)
	} else {
		err = s.db.SelectContext(ctx, &entries,
			`SELECT id, user_id, key, value, source, updated_at
             FROM memory WHERE user_id = $1 ORDER BY key`,
			userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list memory: %w", err)
	}
	return entries, nil
}

// Conversation methods

// InsertConversation appends a new conversation record carrying the full
// message history seen so far. No thread id is enforced; recency is purely
// updated_at.
func (s *PostgresStore) InsertConversation(ctx context.Context, userID string, messages []ChatMessage) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO conversations (id, user_id, messages, updated_at)
        VALUES ($1, $2, $3, now())`,
		uuid.NewString(), userID, types.JSONText(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// RecentConversations returns up to limit conversations for a user, most
// recently updated first.
func (s *PostgresStore) RecentConversations(ctx context.Context, userID string, limit int) ([]ConversationSummary, error) {
	conversations := []ConversationSummary{}
	err := s.db.SelectContext(ctx, &conversations,
		`SELECT id, title, summary, updated_at
         FROM conversations WHERE user_id = $1
         ORDER BY updated_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// Sync log

func (s *PostgresStore) InsertSyncLog(ctx context.Context, entry SyncLog) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO sync_log (user_id, source, last_sync_at, items_synced, status)
        VALUES ($1, $2, $3, $4, $5)`,
		entry.UserID, entry.Source, entry.LastSyncAt, entry.ItemsSynced, entry.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}
