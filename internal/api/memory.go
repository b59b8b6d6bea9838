package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog/log"
	"syntrise.com/core/internal/config"
	"syntrise.com/core/internal/core"
	"syntrise.com/core/internal/store"
)

type StoreMemoryRequest struct {
	UserID string          `json:"user_id"`
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value"`
	Source string          `json:"source"`
}

type StoreMemoryResponse struct {
	Success bool               `json:"success"`
	Data    *store.MemoryEntry `json:"data"`
}

func (h *APIHandler) StoreMemoryHandler(w http.ResponseWriter, r *http.Request) {
	var req StoreMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" || req.Key == "" || len(req.Value) == 0 {
		respondError(w, http.StatusBadRequest, "user_id, key, and value required")
		return
	}

	entry, err := h.store.UpsertMemoryEntry(r.Context(), store.MemoryEntry{
		UserID: req.UserID,
		Key:    req.Key,
		Value:  types.JSONText(req.Value),
		Source: req.Source,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Str("key", req.Key).Msg("Memory upsert failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, StoreMemoryResponse{Success: true, Data: entry})
}

type RetrieveMemoryResponse struct {
	Memory map[string]json.RawMessage `json:"memory"`
	Count  int                        `json:"count"`
}

// RetrieveMemoryHandler accepts the user id and optional key filter either
// as query parameters (GET) or in the JSON body (POST).
func (h *APIHandler) RetrieveMemoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	key := r.URL.Query().Get("key")

	if r.Method == http.MethodPost && userID == "" {
		var req struct {
			UserID string `json:"user_id"`
			Key    string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			userID = req.UserID
			if key == "" {
				key = req.Key
			}
		}
	}

	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id required")
		return
	}

	entries, err := h.store.ListMemory(r.Context(), userID, key)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Memory retrieval failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	memory := make(map[string]json.RawMessage, len(entries))
	for _, e := range entries {
		memory[e.Key] = json.RawMessage(e.Value)
	}

	respondJSON(w, http.StatusOK, RetrieveMemoryResponse{Memory: memory, Count: len(entries)})
}

type MemoryContextRequest struct {
	Message       string `json:"message"`
	IncludeDrops  *bool  `json:"include_drops"`
	IncludeMemory *bool  `json:"include_memory"`
}

type MemoryContextSummary struct {
	RelevantDrops       []store.DropMatch `json:"relevant_drops"`
	MemoryKeys          []string          `json:"memory_keys"`
	RecentConversations int               `json:"recent_conversations"`
}

type MemoryContextResponse struct {
	SystemPrompt string               `json:"system_prompt"`
	Context      MemoryContextSummary `json:"context"`
}

// MemoryContextHandler assembles the instruction string for an
// authenticated caller. The user identity comes from the verified bearer
// token, never from the payload.
func (h *APIHandler) MemoryContextHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req MemoryContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "Missing message")
		return
	}

	uc := h.contexts.Collect(r.Context(), userID, core.ContextOptions{
		Query:          req.Message,
		IncludeDrops:   req.IncludeDrops == nil || *req.IncludeDrops,
		IncludeMemory:  req.IncludeMemory == nil || *req.IncludeMemory,
		IncludeHistory: true,
		MatchThreshold: config.AppConfig.ContextMatchThreshold,
		MatchCount:     config.AppConfig.MatchCount,
		HistoryLimit:   3,
	})

	drops := uc.Drops
	if drops == nil {
		drops = []store.DropMatch{}
	}
	keys := make([]string, 0, len(uc.Memory))
	for k := range uc.Memory {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	respondJSON(w, http.StatusOK, MemoryContextResponse{
		SystemPrompt: core.BuildContextPrompt(uc.Fragments()),
		Context: MemoryContextSummary{
			RelevantDrops:       drops,
			MemoryKeys:          keys,
			RecentConversations: len(uc.Conversations),
		},
	})
}
