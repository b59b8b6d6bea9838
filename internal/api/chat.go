package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"syntrise.com/core/internal/config"
	"syntrise.com/core/internal/core"
	"syntrise.com/core/internal/store"
)

type ChatRequest struct {
	UserID   string              `json:"user_id"`
	Messages []store.ChatMessage `json:"messages"`
	UseRAG   *bool               `json:"use_rag"`
}

type ChatContextUsed struct {
	DropsFound int  `json:"drops_found"`
	HasMemory  bool `json:"has_memory"`
	HasHistory bool `json:"has_history"`
}

type ChatResponse struct {
	Message     string          `json:"message"`
	ContextUsed ChatContextUsed `json:"context_used"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" || req.Messages == nil {
		respondError(w, http.StatusBadRequest, "user_id and messages array required")
		return
	}

	useRAG := req.UseRAG == nil || *req.UseRAG

	var uc core.UserContext
	if query := lastUserMessage(req.Messages); useRAG && query != "" {
		uc = h.contexts.Collect(r.Context(), req.UserID, core.ContextOptions{
			Query:          query,
			IncludeDrops:   true,
			IncludeMemory:  true,
			IncludeHistory: true,
			MatchThreshold: config.AppConfig.ChatMatchThreshold,
			MatchCount:     config.AppConfig.MatchCount,
		})
	}

	systemPrompt := core.BuildContextPrompt(uc.Fragments())

	reply, err := h.completions.Complete(r.Context(), systemPrompt, req.Messages)
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("Chat completion failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The conversation write is best-effort: a failed insert loses history
	// but the caller still gets the reply.
	history := append(append([]store.ChatMessage{}, req.Messages...), store.ChatMessage{Role: "assistant", Content: reply})
	if err := h.store.InsertConversation(r.Context(), req.UserID, history); err != nil {
		log.Warn().Err(err).Str("user_id", req.UserID).Msg("Failed to store conversation")
	}

	respondJSON(w, http.StatusOK, ChatResponse{
		Message: reply,
		ContextUsed: ChatContextUsed{
			DropsFound: len(uc.Drops),
			HasMemory:  len(uc.Memory) > 0,
			HasHistory: uc.HasHistory(),
		},
	})
}

// lastUserMessage returns the content of the most recent user-role message,
// or "" when there is none.
func lastUserMessage(messages []store.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
