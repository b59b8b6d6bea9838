package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"syntrise.com/core/internal/config"
	"syntrise.com/core/internal/core"
	"syntrise.com/core/internal/store"
)

type SearchDropsRequest struct {
	UserID    string   `json:"user_id"`
	Query     string   `json:"query"`
	Limit     int      `json:"limit"`
	Threshold *float64 `json:"threshold"`
}

type SearchDropsResponse struct {
	Results []store.DropMatch `json:"results"`
	Query   string            `json:"query"`
	Count   int               `json:"count"`
}

func (h *APIHandler) SearchDropsHandler(w http.ResponseWriter, r *http.Request) {
	var req SearchDropsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" || req.Query == "" {
		respondError(w, http.StatusBadRequest, "user_id and query required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = config.AppConfig.MatchCount
	}
	threshold := config.AppConfig.SearchMatchThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	matches, err := h.contexts.SearchDrops(r.Context(), req.UserID, req.Query, threshold, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("Drop search failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if matches == nil {
		matches = []store.DropMatch{}
	}

	respondJSON(w, http.StatusOK, SearchDropsResponse{
		Results: matches,
		Query:   req.Query,
		Count:   len(matches),
	})
}

type SyncDropsRequest struct {
	UserID string          `json:"user_id"`
	Drops  []core.DropItem `json:"drops"`
}

func (h *APIHandler) SyncDropsHandler(w http.ResponseWriter, r *http.Request) {
	var req SyncDropsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" || req.Drops == nil {
		respondError(w, http.StatusBadRequest, "user_id and drops array required")
		return
	}

	result := h.syncer.SyncDrops(r.Context(), req.UserID, req.Drops)
	respondJSON(w, http.StatusOK, result)
}
