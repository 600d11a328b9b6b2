package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/internal/strategy"
	"github.com/wonny/papertrade/pkg/logger"
)

// StrategyHandler handles strategy definition endpoints
type StrategyHandler struct {
	service *strategy.Service
	logger  *logger.Logger
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(service *strategy.Service, log *logger.Logger) *StrategyHandler {
	return &StrategyHandler{service: service, logger: log}
}

// List returns every strategy
// GET /api/strategies
func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	strategies, err := h.service.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list strategies")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve strategies")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": strategies,
		"count":      len(strategies),
	})
}

// Create stores a new strategy
// POST /api/strategies
func (h *StrategyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in strategy.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// Update replaces an existing strategy
// PUT /api/strategies/{id}
func (h *StrategyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in strategy.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *StrategyHandler) writeError(w http.ResponseWriter, err error) {
	var verr strategy.ValidationError
	switch {
	case errors.As(err, &verr):
		respondFieldError(w, verr.Field, verr.Message)
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, "Strategy not found")
	default:
		h.logger.WithError(err).Error("Strategy write failed")
		respondError(w, http.StatusInternalServerError, "Failed to save strategy")
	}
}
