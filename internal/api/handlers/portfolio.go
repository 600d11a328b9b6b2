package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/pkg/logger"
)

// PortfolioHandler serves the read side of a strategy's paper account
type PortfolioHandler struct {
	repo   contracts.Repository
	logger *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(repo contracts.Repository, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{repo: repo, logger: log}
}

// PortfolioResponse is a wallet with its holdings at cost
type PortfolioResponse struct {
	Strategy  *contracts.Strategy  `json:"strategy"`
	Wallet    *contracts.Wallet    `json:"wallet"` // nil before the first run
	Positions []contracts.Position `json:"positions"`
	CostBasis decimal.Decimal      `json:"cost_basis"`
}

// strategyFromPath resolves {id}; it writes the error response itself
func (h *PortfolioHandler) strategyFromPath(w http.ResponseWriter, r *http.Request) (*contracts.Strategy, bool) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	s, err := h.repo.GetStrategy(r.Context(), id)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Strategy not found")
			return nil, false
		}
		h.logger.WithError(err).Error("Failed to get strategy")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve strategy")
		return nil, false
	}
	return s, true
}

// GetPortfolio returns wallet and positions
// GET /api/strategies/{id}/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	s, ok := h.strategyFromPath(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	wallet, err := h.repo.GetWallet(ctx, s.ID)
	if err != nil && !errors.Is(err, contracts.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to get wallet")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve wallet")
		return
	}

	positions, err := h.repo.ListPositions(ctx, s.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list positions")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve positions")
		return
	}

	resp := PortfolioResponse{Strategy: s, Wallet: wallet, Positions: positions, CostBasis: decimal.Zero}
	for i := range positions {
		resp.CostBasis = resp.CostBasis.Add(positions[i].CostBasis())
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetTransactions returns the ledger, newest first
// GET /api/strategies/{id}/transactions?limit=
func (h *PortfolioHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "transactions", func(id uuid.UUID, limit int) (interface{}, int, error) {
		txns, err := h.repo.ListTransactions(r.Context(), id, limit)
		return txns, len(txns), err
	})
}

// GetHistory returns the net-worth curve, oldest first
// GET /api/strategies/{id}/history?limit=
func (h *PortfolioHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "history", func(id uuid.UUID, limit int) (interface{}, int, error) {
		snaps, err := h.repo.ListSnapshots(r.Context(), id, limit)
		return snaps, len(snaps), err
	})
}

func (h *PortfolioHandler) list(w http.ResponseWriter, r *http.Request, key string, fetch func(uuid.UUID, int) (interface{}, int, error)) {
	limit, err := queryLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := h.strategyFromPath(w, r)
	if !ok {
		return
	}

	items, count, err := fetch(s.ID, limit)
	if err != nil {
		h.logger.WithError(err).WithField("list", key).Error("Failed to list")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve "+key)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategy_id": s.ID,
		key:           items,
		"count":       count,
	})
}
