package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wonny/papertrade/internal/engine"
	"github.com/wonny/papertrade/pkg/logger"
)

// Runner triggers rebalancing runs
type Runner interface {
	Run(ctx context.Context, strategyID uuid.UUID) (*engine.RunResult, error)
	RunAll(ctx context.Context) ([]*engine.RunResult, error)
}

// EngineHandler exposes the run trigger
type EngineHandler struct {
	runner     Runner
	runTimeout time.Duration
	logger     *logger.Logger
}

// NewEngineHandler creates a new engine handler. runTimeout <= 0 means unbounded.
func NewEngineHandler(runner Runner, runTimeout time.Duration, log *logger.Logger) *EngineHandler {
	return &EngineHandler{
		runner:     runner,
		runTimeout: runTimeout,
		logger:     log,
	}
}

// RunResponse is the trigger payload
type RunResponse struct {
	Success  bool              `json:"success"`
	NetWorth *decimal.Decimal  `json:"netWorth,omitempty"`
	Cash     *decimal.Decimal  `json:"cash,omitempty"`
	Kind     engine.ErrorKind  `json:"kind,omitempty"`
	Error    string            `json:"error,omitempty"`
	Run      *engine.RunResult `json:"run"`
}

func newRunResponse(result *engine.RunResult) RunResponse {
	resp := RunResponse{Success: result.Success, Run: result}
	if result.Success {
		netWorth, cash := result.NetWorth, result.Cash
		resp.NetWorth = &netWorth
		resp.Cash = &cash
	} else {
		resp.Kind = result.ErrorKind
		resp.Error = result.Error
	}
	return resp
}

// StatusForKind maps a run error kind to an HTTP status
func StatusForKind(kind engine.ErrorKind) int {
	switch kind {
	case "":
		return http.StatusOK
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindBusy:
		return http.StatusConflict
	case engine.KindEmptyCandidates:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *EngineHandler) runContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.runTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.runTimeout)
}

// RunStrategy rebalances one strategy
// GET|POST /api/run-engine/{id}
func (h *EngineHandler) RunStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.runContext(r)
	defer cancel()

	h.logger.WithField("strategy_id", id.String()).Info("Run triggered over HTTP")

	result, err := h.runner.Run(ctx, id)
	if result == nil {
		h.logger.WithError(err).Error("Run returned no result")
		respondError(w, http.StatusInternalServerError, "Run failed")
		return
	}

	respondJSON(w, StatusForKind(engine.KindOf(err)), newRunResponse(result))
}

// RunAllResponse summarizes a run over every strategy
type RunAllResponse struct {
	Success   bool          `json:"success"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Results   []RunResponse `json:"results"`
}

// RunAll rebalances every strategy in turn
// GET|POST /api/run-engine
func (h *EngineHandler) RunAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.runContext(r)
	defer cancel()

	results, err := h.runner.RunAll(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Run-all failed")
		respondError(w, http.StatusInternalServerError, "Failed to run strategies")
		return
	}

	resp := RunAllResponse{Total: len(results), Results: make([]RunResponse, 0, len(results))}
	for _, result := range results {
		if result.Success {
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, newRunResponse(result))
	}
	resp.Success = resp.Succeeded == resp.Total

	respondJSON(w, http.StatusOK, resp)
}
