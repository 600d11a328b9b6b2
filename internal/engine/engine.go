package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wonny/papertrade/internal/audit"
	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/internal/execution"
	"github.com/wonny/papertrade/internal/portfolio"
	"github.com/wonny/papertrade/internal/ranking"
	"github.com/wonny/papertrade/internal/screener"
	"github.com/wonny/papertrade/pkg/config"
	"github.com/wonny/papertrade/pkg/logger"
)

// Config holds the trading constants of a run
type Config struct {
	TopN        int
	MaxPages    int
	InitialCash decimal.Decimal
	Execution   execution.Config
}

// DefaultConfig returns 10 holdings, 1,000,000 starting cash, 1% fee and 5% sell fallback markup
func DefaultConfig() Config {
	return Config{
		TopN:        ranking.DefaultTopN,
		MaxPages:    50,
		InitialCash: decimal.NewFromInt(1000000),
		Execution:   execution.DefaultConfig(),
	}
}

// ConfigFrom builds an engine Config from the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		TopN:        cfg.Engine.TopN,
		MaxPages:    cfg.Screener.MaxPages,
		InitialCash: decimal.NewFromFloat(cfg.Engine.InitialCash),
		Execution: execution.Config{
			FeeRate:            decimal.NewFromFloat(cfg.Engine.FeeRate),
			SellFallbackMarkup: decimal.NewFromFloat(cfg.Engine.SellFallbackMarkup),
		},
	}
}

// Notifier receives every finished run (completed, aborted or failed)
type Notifier interface {
	NotifyRun(result *RunResult)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(result *RunResult)

// NotifyRun implements Notifier
func (f NotifierFunc) NotifyRun(result *RunResult) {
	f(result)
}

// RunResult is the structured outcome of a run
type RunResult struct {
	RunID         uuid.UUID            `json:"run_id"`
	StrategyID    uuid.UUID            `json:"strategy_id"`
	Success       bool                 `json:"success"`
	State         RunState             `json:"state"`
	NetWorth      decimal.Decimal      `json:"net_worth"`
	Cash          decimal.Decimal      `json:"cash"`
	HoldingsValue decimal.Decimal      `json:"holdings_value"`
	Candidates    int                  `json:"candidates"`
	Target        []string             `json:"target,omitempty"`
	Sold          []string             `json:"sold,omitempty"`
	FallbackSells []string             `json:"fallback_sells,omitempty"`
	Bought        []string             `json:"bought,omitempty"`
	Skipped       []execution.Skip     `json:"skipped,omitempty"`
	Holdings      []audit.HoldingValue `json:"holdings,omitempty"`
	Transactions  int                  `json:"transactions"`
	ErrorKind     ErrorKind            `json:"error_kind,omitempty"`
	Error         string               `json:"error,omitempty"`
	StartedAt     time.Time            `json:"started_at"`
	Duration      time.Duration        `json:"duration"`
}

func (r *RunResult) transition(to RunState, log *logger.Logger) {
	if !CanTransition(r.State, to) {
		log.WithFields(map[string]interface{}{
			"from": r.State,
			"to":   to,
		}).Warn("Unexpected run state transition")
	}
	r.State = to
	log.WithField("state", to).Debug("Run state changed")
}

// plan is everything a run decided in memory, applied in one transaction
type plan struct {
	sells    execution.SellResult
	buys     execution.BuyResult
	wallet   contracts.Wallet
	snapshot contracts.NetWorthSnapshot
}

// Engine runs the fetch → rank → diff → sell → buy → value → record pipeline
// ⭐ SSOT: run orchestration lives here only
type Engine struct {
	store    contracts.Store
	source   contracts.MetricsSource
	locker   Locker
	config   Config
	ranker   *ranking.Ranker
	executor *execution.Executor
	valuator *audit.Valuator
	notifier Notifier
	logger   *logger.Logger
}

// New creates an Engine. source should already be rate limited.
func New(store contracts.Store, source contracts.MetricsSource, locker Locker, cfg Config, log *logger.Logger) *Engine {
	if locker == nil {
		locker = NewLocalLocker()
	}
	prices := execution.NewPriceLookup(source, log)

	return &Engine{
		store:    store,
		source:   source,
		locker:   locker,
		config:   cfg,
		ranker:   ranking.NewRanker(cfg.TopN, log),
		executor: execution.NewExecutor(prices, cfg.Execution, log),
		valuator: audit.NewValuator(prices, log),
		logger:   log,
	}
}

// WithNotifier sets the receiver of finished runs
func (e *Engine) WithNotifier(n Notifier) *Engine {
	e.notifier = n
	return e
}

// Preview fetches and ranks a screen without touching any wallet
func (e *Engine) Preview(ctx context.Context, sourceURL string, weights contracts.Weights) ([]contracts.RankedCandidate, error) {
	rows := screener.Collect(ctx, screener.NewPaginator(e.source, sourceURL, e.config.MaxPages, e.logger))
	ranked := e.ranker.Rank(rows, weights)
	if len(ranked) == 0 {
		return nil, ErrEmptyCandidateSet
	}
	return ranked, nil
}

// Run rebalances one strategy. The returned result is never nil;
// err is a *RunError whenever result.Success is false.
func (e *Engine) Run(ctx context.Context, strategyID uuid.UUID) (*RunResult, error) {
	result := &RunResult{
		RunID:      uuid.New(),
		StrategyID: strategyID,
		State:      StateIdle,
		StartedAt:  time.Now(),
	}
	log := e.logger.WithFields(map[string]interface{}{
		"strategy_id": strategyID.String(),
		"run_id":      result.RunID.String(),
	})

	err := e.run(ctx, result, log)
	result.Duration = time.Since(result.StartedAt)

	if err != nil {
		var runErr *RunError
		if !errors.As(err, &runErr) {
			runErr = &RunError{Kind: KindPersistence, StrategyID: strategyID, State: result.State, Err: err}
			err = runErr
		}
		result.Success = false
		result.ErrorKind = runErr.Kind
		result.Error = runErr.Err.Error()

		log.WithError(runErr.Err).WithFields(map[string]interface{}{
			"kind":  runErr.Kind,
			"state": result.State,
		}).Error("Rebalancing run did not complete")
	} else {
		result.Success = true

		log.WithFields(map[string]interface{}{
			"net_worth":   result.NetWorth.String(),
			"cash":        result.Cash.String(),
			"sold":        len(result.Sold),
			"bought":      len(result.Bought),
			"skipped":     len(result.Skipped),
			"duration_ms": result.Duration.Milliseconds(),
		}).Info("Rebalancing run completed")
	}

	if e.notifier != nil {
		e.notifier.NotifyRun(result)
	}
	return result, err
}

func (e *Engine) run(ctx context.Context, result *RunResult, log *logger.Logger) error {
	strategy, err := e.store.GetStrategy(ctx, result.StrategyID)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			return e.abort(result, KindNotFound, err, log)
		}
		return e.failed(result, fmt.Errorf("failed to load strategy: %w", err), log)
	}

	release, err := e.locker.Lock(ctx, result.StrategyID.String())
	if err != nil {
		return e.abort(result, KindBusy, err, log)
	}
	defer release()

	log.WithFields(map[string]interface{}{
		"name": strategy.Name,
		"url":  strategy.SourceURL,
	}).Info("Starting rebalancing run")

	// 1. Fetch and rank
	result.transition(StateFetchingCandidates, log)
	rows := screener.Collect(ctx, screener.NewPaginator(e.source, strategy.SourceURL, e.config.MaxPages, log))
	result.Candidates = len(rows)

	ranked := e.ranker.Rank(rows, strategy.EffectiveWeights())
	if len(ranked) == 0 {
		return e.abort(result, KindEmptyCandidates, ErrEmptyCandidateSet, log)
	}
	result.transition(StateRanked, log)
	for _, c := range ranked {
		result.Target = append(result.Target, c.StockCode)
	}

	// 2. Load holdings into a working book
	wallet, err := e.loadWallet(ctx, result.StrategyID, log)
	if err != nil {
		return e.failed(result, err, log)
	}
	held, err := e.store.ListPositions(ctx, result.StrategyID)
	if err != nil {
		return e.failed(result, fmt.Errorf("failed to load positions: %w", err), log)
	}
	book := portfolio.NewBook(*wallet, held)
	diff := portfolio.Compute(held, ranked)

	log.WithFields(map[string]interface{}{
		"sell": len(diff.Sell),
		"buy":  len(diff.Buy),
		"keep": len(diff.Keep),
	}).Info("Portfolio diff computed")

	// 3. Sell phase completes before any buy
	result.transition(StateSellingPositions, log)
	sells := e.executor.Sell(ctx, book, diff.Sell, result.RunID)

	// 4. Buy phase
	result.transition(StateBuyingEntrants, log)
	buys := e.executor.Buy(ctx, book, diff.Buy, result.RunID)

	// 5. Valuation
	result.transition(StateValuating, log)
	valuation := e.valuator.Value(ctx, book.Cash(), book.Positions())

	// 6. Persist
	result.transition(StateRecordingHistory, log)
	now := time.Now()
	finalWallet := book.Wallet()
	finalWallet.LastUpdated = now
	p := plan{
		sells:  sells,
		buys:   buys,
		wallet: finalWallet,
		snapshot: contracts.NetWorthSnapshot{
			StrategyID:    result.StrategyID,
			RunID:         result.RunID,
			TotalNetWorth: valuation.NetWorth,
			CashBalance:   valuation.Cash,
			HoldingsValue: valuation.HoldingsValue,
			RecordedAt:    now,
		},
	}
	// A started run's writes are not cancelled with the caller
	if err := e.apply(context.WithoutCancel(ctx), p); err != nil {
		return e.failed(result, err, log)
	}

	for _, pos := range sells.Closed {
		result.Sold = append(result.Sold, pos.StockCode)
	}
	for _, pos := range buys.Opened {
		result.Bought = append(result.Bought, pos.StockCode)
	}
	result.FallbackSells = sells.Fallback
	result.Skipped = buys.Skipped
	result.Holdings = valuation.Holdings
	result.Transactions = len(sells.Transactions) + len(buys.Transactions)
	result.NetWorth = valuation.NetWorth
	result.Cash = valuation.Cash
	result.HoldingsValue = valuation.HoldingsValue
	result.transition(StateCompleted, log)
	return nil
}

// loadWallet returns the strategy's wallet, bootstrapping InitialCash for a first run.
// A bootstrapped wallet is only written by apply.
func (e *Engine) loadWallet(ctx context.Context, strategyID uuid.UUID, log *logger.Logger) (*contracts.Wallet, error) {
	wallet, err := e.store.GetWallet(ctx, strategyID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, contracts.ErrNotFound) {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	log.WithField("initial_cash", e.config.InitialCash.String()).Info("No wallet yet, starting with initial cash")
	return &contracts.Wallet{
		StrategyID:  strategyID,
		CashBalance: e.config.InitialCash,
	}, nil
}

// apply writes the plan atomically: sells, buys, wallet, snapshot
func (e *Engine) apply(ctx context.Context, p plan) error {
	return e.store.WithinTx(ctx, func(ctx context.Context, tx contracts.Repository) error {
		for i := range p.sells.Transactions {
			if err := tx.InsertTransaction(ctx, &p.sells.Transactions[i]); err != nil {
				return fmt.Errorf("failed to record sell: %w", err)
			}
			closed := p.sells.Closed[i]
			if err := tx.DeletePosition(ctx, closed.StrategyID, closed.StockCode); err != nil {
				return fmt.Errorf("failed to delete position %s: %w", closed.StockCode, err)
			}
		}

		for i := range p.buys.Transactions {
			if err := tx.InsertTransaction(ctx, &p.buys.Transactions[i]); err != nil {
				return fmt.Errorf("failed to record buy: %w", err)
			}
			if err := tx.CreatePosition(ctx, &p.buys.Opened[i]); err != nil {
				return fmt.Errorf("failed to create position %s: %w", p.buys.Opened[i].StockCode, err)
			}
		}

		if err := tx.UpsertWallet(ctx, &p.wallet); err != nil {
			return fmt.Errorf("failed to update wallet: %w", err)
		}

		if err := tx.InsertSnapshot(ctx, &p.snapshot); err != nil {
			return fmt.Errorf("failed to record net worth: %w", err)
		}
		return nil
	})
}

func (e *Engine) abort(result *RunResult, kind ErrorKind, err error, log *logger.Logger) error {
	stoppedAt := result.State
	result.transition(StateAborted, log)
	return &RunError{Kind: kind, StrategyID: result.StrategyID, State: stoppedAt, Err: err}
}

func (e *Engine) failed(result *RunResult, err error, log *logger.Logger) error {
	stoppedAt := result.State
	result.transition(StateFailed, log)
	return &RunError{Kind: KindPersistence, StrategyID: result.StrategyID, State: stoppedAt, Err: err}
}

// RunAll runs every strategy one after another.
// A failing strategy does not stop the others; err is only set when strategies cannot be listed.
func (e *Engine) RunAll(ctx context.Context) ([]*RunResult, error) {
	strategies, err := e.store.ListStrategies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}

	results := make([]*RunResult, 0, len(strategies))
	succeeded := 0
	for _, s := range strategies {
		if ctx.Err() != nil {
			e.logger.WithError(ctx.Err()).Warn("Run-all cancelled")
			break
		}
		result, _ := e.Run(ctx, s.ID)
		if result.Success {
			succeeded++
		}
		results = append(results, result)
	}

	e.logger.WithFields(map[string]interface{}{
		"strategies": len(strategies),
		"succeeded":  succeeded,
		"failed":     len(results) - succeeded,
	}).Info("Run-all completed")

	return results, nil
}
