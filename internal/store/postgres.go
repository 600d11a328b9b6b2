package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/pkg/database"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the pgx-backed Store
// ⭐ SSOT: paper.* tables are only read and written here
type Postgres struct {
	q    querier
	pool *pgxpool.Pool // nil when bound to a transaction
}

var _ contracts.Store = (*Postgres)(nil)

// NewPostgres creates a new Postgres store
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{q: pool, pool: pool}
}

// WithinTx runs fn in a single transaction. Nested calls reuse the outer transaction.
func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, tx contracts.Repository) error) error {
	if p.pool == nil {
		return fn(ctx, p)
	}
	return database.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Postgres{q: tx})
	})
}

// ---- strategies ----

// GetStrategy retrieves a strategy by id
func (p *Postgres) GetStrategy(ctx context.Context, id uuid.UUID) (*contracts.Strategy, error) {
	query := `
		SELECT id, name, source_url, weights, owner_id, created_at, updated_at
		FROM paper.strategies
		WHERE id = $1
	`

	s, err := scanStrategy(p.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("strategy %s: %w", id, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy: %w", err)
	}
	return s, nil
}

// ListStrategies returns every strategy ordered by name
func (p *Postgres) ListStrategies(ctx context.Context) ([]contracts.Strategy, error) {
	query := `
		SELECT id, name, source_url, weights, owner_id, created_at, updated_at
		FROM paper.strategies
		ORDER BY name, created_at
	`

	rows, err := p.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer rows.Close()

	strategies := make([]contracts.Strategy, 0)
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		strategies = append(strategies, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return strategies, nil
}

// CreateStrategy inserts a strategy. A zero ID is assigned a new UUID.
func (p *Postgres) CreateStrategy(ctx context.Context, s *contracts.Strategy) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	weights, err := marshalWeights(s.Weights)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO paper.strategies (id, name, source_url, weights, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = p.q.QueryRow(ctx, query, s.ID, s.Name, s.SourceURL, weights, s.OwnerID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create strategy: %w", err)
	}
	return nil
}

// UpdateStrategy updates name, url and weights
func (p *Postgres) UpdateStrategy(ctx context.Context, s *contracts.Strategy) error {
	weights, err := marshalWeights(s.Weights)
	if err != nil {
		return err
	}

	query := `
		UPDATE paper.strategies
		SET name = $2, source_url = $3, weights = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err = p.q.QueryRow(ctx, query, s.ID, s.Name, s.SourceURL, weights).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("strategy %s: %w", s.ID, contracts.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update strategy: %w", err)
	}
	return nil
}

func scanStrategy(row pgx.Row) (*contracts.Strategy, error) {
	var s contracts.Strategy
	var weights []byte
	if err := row.Scan(&s.ID, &s.Name, &s.SourceURL, &weights, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if len(weights) > 0 {
		var w contracts.Weights
		if err := json.Unmarshal(weights, &w); err != nil {
			return nil, fmt.Errorf("failed to decode weights: %w", err)
		}
		s.Weights = &w
	}
	return &s, nil
}

// marshalWeights returns a jsonb argument; nil weights are stored as NULL
func marshalWeights(w *contracts.Weights) (any, error) {
	if w == nil {
		return nil, nil
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode weights: %w", err)
	}
	return b, nil
}

// ---- wallets ----

// GetWallet retrieves a strategy's wallet
func (p *Postgres) GetWallet(ctx context.Context, strategyID uuid.UUID) (*contracts.Wallet, error) {
	query := `
		SELECT strategy_id, cash_balance, last_updated
		FROM paper.wallets
		WHERE strategy_id = $1
	`

	var w contracts.Wallet
	err := p.q.QueryRow(ctx, query, strategyID).Scan(&w.StrategyID, &w.CashBalance, &w.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("wallet %s: %w", strategyID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// UpsertWallet creates or replaces the cash balance
func (p *Postgres) UpsertWallet(ctx context.Context, w *contracts.Wallet) error {
	if w.LastUpdated.IsZero() {
		w.LastUpdated = time.Now()
	}

	query := `
		INSERT INTO paper.wallets (strategy_id, cash_balance, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (strategy_id) DO UPDATE SET
			cash_balance = EXCLUDED.cash_balance,
			last_updated = EXCLUDED.last_updated
	`

	if _, err := p.q.Exec(ctx, query, w.StrategyID, w.CashBalance, w.LastUpdated); err != nil {
		return fmt.Errorf("failed to upsert wallet: %w", err)
	}
	return nil
}

// ---- positions ----

// ListPositions returns the holdings of a strategy in creation order
func (p *Postgres) ListPositions(ctx context.Context, strategyID uuid.UUID) ([]contracts.Position, error) {
	query := `
		SELECT strategy_id, stock_code, company_name, qty, avg_buy_price, created_at
		FROM paper.positions
		WHERE strategy_id = $1
		ORDER BY created_at, stock_code
	`

	rows, err := p.q.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make([]contracts.Position, 0)
	for rows.Next() {
		var pos contracts.Position
		if err := rows.Scan(&pos.StrategyID, &pos.StockCode, &pos.CompanyName, &pos.Qty, &pos.AvgBuyPrice, &pos.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return positions, nil
}

// CreatePosition inserts a new holding
func (p *Postgres) CreatePosition(ctx context.Context, pos *contracts.Position) error {
	if pos.CreatedAt.IsZero() {
		pos.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO paper.positions (strategy_id, stock_code, company_name, qty, avg_buy_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.q.Exec(ctx, query, pos.StrategyID, pos.StockCode, pos.CompanyName, pos.Qty, pos.AvgBuyPrice, pos.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create position %s: %w", pos.StockCode, err)
	}
	return nil
}

// DeletePosition removes a holding entirely
func (p *Postgres) DeletePosition(ctx context.Context, strategyID uuid.UUID, stockCode string) error {
	tag, err := p.q.Exec(ctx, `DELETE FROM paper.positions WHERE strategy_id = $1 AND stock_code = $2`, strategyID, stockCode)
	if err != nil {
		return fmt.Errorf("failed to delete position %s: %w", stockCode, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %s: %w", stockCode, contracts.ErrNotFound)
	}
	return nil
}

// ---- ledger ----

// InsertTransaction appends a ledger entry
func (p *Postgres) InsertTransaction(ctx context.Context, t *contracts.Transaction) error {
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now()
	}

	query := `
		INSERT INTO paper.transactions (strategy_id, run_id, stock_code, action, qty, price, fees, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := p.q.QueryRow(ctx, query,
		t.StrategyID, t.RunID, t.StockCode, string(t.Action), t.Qty, t.Price, t.Fees, t.ExecutedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the newest transactions first
func (p *Postgres) ListTransactions(ctx context.Context, strategyID uuid.UUID, limit int) ([]contracts.Transaction, error) {
	query := `
		SELECT id, strategy_id, run_id, stock_code, action, qty, price, fees, executed_at
		FROM paper.transactions
		WHERE strategy_id = $1
		ORDER BY executed_at DESC, id DESC
		LIMIT $2
	`

	rows, err := p.q.Query(ctx, query, strategyID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]contracts.Transaction, 0)
	for rows.Next() {
		var t contracts.Transaction
		var action string
		if err := rows.Scan(&t.ID, &t.StrategyID, &t.RunID, &t.StockCode, &action, &t.Qty, &t.Price, &t.Fees, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Action = contracts.TradeAction(action)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return txs, nil
}

// InsertSnapshot appends a net-worth history point
func (p *Postgres) InsertSnapshot(ctx context.Context, s *contracts.NetWorthSnapshot) error {
	if s.RecordedAt.IsZero() {
		s.RecordedAt = time.Now()
	}

	query := `
		INSERT INTO paper.net_worth_history (strategy_id, run_id, total_net_worth, cash_balance, holdings_value, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := p.q.QueryRow(ctx, query,
		s.StrategyID, s.RunID, s.TotalNetWorth, s.CashBalance, s.HoldingsValue, s.RecordedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert net worth snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns history oldest first, limited to the newest `limit` points
func (p *Postgres) ListSnapshots(ctx context.Context, strategyID uuid.UUID, limit int) ([]contracts.NetWorthSnapshot, error) {
	query := `
		SELECT id, strategy_id, run_id, total_net_worth, cash_balance, holdings_value, recorded_at
		FROM (
			SELECT * FROM paper.net_worth_history
			WHERE strategy_id = $1
			ORDER BY recorded_at DESC, id DESC
			LIMIT $2
		) latest
		ORDER BY recorded_at, id
	`

	rows, err := p.q.Query(ctx, query, strategyID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query net worth history: %w", err)
	}
	defer rows.Close()

	snaps := make([]contracts.NetWorthSnapshot, 0)
	for rows.Next() {
		var s contracts.NetWorthSnapshot
		if err := rows.Scan(&s.ID, &s.StrategyID, &s.RunID, &s.TotalNetWorth, &s.CashBalance, &s.HoldingsValue, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return snaps, nil
}
