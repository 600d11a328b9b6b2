package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wonny/papertrade/internal/contracts"
)

// Operation names accepted by Memory.FailOn
const (
	OpCreatePosition    = "CreatePosition"
	OpDeletePosition    = "DeletePosition"
	OpUpsertWallet      = "UpsertWallet"
	OpInsertTransaction = "InsertTransaction"
	OpInsertSnapshot    = "InsertSnapshot"
	OpGetWallet         = "GetWallet"
	OpListPositions     = "ListPositions"
)

type memState struct {
	strategies   map[uuid.UUID]contracts.Strategy
	wallets      map[uuid.UUID]contracts.Wallet
	positions    map[uuid.UUID][]contracts.Position
	transactions []contracts.Transaction
	snapshots    []contracts.NetWorthSnapshot
	nextTxID     int64
	nextSnapID   int64
}

func newMemState() *memState {
	return &memState{
		strategies: make(map[uuid.UUID]contracts.Strategy),
		wallets:    make(map[uuid.UUID]contracts.Wallet),
		positions:  make(map[uuid.UUID][]contracts.Position),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.strategies {
		if v.Weights != nil {
			w := *v.Weights
			v.Weights = &w
		}
		c.strategies[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.positions {
		c.positions[k] = append([]contracts.Position(nil), v...)
	}
	c.transactions = append([]contracts.Transaction(nil), s.transactions...)
	c.snapshots = append([]contracts.NetWorthSnapshot(nil), s.snapshots...)
	c.nextTxID = s.nextTxID
	c.nextSnapID = s.nextSnapID
	return c
}

// Memory is an in-process Store for tests and dry runs.
// WithinTx works on a copy of the state and swaps it in on success.
type Memory struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state *memState
	fails map[string]error
	inTx  bool
}

var _ contracts.Store = (*Memory)(nil)

// NewMemory creates an empty Memory store
func NewMemory() *Memory {
	return &Memory{
		state: newMemState(),
		fails: make(map[string]error),
	}
}

// FailOn makes every later call of op return err (nil clears it)
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fails, op)
		return
	}
	m.fails[op] = err
}

func (m *Memory) fail(op string) error {
	if err, ok := m.fails[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// WithinTx runs fn against a snapshot of the state; the snapshot replaces the state only if fn succeeds
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx contracts.Repository) error) error {
	if m.inTx {
		return fn(ctx, m)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	// the working copy has its own mutex, so it gets its own fails map too
	fails := make(map[string]error, len(m.fails))
	for op, err := range m.fails {
		fails[op] = err
	}
	working := &Memory{state: m.state.clone(), fails: fails, inTx: true}
	m.mu.Unlock()

	if err := fn(ctx, working); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = working.state
	m.mu.Unlock()
	return nil
}

// ---- strategies ----

func (m *Memory) GetStrategy(ctx context.Context, id uuid.UUID) (*contracts.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.state.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy %s: %w", id, contracts.ErrNotFound)
	}
	return &s, nil
}

func (m *Memory) ListStrategies(ctx context.Context) ([]contracts.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]contracts.Strategy, 0, len(m.state.strategies))
	for _, s := range m.state.strategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) CreateStrategy(ctx context.Context, s *contracts.Strategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if _, exists := m.state.strategies[s.ID]; exists {
		return fmt.Errorf("strategy %s already exists", s.ID)
	}
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.state.strategies[s.ID] = *s
	return nil
}

func (m *Memory) UpdateStrategy(ctx context.Context, s *contracts.Strategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.state.strategies[s.ID]
	if !ok {
		return fmt.Errorf("strategy %s: %w", s.ID, contracts.ErrNotFound)
	}
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = time.Now()
	m.state.strategies[s.ID] = *s
	return nil
}

// ---- wallets ----

func (m *Memory) GetWallet(ctx context.Context, strategyID uuid.UUID) (*contracts.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail(OpGetWallet); err != nil {
		return nil, err
	}
	w, ok := m.state.wallets[strategyID]
	if !ok {
		return nil, fmt.Errorf("wallet %s: %w", strategyID, contracts.ErrNotFound)
	}
	return &w, nil
}

func (m *Memory) UpsertWallet(ctx context.Context, w *contracts.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail(OpUpsertWallet); err != nil {
		return err
	}
	if w.CashBalance.IsNegative() {
		return fmt.Errorf("wallet %s: cash balance must not be negative", w.StrategyID)
	}
	if w.LastUpdated.IsZero() {
		w.LastUpdated = time.Now()
	}
	m.state.wallets[w.StrategyID] = *w
	return nil
}

// ---- positions ----

func (m *Memory) ListPositions(ctx context.Context, strategyID uuid.UUID) ([]contracts.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail(OpListPositions); err != nil {
		return nil, err
	}
	return append([]contracts.Position{}, m.state.positions[strategyID]...), nil
}

func (m *Memory) CreatePosition(ctx context.Context, p *contracts.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail(OpCreatePosition); err != nil {
		return err
	}
	if p.Qty < 1 || !p.AvgBuyPrice.IsPositive() {
		return fmt.Errorf("position %s: qty and avg buy price must be positive", p.StockCode)
	}
	for _, existing := range m.state.positions[p.StrategyID] {
		if existing.StockCode == p.StockCode {
			return fmt.Errorf("position %s already exists", p.StockCode)
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.state.positions[p.StrategyID] = append(m.state.positions[p.StrategyID], *p)
	return nil
}

func (m *Memory) DeletePosition(ctx context.Context, strategyID uuid.UUID, stockCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail(OpDeletePosition); err != nil {
		return err
	}
	held := m.state.positions[strategyID]
	for i, p := range held {
		if p.StockCode == stockCode {
			m.state.positions[strategyID] = append(held[:i:i], held[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("position %s: %w", stockCode, contracts.ErrNotFound)
}

// ---- ledger ----

func (m *Memory) InsertTransaction(ctx context.Context, t *contracts.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail(OpInsertTransaction); err != nil {
		return err
	}
	m.state.nextTxID++
	t.ID = m.state.nextTxID
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now()
	}
	m.state.transactions = append(m.state.transactions, *t)
	return nil
}

// ListTransactions returns newest first
func (m *Memory) ListTransactions(ctx context.Context, strategyID uuid.UUID, limit int) ([]contracts.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit = normalizeLimit(limit)
	out := make([]contracts.Transaction, 0)
	for i := len(m.state.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if t := m.state.transactions[i]; t.StrategyID == strategyID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) InsertSnapshot(ctx context.Context, s *contracts.NetWorthSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail(OpInsertSnapshot); err != nil {
		return err
	}
	m.state.nextSnapID++
	s.ID = m.state.nextSnapID
	if s.RecordedAt.IsZero() {
		s.RecordedAt = time.Now()
	}
	m.state.snapshots = append(m.state.snapshots, *s)
	return nil
}

// ListSnapshots returns the newest `limit` points, oldest first
func (m *Memory) ListSnapshots(ctx context.Context, strategyID uuid.UUID, limit int) ([]contracts.NetWorthSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []contracts.NetWorthSnapshot
	for _, s := range m.state.snapshots {
		if s.StrategyID == strategyID {
			all = append(all, s)
		}
	}
	if limit = normalizeLimit(limit); len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]contracts.NetWorthSnapshot{}, all...), nil
}
