package contracts

import (
	"context"

	"github.com/google/uuid"
)

// ⭐ SSOT: repository interfaces are only defined here

// StrategyRepository manages strategy definitions
type StrategyRepository interface {
	GetStrategy(ctx context.Context, id uuid.UUID) (*Strategy, error)
	ListStrategies(ctx context.Context) ([]Strategy, error)
	CreateStrategy(ctx context.Context, s *Strategy) error
	UpdateStrategy(ctx context.Context, s *Strategy) error
}

// WalletRepository manages one cash wallet per strategy
type WalletRepository interface {
	GetWallet(ctx context.Context, strategyID uuid.UUID) (*Wallet, error)
	UpsertWallet(ctx context.Context, w *Wallet) error
}

// PositionRepository manages holdings. Positions are created or deleted, never updated.
type PositionRepository interface {
	ListPositions(ctx context.Context, strategyID uuid.UUID) ([]Position, error)
	CreatePosition(ctx context.Context, p *Position) error
	DeletePosition(ctx context.Context, strategyID uuid.UUID, stockCode string) error
}

// LedgerRepository manages the append-only transaction log and net-worth history
type LedgerRepository interface {
	InsertTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, strategyID uuid.UUID, limit int) ([]Transaction, error)
	InsertSnapshot(ctx context.Context, s *NetWorthSnapshot) error
	ListSnapshots(ctx context.Context, strategyID uuid.UUID, limit int) ([]NetWorthSnapshot, error)
}

// Repository is the full persistence surface
type Repository interface {
	StrategyRepository
	WalletRepository
	PositionRepository
	LedgerRepository
}

// Store is a Repository that can scope a unit of work in a transaction.
// fn receives a Repository bound to the transaction; a non-nil error rolls back.
type Store interface {
	Repository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
}
