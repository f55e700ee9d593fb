package port

import (
	"context"

	"github.com/rl1809/asset-ledger/internal/core/domain"
)

type ItemRepository interface {
	// GetItemForUpdate loads an item and holds its row lock until the transaction ends
	GetItemForUpdate(ctx context.Context, id string) (*domain.InventoryItem, error)

	// UniqueIDExists reports whether any item already carries uniqueID
	UniqueIDExists(ctx context.Context, uniqueID string) (bool, error)

	// InsertItem fails with domain.ErrDuplicateUniqueID on a unique id collision
	InsertItem(ctx context.Context, item *domain.InventoryItem) error

	// UpdateItem writes the item if its version is unchanged and bumps the version
	UpdateItem(ctx context.Context, item *domain.InventoryItem) error

	DeleteItem(ctx context.Context, id string) error
}

type LedgerRepository interface {
	// AppendTransaction inserts a ledger entry and fills in its Seq
	AppendTransaction(ctx context.Context, t *domain.InventoryTransaction) error

	DeleteTransactionsByItem(ctx context.Context, itemID string) (int64, error)
}

type LocationRepository interface {
	GetLocationForUpdate(ctx context.Context, id string) (*domain.Location, error)

	// GetDefaultLocationForUpdate returns domain.ErrNotFound when no default is set
	GetDefaultLocationForUpdate(ctx context.Context) (*domain.Location, error)

	InsertLocation(ctx context.Context, loc *domain.Location) error
	UpdateLocation(ctx context.Context, loc *domain.Location) error

	// ClearDefaultLocation un-flags every default location except keepID
	ClearDefaultLocation(ctx context.Context, keepID string) error
}

type RequestRepository interface {
	GetRequestForUpdate(ctx context.Context, id string) (*domain.Request, error)
	InsertRequest(ctx context.Context, r *domain.Request) error
	UpdateRequest(ctx context.Context, r *domain.Request) error

	// DeleteRequestsByItem removes requests for the item or assigned to it
	DeleteRequestsByItem(ctx context.Context, itemID string) (int64, error)

	GetReturnRequestForUpdate(ctx context.Context, id string) (*domain.ReturnRequest, error)
	InsertReturnRequest(ctx context.Context, r *domain.ReturnRequest) error
	UpdateReturnRequest(ctx context.Context, r *domain.ReturnRequest) error
	DeleteReturnRequestsByItem(ctx context.Context, itemID string) (int64, error)
}

// TxRepository is everything reachable inside one transaction
type TxRepository interface {
	ItemRepository
	LedgerRepository
	LocationRepository
	RequestRepository
}

type SequenceRepository interface {
	// NextSequence atomically increments the global counter and returns the new value
	NextSequence(ctx context.Context) (int64, error)

	// PeekSequence returns the current value without incrementing
	PeekSequence(ctx context.Context) (int64, error)

	// ResyncSequence raises a zero counter to the item count in one conditional statement.
	// It returns the counter value and whether it moved.
	ResyncSequence(ctx context.Context) (int64, bool, error)
}

// Reader serves lookups outside any transaction
type Reader interface {
	GetItem(ctx context.Context, id string) (*domain.InventoryItem, error)
	GetLocation(ctx context.Context, id string) (*domain.Location, error)

	// GetDefaultLocation returns domain.ErrNotFound when no default is set
	GetDefaultLocation(ctx context.Context) (*domain.Location, error)

	GetRequest(ctx context.Context, id string) (*domain.Request, error)

	// ListTransactions returns the item's entries in append order
	ListTransactions(ctx context.Context, itemID string) ([]domain.InventoryTransaction, error)

	LedgerStatistics(ctx context.Context, filter domain.LedgerFilter) (*domain.LedgerStatistics, error)
}

type Store interface {
	SequenceRepository
	Reader

	// WithinTx runs fn in a single transaction. Any error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}
