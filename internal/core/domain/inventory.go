package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "available"
	ItemStatusIssued      ItemStatus = "issued"
	ItemStatusMaintenance ItemStatus = "maintenance"
	ItemStatusRetired     ItemStatus = "retired"
)

// ParseItemStatus rejects anything outside the four lifecycle states.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch st := ItemStatus(s); st {
	case ItemStatusAvailable, ItemStatusIssued, ItemStatusMaintenance, ItemStatusRetired:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Issuable reports whether an item in this state may be handed out.
func (s ItemStatus) Issuable() bool {
	switch s {
	case ItemStatusAvailable:
		return true
	case ItemStatusIssued, ItemStatusMaintenance, ItemStatusRetired:
		return false
	}
	return false
}

type InventoryItem struct {
	ID                     string
	UniqueID               string
	Name                   string
	BalanceQuantityInStock int
	MinimumStockLevel      int
	QuantityPerItem        int // stored only, issue always moves a single unit
	UnitPrice              decimal.Decimal
	Status                 ItemStatus
	IssuedTo               *string
	IssuedBy               *string
	IssuedDate             *time.Time
	ExpectedReturnDate     *time.Time
	LocationID             *string
	AssetCategoryID        *string
	FinancialYear          string
	AssetCode              string
	LastModifiedBy         string
	LastModifiedDate       time.Time
	Version                int // optimistic locking
	CreatedAt              time.Time
}

func (i *InventoryItem) IsLowStock() bool {
	return i.BalanceQuantityInStock <= i.MinimumStockLevel
}

func (i *InventoryItem) touch(actor string, now time.Time) {
	i.LastModifiedBy = actor
	i.LastModifiedDate = now
}

// Issue moves the item to issued and takes exactly one unit out of stock.
func (i *InventoryItem) Issue(issuedTo, issuedBy string, expectedReturn *time.Time, now time.Time) error {
	if i.Status == ItemStatusIssued {
		return ErrAlreadyIssued
	}
	if i.BalanceQuantityInStock <= 0 {
		return ErrOutOfStock
	}
	if !i.Status.Issuable() {
		return ErrInvalidTransition
	}

	i.BalanceQuantityInStock--
	i.Status = ItemStatusIssued
	i.IssuedTo = &issuedTo
	i.IssuedBy = &issuedBy
	issued := now
	i.IssuedDate = &issued
	if expectedReturn != nil {
		d := *expectedReturn
		i.ExpectedReturnDate = &d
	}
	i.touch(issuedBy, now)
	return nil
}

func (i *InventoryItem) Return(returnedBy string, now time.Time) error {
	if i.Status != ItemStatusIssued {
		return ErrNotIssued
	}

	i.BalanceQuantityInStock++
	i.Status = ItemStatusAvailable
	i.IssuedTo = nil
	i.IssuedBy = nil
	i.IssuedDate = nil
	i.ExpectedReturnDate = nil
	i.touch(returnedBy, now)
	return nil
}

// SetStatus applies the externally managed flags. Issued is owned by Issue/Return.
func (i *InventoryItem) SetStatus(status ItemStatus, actor string, now time.Time) error {
	switch status {
	case ItemStatusIssued:
		return ErrInvalidTransition
	case ItemStatusAvailable, ItemStatusMaintenance, ItemStatusRetired:
	default:
		return ErrInvalidStatus
	}
	if i.Status == ItemStatusIssued {
		return ErrItemCurrentlyIssued
	}
	i.Status = status
	i.touch(actor, now)
	return nil
}

// Adjust sets stock to an absolute value and returns the signed delta.
func (i *InventoryItem) Adjust(newQuantity int, actor string, now time.Time) (int, error) {
	if newQuantity < 0 {
		return 0, ErrInvalidQuantity
	}
	if i.Status == ItemStatusIssued {
		return 0, ErrItemCurrentlyIssued
	}
	delta := newQuantity - i.BalanceQuantityInStock
	i.BalanceQuantityInStock = newQuantity
	i.touch(actor, now)
	return delta, nil
}

func (i *InventoryItem) Dispose(quantity int, actor string, now time.Time) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i.Status == ItemStatusIssued {
		return ErrItemCurrentlyIssued
	}
	if quantity > i.BalanceQuantityInStock {
		return ErrInsufficientStock
	}
	i.BalanceQuantityInStock -= quantity
	if i.BalanceQuantityInStock == 0 {
		i.Status = ItemStatusRetired
	}
	i.touch(actor, now)
	return nil
}
