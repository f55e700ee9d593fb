package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIssue       TransactionType = "issue"
	TransactionTypeReturn      TransactionType = "return"
	TransactionTypeAdjustment  TransactionType = "adjustment"
	TransactionTypePurchase    TransactionType = "purchase"
	TransactionTypeDisposal    TransactionType = "disposal"
	TransactionTypeMaintenance TransactionType = "maintenance"
)

var TransactionTypes = []TransactionType{
	TransactionTypeIssue,
	TransactionTypeReturn,
	TransactionTypeAdjustment,
	TransactionTypePurchase,
	TransactionTypeDisposal,
	TransactionTypeMaintenance,
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusApproved  TransactionStatus = "approved"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// InventoryTransaction is a ledger entry. It is never updated after insert.
type InventoryTransaction struct {
	ID               string
	Seq              int64 // insertion order, breaks timestamp ties
	InventoryItemID  string
	TransactionType  TransactionType
	Quantity         int
	PreviousQuantity int
	NewQuantity      int
	UnitPrice        decimal.Decimal
	TotalValue       decimal.Decimal
	Status           TransactionStatus
	PerformedBy      string
	IssuedTo         *string
	Reason           string
	ReferenceID      *string
	TransactionDate  time.Time
}

// NewTransaction brackets a stock change on item. quantity is the absolute amount moved.
func NewTransaction(id string, item *InventoryItem, txType TransactionType, previous, quantity int, actor string, now time.Time) InventoryTransaction {
	return InventoryTransaction{
		ID:               id,
		InventoryItemID:  item.ID,
		TransactionType:  txType,
		Quantity:         quantity,
		PreviousQuantity: previous,
		NewQuantity:      item.BalanceQuantityInStock,
		UnitPrice:        item.UnitPrice,
		TotalValue:       item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Status:           TransactionStatusCompleted,
		PerformedBy:      actor,
		TransactionDate:  now,
	}
}

type TypeStatistic struct {
	TransactionType TransactionType
	Count           int
	Quantity        int
	Value           decimal.Decimal
}

type MonthStatistic struct {
	Month    string // YYYY-MM
	Count    int
	Quantity int
	Value    decimal.Decimal
}

type LedgerStatistics struct {
	ByType  []TypeStatistic
	ByMonth []MonthStatistic
}

type LedgerFilter struct {
	InventoryItemID string
	From            *time.Time
	To              *time.Time
}

// ChainBreak describes the first entry whose previous quantity does not match its predecessor.
type ChainBreak struct {
	Index            int
	TransactionID    string
	PreviousQuantity int
	Expected         int
}

// VerifyChain walks entries already sorted by time.
func VerifyChain(entries []InventoryTransaction) *ChainBreak {
	for i := 1; i < len(entries); i++ {
		if entries[i].PreviousQuantity != entries[i-1].NewQuantity {
			return &ChainBreak{
				Index:            i,
				TransactionID:    entries[i].ID,
				PreviousQuantity: entries[i].PreviousQuantity,
				Expected:         entries[i-1].NewQuantity,
			}
		}
	}
	return nil
}
