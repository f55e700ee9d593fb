package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/core/service"
)

type ItemResponse struct {
	ID                     string          `json:"id"`
	UniqueID               string          `json:"unique_id"`
	Name                   string          `json:"name"`
	BalanceQuantityInStock int             `json:"balance_quantity_in_stock"`
	MinimumStockLevel      int             `json:"minimum_stock_level"`
	QuantityPerItem        int             `json:"quantity_per_item"`
	UnitPrice              decimal.Decimal `json:"unit_price"`
	Status                 string          `json:"status"`
	LowStock               bool            `json:"low_stock"`
	IssuedTo               *string         `json:"issued_to,omitempty"`
	IssuedBy               *string         `json:"issued_by,omitempty"`
	IssuedDate             *time.Time      `json:"issued_date,omitempty"`
	ExpectedReturnDate     *time.Time      `json:"expected_return_date,omitempty"`
	LocationID             *string         `json:"location_id,omitempty"`
	AssetCategoryID        *string         `json:"asset_category_id,omitempty"`
	FinancialYear          string          `json:"financial_year,omitempty"`
	AssetCode              string          `json:"asset_code,omitempty"`
	LastModifiedBy         string          `json:"last_modified_by"`
	LastModifiedDate       time.Time       `json:"last_modified_date"`
	CreatedAt              time.Time       `json:"created_at"`
}

type TransactionResponse struct {
	ID               string          `json:"id"`
	InventoryItemID  string          `json:"inventory_item_id"`
	TransactionType  string          `json:"transaction_type"`
	Quantity         int             `json:"quantity"`
	PreviousQuantity int             `json:"previous_quantity"`
	NewQuantity      int             `json:"new_quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalValue       decimal.Decimal `json:"total_value"`
	Status           string          `json:"status"`
	PerformedBy      string          `json:"performed_by"`
	IssuedTo         *string         `json:"issued_to,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	ReferenceID      *string         `json:"reference_id,omitempty"`
	TransactionDate  time.Time       `json:"transaction_date"`
}

type MovementResponse struct {
	Item        ItemResponse         `json:"item"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

type LocationResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Code             string    `json:"code"`
	Capacity         int       `json:"capacity"`
	CurrentOccupancy int       `json:"current_occupancy"`
	IsActive         bool      `json:"is_active"`
	IsDefault        bool      `json:"is_default"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type RequestResponse struct {
	ID               string     `json:"id"`
	ItemID           string     `json:"item_id"`
	RequestedBy      string     `json:"requested_by"`
	Quantity         int        `json:"quantity"`
	ApprovedQuantity int        `json:"approved_quantity"`
	Status           string     `json:"status"`
	AssignedItemID   *string    `json:"assigned_item_id,omitempty"`
	ApprovedBy       *string    `json:"approved_by,omitempty"`
	ApprovedDate     *time.Time `json:"approved_date,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type ReturnRequestResponse struct {
	ID           string     `json:"id"`
	ItemID       string     `json:"item_id"`
	RequestID    *string    `json:"request_id,omitempty"`
	RequestedBy  string     `json:"requested_by"`
	Status       string     `json:"status"`
	ResolvedBy   *string    `json:"resolved_by,omitempty"`
	ResolvedDate *time.Time `json:"resolved_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type CascadeResponse struct {
	ItemID                string `json:"item_id"`
	TransactionsDeleted   int64  `json:"transactions_deleted"`
	RequestsDeleted       int64  `json:"requests_deleted"`
	ReturnRequestsDeleted int64  `json:"return_requests_deleted"`
	OccupancyReleased     int    `json:"occupancy_released"`
}

type ChainResponse struct {
	Consistent bool               `json:"consistent"`
	Entries    int                `json:"entries"`
	Break      *domain.ChainBreak `json:"break,omitempty"`
}

func toItemResponse(i *domain.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:                     i.ID,
		UniqueID:               i.UniqueID,
		Name:                   i.Name,
		BalanceQuantityInStock: i.BalanceQuantityInStock,
		MinimumStockLevel:      i.MinimumStockLevel,
		QuantityPerItem:        i.QuantityPerItem,
		UnitPrice:              i.UnitPrice,
		Status:                 string(i.Status),
		LowStock:               i.IsLowStock(),
		IssuedTo:               i.IssuedTo,
		IssuedBy:               i.IssuedBy,
		IssuedDate:             i.IssuedDate,
		ExpectedReturnDate:     i.ExpectedReturnDate,
		LocationID:             i.LocationID,
		AssetCategoryID:        i.AssetCategoryID,
		FinancialYear:          i.FinancialYear,
		AssetCode:              i.AssetCode,
		LastModifiedBy:         i.LastModifiedBy,
		LastModifiedDate:       i.LastModifiedDate,
		CreatedAt:              i.CreatedAt,
	}
}

func toTransactionResponse(t *domain.InventoryTransaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID,
		InventoryItemID:  t.InventoryItemID,
		TransactionType:  string(t.TransactionType),
		Quantity:         t.Quantity,
		PreviousQuantity: t.PreviousQuantity,
		NewQuantity:      t.NewQuantity,
		UnitPrice:        t.UnitPrice,
		TotalValue:       t.TotalValue,
		Status:           string(t.Status),
		PerformedBy:      t.PerformedBy,
		IssuedTo:         t.IssuedTo,
		Reason:           t.Reason,
		ReferenceID:      t.ReferenceID,
		TransactionDate:  t.TransactionDate,
	}
}

func toTransactionList(entries []domain.InventoryTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toTransactionResponse(&entries[i]))
	}
	return out
}

func toMovementResponse(m *service.Movement) MovementResponse {
	out := MovementResponse{Item: toItemResponse(m.Item)}
	if m.Transaction != nil {
		t := toTransactionResponse(m.Transaction)
		out.Transaction = &t
	}
	return out
}

func toLocationResponse(l *domain.Location) LocationResponse {
	return LocationResponse{
		ID:               l.ID,
		Name:             l.Name,
		Code:             l.Code,
		Capacity:         l.Capacity,
		CurrentOccupancy: l.CurrentOccupancy,
		IsActive:         l.IsActive,
		IsDefault:        l.IsDefault,
		UpdatedAt:        l.UpdatedAt,
	}
}

func toRequestResponse(r *domain.Request) RequestResponse {
	return RequestResponse{
		ID:               r.ID,
		ItemID:           r.ItemID,
		RequestedBy:      r.RequestedBy,
		Quantity:         r.Quantity,
		ApprovedQuantity: r.ApprovedQuantity,
		Status:           string(r.Status),
		AssignedItemID:   r.AssignedItemID,
		ApprovedBy:       r.ApprovedBy,
		ApprovedDate:     r.ApprovedDate,
		Reason:           r.Reason,
		CreatedAt:        r.CreatedAt,
	}
}

func toReturnRequestResponse(r *domain.ReturnRequest) ReturnRequestResponse {
	return ReturnRequestResponse{
		ID:           r.ID,
		ItemID:       r.ItemID,
		RequestID:    r.RequestID,
		RequestedBy:  r.RequestedBy,
		Status:       string(r.Status),
		ResolvedBy:   r.ResolvedBy,
		ResolvedDate: r.ResolvedDate,
		CreatedAt:    r.CreatedAt,
	}
}

func toCascadeResponse(r *service.CascadeResult) CascadeResponse {
	return CascadeResponse{
		ItemID:                r.ItemID,
		TransactionsDeleted:   r.TransactionsDeleted,
		RequestsDeleted:       r.RequestsDeleted,
		ReturnRequestsDeleted: r.ReturnRequestsDeleted,
		OccupancyReleased:     r.OccupancyReleased,
	}
}

type BucketResponse struct {
	TransactionType string          `json:"transaction_type,omitempty"`
	Month           string          `json:"month,omitempty"`
	Count           int             `json:"count"`
	Quantity        int             `json:"quantity"`
	Value           decimal.Decimal `json:"value"`
}

type StatisticsResponse struct {
	ByType  []BucketResponse `json:"by_type"`
	ByMonth []BucketResponse `json:"by_month"`
}

func toStatisticsResponse(s *domain.LedgerStatistics) StatisticsResponse {
	out := StatisticsResponse{
		ByType:  make([]BucketResponse, 0, len(s.ByType)),
		ByMonth: make([]BucketResponse, 0, len(s.ByMonth)),
	}
	for _, t := range s.ByType {
		out.ByType = append(out.ByType, BucketResponse{
			TransactionType: string(t.TransactionType),
			Count:           t.Count,
			Quantity:        t.Quantity,
			Value:           t.Value,
		})
	}
	for _, m := range s.ByMonth {
		out.ByMonth = append(out.ByMonth, BucketResponse{
			Month:    m.Month,
			Count:    m.Count,
			Quantity: m.Quantity,
			Value:    m.Value,
		})
	}
	return out
}
