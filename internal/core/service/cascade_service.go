package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

type CascadeResult struct {
	ItemID                string
	TransactionsDeleted   int64
	RequestsDeleted       int64
	ReturnRequestsDeleted int64
	OccupancyReleased     int
}

type CascadeService struct {
	store  port.Store
	logger *zap.Logger
}

func NewCascadeService(store port.Store, logger *zap.Logger) *CascadeService {
	return &CascadeService{store: store, logger: logger}
}

// DeleteItem removes the item with its ledger, requests and return-requests in one
// transaction, and gives the remaining stock back to its location.
func (s *CascadeService) DeleteItem(ctx context.Context, itemID string) (*CascadeResult, error) {
	res := CascadeResult{ItemID: itemID}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Status == domain.ItemStatusIssued {
			return domain.ErrItemCurrentlyIssued
		}

		if res.TransactionsDeleted, err = tx.DeleteTransactionsByItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		if res.RequestsDeleted, err = tx.DeleteRequestsByItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete requests: %w", err)
		}
		if res.ReturnRequestsDeleted, err = tx.DeleteReturnRequestsByItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete return requests: %w", err)
		}
		if err := tx.DeleteItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}

		if item.LocationID == nil || item.BalanceQuantityInStock == 0 {
			return nil
		}
		loc, err := tx.GetLocationForUpdate(ctx, *item.LocationID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get location: %w", err)
		}
		if err := loc.Release(item.BalanceQuantityInStock); err != nil {
			return err
		}
		if err := tx.UpdateLocation(ctx, loc); err != nil {
			return fmt.Errorf("update location: %w", err)
		}
		res.OccupancyReleased = item.BalanceQuantityInStock
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrItemCurrentlyIssued) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("cascade deletion rolled back", zap.String("item_id", itemID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrCascadeFailure, err)
	}

	s.logger.Info("item deleted",
		zap.String("item_id", itemID),
		zap.Int64("transactions", res.TransactionsDeleted),
		zap.Int64("requests", res.RequestsDeleted),
		zap.Int64("return_requests", res.ReturnRequestsDeleted))
	return &res, nil
}
