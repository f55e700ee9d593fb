package service

import (
	"context"
	"fmt"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

// LedgerService is the read side of the ledger. Writes only happen through the lifecycle.
type LedgerService struct {
	reader port.Reader
}

func NewLedgerService(reader port.Reader) *LedgerService {
	return &LedgerService{reader: reader}
}

func (s *LedgerService) ListForItem(ctx context.Context, itemID string) ([]domain.InventoryTransaction, error) {
	if _, err := s.reader.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	entries, err := s.reader.ListTransactions(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return entries, nil
}

func (s *LedgerService) Statistics(ctx context.Context, filter domain.LedgerFilter) (*domain.LedgerStatistics, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.ErrInvalidRange
	}

	stats, err := s.reader.LedgerStatistics(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ledger statistics: %w", err)
	}
	return stats, nil
}

// VerifyChain checks that every entry starts where the previous one ended.
func (s *LedgerService) VerifyChain(ctx context.Context, itemID string) (*domain.ChainBreak, error) {
	entries, err := s.ListForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return domain.VerifyChain(entries), nil
}
