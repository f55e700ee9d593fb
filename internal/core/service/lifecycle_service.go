package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

type CreateItemInput struct {
	UniqueID          string
	Name              string
	InitialQuantity   int
	MinimumStockLevel int
	QuantityPerItem   int
	UnitPrice         decimal.Decimal
	LocationID        *string
	AssetCategoryID   *string
	FinancialYear     string
	AssetCode         string
	CreatedBy         string
}

type IssueInput struct {
	ItemID             string
	IssuedTo           string
	IssuedBy           string
	ExpectedReturnDate *time.Time
}

type PreviewInput struct {
	FinancialYear string
	AssetCode     string
	LocationID    *string
}

// Movement is an item together with the ledger entry that produced its current state.
type Movement struct {
	Item        *domain.InventoryItem
	Transaction *domain.InventoryTransaction
}

type LifecycleService struct {
	store     port.Store
	allocator *SequenceAllocator
	logger    *zap.Logger
	prefix    string
	now       func() time.Time
}

func NewLifecycleService(store port.Store, allocator *SequenceAllocator, logger *zap.Logger, prefix string) *LifecycleService {
	return &LifecycleService{
		store:     store,
		allocator: allocator,
		logger:    logger,
		prefix:    prefix,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *LifecycleService) CreateItem(ctx context.Context, in CreateItemInput) (*Movement, error) {
	if in.InitialQuantity < 0 || in.MinimumStockLevel < 0 || in.QuantityPerItem < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	// The serial is taken before the transaction. A failed create leaves a gap, never a reuse.
	var serial int64
	allocate := domain.NeedsAllocation(in.UniqueID)
	if allocate {
		v, err := s.allocator.Next(ctx)
		if err != nil {
			return nil, txError("allocate serial", err)
		}
		serial = v
	}

	var out Movement
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		now := s.now()

		loc, err := s.resolveLocation(ctx, tx, in.LocationID)
		if err != nil {
			return err
		}

		uniqueID := strings.TrimSpace(in.UniqueID)
		if allocate {
			parts := domain.UniqueIDParts{
				Prefix:        s.prefix,
				FinancialYear: in.FinancialYear,
				AssetCode:     in.AssetCode,
			}
			if loc != nil {
				parts.LocationCode = loc.Code
			}
			uniqueID = domain.FormatUniqueID(parts, serial)
		} else {
			exists, err := tx.UniqueIDExists(ctx, uniqueID)
			if err != nil {
				return fmt.Errorf("check unique id: %w", err)
			}
			if exists {
				return domain.ErrDuplicateUniqueID
			}
		}

		item := &domain.InventoryItem{
			ID:                     uuid.NewString(),
			UniqueID:               uniqueID,
			Name:                   in.Name,
			BalanceQuantityInStock: in.InitialQuantity,
			MinimumStockLevel:      in.MinimumStockLevel,
			QuantityPerItem:        in.QuantityPerItem,
			UnitPrice:              in.UnitPrice,
			Status:                 domain.ItemStatusAvailable,
			AssetCategoryID:        in.AssetCategoryID,
			FinancialYear:          in.FinancialYear,
			AssetCode:              in.AssetCode,
			LastModifiedBy:         in.CreatedBy,
			LastModifiedDate:       now,
			CreatedAt:              now,
		}

		if loc != nil {
			if err := loc.Reserve(in.InitialQuantity); err != nil {
				return err
			}
			if err := tx.UpdateLocation(ctx, loc); err != nil {
				return fmt.Errorf("update location: %w", err)
			}
			item.LocationID = &loc.ID
		}

		if err := tx.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}

		entry := domain.NewTransaction(uuid.NewString(), item, domain.TransactionTypePurchase, 0, in.InitialQuantity, in.CreatedBy, now)
		if err := tx.AppendTransaction(ctx, &entry); err != nil {
			return fmt.Errorf("append purchase: %w", err)
		}

		out = Movement{Item: item, Transaction: &entry}
		return nil
	})
	if err != nil {
		return nil, txError("create item", err)
	}

	s.logger.Info("item created",
		zap.String("item_id", out.Item.ID),
		zap.String("unique_id", out.Item.UniqueID),
		zap.Int("quantity", out.Item.BalanceQuantityInStock))
	return &out, nil
}

// resolveLocation locks the requested location, or the default one when none is given.
func (s *LifecycleService) resolveLocation(ctx context.Context, tx port.TxRepository, locationID *string) (*domain.Location, error) {
	if locationID == nil || *locationID == "" {
		return activeDefault(tx.GetDefaultLocationForUpdate(ctx))
	}
	return activeLocation(tx.GetLocationForUpdate(ctx, *locationID))
}

// peekLocation applies the same rules as resolveLocation without taking locks.
func (s *LifecycleService) peekLocation(ctx context.Context, locationID *string) (*domain.Location, error) {
	if locationID == nil || *locationID == "" {
		return activeDefault(s.store.GetDefaultLocation(ctx))
	}
	return activeLocation(s.store.GetLocation(ctx, *locationID))
}

// activeDefault yields no location when the default is missing or inactive.
func activeDefault(loc *domain.Location, err error) (*domain.Location, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get default location: %w", err)
	}
	if !loc.IsActive {
		return nil, nil
	}
	return loc, nil
}

func activeLocation(loc *domain.Location, err error) (*domain.Location, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidLocation
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	if !loc.IsActive {
		return nil, domain.ErrInvalidLocation
	}
	return loc, nil
}

func (s *LifecycleService) IssueItem(ctx context.Context, in IssueInput) (*Movement, error) {
	var out *Movement
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		m, err := s.issueInTx(ctx, tx, in, nil)
		out = m
		return err
	})
	if err != nil {
		return nil, txError("issue item", err)
	}

	s.logger.Info("item issued",
		zap.String("item_id", in.ItemID),
		zap.String("issued_to", in.IssuedTo),
		zap.Int("balance", out.Item.BalanceQuantityInStock))
	return out, nil
}

func (s *LifecycleService) issueInTx(ctx context.Context, tx port.TxRepository, in IssueInput, referenceID *string) (*Movement, error) {
	item, err := tx.GetItemForUpdate(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	previous := item.BalanceQuantityInStock
	if err := item.Issue(in.IssuedTo, in.IssuedBy, in.ExpectedReturnDate, now); err != nil {
		return nil, err
	}
	if err := tx.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	entry := domain.NewTransaction(uuid.NewString(), item, domain.TransactionTypeIssue, previous, 1, in.IssuedBy, now)
	entry.IssuedTo = &in.IssuedTo
	entry.ReferenceID = referenceID
	if err := tx.AppendTransaction(ctx, &entry); err != nil {
		return nil, fmt.Errorf("append issue: %w", err)
	}
	return &Movement{Item: item, Transaction: &entry}, nil
}

func (s *LifecycleService) ReturnItem(ctx context.Context, itemID, returnedBy string) (*Movement, error) {
	var out *Movement
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		m, err := s.returnInTx(ctx, tx, itemID, returnedBy, nil)
		out = m
		return err
	})
	if err != nil {
		return nil, txError("return item", err)
	}

	s.logger.Info("item returned",
		zap.String("item_id", itemID),
		zap.Int("balance", out.Item.BalanceQuantityInStock))
	return out, nil
}

func (s *LifecycleService) returnInTx(ctx context.Context, tx port.TxRepository, itemID, returnedBy string, referenceID *string) (*Movement, error) {
	item, err := tx.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	previous := item.BalanceQuantityInStock
	returnedFrom := item.IssuedTo
	if err := item.Return(returnedBy, now); err != nil {
		return nil, err
	}
	if err := tx.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	entry := domain.NewTransaction(uuid.NewString(), item, domain.TransactionTypeReturn, previous, 1, returnedBy, now)
	entry.IssuedTo = returnedFrom
	entry.ReferenceID = referenceID
	if err := tx.AppendTransaction(ctx, &entry); err != nil {
		return nil, fmt.Errorf("append return: %w", err)
	}
	return &Movement{Item: item, Transaction: &entry}, nil
}

// AdjustStock sets the stock to newQuantity and moves location occupancy by the delta.
func (s *LifecycleService) AdjustStock(ctx context.Context, itemID string, newQuantity int, actor, reason string) (*Movement, error) {
	var out Movement
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		now := s.now()
		previous := item.BalanceQuantityInStock
		delta, err := item.Adjust(newQuantity, actor, now)
		if err != nil {
			return err
		}

		if err := s.moveOccupancy(ctx, tx, item.LocationID, delta); err != nil {
			return err
		}
		if err := tx.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		entry := domain.NewTransaction(uuid.NewString(), item, domain.TransactionTypeAdjustment, previous, abs(delta), actor, now)
		entry.Reason = reason
		if err := tx.AppendTransaction(ctx, &entry); err != nil {
			return fmt.Errorf("append adjustment: %w", err)
		}
		out = Movement{Item: item, Transaction: &entry}
		return nil
	})
	if err != nil {
		return nil, txError("adjust stock", err)
	}
	return &out, nil
}

func (s *LifecycleService) DisposeItem(ctx context.Context, itemID string, quantity int, actor, reason string) (*Movement, error) {
	var out Movement
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		now := s.now()
		previous := item.BalanceQuantityInStock
		if err := item.Dispose(quantity, actor, now); err != nil {
			return err
		}

		if err := s.moveOccupancy(ctx, tx, item.LocationID, -quantity); err != nil {
			return err
		}
		if err := tx.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		entry := domain.NewTransaction(uuid.NewString(), item, domain.TransactionTypeDisposal, previous, quantity, actor, now)
		entry.Reason = reason
		if err := tx.AppendTransaction(ctx, &entry); err != nil {
			return fmt.Errorf("append disposal: %w", err)
		}
		out = Movement{Item: item, Transaction: &entry}
		return nil
	})
	if err != nil {
		return nil, txError("dispose item", err)
	}

	s.logger.Info("item disposed",
		zap.String("item_id", itemID),
		zap.Int("quantity", quantity),
		zap.String("status", string(out.Item.Status)))
	return &out, nil
}

// SetStatus flips the externally managed flags. Entering maintenance is recorded in the ledger.
func (s *LifecycleService) SetStatus(ctx context.Context, itemID string, status domain.ItemStatus, actor string) (*Movement, error) {
	var out Movement
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		now := s.now()
		wasMaintenance := item.Status == domain.ItemStatusMaintenance
		if err := item.SetStatus(status, actor, now); err != nil {
			return err
		}
		if err := tx.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		out.Item = item

		if status != domain.ItemStatusMaintenance || wasMaintenance {
			return nil
		}
		entry := domain.NewTransaction(uuid.NewString(), item, domain.TransactionTypeMaintenance, item.BalanceQuantityInStock, 0, actor, now)
		if err := tx.AppendTransaction(ctx, &entry); err != nil {
			return fmt.Errorf("append maintenance: %w", err)
		}
		out.Transaction = &entry
		return nil
	})
	if err != nil {
		return nil, txError("set status", err)
	}
	return &out, nil
}

// PreviewNextUniqueID shows the id the next create would mint without consuming a serial.
func (s *LifecycleService) PreviewNextUniqueID(ctx context.Context, in PreviewInput) (string, int64, error) {
	current, err := s.allocator.Peek(ctx)
	if err != nil {
		return "", 0, err
	}

	parts := domain.UniqueIDParts{
		Prefix:        s.prefix,
		FinancialYear: in.FinancialYear,
		AssetCode:     in.AssetCode,
	}
	loc, err := s.peekLocation(ctx, in.LocationID)
	if err != nil {
		return "", 0, err
	}
	if loc != nil {
		parts.LocationCode = loc.Code
	}

	next := current + 1
	return domain.FormatUniqueID(parts, next), next, nil
}

func (s *LifecycleService) GetItem(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	return s.store.GetItem(ctx, itemID)
}

func (s *LifecycleService) moveOccupancy(ctx context.Context, tx port.TxRepository, locationID *string, delta int) error {
	if locationID == nil || delta == 0 {
		return nil
	}

	loc, err := tx.GetLocationForUpdate(ctx, *locationID)
	if errors.Is(err, domain.ErrNotFound) {
		// location was removed by the CRUD layer, nothing to track
		return nil
	}
	if err != nil {
		return fmt.Errorf("get location: %w", err)
	}

	if delta > 0 {
		err = loc.Reserve(delta)
	} else {
		err = loc.Release(-delta)
	}
	if err != nil {
		return err
	}
	if err := tx.UpdateLocation(ctx, loc); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
