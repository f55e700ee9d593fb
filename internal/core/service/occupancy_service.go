package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

type CreateLocationInput struct {
	Name      string
	Code      string
	Capacity  int
	IsActive  bool
	IsDefault bool
}

type OccupancyService struct {
	store  port.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewOccupancyService(store port.Store, logger *zap.Logger) *OccupancyService {
	return &OccupancyService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *OccupancyService) CreateLocation(ctx context.Context, in CreateLocationInput) (*domain.Location, error) {
	if in.Capacity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.IsDefault && !in.IsActive {
		return nil, domain.ErrInvalidLocation
	}

	loc := &domain.Location{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Code:      strings.ToUpper(strings.TrimSpace(in.Code)),
		Capacity:  in.Capacity,
		IsActive:  in.IsActive,
		IsDefault: in.IsDefault,
		UpdatedAt: s.now(),
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		if loc.IsDefault {
			if err := tx.ClearDefaultLocation(ctx, loc.ID); err != nil {
				return fmt.Errorf("clear default: %w", err)
			}
		}
		if err := tx.InsertLocation(ctx, loc); err != nil {
			return fmt.Errorf("insert location: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, txError("create location", err)
	}
	return loc, nil
}

func (s *OccupancyService) Reserve(ctx context.Context, locationID string, amount int) (*domain.Location, error) {
	return s.adjust(ctx, locationID, func(loc *domain.Location) error {
		return loc.Reserve(amount)
	})
}

func (s *OccupancyService) Release(ctx context.Context, locationID string, amount int) (*domain.Location, error) {
	return s.adjust(ctx, locationID, func(loc *domain.Location) error {
		return loc.Release(amount)
	})
}

func (s *OccupancyService) adjust(ctx context.Context, locationID string, apply func(*domain.Location) error) (*domain.Location, error) {
	var out *domain.Location
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		loc, err := tx.GetLocationForUpdate(ctx, locationID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidLocation
		}
		if err != nil {
			return fmt.Errorf("get location: %w", err)
		}

		if err := apply(loc); err != nil {
			return err
		}
		loc.UpdatedAt = s.now()
		if err := tx.UpdateLocation(ctx, loc); err != nil {
			return fmt.Errorf("update location: %w", err)
		}
		out = loc
		return nil
	})
	if err != nil {
		return nil, txError("adjust occupancy", err)
	}
	return out, nil
}

// SetDefaultLocation flags locationID as the only default location.
func (s *OccupancyService) SetDefaultLocation(ctx context.Context, locationID string) (*domain.Location, error) {
	var out *domain.Location
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		loc, err := tx.GetLocationForUpdate(ctx, locationID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidLocation
		}
		if err != nil {
			return fmt.Errorf("get location: %w", err)
		}
		if !loc.IsActive {
			return domain.ErrInvalidLocation
		}

		if err := tx.ClearDefaultLocation(ctx, loc.ID); err != nil {
			return fmt.Errorf("clear default: %w", err)
		}
		loc.IsDefault = true
		loc.UpdatedAt = s.now()
		if err := tx.UpdateLocation(ctx, loc); err != nil {
			return fmt.Errorf("update location: %w", err)
		}
		out = loc
		return nil
	})
	if err != nil {
		return nil, txError("set default location", err)
	}

	s.logger.Info("default location changed", zap.String("location_id", locationID))
	return out, nil
}
