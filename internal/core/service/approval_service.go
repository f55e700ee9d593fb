package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

const approvalKeyPrefix = "approval:"

type SubmitRequestInput struct {
	ItemID      string
	RequestedBy string
	Quantity    int
	Reason      string
}

type ApproveInput struct {
	RequestID          string
	ItemID             string // optional, defaults to the requested item
	ApprovedBy         string
	ApprovedQuantity   int // 0 means the requested quantity
	ExpectedReturnDate *time.Time
}

type Approval struct {
	Request  *domain.Request
	Movement *Movement
}

type ReturnApproval struct {
	ReturnRequest *domain.ReturnRequest
	Movement      *Movement
}

// ApprovalService turns approved workflow records into lifecycle transitions.
type ApprovalService struct {
	store     port.Store
	cache     port.CacheRepository
	lifecycle *LifecycleService
	logger    *zap.Logger
	now       func() time.Time
}

func NewApprovalService(store port.Store, cache port.CacheRepository, lifecycle *LifecycleService, logger *zap.Logger) *ApprovalService {
	return &ApprovalService{
		store:     store,
		cache:     cache,
		lifecycle: lifecycle,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *ApprovalService) SubmitRequest(ctx context.Context, in SubmitRequestInput) (*domain.Request, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	now := s.now()
	req := &domain.Request{
		ID:          uuid.NewString(),
		ItemID:      in.ItemID,
		RequestedBy: in.RequestedBy,
		Quantity:    in.Quantity,
		Status:      domain.RequestStatusPending,
		Reason:      in.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		if _, err := tx.GetItemForUpdate(ctx, in.ItemID); err != nil {
			return err
		}
		if err := tx.InsertRequest(ctx, req); err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, txError("submit request", err)
	}
	return req, nil
}

// ApproveRequest issues the item to the requester and assigns it to the request.
// The idempotency key keeps two approvers from racing on the same request.
func (s *ApprovalService) ApproveRequest(ctx context.Context, in ApproveInput) (*Approval, error) {
	key := approvalKeyPrefix + in.RequestID
	ok, err := s.cache.SetIdempotency(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, domain.ErrDuplicateRequest
	}

	out, err := s.approve(ctx, in)
	if err != nil {
		if clearErr := s.cache.ClearIdempotency(ctx, key); clearErr != nil {
			s.logger.Warn("failed to clear approval key", zap.String("key", key), zap.Error(clearErr))
		}
		return nil, err
	}

	s.logger.Info("request approved",
		zap.String("request_id", in.RequestID),
		zap.String("item_id", out.Movement.Item.ID),
		zap.String("approved_by", in.ApprovedBy))
	return out, nil
}

func (s *ApprovalService) approve(ctx context.Context, in ApproveInput) (*Approval, error) {
	var out Approval
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		req, err := tx.GetRequestForUpdate(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestStatusPending {
			return domain.ErrRequestNotPending
		}

		itemID := in.ItemID
		if itemID == "" {
			itemID = req.ItemID
		}
		quantity := in.ApprovedQuantity
		if quantity == 0 {
			quantity = req.Quantity
		}
		if quantity < 0 {
			return domain.ErrInvalidQuantity
		}

		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if quantity > item.BalanceQuantityInStock {
			return domain.ErrInsufficientStock
		}

		m, err := s.lifecycle.issueInTx(ctx, tx, IssueInput{
			ItemID:             itemID,
			IssuedTo:           req.RequestedBy,
			IssuedBy:           in.ApprovedBy,
			ExpectedReturnDate: in.ExpectedReturnDate,
		}, &req.ID)
		if err != nil {
			return err
		}

		now := s.now()
		req.Status = domain.RequestStatusApproved
		req.ApprovedQuantity = quantity
		req.AssignedItemID = &itemID
		req.ApprovedBy = &in.ApprovedBy
		req.ApprovedDate = &now
		req.UpdatedAt = now
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		out = Approval{Request: req, Movement: m}
		return nil
	})
	if err != nil {
		return nil, txError("approve request", err)
	}
	return &out, nil
}

func (s *ApprovalService) RejectRequest(ctx context.Context, requestID, rejectedBy, reason string) (*domain.Request, error) {
	var out *domain.Request
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestStatusPending {
			return domain.ErrRequestNotPending
		}

		now := s.now()
		req.Status = domain.RequestStatusRejected
		req.ApprovedBy = &rejectedBy
		req.ApprovedDate = &now
		req.UpdatedAt = now
		if reason != "" {
			req.Reason = reason
		}
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, txError("reject request", err)
	}
	return out, nil
}

func (s *ApprovalService) SubmitReturnRequest(ctx context.Context, itemID string, requestID *string, requestedBy string) (*domain.ReturnRequest, error) {
	rr := &domain.ReturnRequest{
		ID:          uuid.NewString(),
		ItemID:      itemID,
		RequestID:   requestID,
		RequestedBy: requestedBy,
		Status:      domain.RequestStatusPending,
		CreatedAt:   s.now(),
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Status != domain.ItemStatusIssued {
			return domain.ErrNotIssued
		}
		if err := tx.InsertReturnRequest(ctx, rr); err != nil {
			return fmt.Errorf("insert return request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, txError("submit return request", err)
	}
	return rr, nil
}

// ApproveReturnRequest returns the item and resolves the return-request together.
func (s *ApprovalService) ApproveReturnRequest(ctx context.Context, returnRequestID, approvedBy string) (*ReturnApproval, error) {
	var out ReturnApproval
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		rr, err := tx.GetReturnRequestForUpdate(ctx, returnRequestID)
		if err != nil {
			return err
		}
		if rr.Status != domain.RequestStatusPending {
			return domain.ErrRequestNotPending
		}

		m, err := s.lifecycle.returnInTx(ctx, tx, rr.ItemID, approvedBy, &rr.ID)
		if err != nil {
			return err
		}

		now := s.now()
		rr.Status = domain.RequestStatusApproved
		rr.ResolvedBy = &approvedBy
		rr.ResolvedDate = &now
		if err := tx.UpdateReturnRequest(ctx, rr); err != nil {
			return fmt.Errorf("update return request: %w", err)
		}

		out = ReturnApproval{ReturnRequest: rr, Movement: m}
		return nil
	})
	if err != nil {
		return nil, txError("approve return request", err)
	}
	return &out, nil
}

func (s *ApprovalService) GetRequest(ctx context.Context, requestID string) (*domain.Request, error) {
	return s.store.GetRequest(ctx, requestID)
}
