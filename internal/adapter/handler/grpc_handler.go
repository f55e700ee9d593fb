package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/asset-ledger/internal/core/service"
)

const inventoryServiceName = "inventory.v1.InventoryService"

type IssueItemRequest struct {
	ItemID             string     `json:"item_id"`
	IssuedTo           string     `json:"issued_to"`
	Actor              string     `json:"actor"`
	ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
}

type ReturnItemRequest struct {
	ItemID string `json:"item_id"`
	Actor  string `json:"actor"`
}

type DeleteItemRequest struct {
	ItemID string `json:"item_id"`
}

type ListLedgerRequest struct {
	ItemID string `json:"item_id"`
}

type ListLedgerResponse struct {
	Entries []TransactionResponse `json:"entries"`
}

type PreviewSerialRequest struct {
	FinancialYear string  `json:"financial_year"`
	AssetCode     string  `json:"asset_code"`
	LocationID    *string `json:"location_id,omitempty"`
}

type PreviewSerialResponse struct {
	UniqueID string `json:"unique_id"`
	Serial   int64  `json:"serial"`
}

// InventoryServer is the server API for inventory.v1.InventoryService.
type InventoryServer interface {
	IssueItem(context.Context, *IssueItemRequest) (*MovementResponse, error)
	ReturnItem(context.Context, *ReturnItemRequest) (*MovementResponse, error)
	DeleteItem(context.Context, *DeleteItemRequest) (*CascadeResponse, error)
	ListLedger(context.Context, *ListLedgerRequest) (*ListLedgerResponse, error)
	PreviewNextSerial(context.Context, *PreviewSerialRequest) (*PreviewSerialResponse, error)
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: inventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("IssueItem", InventoryServer.IssueItem),
		unaryMethod("ReturnItem", InventoryServer.ReturnItem),
		unaryMethod("DeleteItem", InventoryServer.DeleteItem),
		unaryMethod("ListLedger", InventoryServer.ListLedger),
		unaryMethod("PreviewNextSerial", InventoryServer.PreviewNextSerial),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/inventory.json",
}

func unaryMethod[Req, Resp any](name string, call func(InventoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + inventoryServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(InventoryServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

type GRPCHandler struct {
	svc    Services
	logger *zap.Logger
}

func NewGRPCHandler(svc Services, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{svc: svc, logger: logger}
}

func (h *GRPCHandler) IssueItem(ctx context.Context, req *IssueItemRequest) (*MovementResponse, error) {
	if req.ItemID == "" || req.IssuedTo == "" || req.Actor == "" {
		return nil, status.Error(codes.InvalidArgument, "item_id, issued_to and actor are required")
	}

	m, err := h.svc.Lifecycle.IssueItem(ctx, service.IssueInput{
		ItemID:             req.ItemID,
		IssuedTo:           req.IssuedTo,
		IssuedBy:           req.Actor,
		ExpectedReturnDate: req.ExpectedReturnDate,
	})
	if err != nil {
		return nil, h.statusError(err)
	}
	out := toMovementResponse(m)
	return &out, nil
}

func (h *GRPCHandler) ReturnItem(ctx context.Context, req *ReturnItemRequest) (*MovementResponse, error) {
	if req.ItemID == "" || req.Actor == "" {
		return nil, status.Error(codes.InvalidArgument, "item_id and actor are required")
	}

	m, err := h.svc.Lifecycle.ReturnItem(ctx, req.ItemID, req.Actor)
	if err != nil {
		return nil, h.statusError(err)
	}
	out := toMovementResponse(m)
	return &out, nil
}

func (h *GRPCHandler) DeleteItem(ctx context.Context, req *DeleteItemRequest) (*CascadeResponse, error) {
	res, err := h.svc.Cascade.DeleteItem(ctx, req.ItemID)
	if err != nil {
		return nil, h.statusError(err)
	}
	out := toCascadeResponse(res)
	return &out, nil
}

func (h *GRPCHandler) ListLedger(ctx context.Context, req *ListLedgerRequest) (*ListLedgerResponse, error) {
	entries, err := h.svc.Ledger.ListForItem(ctx, req.ItemID)
	if err != nil {
		return nil, h.statusError(err)
	}
	return &ListLedgerResponse{Entries: toTransactionList(entries)}, nil
}

func (h *GRPCHandler) PreviewNextSerial(ctx context.Context, req *PreviewSerialRequest) (*PreviewSerialResponse, error) {
	uniqueID, serial, err := h.svc.Lifecycle.PreviewNextUniqueID(ctx, service.PreviewInput{
		FinancialYear: req.FinancialYear,
		AssetCode:     req.AssetCode,
		LocationID:    req.LocationID,
	})
	if err != nil {
		return nil, h.statusError(err)
	}
	return &PreviewSerialResponse{UniqueID: uniqueID, Serial: serial}, nil
}

func (h *GRPCHandler) statusError(err error) error {
	kind := classify(err)
	if kind.code == codes.Internal {
		h.logger.Error("grpc call failed", zap.Error(err))
	}
	return status.Error(kind.code, kind.message)
}

// UnaryLogger logs every unary call with its method, code and latency.
func UnaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)))
		return resp, err
	}
}

// InventoryClient calls inventory.v1.InventoryService with the JSON codec.
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func (c *InventoryClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+inventoryServiceName+"/"+method, in, out, opts...)
}

func (c *InventoryClient) IssueItem(ctx context.Context, in *IssueItemRequest, opts ...grpc.CallOption) (*MovementResponse, error) {
	out := new(MovementResponse)
	if err := c.invoke(ctx, "IssueItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) ReturnItem(ctx context.Context, in *ReturnItemRequest, opts ...grpc.CallOption) (*MovementResponse, error) {
	out := new(MovementResponse)
	if err := c.invoke(ctx, "ReturnItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) DeleteItem(ctx context.Context, in *DeleteItemRequest, opts ...grpc.CallOption) (*CascadeResponse, error) {
	out := new(CascadeResponse)
	if err := c.invoke(ctx, "DeleteItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) ListLedger(ctx context.Context, in *ListLedgerRequest, opts ...grpc.CallOption) (*ListLedgerResponse, error) {
	out := new(ListLedgerResponse)
	if err := c.invoke(ctx, "ListLedger", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) PreviewNextSerial(ctx context.Context, in *PreviewSerialRequest, opts ...grpc.CallOption) (*PreviewSerialResponse, error) {
	out := new(PreviewSerialResponse)
	if err := c.invoke(ctx, "PreviewNextSerial", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
