package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/core/service"
)

const actorHeader = "X-Actor"

// Services groups everything the transports dispatch to.
type Services struct {
	Lifecycle *service.LifecycleService
	Ledger    *service.LedgerService
	Cascade   *service.CascadeService
	Occupancy *service.OccupancyService
	Approval  *service.ApprovalService
}

type HTTPHandler struct {
	svc     Services
	logger  *zap.Logger
	timeout time.Duration
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type CreateItemHTTPRequest struct {
	UniqueID          string          `json:"unique_id"`
	Name              string          `json:"name" binding:"required"`
	InitialQuantity   int             `json:"initial_quantity"`
	MinimumStockLevel int             `json:"minimum_stock_level"`
	QuantityPerItem   int             `json:"quantity_per_item"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LocationID        *string         `json:"location_id"`
	AssetCategoryID   *string         `json:"asset_category_id"`
	FinancialYear     string          `json:"financial_year"`
	AssetCode         string          `json:"asset_code"`
}

type IssueHTTPRequest struct {
	IssuedTo           string     `json:"issued_to" binding:"required"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
}

type AdjustHTTPRequest struct {
	NewQuantity *int   `json:"new_quantity" binding:"required"`
	Reason      string `json:"reason"`
}

type DisposeHTTPRequest struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

type StatusHTTPRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateLocationHTTPRequest struct {
	Name      string `json:"name" binding:"required"`
	Code      string `json:"code" binding:"required"`
	Capacity  int    `json:"capacity"`
	IsActive  *bool  `json:"is_active"`
	IsDefault bool   `json:"is_default"`
}

type SubmitRequestHTTPRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

type ApproveHTTPRequest struct {
	ItemID             string     `json:"item_id"`
	ApprovedQuantity   int        `json:"approved_quantity"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
}

type RejectHTTPRequest struct {
	Reason string `json:"reason"`
}

type SubmitReturnHTTPRequest struct {
	ItemID    string  `json:"item_id" binding:"required"`
	RequestID *string `json:"request_id"`
}

func NewHTTPHandler(svc Services, logger *zap.Logger, timeout time.Duration) *HTTPHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPHandler{svc: svc, logger: logger, timeout: timeout}
}

// Register mounts every route on r.
func (h *HTTPHandler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	v1 := r.Group("/api/v1")

	items := v1.Group("/items")
	items.POST("", h.CreateItem)
	items.GET("/:id", h.GetItem)
	items.DELETE("/:id", h.DeleteItem)
	items.POST("/:id/issue", h.IssueItem)
	items.POST("/:id/return", h.ReturnItem)
	items.POST("/:id/adjust", h.AdjustStock)
	items.POST("/:id/dispose", h.DisposeItem)
	items.PUT("/:id/status", h.SetStatus)
	items.GET("/:id/ledger", h.ListLedger)
	items.GET("/:id/ledger/verify", h.VerifyLedger)

	v1.GET("/ledger/statistics", h.LedgerStatistics)
	v1.GET("/sequence/preview", h.PreviewSequence)

	v1.POST("/locations", h.CreateLocation)
	v1.PUT("/locations/:id/default", h.SetDefaultLocation)

	v1.POST("/requests", h.SubmitRequest)
	v1.GET("/requests/:id", h.GetRequest)
	v1.POST("/requests/:id/approve", h.ApproveRequest)
	v1.POST("/requests/:id/reject", h.RejectRequest)
	v1.POST("/return-requests", h.SubmitReturnRequest)
	v1.POST("/return-requests/:id/approve", h.ApproveReturnRequest)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) CreateItem(c *gin.Context) {
	var req CreateItemHTTPRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	m, err := h.svc.Lifecycle.CreateItem(ctx, service.CreateItemInput{
		UniqueID:          req.UniqueID,
		Name:              req.Name,
		InitialQuantity:   req.InitialQuantity,
		MinimumStockLevel: req.MinimumStockLevel,
		QuantityPerItem:   req.QuantityPerItem,
		UnitPrice:         req.UnitPrice,
		LocationID:        req.LocationID,
		AssetCategoryID:   req.AssetCategoryID,
		FinancialYear:     req.FinancialYear,
		AssetCode:         req.AssetCode,
		CreatedBy:         actor,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, "item created", toMovementResponse(m))
}

func (h *HTTPHandler) GetItem(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	item, err := h.svc.Lifecycle.GetItem(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "", toItemResponse(item))
}

func (h *HTTPHandler) DeleteItem(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.svc.Cascade.DeleteItem(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "item deleted", toCascadeResponse(res))
}

func (h *HTTPHandler) IssueItem(c *gin.Context) {
	var req IssueHTTPRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	m, err := h.svc.Lifecycle.IssueItem(ctx, service.IssueInput{
		ItemID:             c.Param("id"),
		IssuedTo:           req.IssuedTo,
		IssuedBy:           actor,
		ExpectedReturnDate: req.ExpectedReturnDate,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "item issued", toMovementResponse(m))
}

func (h *HTTPHandler) ReturnItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	m, err := h.svc.Lifecycle.ReturnItem(ctx, c.Param("id"), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "item returned", toMovementResponse(m))
}

func (h *HTTPHandler) AdjustStock(c *gin.Context) {
	var req AdjustHTTPRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	m, err := h.svc.Lifecycle.AdjustStock(ctx, c.Param("id"), *req.NewQuantity, actor, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "stock adjusted", toMovementResponse(m))
}

func (h *HTTPHandler) DisposeItem(c *gin.Context) {
	var req DisposeHTTPRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	m, err := h.svc.Lifecycle.DisposeItem(ctx, c.Param("id"), req.Quantity, actor, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "item disposed", toMovementResponse(m))
}

func (h *HTTPHandler) SetStatus(c *gin.Context) {
	var req StatusHTTPRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	status, err := domain.ParseItemStatus(req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	m, err := h.svc.Lifecycle.SetStatus(ctx, c.Param("id"), status, actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "status updated", toMovementResponse(m))
}

func (h *HTTPHandler) ListLedger(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	entries, err := h.svc.Ledger.ListForItem(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "", toTransactionList(entries))
}

func (h *HTTPHandler) VerifyLedger(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	entries, err := h.svc.Ledger.ListForItem(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	brk := domain.VerifyChain(entries)
	h.ok(c, http.StatusOK, "", ChainResponse{Consistent: brk == nil, Entries: len(entries), Break: brk})
}

func (h *HTTPHandler) LedgerStatistics(c *gin.Context) {
	filter := domain.LedgerFilter{InventoryItemID: c.Query("item_id")}

	var err error
	if filter.From, err = parseTimeQuery(c.Query("from")); err != nil {
		h.fail(c, domain.ErrInvalidRange)
		return
	}
	if filter.To, err = parseTimeQuery(c.Query("to")); err != nil {
		h.fail(c, domain.ErrInvalidRange)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	stats, err := h.svc.Ledger.Statistics(ctx, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "", toStatisticsResponse(stats))
}

func (h *HTTPHandler) PreviewSequence(c *gin.Context) {
	in := service.PreviewInput{
		FinancialYear: c.Query("financial_year"),
		AssetCode:     c.Query("asset_code"),
	}
	if loc := c.Query("location_id"); loc != "" {
		in.LocationID = &loc
	}

	ctx, cancel := h.context(c)
	defer cancel()

	uniqueID, serial, err := h.svc.Lifecycle.PreviewNextUniqueID(ctx, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "", gin.H{"unique_id": uniqueID, "serial": serial})
}

func (h *HTTPHandler) CreateLocation(c *gin.Context) {
	var req CreateLocationHTTPRequest
	if !h.bind(c, &req) {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := h.context(c)
	defer cancel()

	loc, err := h.svc.Occupancy.CreateLocation(ctx, service.CreateLocationInput{
		Name:      req.Name,
		Code:      req.Code,
		Capacity:  req.Capacity,
		IsActive:  active,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, "location created", toLocationResponse(loc))
}

func (h *HTTPHandler) SetDefaultLocation(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	loc, err := h.svc.Occupancy.SetDefaultLocation(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "default location set", toLocationResponse(loc))
}

func (h *HTTPHandler) SubmitRequest(c *gin.Context) {
	var req SubmitRequestHTTPRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	r, err := h.svc.Approval.SubmitRequest(ctx, service.SubmitRequestInput{
		ItemID:      req.ItemID,
		RequestedBy: actor,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, "request submitted", toRequestResponse(r))
}

func (h *HTTPHandler) GetRequest(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	r, err := h.svc.Approval.GetRequest(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "", toRequestResponse(r))
}

func (h *HTTPHandler) ApproveRequest(c *gin.Context) {
	var req ApproveHTTPRequest
	if !h.bindOptional(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	out, err := h.svc.Approval.ApproveRequest(ctx, service.ApproveInput{
		RequestID:          c.Param("id"),
		ItemID:             req.ItemID,
		ApprovedBy:         actor,
		ApprovedQuantity:   req.ApprovedQuantity,
		ExpectedReturnDate: req.ExpectedReturnDate,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "request approved", gin.H{
		"request":  toRequestResponse(out.Request),
		"movement": toMovementResponse(out.Movement),
	})
}

func (h *HTTPHandler) RejectRequest(c *gin.Context) {
	var req RejectHTTPRequest
	if !h.bindOptional(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	r, err := h.svc.Approval.RejectRequest(ctx, c.Param("id"), actor, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "request rejected", toRequestResponse(r))
}

func (h *HTTPHandler) SubmitReturnRequest(c *gin.Context) {
	var req SubmitReturnHTTPRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	rr, err := h.svc.Approval.SubmitReturnRequest(ctx, req.ItemID, req.RequestID, actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, "return request submitted", toReturnRequestResponse(rr))
}

func (h *HTTPHandler) ApproveReturnRequest(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	out, err := h.svc.Approval.ApproveReturnRequest(ctx, c.Param("id"), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, "return approved", gin.H{
		"return_request": toReturnRequestResponse(out.ReturnRequest),
		"movement":       toMovementResponse(out.Movement),
	})
}

func (h *HTTPHandler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *HTTPHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
		return false
	}
	return true
}

// bindOptional treats a missing or empty body as zero values.
func (h *HTTPHandler) bindOptional(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
		return false
	}
	return true
}

func (h *HTTPHandler) actor(c *gin.Context) (string, bool) {
	actor := c.GetHeader(actorHeader)
	if actor == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "missing " + actorHeader + " header"})
		return "", false
	}
	return actor, true
}

func (h *HTTPHandler) ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func (h *HTTPHandler) fail(c *gin.Context, err error) {
	kind := classify(err)
	if kind.status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(kind.status, Response{Success: false, Message: kind.message})
}

func parseTimeQuery(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
