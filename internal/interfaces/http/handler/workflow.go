package handler

import (
	"github.com/goldshop/backend/internal/application/workflow"
	"github.com/goldshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WorkflowHandler exposes the write side: deposits, buybacks, fulfillments,
// manufacturer orders, swaps and amendments. Every endpoint is a thin
// binding layer over one workflow operation.
type WorkflowHandler struct {
	BaseHandler
	deposits      *workflow.DepositService
	manufacturers *workflow.ManufacturerService
	swaps         *workflow.SwapService
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(deposits *workflow.DepositService, manufacturers *workflow.ManufacturerService, swaps *workflow.SwapService) *WorkflowHandler {
	return &WorkflowHandler{
		deposits:      deposits,
		manufacturers: manufacturers,
		swaps:         swaps,
	}
}

// staffID prefers the authenticated identity over the request body.
func staffID(c *gin.Context, fromBody uuid.UUID) uuid.UUID {
	if id := middleware.GetStaffID(c); id != uuid.Nil {
		return id
	}
	return fromBody
}

// CreateDeposit handles POST /deposits
func (h *WorkflowHandler) CreateDeposit(c *gin.Context) {
	var req workflow.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.StaffID = staffID(c, req.StaffID)

	resp, err := h.deposits.CreateDeposit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Buyback handles POST /deposits/:id/buyback
func (h *WorkflowHandler) Buyback(c *gin.Context) {
	depositID, ok := h.uriID(c)
	if !ok {
		return
	}
	var req workflow.BuybackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.DepositID = depositID
	req.StaffID = staffID(c, req.StaffID)

	resp, err := h.deposits.Buyback(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Fulfill handles POST /deposits/:id/fulfill
func (h *WorkflowHandler) Fulfill(c *gin.Context) {
	depositID, ok := h.uriID(c)
	if !ok {
		return
	}
	var req workflow.FulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.DepositID = depositID
	req.StaffID = staffID(c, req.StaffID)

	resp, err := h.deposits.Fulfill(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// CreateOrder handles POST /manufacturer-orders
func (h *WorkflowHandler) CreateOrder(c *gin.Context) {
	var req workflow.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.StaffID = staffID(c, req.StaffID)

	resp, err := h.manufacturers.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Receive handles POST /manufacturer-orders/:id/receive
func (h *WorkflowHandler) Receive(c *gin.Context) {
	orderID, ok := h.uriID(c)
	if !ok {
		return
	}
	var req workflow.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.OrderID = orderID
	req.StaffID = staffID(c, req.StaffID)

	resp, err := h.manufacturers.Receive(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// SellBack handles POST /manufacturer-orders/:id/sell-back
func (h *WorkflowHandler) SellBack(c *gin.Context) {
	orderID, ok := h.uriID(c)
	if !ok {
		return
	}
	var req workflow.SellBackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.OrderID = orderID
	req.StaffID = staffID(c, req.StaffID)

	resp, err := h.manufacturers.SellBack(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Swap handles POST /swaps
func (h *WorkflowHandler) Swap(c *gin.Context) {
	var req workflow.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.StaffID = staffID(c, req.StaffID)

	resp, err := h.swaps.Swap(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Amend handles POST /transactions/:id/amend. Admin only; the router gates
// it behind the admin middleware.
func (h *WorkflowHandler) Amend(c *gin.Context) {
	txID, ok := h.uriID(c)
	if !ok {
		return
	}
	var req workflow.AmendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.TransactionID = txID

	resp, err := h.deposits.Amend(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// uriID binds and parses the :id path parameter.
func (h *WorkflowHandler) uriID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid id: must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
