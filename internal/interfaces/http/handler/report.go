package handler

import (
	"time"

	"github.com/goldshop/backend/internal/application/report"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/goldshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportHandler exposes the read side: financial reports, ledger queries,
// product listings, the pending-manufacturer worklist and the status audit.
type ReportHandler struct {
	BaseHandler
	reports *report.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// transactionListRequest carries the ledger query parameters.
type transactionListRequest struct {
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Type       string     `form:"type"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	StoreID    string     `form:"store_id" binding:"omitempty,uuid"`
	Limit      int        `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset     int        `form:"offset" binding:"omitempty,min=0"`
}

// FinancialStats handles GET /reports/financial
func (h *ReportHandler) FinancialStats(c *gin.Context) {
	var filter report.PeriodFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	stats, err := h.reports.FinancialStats(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListTransactions handles GET /transactions
func (h *ReportHandler) ListTransactions(c *gin.Context) {
	var req transactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := ledger.QueryFilter{
		From:   req.From,
		To:     req.To,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.Type != "" {
		txType := ledger.TransactionType(req.Type)
		if !txType.IsValid() {
			h.BadRequest(c, "Unknown transaction type: "+req.Type)
			return
		}
		filter.Type = &txType
	}
	if req.CustomerID != "" {
		id, _ := uuid.Parse(req.CustomerID)
		filter.CustomerID = &id
	}
	if req.StoreID != "" {
		id, _ := uuid.Parse(req.StoreID)
		filter.StoreID = &id
	}

	txs, err := h.reports.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txs)
}

// GetTransaction handles GET /transactions/:id
func (h *ReportHandler) GetTransaction(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	tx, err := h.reports.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// productListRequest adds the unit filters on top of the common paging
// parameters.
type productListRequest struct {
	dto.ListRequest
	Status      string `form:"status" binding:"omitempty,productstatus"`
	StoreID     string `form:"store_id" binding:"omitempty,uuid"`
	ProductType string `form:"product_type"`
}

// ListProducts handles GET /products
func (h *ReportHandler) ListProducts(c *gin.Context) {
	var req productListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}
	if req.StoreID != "" {
		filter.Filters["store_id"] = req.StoreID
	}
	if req.ProductType != "" {
		filter.Filters["product_type"] = req.ProductType
	}

	page, err := h.reports.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ProductHistory handles GET /products/:id/history
func (h *ReportHandler) ProductHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	history, err := h.reports.ProductHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// PendingManufacturer handles GET /products/pending-manufacturer
func (h *ReportHandler) PendingManufacturer(c *gin.Context) {
	list, err := h.reports.PendingManufacturer(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// VerifyProduct handles GET /products/:id/verify
func (h *ReportHandler) VerifyProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	prov, err := h.reports.VerifyProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prov)
}

// VerifyInventory handles GET /reports/inventory-audit
func (h *ReportHandler) VerifyInventory(c *gin.Context) {
	audit, err := h.reports.VerifyInventory(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, audit)
}

func (h *ReportHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid id: must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
