package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"club-recon/internal/service"
	"club-recon/pkg/logger"
	"club-recon/pkg/response"
)

type TransactionHandler struct {
	transactions service.TransactionService
	links        service.LinkService
}

func NewTransactionHandler(transactions service.TransactionService, links service.LinkService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, links: links}
}

type ListTransactionsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type ClassifyTransactionRequest struct {
	CategoryID  *string `json:"category_id"`
	AccountCode *string `json:"account_code"`
	Notes       string  `json:"notes"`
}

// ListTransactions godoc
// @Summary List ledger transactions
// @Description List transactions, optionally restricted to a date range
// @Tags transactions
// @Produce json
// @Param start_date query string false "Start date (RFC3339)"
// @Param end_date query string false "End date (RFC3339)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var req ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	var start, end *time.Time
	if req.StartDate != "" {
		t, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			response.BadRequest(c, "Invalid start_date format", "Use RFC3339 format")
			return
		}
		start = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			response.BadRequest(c, "Invalid end_date format", "Use RFC3339 format")
			return
		}
		end = &t
	}
	if (start == nil) != (end == nil) {
		response.BadRequest(c, "start_date and end_date must be given together", "")
		return
	}

	transactions, err := h.transactions.List(start, end)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list transactions")
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transactions retrieved successfully", transactions)
}

// GetTransaction godoc
// @Summary Get one transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	tx, err := h.transactions.GetByID(c.Param("id"))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Transaction retrieved successfully", tx)
}

// GetChildren godoc
// @Summary List the split children of a parent transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Parent transaction ID"
// @Success 200 {object} response.Response
// @Router /api/v1/transactions/{id}/children [get]
func (h *TransactionHandler) GetChildren(c *gin.Context) {
	children, err := h.transactions.GetChildren(c.Param("id"))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Children retrieved successfully", children)
}

// ClassifyTransaction godoc
// @Summary Assign category, account code and notes
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param body body ClassifyTransactionRequest true "Classification fields"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/transactions/{id} [patch]
func (h *TransactionHandler) ClassifyTransaction(c *gin.Context) {
	var req ClassifyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	tx, err := h.transactions.Classify(c.Param("id"), req.CategoryID, req.AccountCode, req.Notes)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Transaction updated successfully", tx)
}

// CycleStatus godoc
// @Summary Advance the manual reconciliation status
// @Description Cycles unverified -> not found -> reconciled -> unverified. Disabled while the transaction has links.
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/transactions/{id}/status [post]
func (h *TransactionHandler) CycleStatus(c *gin.Context) {
	tx, err := h.links.CycleStatus(c.Param("id"))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Status updated successfully", tx)
}
