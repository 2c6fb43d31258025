package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-recon/internal/domain"
	"club-recon/internal/service"
	"club-recon/pkg/logger"
	"club-recon/pkg/response"
)

type ReconciliationHandler struct {
	imports  service.ImportService
	matching service.MatchingService
	links    service.LinkService
	splits   service.SplitService
}

func NewReconciliationHandler(
	imports service.ImportService,
	matching service.MatchingService,
	links service.LinkService,
	splits service.SplitService,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		imports:  imports,
		matching: matching,
		links:    links,
		splits:   splits,
	}
}

// ImportStatements godoc
// @Summary Import a bank CSV export
// @Description Parses the file and runs each record through the dedup/enrichment resolver
// @Tags reconciliation
// @Accept mpfd
// @Produce json
// @Param file formData file true "Bank CSV export"
// @Param account_number formData string false "Default account number"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/imports [post]
func (h *ReconciliationHandler) ImportStatements(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Missing file upload", err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "Failed to open upload", err.Error())
		return
	}
	defer file.Close()

	summary, err := h.imports.ImportCSV(file, c.PostForm("account_number"))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Import failed")
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Import completed", summary)
}

// ProposeMatches godoc
// @Summary Compute match proposals for unreconciled transactions
// @Description Scores unreconciled transactions against unmatched candidates and returns proposals, split suggestions and cash-payment suggestions
// @Tags reconciliation
// @Produce json
// @Param type query string false "Entity type (EVENT, EXPENSE, REGISTRATION)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/matches [get]
func (h *ReconciliationHandler) ProposeMatches(c *gin.Context) {
	var entityType *domain.EntityType
	if raw := c.Query("type"); raw != "" {
		t := domain.EntityType(raw)
		switch t {
		case domain.EntityEvent, domain.EntityExpense, domain.EntityRegistration:
			entityType = &t
		default:
			response.BadRequest(c, "Unknown entity type", raw)
			return
		}
	}

	output, err := h.matching.Propose(entityType)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Matching failed")
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Match proposals computed", output)
}

type AcceptLinkRequest struct {
	EntityType string `json:"entity_type" binding:"required,oneof=EVENT EXPENSE REGISTRATION"`
	EntityID   string `json:"entity_id" binding:"required"`
	EntityName string `json:"entity_name"`
	Confidence int    `json:"confidence" binding:"min=0,max=100"`
	MatchedBy  string `json:"matched_by" binding:"required,oneof=MANUAL AUTOMATIC"`
}

// AcceptLink godoc
// @Summary Link a transaction to an entity
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param body body AcceptLinkRequest true "Link to accept"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/transactions/{id}/links [post]
func (h *ReconciliationHandler) AcceptLink(c *gin.Context) {
	var req AcceptLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	tx, err := h.links.Accept(c.Param("id"), domain.EntityLink{
		EntityType: domain.EntityType(req.EntityType),
		EntityID:   req.EntityID,
		EntityName: req.EntityName,
		Confidence: req.Confidence,
		MatchedBy:  domain.MatchOrigin(req.MatchedBy),
	})
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Link accepted", tx)
}

// RemoveLink godoc
// @Summary Unlink a transaction from an entity
// @Description Removes the link and returns the side-effect instruction the caller must apply, if any (e.g. reverting an expense claim to approved)
// @Tags reconciliation
// @Produce json
// @Param id path string true "Transaction ID"
// @Param entityId path string true "Entity ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/transactions/{id}/links/{entityId} [delete]
func (h *ReconciliationHandler) RemoveLink(c *gin.Context) {
	tx, effect, err := h.links.Remove(c.Param("id"), c.Param("entityId"))
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Link removed", gin.H{
		"transaction": tx,
		"side_effect": effect,
	})
}

type SplitLineRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      string  `json:"amount" binding:"required"`
	CategoryID  *string `json:"category_id"`
	AccountCode *string `json:"account_code"`
	Notes       string  `json:"notes"`
}

type CommitSplitRequest struct {
	Lines   []SplitLineRequest `json:"lines"`
	Confirm bool               `json:"confirm"`
}

// CommitSplit godoc
// @Summary Split a transaction into child transactions
// @Description Commits split lines; fewer than two lines reverts the parent to standalone. Destructive merges need confirm=true.
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param body body CommitSplitRequest true "Split lines"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 428 {object} response.Response
// @Router /api/v1/transactions/{id}/split [post]
func (h *ReconciliationHandler) CommitSplit(c *gin.Context) {
	var req CommitSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	lines, err := toSplitLines(req.Lines)
	if err != nil {
		response.BadRequest(c, "Invalid line amount", err.Error())
		return
	}

	tx, err := h.splits.Commit(c.Param("id"), lines, req.Confirm)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Split committed", tx)
}

// DeleteChild godoc
// @Summary Delete one split child
// @Description Removing a child that would leave fewer than two reverts the parent to standalone; destructive cascades need confirm=true.
// @Tags reconciliation
// @Produce json
// @Param id path string true "Child transaction ID"
// @Param confirm query bool false "Confirm destructive merge"
// @Success 200 {object} response.Response
// @Failure 428 {object} response.Response
// @Router /api/v1/transactions/{id}/split [delete]
func (h *ReconciliationHandler) DeleteChild(c *gin.Context) {
	confirm := c.Query("confirm") == "true"

	parent, err := h.splits.DeleteChild(c.Param("id"), confirm)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Child deleted", parent)
}
