package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	portssvc "github.com/finvolt/ledger_backend/internal/core/ports/services"
	"github.com/finvolt/ledger_backend/internal/dto"
	"github.com/finvolt/ledger_backend/internal/middleware"
)

// reportingHandler handles HTTP requests for the derived financial reports.
type reportingHandler struct {
	reportingService portssvc.ReportingSvc
}

// newReportingHandler creates a new reportingHandler.
func newReportingHandler(rs portssvc.ReportingSvc) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
	}
}

// registerReportingRoutes registers routes related to reports.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvc) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance/:periodID", h.trialBalance)
		reports.GET("/profit-and-loss/:periodID", h.profitAndLoss)
		reports.GET("/balance-sheet/:periodID", h.balanceSheet)
	}
}

// trialBalance godoc
// @Summary Trial balance report
// @Description Aggregated debit/credit totals and closing balance for every account with posted activity in the period
// @Tags reports
// @Produce  json
// @Param   periodID path string true "Fiscal period ID"
// @Success 200 {object} dto.TrialBalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 500 {object} map[string]string "Failed to generate trial balance"
// @Security BearerAuth
// @Router /reports/trial-balance/{periodID} [get]
func (h *reportingHandler) trialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("periodID")

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	rows, err := h.reportingService.TrialBalance(c.Request.Context(), tenantID, periodID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to generate trial balance")
		return
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, row := range rows {
		totalDebit = totalDebit.Add(row.DebitTotal)
		totalCredit = totalCredit.Add(row.CreditTotal)
	}

	c.JSON(http.StatusOK, dto.TrialBalanceResponse{
		PeriodID:    periodID,
		Rows:        rows,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
	})
}

// profitAndLoss godoc
// @Summary Profit and loss report
// @Description Revenue and expense activity for the period with net profit
// @Tags reports
// @Produce  json
// @Param   periodID path string true "Fiscal period ID"
// @Success 200 {object} domain.PAndLReport
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 500 {object} map[string]string "Failed to generate profit and loss"
// @Security BearerAuth
// @Router /reports/profit-and-loss/{periodID} [get]
func (h *reportingHandler) profitAndLoss(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("periodID")

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	report, err := h.reportingService.ProfitAndLoss(c.Request.Context(), tenantID, periodID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to generate profit and loss")
		return
	}

	c.JSON(http.StatusOK, report)
}

// balanceSheet godoc
// @Summary Balance sheet report
// @Description Asset, liability and equity balances for the period with child balances rolled into ancestors
// @Tags reports
// @Produce  json
// @Param   periodID path string true "Fiscal period ID"
// @Success 200 {object} domain.BalanceSheetReport
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 500 {object} map[string]string "Failed to generate balance sheet"
// @Security BearerAuth
// @Router /reports/balance-sheet/{periodID} [get]
func (h *reportingHandler) balanceSheet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("periodID")

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	report, err := h.reportingService.BalanceSheet(c.Request.Context(), tenantID, periodID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to generate balance sheet")
		return
	}

	c.JSON(http.StatusOK, report)
}
