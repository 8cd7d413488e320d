package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/gin-gonic/gin"
)

// respondJSON writes value on success and maps err otherwise.
func (handler *httpHandler) respondJSON(ctx *gin.Context, value any, err error) {
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, value)
}

func (handler *httpHandler) handleFinancials(ctx *gin.Context) {
	period, err := periodQuery(ctx)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	financials, err := handler.reports.Financials(ctx.Request.Context(), period)
	handler.respondJSON(ctx, financials, err)
}

func (handler *httpHandler) handleDailySummary(ctx *gin.Context) {
	var day *ledger.Date
	if raw := strings.TrimSpace(ctx.Query("day")); raw != "" {
		parsed, err := ledger.ParseDate(raw)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		day = &parsed
	}
	summary, err := handler.reports.DailySummary(ctx.Request.Context(), day)
	handler.respondJSON(ctx, summary, err)
}

func (handler *httpHandler) handleSingleCarMonthly(ctx *gin.Context) {
	carReport, err := handler.reports.SingleCarMonthly(ctx.Request.Context(), ctx.Query("carId"), ctx.Query("month"))
	handler.respondJSON(ctx, carReport, err)
}

func (handler *httpHandler) handleSingleCarExport(ctx *gin.Context) {
	document, err := handler.reports.ExportSingleCarMonthly(ctx.Request.Context(), ctx.Query("carId"), ctx.Query("month"), ctx.DefaultQuery("format", "xlsx"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.FileName))
	ctx.Data(http.StatusOK, document.ContentType, document.Body)
}

func (handler *httpHandler) handleCarPopularity(ctx *gin.Context) {
	popularity, err := handler.reports.CarPopularity(ctx.Request.Context())
	handler.respondJSON(ctx, popularity, err)
}

func (handler *httpHandler) handleCarProfitability(ctx *gin.Context) {
	profits, err := handler.reports.CarProfitability(ctx.Request.Context())
	handler.respondJSON(ctx, profits, err)
}

func (handler *httpHandler) handleBestCustomers(ctx *gin.Context) {
	customers, err := handler.reports.BestCustomers(ctx.Request.Context())
	handler.respondJSON(ctx, customers, err)
}

func (handler *httpHandler) handleOccupancy(ctx *gin.Context) {
	occupancy, err := handler.reports.Occupancy(ctx.Request.Context(), ctx.Query("month"))
	handler.respondJSON(ctx, occupancy, err)
}

func (handler *httpHandler) handleAverageDuration(ctx *gin.Context) {
	duration, err := handler.reports.AverageDuration(ctx.Request.Context())
	handler.respondJSON(ctx, duration, err)
}

func (handler *httpHandler) handleRevenueByBrand(ctx *gin.Context) {
	brands, err := handler.reports.RevenueByBrand(ctx.Request.Context())
	handler.respondJSON(ctx, brands, err)
}

func (handler *httpHandler) handleRevenue(ctx *gin.Context) {
	period, err := periodQuery(ctx)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	revenue, err := handler.reports.Revenue(ctx.Request.Context(), period)
	handler.respondJSON(ctx, revenue, err)
}

func (handler *httpHandler) handleDashboard(ctx *gin.Context) {
	stats, err := handler.reports.Dashboard(ctx.Request.Context())
	handler.respondJSON(ctx, stats, err)
}

func (handler *httpHandler) handleCalendar(ctx *gin.Context) {
	events, err := handler.reports.CalendarEvents(ctx.Request.Context())
	handler.respondJSON(ctx, events, err)
}
