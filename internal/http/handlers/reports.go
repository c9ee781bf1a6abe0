package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// @Summary Interactions per agent
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "RFC3339 or YYYY-MM-DD"
// @Param to query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {array} models.AgentInteractionCount
// @Router /api/reports/agent-interactions [get]
func (h *Handler) AgentInteractionsReport(c *gin.Context) {
	r, ok := rangeParams(c)
	if !ok {
		return
	}
	out, err := h.Reports.AgentInteractions(c.Request.Context(), r)
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to build report")
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Average ticket processing time per agent
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "RFC3339 or YYYY-MM-DD"
// @Param to query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {array} models.AgentProcessingTime
// @Router /api/reports/processing-times [get]
func (h *Handler) ProcessingTimesReport(c *gin.Context) {
	r, ok := rangeParams(c)
	if !ok {
		return
	}
	out, err := h.Reports.ProcessingTimes(c.Request.Context(), r)
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to build report")
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Export agent reports
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param from query string false "RFC3339 or YYYY-MM-DD"
// @Param to query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {file} file
// @Router /api/reports/export.xlsx [get]
func (h *Handler) ExportReports(c *gin.Context) {
	r, ok := rangeParams(c)
	if !ok {
		return
	}
	data, err := h.Reports.ExportXLSX(c.Request.Context(), r)
	if err != nil {
		h.writeServiceError(c, err, "EXPORT_FAILED", "Failed to export report")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="agent-report.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
