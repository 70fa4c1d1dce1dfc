package handler

import (
	"fmt"
	"net/http"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/infra"
	"github.com/jusondac/factory-app/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// Get godoc
// @Summary      Batch pipeline report grouped by preparation date
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        start_date query string false "Window start YYYY-MM-DD, inclusive"
// @Param        end_date   query string false "Window end YYYY-MM-DD, inclusive"
// @Success      200 {object} dto.ReportResponse
// @Router       /v1/reports [get]
func (h *ReportsHandler) Get(c *gin.Context) {
	filter := dto.ReportFilter{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	resp, err := h.svc.Build(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportPDF godoc
// @Summary      Download the report as a PDF
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        start_date query string false "Window start YYYY-MM-DD, inclusive"
// @Param        end_date   query string false "Window end YYYY-MM-DD, inclusive"
// @Success      200 {file} binary
// @Router       /v1/reports/pdf [get]
func (h *ReportsHandler) ExportPDF(c *gin.Context) {
	filter := dto.ReportFilter{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	report, err := h.svc.Build(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	pdf, err := infra.GenerateReportPDF(report)
	if err != nil {
		respondErr(c, err)
		return
	}
	name := "batch_report"
	if filter.StartDate != "" || filter.EndDate != "" {
		name = fmt.Sprintf("batch_report_%s_%s", filter.StartDate, filter.EndDate)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", name))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
