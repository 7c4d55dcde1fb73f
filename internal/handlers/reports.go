package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/iqac-smarttrack/apiserver/internal/services"
	"github.com/sirupsen/logrus"
)

// ReportHandler serves analytics.
type ReportHandler struct {
	reportService *services.ReportService
	logger        logrus.FieldLogger
}

func NewReportHandler(reportService *services.ReportService, logger logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{reportService: reportService, logger: logger}
}

// ReportRouter registers report routes on the given router.
func ReportRouter(r chi.Router, handler *ReportHandler) {
	r.Get("/summary", handler.Summary)
	r.Get("/dashboard", handler.Dashboard)
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.Summary(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "build report", "report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reportService.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "build dashboard", "report")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
