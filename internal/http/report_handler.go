package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/parking-pos/internal/application"
)

type reportService interface {
	DailyReport(ctx context.Context, day string) (application.DailyReport, error)
	ReportRange(ctx context.Context, fromDay, toDay string) ([]application.DailyReport, error)
}

type ReportHandler struct {
	service   reportService
	responder responder
	logger    *slog.Logger
}

func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	base := defaultLogger(logger)
	return &ReportHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReportHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReportHandler", operation, attrs...)
}

func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request, day string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Daily", "day", day)

	report, err := h.service.DailyReport(r.Context(), day)
	if err != nil {
		logger.ErrorContext(r.Context(), "daily report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reportResponse{Report: toReportDTO(report)})
}

func (h *ReportHandler) Range(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	fromDay := query.Get("from")
	toDay := query.Get("to")
	logger := h.log(r.Context(), "Range", "from", fromDay, "to", toDay)

	reports, err := h.service.ReportRange(r.Context(), fromDay, toDay)
	if err != nil {
		logger.ErrorContext(r.Context(), "report range failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(reports)).InfoContext(r.Context(), "reports listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReportsResponse{Reports: toReportDTOs(reports)})
}

type reportResponse struct {
	Report reportDTO `json:"report"`
}

type listReportsResponse struct {
	Reports []reportDTO `json:"reports"`
}

type tallyDTO struct {
	Count  int64 `json:"count"`
	Amount int64 `json:"amount"`
}

type reportDTO struct {
	Day         string   `json:"day"`
	TicketCount int64    `json:"ticket_count"`
	TotalAmount int64    `json:"total_amount"`
	Car         tallyDTO `json:"car"`
	Motorcycle  tallyDTO `json:"motorcycle"`
	Truck       tallyDTO `json:"truck"`
}

func toReportDTO(report application.DailyReport) reportDTO {
	return reportDTO{
		Day:         report.Day,
		TicketCount: report.TicketCount,
		TotalAmount: report.TotalAmount,
		Car:         tallyDTO{Count: report.Car.Count, Amount: report.Car.Amount},
		Motorcycle:  tallyDTO{Count: report.Motorcycle.Count, Amount: report.Motorcycle.Amount},
		Truck:       tallyDTO{Count: report.Truck.Count, Amount: report.Truck.Amount},
	}
}

func toReportDTOs(reports []application.DailyReport) []reportDTO {
	if len(reports) == 0 {
		return nil
	}
	out := make([]reportDTO, 0, len(reports))
	for _, report := range reports {
		out = append(out, toReportDTO(report))
	}
	return out
}
