package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/parking-pos/internal/application"
)

type ticketService interface {
	ProcessEntry(ctx context.Context, input application.EntryInput) (application.Ticket, error)
	ProcessExit(ctx context.Context, ticketID string) (application.Ticket, error)
	CancelTicket(ctx context.Context, ticketID string) (application.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (application.Ticket, error)
	FindActiveTicketByBarcode(ctx context.Context, barcode string) (application.Ticket, error)
	ListTickets(ctx context.Context, status string) ([]application.Ticket, error)
	CleanupDuplicateActiveTickets(ctx context.Context) (int, error)
	PurgeClosedTicketsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type TicketHandler struct {
	service   ticketService
	responder responder
	logger    *slog.Logger
}

func NewTicketHandler(service ticketService, logger *slog.Logger) *TicketHandler {
	base := defaultLogger(logger)
	return &TicketHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TicketHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TicketHandler", operation, attrs...)
}

func (h *TicketHandler) Entry(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Entry", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode entry request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Entry", "plate", req.Plate, "vehicle_type_id", req.VehicleTypeID)

	ticket, err := h.service.ProcessEntry(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "entry failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("ticket_id", ticket.ID).InfoContext(r.Context(), "ticket issued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, ticketResponse{Ticket: toTicketDTO(ticket)})
}

func (h *TicketHandler) Exit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ticketID, ok := TicketIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ticketID) == "" {
		h.log(r.Context(), "Exit", "error_kind", "bad_request").ErrorContext(r.Context(), "missing ticket id for exit")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTicketID)
		return
	}

	logger := h.log(r.Context(), "Exit", "ticket_id", ticketID)

	ticket, err := h.service.ProcessExit(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, application.ErrTicketAlreadyCompleted) {
			// Replayed exit scan. The stored ticket rides along so the till can
			// reprint the original receipt instead of charging twice.
			logger.WarnContext(r.Context(), "exit replayed for completed ticket")
			h.responder.writeJSON(r.Context(), w, http.StatusConflict, exitConflictResponse{
				ErrorCode: "TICKET_ALREADY_COMPLETED",
				Message:   "El tiquete ya fue cobrado.",
				Ticket:    toTicketDTO(ticket),
			})
			return
		}
		logger.ErrorContext(r.Context(), "exit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("plate", ticket.Plate).InfoContext(r.Context(), "ticket completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ticketResponse{Ticket: toTicketDTO(ticket)})
}

func (h *TicketHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ticketID, ok := TicketIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ticketID) == "" {
		h.log(r.Context(), "Cancel", "error_kind", "bad_request").ErrorContext(r.Context(), "missing ticket id for cancel")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTicketID)
		return
	}

	logger := h.log(r.Context(), "Cancel", "ticket_id", ticketID)

	ticket, err := h.service.CancelTicket(r.Context(), ticketID)
	if err != nil {
		logger.ErrorContext(r.Context(), "cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("plate", ticket.Plate).InfoContext(r.Context(), "ticket cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ticketResponse{Ticket: toTicketDTO(ticket)})
}

func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ticketID, ok := TicketIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ticketID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing ticket id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTicketID)
		return
	}

	ticket, err := h.service.GetTicket(r.Context(), ticketID)
	if err != nil {
		h.log(r.Context(), "Get", "ticket_id", ticketID).ErrorContext(r.Context(), "ticket lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, ticketResponse{Ticket: toTicketDTO(ticket)})
}

func (h *TicketHandler) FindByBarcode(w http.ResponseWriter, r *http.Request, barcode string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if strings.TrimSpace(barcode) == "" {
		h.log(r.Context(), "FindByBarcode", "error_kind", "bad_request").ErrorContext(r.Context(), "missing barcode")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBarcode)
		return
	}

	ticket, err := h.service.FindActiveTicketByBarcode(r.Context(), barcode)
	if err != nil {
		h.log(r.Context(), "FindByBarcode", "barcode", barcode).ErrorContext(r.Context(), "barcode lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, ticketResponse{Ticket: toTicketDTO(ticket)})
}

func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	status := r.URL.Query().Get("status")
	logger := h.log(r.Context(), "List", "status", status)

	tickets, err := h.service.ListTickets(r.Context(), status)
	if err != nil {
		logger.ErrorContext(r.Context(), "ticket list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(tickets)).InfoContext(r.Context(), "tickets listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTicketsResponse{Tickets: toTicketDTOs(tickets)})
}

func (h *TicketHandler) CleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "CleanupDuplicates")

	repaired, err := h.service.CleanupDuplicateActiveTickets(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "duplicate cleanup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("repaired", repaired).InfoContext(r.Context(), "duplicate cleanup finished")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, cleanupResponse{Repaired: repaired})
}

func (h *TicketHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	raw := r.URL.Query().Get("completed_before")
	cutoff, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.log(r.Context(), "Purge", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid purge cutoff", "completed_before", raw, "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCutoff)
		return
	}

	logger := h.log(r.Context(), "Purge", "cutoff", cutoff)

	removed, err := h.service.PurgeClosedTicketsBefore(r.Context(), cutoff)
	if err != nil {
		logger.ErrorContext(r.Context(), "purge failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("removed", removed).InfoContext(r.Context(), "old tickets purged")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, purgeResponse{Removed: removed})
}

type entryRequest struct {
	Plate         string `json:"plate"`
	VehicleTypeID string `json:"vehicle_type_id"`
	HourlyRate    int64  `json:"hourly_rate"`
}

func (r entryRequest) toInput() application.EntryInput {
	return application.EntryInput{
		Plate:         strings.TrimSpace(r.Plate),
		VehicleTypeID: strings.TrimSpace(r.VehicleTypeID),
		HourlyRate:    r.HourlyRate,
	}
}

type ticketResponse struct {
	Ticket ticketDTO `json:"ticket"`
}

type listTicketsResponse struct {
	Tickets []ticketDTO `json:"tickets"`
}

type exitConflictResponse struct {
	ErrorCode string    `json:"error_code"`
	Message   string    `json:"message"`
	Ticket    ticketDTO `json:"ticket"`
}

type cleanupResponse struct {
	Repaired int `json:"repaired"`
}

type purgeResponse struct {
	Removed int64 `json:"removed"`
}

type ticketDTO struct {
	ID            string  `json:"id"`
	Plate         string  `json:"plate"`
	VehicleTypeID string  `json:"vehicle_type_id"`
	Barcode       string  `json:"barcode"`
	EntryTime     string  `json:"entry_time"`
	ExitTime      *string `json:"exit_time,omitempty"`
	BasePrice     int64   `json:"base_price"`
	TotalMinutes  *int    `json:"total_minutes,omitempty"`
	TotalAmount   *int64  `json:"total_amount,omitempty"`
	Status        string  `json:"status"`
	IsPaid        bool    `json:"is_paid"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toTicketDTO(ticket application.Ticket) ticketDTO {
	var exitTime *string
	if ticket.ExitTime != nil {
		formatted := ticket.ExitTime.UTC().Format(time.RFC3339Nano)
		exitTime = &formatted
	}
	return ticketDTO{
		ID:            ticket.ID,
		Plate:         ticket.Plate,
		VehicleTypeID: ticket.VehicleTypeID,
		Barcode:       ticket.Barcode,
		EntryTime:     ticket.EntryTime.UTC().Format(time.RFC3339Nano),
		ExitTime:      exitTime,
		BasePrice:     ticket.BasePrice,
		TotalMinutes:  ticket.TotalMinutes,
		TotalAmount:   ticket.TotalAmount,
		Status:        string(ticket.Status),
		IsPaid:        ticket.IsPaid,
		CreatedAt:     ticket.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     ticket.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toTicketDTOs(tickets []application.Ticket) []ticketDTO {
	if len(tickets) == 0 {
		return nil
	}
	out := make([]ticketDTO, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, toTicketDTO(ticket))
	}
	return out
}
