package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/parking-pos/internal/application"
)

var (
	errBadRequestBody       = errors.New("El formato de la solicitud no es válido.")
	errInvalidTicketID      = errors.New("El ID del tiquete no es válido.")
	errInvalidVehicleTypeID = errors.New("El ID del tipo de vehículo no es válido.")
	errInvalidBarcode       = errors.New("El código de barras no es válido.")
	errInvalidCutoff        = errors.New("La fecha límite debe tener formato RFC 3339.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrDuplicateActiveTicket):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DUPLICATE_ACTIVE_TICKET",
			Message:   "La placa ya tiene un tiquete activo.",
		})
	case errors.Is(err, application.ErrTicketAlreadyCompleted):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "TICKET_ALREADY_COMPLETED",
			Message:   "El tiquete ya fue cobrado.",
		})
	case errors.Is(err, application.ErrTicketNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "El tiquete solicitado no existe."})
	case errors.Is(err, application.ErrBuiltinVehicleType):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "BUILTIN_VEHICLE_TYPE",
			Message:   "Los tipos de vehículo del sistema no se pueden eliminar.",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: localizedStatusMessage(http.StatusConflict)})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			details := localizeValidationErrors(vErr)
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: localizedStatusMessage(http.StatusUnprocessableEntity),
				Errors:  details,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "La solicitud no es válida."
	case http.StatusNotFound:
		return "El recurso solicitado no existe."
	case http.StatusConflict:
		return "La solicitud entra en conflicto con el estado actual del recurso."
	case http.StatusUnprocessableEntity:
		return "Los datos ingresados contienen errores."
	default:
		return "Ocurrió un error interno en el servidor."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "plate is required":
		return "La placa es obligatoria."
	case "vehicle type is required":
		return "El tipo de vehículo es obligatorio."
	case "unknown vehicle type":
		return "El tipo de vehículo indicado no existe."
	case "hourly rate is required":
		return "La tarifa por hora es obligatoria."
	case "hourly rate must be positive":
		return "La tarifa por hora debe ser un valor positivo."
	case "name is required":
		return "El nombre es obligatorio."
	case "status must be one of active, completed, cancelled":
		return "El estado debe ser active, completed o cancelled."
	case "day must be formatted as YYYY-MM-DD":
		return "La fecha debe tener formato YYYY-MM-DD."
	case "range end must not precede range start":
		return "La fecha final no puede ser anterior a la fecha inicial."
	case "ticket record rejected by storage constraints":
		return "El registro del tiquete fue rechazado por el almacenamiento."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
