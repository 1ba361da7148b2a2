package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/parking-pos/internal/application"
)

type vehicleTypeService interface {
	CreateVehicleType(ctx context.Context, input application.VehicleTypeInput) (application.VehicleType, error)
	UpdateVehicleType(ctx context.Context, id string, input application.VehicleTypeInput) (application.VehicleType, error)
	DeleteVehicleType(ctx context.Context, id string) error
	ListVehicleTypes(ctx context.Context) ([]application.VehicleType, error)
}

type VehicleTypeHandler struct {
	service   vehicleTypeService
	responder responder
	logger    *slog.Logger
}

func NewVehicleTypeHandler(service vehicleTypeService, logger *slog.Logger) *VehicleTypeHandler {
	base := defaultLogger(logger)
	return &VehicleTypeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *VehicleTypeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "VehicleTypeHandler", operation, attrs...)
}

func (h *VehicleTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req vehicleTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode vehicle type request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "name", req.Name)

	vt, err := h.service.CreateVehicleType(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "vehicle type creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("vehicle_type_id", vt.ID).InfoContext(r.Context(), "vehicle type created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, vehicleTypeResponse{VehicleType: toVehicleTypeDTO(vt)})
}

func (h *VehicleTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := VehicleTypeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing vehicle type id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVehicleTypeID)
		return
	}

	var req vehicleTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "vehicle_type_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode vehicle type update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "vehicle_type_id", id)

	vt, err := h.service.UpdateVehicleType(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "vehicle type update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "vehicle type updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, vehicleTypeResponse{VehicleType: toVehicleTypeDTO(vt)})
}

func (h *VehicleTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := VehicleTypeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing vehicle type id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVehicleTypeID)
		return
	}

	logger := h.log(r.Context(), "Delete", "vehicle_type_id", id)
	if err := h.service.DeleteVehicleType(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "vehicle type delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "vehicle type deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *VehicleTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")

	types, err := h.service.ListVehicleTypes(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "vehicle type list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(types)).InfoContext(r.Context(), "vehicle types listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listVehicleTypesResponse{VehicleTypes: toVehicleTypeDTOs(types)})
}

type vehicleTypeRequest struct {
	Name       string `json:"name"`
	HourlyRate int64  `json:"hourly_rate"`
}

func (r vehicleTypeRequest) toInput() application.VehicleTypeInput {
	return application.VehicleTypeInput{
		Name:       strings.TrimSpace(r.Name),
		HourlyRate: r.HourlyRate,
	}
}

type vehicleTypeResponse struct {
	VehicleType vehicleTypeDTO `json:"vehicle_type"`
}

type listVehicleTypesResponse struct {
	VehicleTypes []vehicleTypeDTO `json:"vehicle_types"`
}

type vehicleTypeDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HourlyRate int64  `json:"hourly_rate"`
	Builtin    bool   `json:"builtin"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toVehicleTypeDTO(vt application.VehicleType) vehicleTypeDTO {
	return vehicleTypeDTO{
		ID:         vt.ID,
		Name:       vt.Name,
		HourlyRate: vt.HourlyRate,
		Builtin:    vt.Builtin,
		CreatedAt:  vt.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  vt.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toVehicleTypeDTOs(types []application.VehicleType) []vehicleTypeDTO {
	if len(types) == 0 {
		return nil
	}
	out := make([]vehicleTypeDTO, 0, len(types))
	for _, vt := range types {
		out = append(out, toVehicleTypeDTO(vt))
	}
	return out
}
