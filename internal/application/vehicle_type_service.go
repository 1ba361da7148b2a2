package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/parking-pos/internal/persistence"
)

// VehicleTypeRepository captures the persistence operations needed by the
// catalog service.
type VehicleTypeRepository interface {
	CreateVehicleType(ctx context.Context, vt VehicleType) (VehicleType, error)
	GetVehicleType(ctx context.Context, id string) (VehicleType, error)
	UpdateVehicleType(ctx context.Context, vt VehicleType) (VehicleType, error)
	DeleteVehicleType(ctx context.Context, id string) error
	ListVehicleTypes(ctx context.Context) ([]VehicleType, error)
}

// VehicleTypeService manages the rate catalog: the fixed builtin categories
// plus operator defined ones. Rate changes only affect tickets created
// afterwards; open tickets keep their entry snapshot.
type VehicleTypeService struct {
	catalog     VehicleTypeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewVehicleTypeService constructs a catalog service with the provided dependencies.
func NewVehicleTypeService(catalog VehicleTypeRepository, idGenerator func() string, now func() time.Time) *VehicleTypeService {
	return NewVehicleTypeServiceWithLogger(catalog, idGenerator, now, nil)
}

// NewVehicleTypeServiceWithLogger constructs a catalog service with a specified logger.
func NewVehicleTypeServiceWithLogger(catalog VehicleTypeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *VehicleTypeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &VehicleTypeService{catalog: catalog, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *VehicleTypeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "VehicleTypeService", operation, attrs...)
}

// CreateVehicleType validates input and persists a new custom category.
func (s *VehicleTypeService) CreateVehicleType(ctx context.Context, input VehicleTypeInput) (vt VehicleType, err error) {
	if s == nil {
		err = fmt.Errorf("VehicleTypeService is nil")
		return
	}
	if s.catalog == nil {
		err = fmt.Errorf("vehicle type repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateVehicleType", "name", input.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create vehicle type", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("vehicle_type_id", vt.ID).InfoContext(ctx, "vehicle type created")
	}()

	vErr := validateVehicleTypeInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	candidate := VehicleType{
		ID:         s.idGenerator(),
		Name:       strings.TrimSpace(input.Name),
		HourlyRate: input.HourlyRate,
		Builtin:    false,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	vt, err = s.catalog.CreateVehicleType(ctx, candidate)
	if err != nil {
		vt = VehicleType{}
		err = mapVehicleTypeRepoError(err)
	}
	return
}

// UpdateVehicleType changes the display name and hourly rate of a category.
// Builtin categories may be re-priced but keep their identity.
func (s *VehicleTypeService) UpdateVehicleType(ctx context.Context, id string, input VehicleTypeInput) (vt VehicleType, err error) {
	if s == nil {
		err = fmt.Errorf("VehicleTypeService is nil")
		return
	}
	if s.catalog == nil {
		err = fmt.Errorf("vehicle type repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateVehicleType", "vehicle_type_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update vehicle type", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "vehicle type updated")
	}()

	vErr := validateVehicleTypeInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	existing, getErr := s.catalog.GetVehicleType(ctx, id)
	if getErr != nil {
		err = mapVehicleTypeRepoError(getErr)
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(input.Name)
	updated.HourlyRate = input.HourlyRate
	updated.UpdatedAt = s.now()

	vt, err = s.catalog.UpdateVehicleType(ctx, updated)
	if err != nil {
		vt = VehicleType{}
		err = mapVehicleTypeRepoError(err)
	}
	return
}

// DeleteVehicleType removes a custom category. Builtin categories are
// protected; open tickets are unaffected because they carry their own rate
// snapshot.
func (s *VehicleTypeService) DeleteVehicleType(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("VehicleTypeService is nil")
	}
	if s.catalog == nil {
		return fmt.Errorf("vehicle type repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteVehicleType", "vehicle_type_id", id)

	if persistence.BuiltinVehicleType(id) {
		logger.ErrorContext(ctx, "refused to delete builtin vehicle type", "error_kind", ErrorKind(ErrBuiltinVehicleType))
		return ErrBuiltinVehicleType
	}

	if err := s.catalog.DeleteVehicleType(ctx, id); err != nil {
		err = mapVehicleTypeRepoError(err)
		logger.ErrorContext(ctx, "failed to delete vehicle type", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "vehicle type deleted")
	return nil
}

// ListVehicleTypes returns the catalog, builtin categories first.
func (s *VehicleTypeService) ListVehicleTypes(ctx context.Context) ([]VehicleType, error) {
	if s == nil || s.catalog == nil {
		return nil, fmt.Errorf("vehicle type repository not configured")
	}

	types, err := s.catalog.ListVehicleTypes(ctx)
	if err != nil {
		return nil, mapVehicleTypeRepoError(err)
	}
	return types, nil
}

// HourlyRate resolves the current rate for a vehicle type. Implements the
// RateCatalog dependency of the lifecycle service.
func (s *VehicleTypeService) HourlyRate(ctx context.Context, vehicleTypeID string) (int64, error) {
	if s == nil || s.catalog == nil {
		return 0, fmt.Errorf("vehicle type repository not configured")
	}

	vt, err := s.catalog.GetVehicleType(ctx, vehicleTypeID)
	if err != nil {
		return 0, mapVehicleTypeRepoError(err)
	}
	return vt.HourlyRate, nil
}

func validateVehicleTypeInput(input VehicleTypeInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.HourlyRate <= 0 {
		vErr.add("hourly_rate", "hourly rate must be positive")
	}
	return vErr
}

func mapVehicleTypeRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("hourly_rate", "hourly rate must be positive")
		return vErr
	}
	return err
}
