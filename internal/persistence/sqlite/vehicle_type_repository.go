package sqlite

import (
	"context"
	"fmt"

	"github.com/example/parking-pos/internal/persistence"
)

// VehicleTypeRepository implements persistence.VehicleTypeRepository using
// SQLite.
type VehicleTypeRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewVehicleTypeRepository creates a new SQLite vehicle type repository.
func NewVehicleTypeRepository(pool *ConnectionPool) *VehicleTypeRepository {
	return &VehicleTypeRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const vehicleTypeColumns = `id, name, hourly_rate, builtin, created_at, updated_at`

// CreateVehicleType inserts a new catalog entry.
func (r *VehicleTypeRepository) CreateVehicleType(ctx context.Context, vt persistence.VehicleType) error {
	if vt.ID == "" || vt.Name == "" || vt.HourlyRate <= 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO vehicle_types (` + vehicleTypeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		vt.ID,
		vt.Name,
		vt.HourlyRate,
		boolToInt(vt.Builtin),
		formatTime(vt.CreatedAt),
		formatTime(vt.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetVehicleType retrieves a catalog entry by id.
func (r *VehicleTypeRepository) GetVehicleType(ctx context.Context, id string) (persistence.VehicleType, error) {
	if id == "" {
		return persistence.VehicleType{}, persistence.ErrNotFound
	}

	query := `SELECT ` + vehicleTypeColumns + ` FROM vehicle_types WHERE id = ?`
	vt, err := scanVehicleType(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.VehicleType{}, r.mapper.MapError(err)
	}
	return vt, nil
}

// UpdateVehicleType updates the name and hourly rate of an existing entry.
// The builtin flag is immutable.
func (r *VehicleTypeRepository) UpdateVehicleType(ctx context.Context, vt persistence.VehicleType) error {
	if vt.ID == "" || vt.Name == "" || vt.HourlyRate <= 0 {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE vehicle_types
		SET name = ?, hourly_rate = ?, updated_at = ?
		WHERE id = ?
	`,
		vt.Name,
		vt.HourlyRate,
		formatTime(vt.UpdatedAt),
		vt.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteVehicleType removes a custom catalog entry. Builtin rows are never
// deleted at this layer.
func (r *VehicleTypeRepository) DeleteVehicleType(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM vehicle_types WHERE id = ? AND builtin = 0`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListVehicleTypes returns the whole catalog, builtin entries first.
func (r *VehicleTypeRepository) ListVehicleTypes(ctx context.Context) ([]persistence.VehicleType, error) {
	query := `SELECT ` + vehicleTypeColumns + ` FROM vehicle_types ORDER BY builtin DESC, name, id`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var types []persistence.VehicleType
	for rows.Next() {
		vt, err := scanVehicleType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, vt)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return types, nil
}

func scanVehicleType(row rowScanner) (persistence.VehicleType, error) {
	var (
		vt           persistence.VehicleType
		builtin      int
		createdAtStr string
		updatedAtStr string
	)

	err := row.Scan(&vt.ID, &vt.Name, &vt.HourlyRate, &builtin, &createdAtStr, &updatedAtStr)
	if err != nil {
		return persistence.VehicleType{}, err
	}

	vt.Builtin = builtin != 0
	if vt.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.VehicleType{}, err
	}
	if vt.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.VehicleType{}, err
	}

	return vt, nil
}
