package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/parking-pos/internal/persistence"
)

// TicketRepository implements persistence.TicketRepository using SQLite.
type TicketRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTicketRepository creates a new SQLite ticket repository.
func NewTicketRepository(pool *ConnectionPool) *TicketRepository {
	return &TicketRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const ticketColumns = `id, plate, vehicle_type_id, barcode, entry_time, exit_time,
	base_price, total_minutes, total_amount, status, is_paid, created_at, updated_at`

// CreateTicket inserts a new ticket row.
func (r *TicketRepository) CreateTicket(ctx context.Context, ticket persistence.ParkingTicket) error {
	if ticket.ID == "" || ticket.Plate == "" {
		return persistence.ErrConstraintViolation
	}
	if !ticket.Status.Valid() {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		ticket.ID,
		ticket.Plate,
		ticket.VehicleTypeID,
		ticket.Barcode,
		formatTime(ticket.EntryTime),
		formatNullableTime(ticket.ExitTime),
		ticket.BasePrice,
		nullableInt(ticket.TotalMinutes),
		nullableInt64(ticket.TotalAmount),
		string(ticket.Status),
		boolToInt(ticket.IsPaid),
		formatTime(ticket.CreatedAt),
		formatTime(ticket.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetTicket retrieves a ticket by id.
func (r *TicketRepository) GetTicket(ctx context.Context, id string) (persistence.ParkingTicket, error) {
	if id == "" {
		return persistence.ParkingTicket{}, persistence.ErrNotFound
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	ticket, err := scanTicket(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.ParkingTicket{}, r.mapper.MapError(err)
	}
	return ticket, nil
}

// FindActiveTicketByBarcode retrieves the active ticket carrying the scanned
// barcode. Completed tickets keep their barcode for receipts, so the lookup
// is restricted to the active state.
func (r *TicketRepository) FindActiveTicketByBarcode(ctx context.Context, barcode string) (persistence.ParkingTicket, error) {
	if barcode == "" {
		return persistence.ParkingTicket{}, persistence.ErrNotFound
	}

	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE barcode = ? AND status = ?
		ORDER BY entry_time DESC
		LIMIT 1
	`
	ticket, err := scanTicket(r.helper.QueryRow(ctx, query, barcode, string(persistence.TicketStatusActive)))
	if err != nil {
		return persistence.ParkingTicket{}, r.mapper.MapError(err)
	}
	return ticket, nil
}

// ListTickets returns every ticket ordered by entry time, newest first.
func (r *TicketRepository) ListTickets(ctx context.Context) ([]persistence.ParkingTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY entry_time DESC, id`
	return r.queryTickets(ctx, query)
}

// ListTicketsByStatus returns tickets in the given state, newest first.
func (r *TicketRepository) ListTicketsByStatus(ctx context.Context, status persistence.TicketStatus) ([]persistence.ParkingTicket, error) {
	if !status.Valid() {
		return nil, persistence.ErrConstraintViolation
	}

	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE status = ?
		ORDER BY entry_time DESC, id
	`
	return r.queryTickets(ctx, query, string(status))
}

// CompleteTicket persists the active→completed transition and the matching
// daily aggregate increment in one transaction. The ticket row is only
// touched while still active; a ticket already in a terminal state reports
// persistence.ErrNotFound and leaves the aggregate alone.
func (r *TicketRepository) CompleteTicket(ctx context.Context, ticket persistence.ParkingTicket, day string) error {
	if ticket.ID == "" || day == "" {
		return persistence.ErrConstraintViolation
	}
	if ticket.ExitTime == nil || ticket.TotalMinutes == nil || ticket.TotalAmount == nil {
		return persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE tickets
			SET exit_time = ?, total_minutes = ?, total_amount = ?, status = ?, is_paid = 1, updated_at = ?
			WHERE id = ? AND status = ?
		`,
			formatTime(*ticket.ExitTime),
			*ticket.TotalMinutes,
			*ticket.TotalAmount,
			string(persistence.TicketStatusCompleted),
			formatTime(ticket.UpdatedAt),
			ticket.ID,
			string(persistence.TicketStatusActive),
		)
		if err != nil {
			return err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		return applyAggregateIncrement(ctx, tx, day, ticket.VehicleTypeID, *ticket.TotalAmount)
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.ErrNotFound
		}
		return r.mapper.MapError(err)
	}

	return nil
}

// CancelTicket persists the active→cancelled transition.
func (r *TicketRepository) CancelTicket(ctx context.Context, ticket persistence.ParkingTicket) error {
	if ticket.ID == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE tickets
		SET exit_time = ?, status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`,
		formatNullableTime(ticket.ExitTime),
		string(persistence.TicketStatusCancelled),
		formatTime(ticket.UpdatedAt),
		ticket.ID,
		string(persistence.TicketStatusActive),
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

// DeleteTicket removes a ticket row by id.
func (r *TicketRepository) DeleteTicket(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM tickets WHERE id = ?`, id)
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

// DeleteTicketsClosedBefore bulk-removes terminal tickets older than cutoff.
func (r *TicketRepository) DeleteTicketsClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.helper.Exec(ctx, `
		DELETE FROM tickets
		WHERE status IN (?, ?) AND exit_time IS NOT NULL AND exit_time < ?
	`,
		string(persistence.TicketStatusCompleted),
		string(persistence.TicketStatusCancelled),
		formatTime(cutoff),
	)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

func (r *TicketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]persistence.ParkingTicket, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var tickets []persistence.ParkingTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return tickets, nil
}

// applyAggregateIncrement upserts the daily aggregate row for one completed
// ticket. Builtin vehicle categories also bump their dedicated columns.
func applyAggregateIncrement(ctx context.Context, tx *sql.Tx, day, vehicleTypeID string, amount int64) error {
	var carCount, motorcycleCount, truckCount int64
	var carAmount, motorcycleAmount, truckAmount int64

	switch vehicleTypeID {
	case persistence.VehicleTypeCar:
		carCount, carAmount = 1, amount
	case persistence.VehicleTypeMotorcycle:
		motorcycleCount, motorcycleAmount = 1, amount
	case persistence.VehicleTypeTruck:
		truckCount, truckAmount = 1, amount
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO daily_aggregates (
			day, ticket_count, total_amount,
			car_count, car_amount,
			motorcycle_count, motorcycle_amount,
			truck_count, truck_amount
		)
		VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (day) DO UPDATE SET
			ticket_count      = ticket_count + 1,
			total_amount      = total_amount + excluded.total_amount,
			car_count         = car_count + excluded.car_count,
			car_amount        = car_amount + excluded.car_amount,
			motorcycle_count  = motorcycle_count + excluded.motorcycle_count,
			motorcycle_amount = motorcycle_amount + excluded.motorcycle_amount,
			truck_count       = truck_count + excluded.truck_count,
			truck_amount      = truck_amount + excluded.truck_amount
	`,
		day, amount,
		carCount, carAmount,
		motorcycleCount, motorcycleAmount,
		truckCount, truckAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to update daily aggregate for %s: %w", day, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (persistence.ParkingTicket, error) {
	var (
		ticket       persistence.ParkingTicket
		entryTimeStr string
		exitTimeStr  sql.NullString
		totalMinutes sql.NullInt64
		totalAmount  sql.NullInt64
		status       string
		isPaid       int
		createdAtStr string
		updatedAtStr string
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.Plate,
		&ticket.VehicleTypeID,
		&ticket.Barcode,
		&entryTimeStr,
		&exitTimeStr,
		&ticket.BasePrice,
		&totalMinutes,
		&totalAmount,
		&status,
		&isPaid,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.ParkingTicket{}, err
	}

	if ticket.EntryTime, err = parseTime(entryTimeStr); err != nil {
		return persistence.ParkingTicket{}, err
	}
	if exitTimeStr.Valid {
		exitTime, err := parseTime(exitTimeStr.String)
		if err != nil {
			return persistence.ParkingTicket{}, err
		}
		ticket.ExitTime = &exitTime
	}
	if totalMinutes.Valid {
		minutes := int(totalMinutes.Int64)
		ticket.TotalMinutes = &minutes
	}
	if totalAmount.Valid {
		amount := totalAmount.Int64
		ticket.TotalAmount = &amount
	}
	ticket.Status = persistence.TicketStatus(status)
	ticket.IsPaid = isPaid != 0
	if ticket.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.ParkingTicket{}, err
	}
	if ticket.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.ParkingTicket{}, err
	}

	return ticket, nil
}

func nullableInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullableInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
