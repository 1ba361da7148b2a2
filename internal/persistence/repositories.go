package persistence

import (
	"context"
	"time"
)

// TicketRepository exposes storage operations for parking tickets.
//
// Mutating operations that close a ticket (CompleteTicket, CancelTicket) are
// guarded: they only match a row that is still active and report ErrNotFound
// otherwise, so a ticket can never be moved out of a terminal state or closed
// twice.
type TicketRepository interface {
	CreateTicket(ctx context.Context, ticket ParkingTicket) error
	GetTicket(ctx context.Context, id string) (ParkingTicket, error)
	FindActiveTicketByBarcode(ctx context.Context, barcode string) (ParkingTicket, error)
	ListTickets(ctx context.Context) ([]ParkingTicket, error)
	ListTicketsByStatus(ctx context.Context, status TicketStatus) ([]ParkingTicket, error)

	// CompleteTicket persists the active→completed transition together with
	// the daily aggregate increment for the given day, in one transaction.
	CompleteTicket(ctx context.Context, ticket ParkingTicket, day string) error

	// CancelTicket persists the active→cancelled transition. No billing
	// fields are written and the daily aggregate is untouched.
	CancelTicket(ctx context.Context, ticket ParkingTicket) error

	// DeleteTicket removes a single record. Administrative use only; the
	// entry/exit flow never deletes.
	DeleteTicket(ctx context.Context, id string) error

	// DeleteTicketsClosedBefore bulk-removes terminal tickets whose exit time
	// precedes the cutoff, returning the number of rows removed.
	DeleteTicketsClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AggregateRepository exposes read access to daily revenue aggregates. Writes
// happen exclusively inside TicketRepository.CompleteTicket.
type AggregateRepository interface {
	GetDailyAggregate(ctx context.Context, day string) (DailyAggregate, error)
	ListDailyAggregates(ctx context.Context, fromDay, toDay string) ([]DailyAggregate, error)
}

// VehicleTypeRepository exposes CRUD operations for the rate catalog.
type VehicleTypeRepository interface {
	CreateVehicleType(ctx context.Context, vt VehicleType) error
	GetVehicleType(ctx context.Context, id string) (VehicleType, error)
	UpdateVehicleType(ctx context.Context, vt VehicleType) error
	DeleteVehicleType(ctx context.Context, id string) error
	ListVehicleTypes(ctx context.Context) ([]VehicleType, error)
}
