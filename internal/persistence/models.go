package persistence

import "time"

// TicketStatus identifies the lifecycle state of a parking ticket. Active is
// the only non-terminal state.
type TicketStatus string

const (
	// TicketStatusActive marks a vehicle currently inside the lot.
	TicketStatusActive TicketStatus = "active"
	// TicketStatusCompleted marks a ticket closed through the exit flow.
	TicketStatusCompleted TicketStatus = "completed"
	// TicketStatusCancelled marks a ticket voided without billing.
	TicketStatusCancelled TicketStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// Valid reports whether the status is one of the known lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusActive, TicketStatusCompleted, TicketStatusCancelled:
		return true
	}
	return false
}

// Builtin vehicle type identifiers. Custom catalog entries use generated ids.
const (
	VehicleTypeCar        = "car"
	VehicleTypeMotorcycle = "motorcycle"
	VehicleTypeTruck      = "truck"
)

// BuiltinVehicleType reports whether the id names one of the fixed vehicle
// categories that the daily aggregate breaks out individually.
func BuiltinVehicleType(id string) bool {
	switch id {
	case VehicleTypeCar, VehicleTypeMotorcycle, VehicleTypeTruck:
		return true
	}
	return false
}

// ParkingTicket represents one parking episode from entry to a terminal state.
//
// ExitTime, TotalMinutes, and TotalAmount are nil while the ticket is active
// and are written together, exactly once, when the ticket reaches a terminal
// state. BasePrice is the hourly rate snapshotted at entry; later tariff
// changes never affect an open ticket.
type ParkingTicket struct {
	ID            string
	Plate         string
	VehicleTypeID string
	Barcode       string
	EntryTime     time.Time
	ExitTime      *time.Time
	BasePrice     int64
	TotalMinutes  *int
	TotalAmount   *int64
	Status        TicketStatus
	IsPaid        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VehicleTypeTally is the per-category slice of a daily aggregate.
type VehicleTypeTally struct {
	Count  int64
	Amount int64
}

// DailyAggregate accumulates revenue counters for one calendar day, keyed by
// the exit date in the business's local time zone (YYYY-MM-DD). Only the
// builtin vehicle categories are broken out; custom categories contribute to
// the totals alone.
type DailyAggregate struct {
	Day         string
	TicketCount int64
	TotalAmount int64
	Car         VehicleTypeTally
	Motorcycle  VehicleTypeTally
	Truck       VehicleTypeTally
}

// VehicleType is a rate-catalog entry. Builtin rows are seeded by migration
// and cannot be removed; custom rows are operator managed.
type VehicleType struct {
	ID         string
	Name       string
	HourlyRate int64
	Builtin    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
