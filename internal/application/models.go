package application

import "time"

// TicketStatus mirrors the persistence lifecycle states for callers of the
// application layer.
type TicketStatus string

const (
	// TicketStatusActive marks a vehicle currently inside the lot.
	TicketStatusActive TicketStatus = "active"
	// TicketStatusCompleted marks a ticket closed through the exit flow.
	TicketStatusCompleted TicketStatus = "completed"
	// TicketStatusCancelled marks a ticket voided without billing.
	TicketStatusCancelled TicketStatus = "cancelled"
)

// Ticket represents a parking episode as exposed to transport and receipt
// rendering. Exit fields are nil while the ticket is active.
type Ticket struct {
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

// Active reports whether the ticket is still open.
func (t Ticket) Active() bool {
	return t.Status == TicketStatusActive
}

// EntryInput captures caller provided fields for a vehicle entry.
//
// HourlyRate overrides the catalog rate when positive; when zero the rate is
// resolved from the vehicle type catalog at entry and snapshotted onto the
// ticket.
type EntryInput struct {
	Plate         string
	VehicleTypeID string
	HourlyRate    int64
}

// VehicleTypeTally is the per-category slice of a daily report.
type VehicleTypeTally struct {
	Count  int64
	Amount int64
}

// DailyReport carries the revenue counters for one calendar day.
type DailyReport struct {
	Day         string
	TicketCount int64
	TotalAmount int64
	Car         VehicleTypeTally
	Motorcycle  VehicleTypeTally
	Truck       VehicleTypeTally
}

// VehicleType is a rate-catalog entry as exposed to callers.
type VehicleType struct {
	ID         string
	Name       string
	HourlyRate int64
	Builtin    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// VehicleTypeInput captures caller provided fields for catalog mutations.
type VehicleTypeInput struct {
	Name       string
	HourlyRate int64
}
