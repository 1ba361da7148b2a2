package testfixtures

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/example/parking-pos/internal/application"
	"github.com/example/parking-pos/internal/persistence"
)

var (
	ticketCounter      uint64
	vehicleTypeCounter uint64
)

var referenceTime = time.Date(2024, time.May, 6, 10, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Ticket fixtures ----------------------------

// TicketFixture represents a deterministic parking ticket record that can be
// materialised for application or persistence tests.
type TicketFixture struct {
	ID            string
	Plate         string
	VehicleTypeID string
	Barcode       string
	EntryTime     time.Time
	ExitTime      *time.Time
	BasePrice     int64
	TotalMinutes  *int
	TotalAmount   *int64
	Status        persistence.TicketStatus
	IsPaid        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TicketOption configures the generated ticket fixture.
type TicketOption func(*TicketFixture)

// NewTicketFixture returns a deterministic active ticket fixture with optional
// overrides. Each call yields a distinct plate and entry time so fixtures do
// not trip the one-active-ticket-per-plate invariant by accident.
func NewTicketFixture(opts ...TicketOption) TicketFixture {
	idx := atomic.AddUint64(&ticketCounter, 1)
	entry := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := TicketFixture{
		ID:            fmt.Sprintf("ticket-%03d", idx),
		Plate:         fmt.Sprintf("FIX%03d", idx),
		VehicleTypeID: persistence.VehicleTypeCar,
		Barcode:       strconv.FormatInt(entry.UnixMilli(), 10),
		EntryTime:     entry,
		BasePrice:     3000,
		Status:        persistence.TicketStatusActive,
		CreatedAt:     entry,
		UpdatedAt:     entry,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTicketID overrides the generated ticket ID.
func WithTicketID(id string) TicketOption {
	return func(f *TicketFixture) {
		f.ID = id
	}
}

// WithPlate overrides the generated plate.
func WithPlate(plate string) TicketOption {
	return func(f *TicketFixture) {
		f.Plate = plate
	}
}

// WithVehicleType overrides the vehicle type and base price together.
func WithVehicleType(vehicleTypeID string, basePrice int64) TicketOption {
	return func(f *TicketFixture) {
		f.VehicleTypeID = vehicleTypeID
		f.BasePrice = basePrice
	}
}

// WithEntryTime overrides the entry instant and the fields derived from it.
func WithEntryTime(entry time.Time) TicketOption {
	return func(f *TicketFixture) {
		f.EntryTime = entry
		f.Barcode = strconv.FormatInt(entry.UnixMilli(), 10)
		f.CreatedAt = entry
		f.UpdatedAt = entry
	}
}

// Completed marks the fixture as billed and exited after the given stay.
func Completed(stay time.Duration, minutes int, amount int64) TicketOption {
	return func(f *TicketFixture) {
		exit := f.EntryTime.Add(stay)
		f.ExitTime = &exit
		f.TotalMinutes = &minutes
		f.TotalAmount = &amount
		f.Status = persistence.TicketStatusCompleted
		f.IsPaid = true
		f.UpdatedAt = exit
	}
}

// Cancelled marks the fixture as voided after the given stay.
func Cancelled(stay time.Duration) TicketOption {
	return func(f *TicketFixture) {
		exit := f.EntryTime.Add(stay)
		f.ExitTime = &exit
		f.Status = persistence.TicketStatusCancelled
		f.IsPaid = false
		f.UpdatedAt = exit
	}
}

// Persistence returns the fixture as a persistence.ParkingTicket value.
func (f TicketFixture) Persistence() persistence.ParkingTicket {
	return persistence.ParkingTicket{
		ID:            f.ID,
		Plate:         f.Plate,
		VehicleTypeID: f.VehicleTypeID,
		Barcode:       f.Barcode,
		EntryTime:     f.EntryTime,
		ExitTime:      copyTimePtr(f.ExitTime),
		BasePrice:     f.BasePrice,
		TotalMinutes:  copyIntPtr(f.TotalMinutes),
		TotalAmount:   copyInt64Ptr(f.TotalAmount),
		Status:        f.Status,
		IsPaid:        f.IsPaid,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Application returns the fixture as an application.Ticket value.
func (f TicketFixture) Application() application.Ticket {
	return application.Ticket{
		ID:            f.ID,
		Plate:         f.Plate,
		VehicleTypeID: f.VehicleTypeID,
		Barcode:       f.Barcode,
		EntryTime:     f.EntryTime,
		ExitTime:      copyTimePtr(f.ExitTime),
		BasePrice:     f.BasePrice,
		TotalMinutes:  copyIntPtr(f.TotalMinutes),
		TotalAmount:   copyInt64Ptr(f.TotalAmount),
		Status:        application.TicketStatus(f.Status),
		IsPaid:        f.IsPaid,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Input returns the fixture as an application.EntryInput.
func (f TicketFixture) Input() application.EntryInput {
	return application.EntryInput{
		Plate:         f.Plate,
		VehicleTypeID: f.VehicleTypeID,
		HourlyRate:    f.BasePrice,
	}
}

// ------------------------- Vehicle type fixtures -------------------------

// VehicleTypeFixture represents a deterministic rate catalog entry.
type VehicleTypeFixture struct {
	ID         string
	Name       string
	HourlyRate int64
	Builtin    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// VehicleTypeOption configures the generated vehicle type fixture.
type VehicleTypeOption func(*VehicleTypeFixture)

// NewVehicleTypeFixture returns a deterministic custom category fixture.
func NewVehicleTypeFixture(opts ...VehicleTypeOption) VehicleTypeFixture {
	idx := atomic.AddUint64(&vehicleTypeCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := VehicleTypeFixture{
		ID:         fmt.Sprintf("vehicle-type-%03d", idx),
		Name:       fmt.Sprintf("Categoría %03d", idx),
		HourlyRate: 3500,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithVehicleTypeID overrides the generated vehicle type ID.
func WithVehicleTypeID(id string) VehicleTypeOption {
	return func(f *VehicleTypeFixture) {
		f.ID = id
	}
}

// WithHourlyRate overrides the fixture rate.
func WithHourlyRate(rate int64) VehicleTypeOption {
	return func(f *VehicleTypeFixture) {
		f.HourlyRate = rate
	}
}

// Persistence returns the fixture as a persistence.VehicleType value.
func (f VehicleTypeFixture) Persistence() persistence.VehicleType {
	return persistence.VehicleType{
		ID:         f.ID,
		Name:       f.Name,
		HourlyRate: f.HourlyRate,
		Builtin:    f.Builtin,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// Input returns the fixture as an application.VehicleTypeInput.
func (f VehicleTypeFixture) Input() application.VehicleTypeInput {
	return application.VehicleTypeInput{
		Name:       f.Name,
		HourlyRate: f.HourlyRate,
	}
}

func copyTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func copyIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func copyInt64Ptr(value *int64) *int64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
