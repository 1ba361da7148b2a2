package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/parking-pos/internal/billing"
	"github.com/example/parking-pos/internal/persistence"
)

// TicketRepository captures the persistence interactions needed by the
// lifecycle service.
type TicketRepository interface {
	CreateTicket(ctx context.Context, ticket Ticket) (Ticket, error)
	GetTicket(ctx context.Context, id string) (Ticket, error)
	FindActiveTicketByBarcode(ctx context.Context, barcode string) (Ticket, error)
	ListTickets(ctx context.Context) ([]Ticket, error)
	ListTicketsByStatus(ctx context.Context, status TicketStatus) ([]Ticket, error)
	CompleteTicket(ctx context.Context, ticket Ticket, day string) (Ticket, error)
	CancelTicket(ctx context.Context, ticket Ticket) (Ticket, error)
	DeleteTicketsClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateCatalog resolves the hourly rate for a vehicle type at entry time.
type RateCatalog interface {
	HourlyRate(ctx context.Context, vehicleTypeID string) (int64, error)
}

// TicketService owns the entry→exit state machine for parking episodes and
// the one-active-ticket-per-plate invariant.
//
// The duplicate check at entry is check-then-write against the store, so the
// service serializes entries per normalized plate; exits are serialized per
// ticket id so a double-scanned barcode resolves to one completion and one
// clean conflict.
type TicketService struct {
	tickets     TicketRepository
	rates       RateCatalog
	idGenerator func() string
	now         func() time.Time
	location    *time.Location
	logger      *slog.Logger

	plateLocks  *keyedMutex
	ticketLocks *keyedMutex
}

// NewTicketService wires dependencies for ticket lifecycle operations.
func NewTicketService(tickets TicketRepository, rates RateCatalog, idGenerator func() string, now func() time.Time) *TicketService {
	return NewTicketServiceWithLogger(tickets, rates, idGenerator, now, nil, nil)
}

// NewTicketServiceWithLogger constructs the lifecycle service with an
// explicit aggregation time zone and logger. A nil location falls back to the
// system zone; daily aggregates are keyed by the exit date in that zone.
func NewTicketServiceWithLogger(tickets TicketRepository, rates RateCatalog, idGenerator func() string, now func() time.Time, location *time.Location, logger *slog.Logger) *TicketService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.Local
	}
	return &TicketService{
		tickets:     tickets,
		rates:       rates,
		idGenerator: idGenerator,
		now:         now,
		location:    location,
		logger:      defaultLogger(logger),
		plateLocks:  newKeyedMutex(),
		ticketLocks: newKeyedMutex(),
	}
}

func (s *TicketService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TicketService", operation, attrs...)
}

// NormalizePlate maps caller input onto the canonical plate form used for the
// uniqueness check: uppercased with surrounding and internal spaces removed.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

// ProcessEntry registers a vehicle entering the lot and returns the freshly
// persisted active ticket. The hourly rate is snapshotted onto the ticket so
// later tariff changes never affect it.
func (s *TicketService) ProcessEntry(ctx context.Context, input EntryInput) (ticket Ticket, err error) {
	if s == nil {
		err = fmt.Errorf("TicketService is nil")
		return
	}
	if s.tickets == nil {
		err = fmt.Errorf("ticket repository not configured")
		return
	}

	plate := NormalizePlate(input.Plate)
	logger := s.loggerWith(ctx, "ProcessEntry", "plate", plate, "vehicle_type_id", input.VehicleTypeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to process entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("ticket_id", ticket.ID).InfoContext(ctx, "vehicle entered")
	}()

	vErr := &ValidationError{}
	if plate == "" {
		vErr.add("plate", "plate is required")
	}
	if strings.TrimSpace(input.VehicleTypeID) == "" {
		vErr.add("vehicle_type_id", "vehicle type is required")
	}
	if input.HourlyRate < 0 {
		vErr.add("hourly_rate", "hourly rate must be positive")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	rate := input.HourlyRate
	if rate == 0 {
		rate, err = s.resolveRate(ctx, input.VehicleTypeID)
		if err != nil {
			return
		}
	}

	unlock := s.plateLocks.Lock(plate)
	defer unlock()

	var active []Ticket
	active, err = s.tickets.ListTicketsByStatus(ctx, TicketStatusActive)
	if err != nil {
		err = mapTicketRepoError(err)
		return
	}
	for _, existing := range active {
		if existing.Plate == plate {
			err = ErrDuplicateActiveTicket
			return
		}
	}

	entryTime := s.now()
	candidate := Ticket{
		ID:            s.idGenerator(),
		Plate:         plate,
		VehicleTypeID: input.VehicleTypeID,
		Barcode:       newBarcode(entryTime),
		EntryTime:     entryTime,
		BasePrice:     rate,
		Status:        TicketStatusActive,
		IsPaid:        false,
		CreatedAt:     entryTime,
		UpdatedAt:     entryTime,
	}

	ticket, err = s.tickets.CreateTicket(ctx, candidate)
	if err != nil {
		ticket = Ticket{}
		err = mapTicketRepoError(err)
	}
	return
}

// ProcessExit closes an active ticket: it stamps the exit time, runs the fee
// calculation against the entry snapshot, and persists the completed ticket
// together with the daily aggregate increment as one logical write.
//
// Calling ProcessExit again for a completed ticket is safe: the stored ticket
// is returned unchanged alongside ErrTicketAlreadyCompleted, fees are never
// recomputed, and the aggregate is not double-counted.
func (s *TicketService) ProcessExit(ctx context.Context, ticketID string) (ticket Ticket, err error) {
	if s == nil {
		err = fmt.Errorf("TicketService is nil")
		return
	}
	if s.tickets == nil {
		err = fmt.Errorf("ticket repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ProcessExit", "ticket_id", ticketID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to process exit", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("plate", ticket.Plate, "total_amount", derefInt64(ticket.TotalAmount)).InfoContext(ctx, "vehicle exited")
	}()

	unlock := s.ticketLocks.Lock(ticketID)
	defer unlock()

	stored, getErr := s.tickets.GetTicket(ctx, ticketID)
	if getErr != nil {
		err = mapTicketRepoError(getErr)
		return
	}

	switch stored.Status {
	case TicketStatusCompleted:
		return stored, ErrTicketAlreadyCompleted
	case TicketStatusCancelled:
		err = ErrTicketNotFound
		return
	}

	ticket, err = s.completeStored(ctx, stored, s.now())
	return
}

// completeStored runs the billing math for an active ticket and persists the
// completed record. The repository guards the transition, so a concurrent
// completion surfaces as ErrTicketAlreadyCompleted rather than a second
// charge.
func (s *TicketService) completeStored(ctx context.Context, stored Ticket, exitTime time.Time) (Ticket, error) {
	if exitTime.Before(stored.EntryTime) {
		// Clock went backwards between entry and exit; bill from a zero-length
		// stay rather than persisting exit < entry.
		exitTime = stored.EntryTime
	}

	charge := billing.Quote(stored.EntryTime, exitTime, stored.BasePrice)

	completed := stored
	completed.ExitTime = &exitTime
	completed.TotalMinutes = &charge.Minutes
	completed.TotalAmount = &charge.Amount
	completed.Status = TicketStatusCompleted
	completed.IsPaid = true
	completed.UpdatedAt = exitTime

	day := exitTime.In(s.location).Format("2006-01-02")

	persisted, err := s.tickets.CompleteTicket(ctx, completed, day)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrTicketNotFound) {
			// The row was no longer active. Distinguish a raced completion
			// from a vanished ticket.
			if current, getErr := s.tickets.GetTicket(ctx, stored.ID); getErr == nil && current.Status == TicketStatusCompleted {
				return current, ErrTicketAlreadyCompleted
			}
			return Ticket{}, ErrTicketNotFound
		}
		return Ticket{}, mapTicketRepoError(err)
	}

	return persisted, nil
}

// CancelTicket voids an active ticket without billing. Cancelled tickets keep
// their entry data for audit but never reach the daily aggregate.
func (s *TicketService) CancelTicket(ctx context.Context, ticketID string) (ticket Ticket, err error) {
	if s == nil {
		err = fmt.Errorf("TicketService is nil")
		return
	}
	if s.tickets == nil {
		err = fmt.Errorf("ticket repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CancelTicket", "ticket_id", ticketID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel ticket", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("plate", ticket.Plate).InfoContext(ctx, "ticket cancelled")
	}()

	unlock := s.ticketLocks.Lock(ticketID)
	defer unlock()

	stored, getErr := s.tickets.GetTicket(ctx, ticketID)
	if getErr != nil {
		err = mapTicketRepoError(getErr)
		return
	}
	if !stored.Active() {
		err = ErrTicketNotFound
		return
	}

	cancelledAt := s.now()
	if cancelledAt.Before(stored.EntryTime) {
		cancelledAt = stored.EntryTime
	}

	cancelled := stored
	cancelled.ExitTime = &cancelledAt
	cancelled.Status = TicketStatusCancelled
	cancelled.UpdatedAt = cancelledAt

	ticket, err = s.tickets.CancelTicket(ctx, cancelled)
	if err != nil {
		ticket = Ticket{}
		err = mapTicketRepoError(err)
	}
	return
}

// GetTicket retrieves a single ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (Ticket, error) {
	if s == nil || s.tickets == nil {
		return Ticket{}, fmt.Errorf("ticket repository not configured")
	}

	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return Ticket{}, mapTicketRepoError(err)
	}
	return ticket, nil
}

// FindActiveTicketByBarcode resolves a scanned barcode to the open ticket it
// belongs to, for the exit flow.
func (s *TicketService) FindActiveTicketByBarcode(ctx context.Context, barcode string) (Ticket, error) {
	if s == nil || s.tickets == nil {
		return Ticket{}, fmt.Errorf("ticket repository not configured")
	}

	ticket, err := s.tickets.FindActiveTicketByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return Ticket{}, mapTicketRepoError(err)
	}
	return ticket, nil
}

// ListTickets enumerates tickets, optionally narrowed to one status. Results
// arrive newest first from the repository and are returned as-is.
func (s *TicketService) ListTickets(ctx context.Context, status string) ([]Ticket, error) {
	if s == nil || s.tickets == nil {
		return nil, fmt.Errorf("ticket repository not configured")
	}

	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		tickets, err := s.tickets.ListTickets(ctx)
		if err != nil {
			return nil, mapTicketRepoError(err)
		}
		return tickets, nil
	}

	switch TicketStatus(trimmed) {
	case TicketStatusActive, TicketStatusCompleted, TicketStatusCancelled:
	default:
		vErr := &ValidationError{}
		vErr.add("status", "status must be one of active, completed, cancelled")
		return nil, vErr
	}

	tickets, err := s.tickets.ListTicketsByStatus(ctx, TicketStatus(trimmed))
	if err != nil {
		return nil, mapTicketRepoError(err)
	}
	return tickets, nil
}

// CleanupDuplicateActiveTickets repairs the one-active-ticket-per-plate
// invariant after historical bugs or interrupted writes. For every plate with
// more than one active ticket it keeps the most recently created one and
// force-completes the rest through the normal billing path, so the repaired
// tickets still carry coherent exit data. Returns the number of tickets
// repaired.
func (s *TicketService) CleanupDuplicateActiveTickets(ctx context.Context) (repaired int, err error) {
	if s == nil || s.tickets == nil {
		return 0, fmt.Errorf("ticket repository not configured")
	}

	logger := s.loggerWith(ctx, "CleanupDuplicateActiveTickets")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "duplicate cleanup failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("repaired", repaired).InfoContext(ctx, "duplicate cleanup finished")
	}()

	active, listErr := s.tickets.ListTicketsByStatus(ctx, TicketStatusActive)
	if listErr != nil {
		err = mapTicketRepoError(listErr)
		return
	}

	byPlate := make(map[string][]Ticket)
	for _, ticket := range active {
		byPlate[ticket.Plate] = append(byPlate[ticket.Plate], ticket)
	}

	plates := make([]string, 0, len(byPlate))
	for plate, group := range byPlate {
		if len(group) > 1 {
			plates = append(plates, plate)
		}
	}
	sort.Strings(plates)

	for _, plate := range plates {
		group := byPlate[plate]
		sort.Slice(group, func(i, j int) bool {
			if group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].ID > group[j].ID
			}
			return group[i].CreatedAt.After(group[j].CreatedAt)
		})

		unlock := s.plateLocks.Lock(plate)
		// group[0] is the survivor; everything after it is force-completed.
		for _, stale := range group[1:] {
			if _, cErr := s.completeStored(ctx, stale, s.now()); cErr != nil {
				if errors.Is(cErr, ErrTicketAlreadyCompleted) {
					continue
				}
				unlock()
				err = cErr
				return
			}
			repaired++
		}
		unlock()
	}

	return repaired, nil
}

// PurgeClosedTicketsBefore bulk-removes terminal tickets whose exit precedes
// the cutoff. Administrative retention housekeeping; daily aggregates are
// kept.
func (s *TicketService) PurgeClosedTicketsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.tickets == nil {
		return 0, fmt.Errorf("ticket repository not configured")
	}

	logger := s.loggerWith(ctx, "PurgeClosedTicketsBefore", "cutoff", cutoff)

	removed, err := s.tickets.DeleteTicketsClosedBefore(ctx, cutoff)
	if err != nil {
		err = mapTicketRepoError(err)
		logger.ErrorContext(ctx, "purge failed", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}

	logger.With("removed", removed).InfoContext(ctx, "old tickets purged")
	return removed, nil
}

func (s *TicketService) resolveRate(ctx context.Context, vehicleTypeID string) (int64, error) {
	if s.rates == nil {
		vErr := &ValidationError{}
		vErr.add("hourly_rate", "hourly rate is required")
		return 0, vErr
	}

	rate, err := s.rates.HourlyRate(ctx, vehicleTypeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("vehicle_type_id", "unknown vehicle type")
			return 0, vErr
		}
		return 0, err
	}
	if rate <= 0 {
		vErr := &ValidationError{}
		vErr.add("hourly_rate", "hourly rate must be positive")
		return 0, vErr
	}
	return rate, nil
}

// newBarcode derives the printed barcode from the entry instant. Millisecond
// resolution is unique enough for a single-lane, single-writer lot; exits
// resolve collisions by taking the newest active match.
func newBarcode(entryTime time.Time) string {
	return strconv.FormatInt(entryTime.UnixMilli(), 10)
}

func mapTicketRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrTicketNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrTicketNotFound
	case errors.Is(err, ErrDuplicateActiveTicket), errors.Is(err, persistence.ErrDuplicate):
		return ErrDuplicateActiveTicket
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("ticket", "ticket record rejected by storage constraints")
		return vErr
	}
	return err
}

func derefInt64(value *int64) int64 {
	if value == nil {
		return 0
	}
	return *value
}
