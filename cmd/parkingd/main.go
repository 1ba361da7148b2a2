package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/parking-pos/internal/application"
	"github.com/example/parking-pos/internal/config"
	httptransport "github.com/example/parking-pos/internal/http"
	"github.com/example/parking-pos/internal/persistence"
	"github.com/example/parking-pos/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	ticketRepo := newTicketRepositoryAdapter(sqlite.NewTicketRepository(pool))
	vehicleTypeRepo := newVehicleTypeRepositoryAdapter(sqlite.NewVehicleTypeRepository(pool))
	reportRepo := newReportRepositoryAdapter(sqlite.NewAggregateRepository(pool))

	vehicleTypeService := application.NewVehicleTypeServiceWithLogger(vehicleTypeRepo, idGenerator, now, logger)
	ticketService := application.NewTicketServiceWithLogger(ticketRepo, vehicleTypeService, idGenerator, now, cfg.Timezone, logger)
	reportService := application.NewReportServiceWithLogger(reportRepo, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Tickets:      httptransport.NewTicketHandler(ticketService, logger),
		VehicleTypes: httptransport.NewVehicleTypeHandler(vehicleTypeService, logger),
		Reports:      httptransport.NewReportHandler(reportService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("parking API listening", "addr", server.Addr, "timezone", cfg.Timezone.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
	logger.Info("parking API stopped")
}

type ticketRepositoryAdapter struct {
	repo persistence.TicketRepository
}

func newTicketRepositoryAdapter(repo persistence.TicketRepository) *ticketRepositoryAdapter {
	return &ticketRepositoryAdapter{repo: repo}
}

func (a *ticketRepositoryAdapter) CreateTicket(ctx context.Context, ticket application.Ticket) (application.Ticket, error) {
	if err := a.repo.CreateTicket(ctx, toPersistenceTicket(ticket)); err != nil {
		return application.Ticket{}, err
	}
	stored, err := a.repo.GetTicket(ctx, ticket.ID)
	if err != nil {
		return application.Ticket{}, err
	}
	return toApplicationTicket(stored), nil
}

func (a *ticketRepositoryAdapter) GetTicket(ctx context.Context, id string) (application.Ticket, error) {
	stored, err := a.repo.GetTicket(ctx, id)
	if err != nil {
		return application.Ticket{}, err
	}
	return toApplicationTicket(stored), nil
}

func (a *ticketRepositoryAdapter) FindActiveTicketByBarcode(ctx context.Context, barcode string) (application.Ticket, error) {
	stored, err := a.repo.FindActiveTicketByBarcode(ctx, barcode)
	if err != nil {
		return application.Ticket{}, err
	}
	return toApplicationTicket(stored), nil
}

func (a *ticketRepositoryAdapter) ListTickets(ctx context.Context) ([]application.Ticket, error) {
	models, err := a.repo.ListTickets(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationTickets(models), nil
}

func (a *ticketRepositoryAdapter) ListTicketsByStatus(ctx context.Context, status application.TicketStatus) ([]application.Ticket, error) {
	models, err := a.repo.ListTicketsByStatus(ctx, persistence.TicketStatus(status))
	if err != nil {
		return nil, err
	}
	return toApplicationTickets(models), nil
}

func (a *ticketRepositoryAdapter) CompleteTicket(ctx context.Context, ticket application.Ticket, day string) (application.Ticket, error) {
	if err := a.repo.CompleteTicket(ctx, toPersistenceTicket(ticket), day); err != nil {
		return application.Ticket{}, err
	}
	stored, err := a.repo.GetTicket(ctx, ticket.ID)
	if err != nil {
		return application.Ticket{}, err
	}
	return toApplicationTicket(stored), nil
}

func (a *ticketRepositoryAdapter) CancelTicket(ctx context.Context, ticket application.Ticket) (application.Ticket, error) {
	if err := a.repo.CancelTicket(ctx, toPersistenceTicket(ticket)); err != nil {
		return application.Ticket{}, err
	}
	stored, err := a.repo.GetTicket(ctx, ticket.ID)
	if err != nil {
		return application.Ticket{}, err
	}
	return toApplicationTicket(stored), nil
}

func (a *ticketRepositoryAdapter) DeleteTicketsClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return a.repo.DeleteTicketsClosedBefore(ctx, cutoff)
}

type vehicleTypeRepositoryAdapter struct {
	repo persistence.VehicleTypeRepository
}

func newVehicleTypeRepositoryAdapter(repo persistence.VehicleTypeRepository) *vehicleTypeRepositoryAdapter {
	return &vehicleTypeRepositoryAdapter{repo: repo}
}

func (a *vehicleTypeRepositoryAdapter) CreateVehicleType(ctx context.Context, vt application.VehicleType) (application.VehicleType, error) {
	if err := a.repo.CreateVehicleType(ctx, toPersistenceVehicleType(vt)); err != nil {
		return application.VehicleType{}, err
	}
	stored, err := a.repo.GetVehicleType(ctx, vt.ID)
	if err != nil {
		return application.VehicleType{}, err
	}
	return toApplicationVehicleType(stored), nil
}

func (a *vehicleTypeRepositoryAdapter) GetVehicleType(ctx context.Context, id string) (application.VehicleType, error) {
	stored, err := a.repo.GetVehicleType(ctx, id)
	if err != nil {
		return application.VehicleType{}, err
	}
	return toApplicationVehicleType(stored), nil
}

func (a *vehicleTypeRepositoryAdapter) UpdateVehicleType(ctx context.Context, vt application.VehicleType) (application.VehicleType, error) {
	if err := a.repo.UpdateVehicleType(ctx, toPersistenceVehicleType(vt)); err != nil {
		return application.VehicleType{}, err
	}
	stored, err := a.repo.GetVehicleType(ctx, vt.ID)
	if err != nil {
		return application.VehicleType{}, err
	}
	return toApplicationVehicleType(stored), nil
}

func (a *vehicleTypeRepositoryAdapter) DeleteVehicleType(ctx context.Context, id string) error {
	return a.repo.DeleteVehicleType(ctx, id)
}

func (a *vehicleTypeRepositoryAdapter) ListVehicleTypes(ctx context.Context) ([]application.VehicleType, error) {
	models, err := a.repo.ListVehicleTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	types := make([]application.VehicleType, 0, len(models))
	for _, model := range models {
		types = append(types, toApplicationVehicleType(model))
	}
	return types, nil
}

type reportRepositoryAdapter struct {
	repo persistence.AggregateRepository
}

func newReportRepositoryAdapter(repo persistence.AggregateRepository) *reportRepositoryAdapter {
	return &reportRepositoryAdapter{repo: repo}
}

func (a *reportRepositoryAdapter) GetDailyAggregate(ctx context.Context, day string) (application.DailyReport, error) {
	stored, err := a.repo.GetDailyAggregate(ctx, day)
	if err != nil {
		return application.DailyReport{}, err
	}
	return toApplicationReport(stored), nil
}

func (a *reportRepositoryAdapter) ListDailyAggregates(ctx context.Context, fromDay, toDay string) ([]application.DailyReport, error) {
	models, err := a.repo.ListDailyAggregates(ctx, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	reports := make([]application.DailyReport, 0, len(models))
	for _, model := range models {
		reports = append(reports, toApplicationReport(model))
	}
	return reports, nil
}

func toApplicationTicket(model persistence.ParkingTicket) application.Ticket {
	return application.Ticket{
		ID:            model.ID,
		Plate:         model.Plate,
		VehicleTypeID: model.VehicleTypeID,
		Barcode:       model.Barcode,
		EntryTime:     model.EntryTime,
		ExitTime:      cloneTime(model.ExitTime),
		BasePrice:     model.BasePrice,
		TotalMinutes:  cloneInt(model.TotalMinutes),
		TotalAmount:   cloneInt64(model.TotalAmount),
		Status:        application.TicketStatus(model.Status),
		IsPaid:        model.IsPaid,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toApplicationTickets(models []persistence.ParkingTicket) []application.Ticket {
	if len(models) == 0 {
		return nil
	}
	tickets := make([]application.Ticket, 0, len(models))
	for _, model := range models {
		tickets = append(tickets, toApplicationTicket(model))
	}
	return tickets
}

func toPersistenceTicket(ticket application.Ticket) persistence.ParkingTicket {
	return persistence.ParkingTicket{
		ID:            ticket.ID,
		Plate:         ticket.Plate,
		VehicleTypeID: ticket.VehicleTypeID,
		Barcode:       ticket.Barcode,
		EntryTime:     ticket.EntryTime,
		ExitTime:      cloneTime(ticket.ExitTime),
		BasePrice:     ticket.BasePrice,
		TotalMinutes:  cloneInt(ticket.TotalMinutes),
		TotalAmount:   cloneInt64(ticket.TotalAmount),
		Status:        persistence.TicketStatus(ticket.Status),
		IsPaid:        ticket.IsPaid,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

func toApplicationVehicleType(model persistence.VehicleType) application.VehicleType {
	return application.VehicleType{
		ID:         model.ID,
		Name:       model.Name,
		HourlyRate: model.HourlyRate,
		Builtin:    model.Builtin,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toPersistenceVehicleType(vt application.VehicleType) persistence.VehicleType {
	return persistence.VehicleType{
		ID:         vt.ID,
		Name:       vt.Name,
		HourlyRate: vt.HourlyRate,
		Builtin:    vt.Builtin,
		CreatedAt:  vt.CreatedAt,
		UpdatedAt:  vt.UpdatedAt,
	}
}

func toApplicationReport(model persistence.DailyAggregate) application.DailyReport {
	return application.DailyReport{
		Day:         model.Day,
		TicketCount: model.TicketCount,
		TotalAmount: model.TotalAmount,
		Car:         application.VehicleTypeTally(model.Car),
		Motorcycle:  application.VehicleTypeTally(model.Motorcycle),
		Truck:       application.VehicleTypeTally(model.Truck),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
