package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/parking-pos/internal/application"
)

var handlerEntryTime = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

func activeTicketFixture() application.Ticket {
	return application.Ticket{
		ID:            "ticket-1",
		Plate:         "ABC123",
		VehicleTypeID: "car",
		Barcode:       "1714989600000",
		EntryTime:     handlerEntryTime,
		BasePrice:     3000,
		Status:        application.TicketStatusActive,
		CreatedAt:     handlerEntryTime,
		UpdatedAt:     handlerEntryTime,
	}
}

func completedTicketFixture() application.Ticket {
	ticket := activeTicketFixture()
	exitTime := handlerEntryTime.Add(16 * time.Minute)
	minutes := 16
	amount := int64(1500)
	ticket.ExitTime = &exitTime
	ticket.TotalMinutes = &minutes
	ticket.TotalAmount = &amount
	ticket.Status = application.TicketStatusCompleted
	ticket.IsPaid = true
	ticket.UpdatedAt = exitTime
	return ticket
}

type stubTicketService struct {
	entryInput  application.EntryInput
	entryTicket application.Ticket
	entryErr    error

	exitID     string
	exitTicket application.Ticket
	exitErr    error

	cancelTicket application.Ticket
	cancelErr    error

	getTicket application.Ticket
	getErr    error

	barcode       string
	barcodeTicket application.Ticket
	barcodeErr    error

	listStatus  string
	listTickets []application.Ticket
	listErr     error

	repaired   int
	cleanupErr error

	purgeCutoff time.Time
	removed     int64
	purgeErr    error
}

func (s *stubTicketService) ProcessEntry(ctx context.Context, input application.EntryInput) (application.Ticket, error) {
	s.entryInput = input
	return s.entryTicket, s.entryErr
}

func (s *stubTicketService) ProcessExit(ctx context.Context, ticketID string) (application.Ticket, error) {
	s.exitID = ticketID
	return s.exitTicket, s.exitErr
}

func (s *stubTicketService) CancelTicket(ctx context.Context, ticketID string) (application.Ticket, error) {
	return s.cancelTicket, s.cancelErr
}

func (s *stubTicketService) GetTicket(ctx context.Context, ticketID string) (application.Ticket, error) {
	return s.getTicket, s.getErr
}

func (s *stubTicketService) FindActiveTicketByBarcode(ctx context.Context, barcode string) (application.Ticket, error) {
	s.barcode = barcode
	return s.barcodeTicket, s.barcodeErr
}

func (s *stubTicketService) ListTickets(ctx context.Context, status string) ([]application.Ticket, error) {
	s.listStatus = status
	return s.listTickets, s.listErr
}

func (s *stubTicketService) CleanupDuplicateActiveTickets(ctx context.Context) (int, error) {
	return s.repaired, s.cleanupErr
}

func (s *stubTicketService) PurgeClosedTicketsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.purgeCutoff = cutoff
	return s.removed, s.purgeErr
}

type stubVehicleTypeService struct {
	created   application.VehicleType
	createErr error
	updated   application.VehicleType
	updateErr error
	deleteErr error
	types     []application.VehicleType
	listErr   error
}

func (s *stubVehicleTypeService) CreateVehicleType(ctx context.Context, input application.VehicleTypeInput) (application.VehicleType, error) {
	return s.created, s.createErr
}

func (s *stubVehicleTypeService) UpdateVehicleType(ctx context.Context, id string, input application.VehicleTypeInput) (application.VehicleType, error) {
	return s.updated, s.updateErr
}

func (s *stubVehicleTypeService) DeleteVehicleType(ctx context.Context, id string) error {
	return s.deleteErr
}

func (s *stubVehicleTypeService) ListVehicleTypes(ctx context.Context) ([]application.VehicleType, error) {
	return s.types, s.listErr
}

type stubReportService struct {
	daily     application.DailyReport
	dailyDay  string
	dailyErr  error
	reports   []application.DailyReport
	rangeFrom string
	rangeTo   string
	rangeErr  error
}

func (s *stubReportService) DailyReport(ctx context.Context, day string) (application.DailyReport, error) {
	s.dailyDay = day
	return s.daily, s.dailyErr
}

func (s *stubReportService) ReportRange(ctx context.Context, fromDay, toDay string) ([]application.DailyReport, error) {
	s.rangeFrom = fromDay
	s.rangeTo = toDay
	return s.reports, s.rangeErr
}

func newTestRouter(tickets *stubTicketService, types *stubVehicleTypeService, reports *stubReportService) http.Handler {
	cfg := RouterConfig{}
	if tickets != nil {
		cfg.Tickets = NewTicketHandler(tickets, nil)
	}
	if types != nil {
		cfg.VehicleTypes = NewVehicleTypeHandler(types, nil)
	}
	if reports != nil {
		cfg.Reports = NewReportHandler(reports, nil)
	}
	return NewRouter(cfg)
}

func TestTicketEntry(t *testing.T) {
	t.Parallel()

	t.Run("issues a ticket for a valid entry", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{entryTicket: activeTicketFixture()}
		router := newTestRouter(service, nil, nil)

		body := `{"plate":" abc 123 ","vehicle_type_id":"car"}`
		req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusCreated, recorder.Code)
		require.Equal(t, "abc 123", service.entryInput.Plate)
		require.Equal(t, "car", service.entryInput.VehicleTypeID)
		require.Zero(t, service.entryInput.HourlyRate)

		var resp ticketResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, "ticket-1", resp.Ticket.ID)
		require.Equal(t, "ABC123", resp.Ticket.Plate)
		require.Equal(t, "active", resp.Ticket.Status)
		require.Equal(t, "2024-05-06T10:00:00Z", resp.Ticket.EntryTime)
		require.Nil(t, resp.Ticket.ExitTime)
		require.Nil(t, resp.Ticket.TotalAmount)
	})

	t.Run("answers 409 when the plate already has an active ticket", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{entryErr: application.ErrDuplicateActiveTicket}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(`{"plate":"ABC123","vehicle_type_id":"car"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusConflict, recorder.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, "DUPLICATE_ACTIVE_TICKET", resp.ErrorCode)
		require.Equal(t, "La placa ya tiene un tiquete activo.", resp.Message)
	})

	t.Run("translates validation failures into a 422 field map", func(t *testing.T) {
		t.Parallel()

		vErr := &application.ValidationError{FieldErrors: map[string]string{
			"plate":           "plate is required",
			"vehicle_type_id": "vehicle type is required",
		}}
		service := &stubTicketService{entryErr: vErr}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(`{}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, "La placa es obligatoria.", resp.Errors["plate"])
		require.Equal(t, "El tipo de vehículo es obligatorio.", resp.Errors["vehicle_type_id"])
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubTicketService{}, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader("{not json"))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestTicketExit(t *testing.T) {
	t.Parallel()

	t.Run("returns the billed ticket", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{exitTicket: completedTicketFixture()}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/tickets/ticket-1/exit", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		require.Equal(t, "ticket-1", service.exitID)

		var resp ticketResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, "completed", resp.Ticket.Status)
		require.True(t, resp.Ticket.IsPaid)
		require.NotNil(t, resp.Ticket.TotalAmount)
		require.Equal(t, int64(1500), *resp.Ticket.TotalAmount)
		require.NotNil(t, resp.Ticket.TotalMinutes)
		require.Equal(t, 16, *resp.Ticket.TotalMinutes)
	})

	t.Run("carries the stored ticket on a replayed exit", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{
			exitTicket: completedTicketFixture(),
			exitErr:    application.ErrTicketAlreadyCompleted,
		}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/tickets/ticket-1/exit", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusConflict, recorder.Code)

		var resp exitConflictResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, "TICKET_ALREADY_COMPLETED", resp.ErrorCode)
		require.Equal(t, "ticket-1", resp.Ticket.ID)
		require.NotNil(t, resp.Ticket.TotalAmount)
		require.Equal(t, int64(1500), *resp.Ticket.TotalAmount)
	})

	t.Run("answers 404 for unknown tickets", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{exitErr: application.ErrTicketNotFound}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/tickets/missing/exit", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestTicketCancel(t *testing.T) {
	t.Parallel()

	cancelled := activeTicketFixture()
	cancelledAt := handlerEntryTime.Add(5 * time.Minute)
	cancelled.ExitTime = &cancelledAt
	cancelled.Status = application.TicketStatusCancelled
	cancelled.UpdatedAt = cancelledAt

	service := &stubTicketService{cancelTicket: cancelled}
	router := newTestRouter(service, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/tickets/ticket-1/cancel", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp ticketResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	require.Equal(t, "cancelled", resp.Ticket.Status)
	require.False(t, resp.Ticket.IsPaid)
	require.Nil(t, resp.Ticket.TotalAmount)
}

func TestTicketLookups(t *testing.T) {
	t.Parallel()

	t.Run("fetches a ticket by id", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{getTicket: activeTicketFixture()}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/tickets/ticket-1", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var resp ticketResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, "ticket-1", resp.Ticket.ID)
	})

	t.Run("resolves a scanned barcode", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{barcodeTicket: activeTicketFixture()}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/tickets/barcode/1714989600000", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		require.Equal(t, "1714989600000", service.barcode)
	})

	t.Run("lists tickets narrowed by status", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{listTickets: []application.Ticket{activeTicketFixture()}}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/tickets?status=active", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		require.Equal(t, "active", service.listStatus)

		var resp listTicketsResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Len(t, resp.Tickets, 1)
	})
}

func TestTicketMaintenance(t *testing.T) {
	t.Parallel()

	t.Run("reports repaired duplicates", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{repaired: 2}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/maintenance/cleanup-duplicates", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var resp cleanupResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, 2, resp.Repaired)
	})

	t.Run("purges closed tickets before the cutoff", func(t *testing.T) {
		t.Parallel()

		service := &stubTicketService{removed: 7}
		router := newTestRouter(service, nil, nil)

		req := httptest.NewRequest(http.MethodDelete, "/tickets?completed_before=2024-01-01T00:00:00Z", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), service.purgeCutoff.UTC())

		var resp purgeResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, int64(7), resp.Removed)
	})

	t.Run("rejects malformed purge cutoffs", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubTicketService{}, nil, nil)

		req := httptest.NewRequest(http.MethodDelete, "/tickets?completed_before=yesterday", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestVehicleTypeEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("creates a custom category", func(t *testing.T) {
		t.Parallel()

		service := &stubVehicleTypeService{created: application.VehicleType{
			ID:         "vt-1",
			Name:       "Bus",
			HourlyRate: 5000,
			CreatedAt:  handlerEntryTime,
			UpdatedAt:  handlerEntryTime,
		}}
		router := newTestRouter(nil, service, nil)

		req := httptest.NewRequest(http.MethodPost, "/vehicle-types", strings.NewReader(`{"name":"Bus","hourly_rate":5000}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusCreated, recorder.Code)

		var resp vehicleTypeResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, "vt-1", resp.VehicleType.ID)
		require.False(t, resp.VehicleType.Builtin)
	})

	t.Run("refuses to delete builtin categories", func(t *testing.T) {
		t.Parallel()

		service := &stubVehicleTypeService{deleteErr: application.ErrBuiltinVehicleType}
		router := newTestRouter(nil, service, nil)

		req := httptest.NewRequest(http.MethodDelete, "/vehicle-types/car", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusConflict, recorder.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, "BUILTIN_VEHICLE_TYPE", resp.ErrorCode)
	})

	t.Run("lists the catalog", func(t *testing.T) {
		t.Parallel()

		service := &stubVehicleTypeService{types: []application.VehicleType{
			{ID: "car", Name: "Carro", HourlyRate: 3000, Builtin: true, CreatedAt: handlerEntryTime, UpdatedAt: handlerEntryTime},
			{ID: "vt-1", Name: "Bus", HourlyRate: 5000, CreatedAt: handlerEntryTime, UpdatedAt: handlerEntryTime},
		}}
		router := newTestRouter(nil, service, nil)

		req := httptest.NewRequest(http.MethodGet, "/vehicle-types", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var resp listVehicleTypesResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Len(t, resp.VehicleTypes, 2)
		require.True(t, resp.VehicleTypes[0].Builtin)
	})
}

func TestReportEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("returns the daily counters", func(t *testing.T) {
		t.Parallel()

		service := &stubReportService{daily: application.DailyReport{
			Day:         "2024-05-06",
			TicketCount: 3,
			TotalAmount: 5250,
			Car:         application.VehicleTypeTally{Count: 2, Amount: 2250},
			Motorcycle:  application.VehicleTypeTally{Count: 1, Amount: 3000},
		}}
		router := newTestRouter(nil, nil, service)

		req := httptest.NewRequest(http.MethodGet, "/reports/daily/2024-05-06", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		require.Equal(t, "2024-05-06", service.dailyDay)

		var resp reportResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, int64(3), resp.Report.TicketCount)
		require.Equal(t, int64(5250), resp.Report.TotalAmount)
		require.Equal(t, int64(2), resp.Report.Car.Count)
	})

	t.Run("passes range bounds through", func(t *testing.T) {
		t.Parallel()

		service := &stubReportService{reports: []application.DailyReport{{Day: "2024-05-06"}}}
		router := newTestRouter(nil, nil, service)

		req := httptest.NewRequest(http.MethodGet, "/reports?from=2024-05-01&to=2024-05-07", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		require.Equal(t, "2024-05-01", service.rangeFrom)
		require.Equal(t, "2024-05-07", service.rangeTo)
	})

	t.Run("rejects malformed days with 422", func(t *testing.T) {
		t.Parallel()

		vErr := &application.ValidationError{FieldErrors: map[string]string{
			"day": "day must be formatted as YYYY-MM-DD",
		}}
		service := &stubReportService{dailyErr: vErr}
		router := newTestRouter(nil, nil, service)

		req := httptest.NewRequest(http.MethodGet, "/reports/daily/05-06-2024", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Equal(t, "La fecha debe tener formato YYYY-MM-DD.", resp.Errors["day"])
	})
}

func TestRouterMethodHandling(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubTicketService{}, &stubVehicleTypeService{}, &stubReportService{})

	tests := []struct {
		name    string
		method  string
		path    string
		allowed string
	}{
		{name: "tickets collection", method: http.MethodPut, path: "/tickets", allowed: "GET, POST, DELETE"},
		{name: "ticket exit", method: http.MethodGet, path: "/tickets/ticket-1/exit", allowed: "POST"},
		{name: "cleanup", method: http.MethodGet, path: "/maintenance/cleanup-duplicates", allowed: "POST"},
		{name: "vehicle type item", method: http.MethodPost, path: "/vehicle-types/car", allowed: "PUT, DELETE"},
		{name: "reports", method: http.MethodPost, path: "/reports", allowed: "GET"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tc.method, tc.path, nil)
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			require.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
			require.Equal(t, tc.allowed, recorder.Header().Get("Allow"))
		})
	}
}

func TestRouterUnknownPaths(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubTicketService{}, nil, nil)

	for _, path := range []string{"/tickets/ticket-1/park", "/tickets/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusNotFound, recorder.Code, "path %s", path)
	}
}
