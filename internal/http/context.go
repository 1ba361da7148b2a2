package http

import (
	"context"
	"log/slog"

	"github.com/example/parking-pos/internal/logging"
)

type contextKey string

const (
	ticketIDContextKey      contextKey = "ticket_id"
	vehicleTypeIDContextKey contextKey = "vehicle_type_id"
)

// ContextWithTicketID injects the ticket identifier resolved from the request path.
func ContextWithTicketID(ctx context.Context, ticketID string) context.Context {
	return context.WithValue(ctx, ticketIDContextKey, ticketID)
}

// TicketIDFromContext extracts a ticket identifier previously associated with the context.
func TicketIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ticketIDContextKey).(string)
	return id, ok
}

// ContextWithVehicleTypeID injects the vehicle type identifier resolved from the request path.
func ContextWithVehicleTypeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, vehicleTypeIDContextKey, id)
}

// VehicleTypeIDFromContext extracts a vehicle type identifier previously associated with the context.
func VehicleTypeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(vehicleTypeIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request-scoped logger if one was attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
