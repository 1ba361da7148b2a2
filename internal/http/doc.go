// Package http provides HTTP handlers and middleware for the parking POS API.
//
// The router exposes the following endpoints:
//   - POST /tickets: registers a vehicle entry. Body: {"plate","vehicle_type_id",
//     "hourly_rate"}. Responds 201 with the active ticket, or 409 when the plate
//     already has an open ticket.
//   - GET /tickets?status=: lists tickets, optionally narrowed to one lifecycle
//     state. DELETE /tickets?completed_before=RFC3339 purges old closed tickets.
//   - GET /tickets/{id}: fetches one ticket. GET /tickets/barcode/{code} resolves
//     a scanned barcode to its active ticket for the exit lane.
//   - POST /tickets/{id}/exit: completes an active ticket, returning the billed
//     record the receipt printer consumes. Replaying the call answers 409 and
//     carries the previously stored ticket so the receipt can be reprinted.
//   - POST /tickets/{id}/cancel: voids an active ticket without billing.
//   - POST /maintenance/cleanup-duplicates: repairs plates left with more than
//     one active ticket by historical bad writes.
//   - GET /vehicle-types, POST /vehicle-types, PUT /vehicle-types/{id},
//     DELETE /vehicle-types/{id}: rate catalog management. Builtin categories
//     can be re-priced but not deleted.
//   - GET /reports/daily/{day}, GET /reports?from=&to=: daily revenue counters
//     for the dashboard.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth. User-facing messages are Spanish;
// logs stay in English.
package http
