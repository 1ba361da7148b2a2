package sqlite

import (
	"context"
	"errors"

	"github.com/example/parking-pos/internal/persistence"
)

// AggregateRepository implements persistence.AggregateRepository using SQLite.
// It is read-only: aggregate rows are written exclusively by the ticket
// completion transaction.
type AggregateRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAggregateRepository creates a new SQLite aggregate repository.
func NewAggregateRepository(pool *ConnectionPool) *AggregateRepository {
	return &AggregateRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const aggregateColumns = `day, ticket_count, total_amount,
	car_count, car_amount, motorcycle_count, motorcycle_amount, truck_count, truck_amount`

// GetDailyAggregate retrieves the revenue counters for one calendar day. A
// day with no completed tickets yields a zero-valued aggregate rather than an
// error, matching what a dashboard expects to render.
func (r *AggregateRepository) GetDailyAggregate(ctx context.Context, day string) (persistence.DailyAggregate, error) {
	if day == "" {
		return persistence.DailyAggregate{}, persistence.ErrNotFound
	}

	query := `SELECT ` + aggregateColumns + ` FROM daily_aggregates WHERE day = ?`
	aggregate, err := scanAggregate(r.helper.QueryRow(ctx, query, day))
	if err != nil {
		mapped := r.mapper.MapError(err)
		if errors.Is(mapped, persistence.ErrNotFound) {
			return persistence.DailyAggregate{Day: day}, nil
		}
		return persistence.DailyAggregate{}, mapped
	}

	return aggregate, nil
}

// ListDailyAggregates returns the aggregates recorded between fromDay and
// toDay inclusive, in day order. Days without traffic are absent.
func (r *AggregateRepository) ListDailyAggregates(ctx context.Context, fromDay, toDay string) ([]persistence.DailyAggregate, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM daily_aggregates
		WHERE day >= ? AND day <= ?
		ORDER BY day
	`

	rows, err := r.helper.Query(ctx, query, fromDay, toDay)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var aggregates []persistence.DailyAggregate
	for rows.Next() {
		aggregate, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, aggregate)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return aggregates, nil
}

func scanAggregate(row rowScanner) (persistence.DailyAggregate, error) {
	var aggregate persistence.DailyAggregate
	err := row.Scan(
		&aggregate.Day,
		&aggregate.TicketCount,
		&aggregate.TotalAmount,
		&aggregate.Car.Count,
		&aggregate.Car.Amount,
		&aggregate.Motorcycle.Count,
		&aggregate.Motorcycle.Amount,
		&aggregate.Truck.Count,
		&aggregate.Truck.Amount,
	)
	if err != nil {
		return persistence.DailyAggregate{}, err
	}
	return aggregate, nil
}
