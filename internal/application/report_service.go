package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
)

// ReportRepository captures the aggregate reads needed by the report service.
type ReportRepository interface {
	GetDailyAggregate(ctx context.Context, day string) (DailyReport, error)
	ListDailyAggregates(ctx context.Context, fromDay, toDay string) ([]DailyReport, error)
}

// ReportService serves the daily revenue counters accumulated by ticket
// completion. The counters are statistics for dashboards, not a ledger; the
// raw ticket records remain the source of truth.
type ReportService struct {
	reports ReportRepository
	logger  *slog.Logger
}

// NewReportService constructs a report service over the aggregate store.
func NewReportService(reports ReportRepository) *ReportService {
	return NewReportServiceWithLogger(reports, nil)
}

// NewReportServiceWithLogger constructs a report service with a specified logger.
func NewReportServiceWithLogger(reports ReportRepository, logger *slog.Logger) *ReportService {
	return &ReportService{reports: reports, logger: defaultLogger(logger)}
}

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DailyReport returns the counters for one calendar day. Days without
// completed tickets yield a zero-valued report.
func (s *ReportService) DailyReport(ctx context.Context, day string) (DailyReport, error) {
	if s == nil || s.reports == nil {
		return DailyReport{}, fmt.Errorf("report repository not configured")
	}

	if vErr := validateDay("day", day); vErr.HasErrors() {
		return DailyReport{}, vErr
	}

	report, err := s.reports.GetDailyAggregate(ctx, day)
	if err != nil {
		serviceLogger(ctx, s.logger, "ReportService", "DailyReport", "day", day).
			ErrorContext(ctx, "failed to load daily report", "error", err, "error_kind", ErrorKind(err))
		return DailyReport{}, err
	}
	return report, nil
}

// ReportRange returns the per-day counters between fromDay and toDay
// inclusive. Days without traffic are omitted.
func (s *ReportService) ReportRange(ctx context.Context, fromDay, toDay string) ([]DailyReport, error) {
	if s == nil || s.reports == nil {
		return nil, fmt.Errorf("report repository not configured")
	}

	vErr := validateDay("from", fromDay)
	if fromErr := validateDay("to", toDay); fromErr.HasErrors() {
		for field, msg := range fromErr.FieldErrors {
			vErr.add(field, msg)
		}
	}
	if !vErr.HasErrors() && fromDay > toDay {
		vErr.add("to", "range end must not precede range start")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	reports, err := s.reports.ListDailyAggregates(ctx, fromDay, toDay)
	if err != nil {
		serviceLogger(ctx, s.logger, "ReportService", "ReportRange", "from", fromDay, "to", toDay).
			ErrorContext(ctx, "failed to load report range", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return reports, nil
}

func validateDay(field, day string) *ValidationError {
	vErr := &ValidationError{}
	if !dayPattern.MatchString(day) {
		vErr.add(field, "day must be formatted as YYYY-MM-DD")
	}
	return vErr
}
