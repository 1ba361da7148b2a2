package application

import (
	"context"
	"errors"
	"testing"
)

type reportRepoStub struct {
	reports map[string]DailyReport
	err     error
}

func (r *reportRepoStub) GetDailyAggregate(ctx context.Context, day string) (DailyReport, error) {
	if r.err != nil {
		return DailyReport{}, r.err
	}
	if report, ok := r.reports[day]; ok {
		return report, nil
	}
	return DailyReport{Day: day}, nil
}

func (r *reportRepoStub) ListDailyAggregates(ctx context.Context, fromDay, toDay string) ([]DailyReport, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []DailyReport
	for day, report := range r.reports {
		if day >= fromDay && day <= toDay {
			out = append(out, report)
		}
	}
	return out, nil
}

func TestDailyReport(t *testing.T) {
	repo := &reportRepoStub{reports: map[string]DailyReport{
		"2024-05-06": {Day: "2024-05-06", TicketCount: 3, TotalAmount: 5250, Car: VehicleTypeTally{Count: 2, Amount: 4500}},
	}}
	service := NewReportService(repo)

	report, err := service.DailyReport(context.Background(), "2024-05-06")
	if err != nil {
		t.Fatalf("DailyReport returned error: %v", err)
	}
	if report.TicketCount != 3 || report.TotalAmount != 5250 {
		t.Fatalf("unexpected report: %+v", report)
	}

	empty, err := service.DailyReport(context.Background(), "2024-05-07")
	if err != nil {
		t.Fatalf("DailyReport returned error for quiet day: %v", err)
	}
	if empty.TicketCount != 0 || empty.TotalAmount != 0 {
		t.Fatalf("quiet day must report zeroes, got %+v", empty)
	}
}

func TestDailyReport_RejectsMalformedDay(t *testing.T) {
	service := NewReportService(&reportRepoStub{})

	for _, day := range []string{"", "2024/05/06", "06-05-2024", "yesterday"} {
		_, err := service.DailyReport(context.Background(), day)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError for %q, got %v", day, err)
		}
	}
}

func TestReportRange(t *testing.T) {
	repo := &reportRepoStub{reports: map[string]DailyReport{
		"2024-05-05": {Day: "2024-05-05", TicketCount: 1, TotalAmount: 750},
		"2024-05-06": {Day: "2024-05-06", TicketCount: 2, TotalAmount: 3000},
		"2024-05-09": {Day: "2024-05-09", TicketCount: 4, TotalAmount: 9000},
	}}
	service := NewReportService(repo)

	reports, err := service.ReportRange(context.Background(), "2024-05-05", "2024-05-06")
	if err != nil {
		t.Fatalf("ReportRange returned error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
}

func TestReportRange_RejectsInvertedRange(t *testing.T) {
	service := NewReportService(&reportRepoStub{})

	_, err := service.ReportRange(context.Background(), "2024-05-06", "2024-05-05")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["to"]; !ok {
		t.Fatalf("expected field error for range end, got %v", vErr.FieldErrors)
	}
}
