package notification

import (
	"context"
	"errors"
	"testing"
	"time"
)

type auditQueryStub struct {
	counts     []ChannelCount
	recent     []Attempt
	countsErr  error
	recentErr  error
	askedLimit int
}

func (q *auditQueryStub) ListRange(ctx context.Context, from, to time.Time) ([]Attempt, error) {
	return nil, nil
}

func (q *auditQueryStub) CountByChannelStatus(ctx context.Context) ([]ChannelCount, error) {
	return q.counts, q.countsErr
}

func (q *auditQueryStub) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	q.askedLimit = limit
	return q.recent, q.recentErr
}

func TestReporter_Build(t *testing.T) {
	t.Parallel()

	now := func() time.Time {
		return time.Date(2025, time.October, 14, 9, 0, 0, 0, time.UTC)
	}

	query := &auditQueryStub{
		counts: []ChannelCount{
			{Channel: ChannelEmail, Status: StatusSent, Count: 12},
			{Channel: ChannelSMS, Status: StatusFailed, Count: 2},
		},
		recent: []Attempt{{ID: "attempt-1", Channel: ChannelEmail, Status: StatusSent}},
	}

	report, err := NewReporter(query, now).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.GeneratedAt.Equal(now()) {
		t.Fatalf("generated at = %v", report.GeneratedAt)
	}
	if len(report.Counts) != 2 || report.Counts[0].Count != 12 {
		t.Fatalf("unexpected counts: %+v", report.Counts)
	}
	if len(report.Recent) != 1 {
		t.Fatalf("unexpected recent attempts: %+v", report.Recent)
	}
	if query.askedLimit != recentLimit {
		t.Fatalf("recent limit = %d, want %d", query.askedLimit, recentLimit)
	}
}

func TestReporter_QueryFailure(t *testing.T) {
	t.Parallel()

	query := &auditQueryStub{countsErr: errors.New("store down")}
	if _, err := NewReporter(query, nil).Build(context.Background()); err == nil {
		t.Fatal("expected error when aggregation fails")
	}
}
