package notification

import (
	"context"
	"fmt"
	"time"
)

// recentLimit caps how many attempts the report lists verbatim.
const recentLimit = 10

// Report aggregates the recorded delivery attempts.
type Report struct {
	GeneratedAt time.Time
	Counts      []ChannelCount
	Recent      []Attempt
}

// Reporter builds delivery reports from the audit log.
type Reporter struct {
	query AuditQuery
	now   func() time.Time
}

func NewReporter(query AuditQuery, now func() time.Time) *Reporter {
	if now == nil {
		now = time.Now
	}
	return &Reporter{query: query, now: now}
}

// Build returns counts per channel and status plus the most recent attempts.
func (r *Reporter) Build(ctx context.Context) (Report, error) {
	if r == nil || r.query == nil {
		return Report{}, fmt.Errorf("notification reporter not configured")
	}

	counts, err := r.query.CountByChannelStatus(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("aggregating notification attempts: %w", err)
	}

	recent, err := r.query.Recent(ctx, recentLimit)
	if err != nil {
		return Report{}, fmt.Errorf("listing recent notification attempts: %w", err)
	}

	return Report{
		GeneratedAt: r.now(),
		Counts:      counts,
		Recent:      recent,
	}, nil
}
