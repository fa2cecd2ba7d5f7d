// Package predictor estimates approval probability for a booking request
// from past decisions. Estimates are informational; arbitration treats any
// failure here as a neutral value.
package predictor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/logging"
	"github.com/example/campus-reservations/internal/priority"
)

// minSamples is the smallest bucket considered meaningful. Sparser buckets
// fall back to the role-wide rate, then to the neutral value.
const minSamples = 10

// defaultRefreshInterval bounds how stale the in-memory history may get.
const defaultRefreshInterval = 15 * time.Minute

// DecidedRequest is one historical decision, reduced to the features the
// estimator buckets on.
type DecidedRequest struct {
	Weekday  time.Weekday
	Hour     int
	Role     priority.Role
	RoomCode string
	Approved bool
}

// HistorySource lists past decided requests.
type HistorySource interface {
	DecidedRequests(ctx context.Context) ([]DecidedRequest, error)
}

type bucketKey struct {
	weekday time.Weekday
	band    int
	role    priority.Role
}

type bucketStats struct {
	approved int
	total    int
}

// HistoryEstimator computes an approval rate over (weekday, hour band, role)
// buckets of the decision history, reloading it on a fixed interval.
type HistoryEstimator struct {
	source  HistorySource
	refresh time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.RWMutex
	buckets  map[bucketKey]bucketStats
	byRole   map[priority.Role]bucketStats
	loadedAt time.Time
}

// NewHistoryEstimator wires the estimator. refresh defaults to fifteen
// minutes.
func NewHistoryEstimator(source HistorySource, refresh time.Duration, now func() time.Time, logger *slog.Logger) *HistoryEstimator {
	if refresh <= 0 {
		refresh = defaultRefreshInterval
	}
	if now == nil {
		now = time.Now
	}
	return &HistoryEstimator{
		source:  source,
		refresh: refresh,
		now:     now,
		logger:  logger,
	}
}

// Estimate returns the historical approval rate for the request shape, or
// the neutral value when the history is too sparse to say anything.
func (e *HistoryEstimator) Estimate(ctx context.Context, features arbitration.PredictionFeatures) (float64, error) {
	if e == nil || e.source == nil {
		return arbitration.NeutralProbability, nil
	}
	if err := e.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	key := bucketKey{
		weekday: features.Weekday,
		band:    hourBand(features.Hour),
		role:    features.Role,
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if stats, ok := e.buckets[key]; ok && stats.total >= minSamples {
		return rate(stats), nil
	}
	if stats, ok := e.byRole[features.Role]; ok && stats.total >= minSamples {
		return rate(stats), nil
	}
	return arbitration.NeutralProbability, nil
}

func (e *HistoryEstimator) ensureLoaded(ctx context.Context) error {
	e.mu.RLock()
	fresh := e.buckets != nil && e.now().Sub(e.loadedAt) < e.refresh
	e.mu.RUnlock()
	if fresh {
		return nil
	}

	decisions, err := e.source.DecidedRequests(ctx)
	if err != nil {
		return fmt.Errorf("loading decision history: %w", err)
	}

	buckets := make(map[bucketKey]bucketStats)
	byRole := make(map[priority.Role]bucketStats)
	for _, decision := range decisions {
		key := bucketKey{
			weekday: decision.Weekday,
			band:    hourBand(decision.Hour),
			role:    decision.Role,
		}
		stats := buckets[key]
		stats.total++
		roleStats := byRole[decision.Role]
		roleStats.total++
		if decision.Approved {
			stats.approved++
			roleStats.approved++
		}
		buckets[key] = stats
		byRole[decision.Role] = roleStats
	}

	e.mu.Lock()
	e.buckets = buckets
	e.byRole = byRole
	e.loadedAt = e.now()
	e.mu.Unlock()

	logging.Component(ctx, e.logger, "history_estimator").
		DebugContext(ctx, "decision history loaded", "decisions", len(decisions), "buckets", len(buckets))
	return nil
}

// hourBand groups start hours into morning, afternoon and evening, so
// nearby windows share history.
func hourBand(hour int) int {
	switch {
	case hour < 12:
		return 0
	case hour < 18:
		return 1
	default:
		return 2
	}
}

func rate(stats bucketStats) float64 {
	if stats.total == 0 {
		return arbitration.NeutralProbability
	}
	r := float64(stats.approved) / float64(stats.total)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
