package arbitration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/campus-reservations/internal/logging"
	"github.com/example/campus-reservations/internal/timeslot"
)

// MaxAlternatives caps how many conflict-free rooms are offered with a
// rejection. Candidates are taken first-found in pool order, without
// ranking; this mirrors the source system deliberately.
const MaxAlternatives = 3

// RoomCatalog exposes the room lookups needed by the finder and the engine.
type RoomCatalog interface {
	RoomExists(ctx context.Context, code string) (bool, error)
	ActiveRooms(ctx context.Context) ([]RoomInfo, error)
}

// AlternativeFinder searches a candidate room pool for conflict-free slots
// matching a rejected request's date and window.
type AlternativeFinder struct {
	detector *ConflictDetector
	catalog  RoomCatalog
	pool     []string
	logger   *slog.Logger
}

// NewAlternativeFinder builds a finder. When pool is non-empty it fixes the
// candidate order; otherwise candidates come from the catalog's active rooms
// in catalog order.
func NewAlternativeFinder(detector *ConflictDetector, catalog RoomCatalog, pool []string, logger *slog.Logger) *AlternativeFinder {
	return &AlternativeFinder{
		detector: detector,
		catalog:  catalog,
		pool:     append([]string(nil), pool...),
		logger:   logger,
	}
}

// Find returns up to MaxAlternatives conflict-free rooms for the date and
// window, excluding the original room. An exhausted pool yields an empty
// list, not an error. Candidates whose availability cannot be verified are
// skipped: unknown is never reported as free.
func (f *AlternativeFinder) Find(ctx context.Context, originalRoom string, date timeslot.Date, window timeslot.Window) ([]Alternative, error) {
	if f == nil || f.detector == nil {
		return nil, nil
	}

	candidates, err := f.candidates(ctx)
	if err != nil {
		// The finder runs after a rejection already happened; losing the
		// candidate list degrades to "no alternatives".
		logging.Component(ctx, f.logger, "alternative_finder").WarnContext(ctx, "candidate pool unavailable", "error", err)
		return nil, nil
	}

	alternatives := make([]Alternative, 0, MaxAlternatives)
	for _, code := range candidates {
		if code == "" || code == originalRoom {
			continue
		}

		report, err := f.detector.Detect(ctx, code, date, window)
		if err != nil {
			if errors.Is(err, ErrScheduleUnavailable) {
				logging.Component(ctx, f.logger, "alternative_finder").WarnContext(ctx, "skipping unverifiable candidate", "room", code, "error", err)
				continue
			}
			continue
		}
		if report.HasConflict {
			continue
		}

		alternatives = append(alternatives, Alternative{
			RoomCode:  code,
			Available: true,
			Reason:    "no conflicts detected",
		})
		if len(alternatives) == MaxAlternatives {
			break
		}
	}

	return alternatives, nil
}

func (f *AlternativeFinder) candidates(ctx context.Context) ([]string, error) {
	if len(f.pool) > 0 {
		return f.pool, nil
	}
	if f.catalog == nil {
		return nil, nil
	}
	rooms, err := f.catalog.ActiveRooms(ctx)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(rooms))
	for _, room := range rooms {
		if room.Active {
			codes = append(codes, room.Code)
		}
	}
	return codes, nil
}
