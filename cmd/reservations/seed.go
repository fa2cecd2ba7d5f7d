package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/timeslot"
)

// seedDemo loads the demonstration catalog: the campus rooms plus a handful
// of recurring commitments for the current semester. Existing records are
// left untouched so the seed can run on every start.
func seedDemo(ctx context.Context, rooms persistence.RoomRepository, commitments persistence.CommitmentRepository, now time.Time, logger *slog.Logger) error {
	demoRooms := []persistence.Room{
		{Code: "301-A", Capacity: 35, Faculty: "Ingeniería", Equipment: []string{"Proyector", "Sonido"}},
		{Code: "302-A", Capacity: 40, Faculty: "Ingeniería", Equipment: []string{"Completo"}},
		{Code: "303-A", Capacity: 30, Faculty: "Ingeniería", Equipment: []string{"Básico"}},
		{Code: "205-B", Capacity: 45, Faculty: "Ciencias", Equipment: []string{"Proyector"}},
		{Code: "206-B", Capacity: 50, Faculty: "Ciencias", Equipment: []string{"Completo"}},
		{Code: "401-C", Capacity: 30, Faculty: "Medicina", Equipment: []string{"Básico"}},
		{Code: "102-D", Capacity: 60, Faculty: "Educación", Equipment: []string{"Proyector", "Sonido"}},
		{Code: "103-D", Capacity: 55, Faculty: "Educación", Equipment: []string{"Completo"}},
	}

	seeded := 0
	for _, room := range demoRooms {
		room.Status = persistence.RoomStatusActive
		room.CreatedAt = now
		room.UpdatedAt = now
		if err := rooms.CreateRoom(ctx, room); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				continue
			}
			return err
		}
		seeded++
	}

	semesterStart := timeslot.DateOf(now).AddDays(-30)
	semesterEnd := semesterStart.AddDays(170)
	demoCommitments := []persistence.Commitment{
		{ID: "demo-com-1", RoomCode: "301-A", Weekday: time.Monday, StartMinute: 8 * 60, EndMinute: 10 * 60, Subject: "Matemáticas", Instructor: "Prof. García"},
		{ID: "demo-com-2", RoomCode: "301-A", Weekday: time.Wednesday, StartMinute: 10 * 60, EndMinute: 12 * 60, Subject: "Física", Instructor: "Prof. López"},
		{ID: "demo-com-3", RoomCode: "205-B", Weekday: time.Tuesday, StartMinute: 14 * 60, EndMinute: 16 * 60, Subject: "Química", Instructor: "Prof. Martínez"},
		{ID: "demo-com-4", RoomCode: "102-D", Weekday: time.Friday, StartMinute: 16 * 60, EndMinute: 18 * 60, Subject: "Programación", Instructor: "Prof. Rodríguez"},
	}
	for _, commitment := range demoCommitments {
		commitment.ValidFrom = semesterStart
		commitment.ValidUntil = semesterEnd
		if err := commitments.CreateCommitment(ctx, commitment); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				continue
			}
			return err
		}
		seeded++
	}

	logger.Info("demo data seeded", slog.Int("new_records", seeded))
	return nil
}
