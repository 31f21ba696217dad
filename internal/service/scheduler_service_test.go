package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestBuildDailySpec(t *testing.T) {
	t.Parallel()

	spec, err := buildDailySpec("07:05")
	if err != nil {
		t.Fatalf("buildDailySpec returned error: %v", err)
	}
	if spec != "0 5 7 * * *" {
		t.Fatalf("expected %q, got %q", "0 5 7 * * *", spec)
	}

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd", "1:2:3"} {
		if _, err := buildDailySpec(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestSchedulerServiceRegistersJobs(t *testing.T) {
	t.Parallel()

	s := NewSchedulerService(time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
	noop := func(context.Context) error { return nil }

	if _, err := s.ScheduleDaily("09:00", "digest", noop); err != nil {
		t.Fatalf("ScheduleDaily returned error: %v", err)
	}
	if _, err := s.ScheduleInterval(time.Hour, "digest", noop); err != nil {
		t.Fatalf("ScheduleInterval returned error: %v", err)
	}
	if _, err := s.ScheduleInterval(0, "digest", noop); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
}
