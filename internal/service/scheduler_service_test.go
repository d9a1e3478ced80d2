package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "08:30", want: "0 30 8 * * *"},
		{in: "0:00", want: "0 0 0 * * *"},
		{in: " 23:59 ", want: "0 59 23 * * *"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "1:2:3", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := dailySpec(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("dailySpec(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("dailySpec(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestSchedulerRejectsShortInterval(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())
	if _, err := s.ScheduleInterval(500*time.Millisecond, func() {}); err == nil {
		t.Fatal("expected error for sub-second interval")
	}
	if _, err := s.ScheduleDaily("25:00", func() {}); err == nil {
		t.Fatal("expected error for invalid daily time")
	}
}

func TestSchedulerRunsIntervalJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())
	ran := make(chan struct{}, 1)
	id, err := s.ScheduleInterval(time.Second, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}

	s.Start()
	defer s.Stop()

	if next := s.Next(id); next.IsZero() {
		t.Fatal("expected next run time after start")
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestSchedulerRecoversPanickingJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())
	var calls atomic.Int32
	ran := make(chan int32, 4)
	if _, err := s.ScheduleInterval(time.Second, func() {
		n := calls.Add(1)
		select {
		case ran <- n:
		default:
		}
		if n == 1 {
			panic("boom")
		}
	}); err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}

	s.Start()
	defer s.Stop()

	// The run after the panic must not be skipped as still running.
	for want := int32(1); want <= 3; want++ {
		select {
		case got := <-ran:
			if got != want {
				t.Fatalf("run %d reported as %d", want, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("job run %d missing after panic", want)
		}
	}
}
