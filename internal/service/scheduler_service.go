package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewSchedulerService creates a seconds-precision scheduler in loc. Panicking
// jobs are recovered and logged through log.
func NewSchedulerService(loc *time.Location, log zerolog.Logger) *SchedulerService {
	cronLog := log.With().Str("component", "cron").Logger()
	logger := cron.PrintfLogger(&cronLog)
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(logger),
			// Recover must sit inside SkipIfStillRunning: the skip wrapper
			// releases its slot only when the job returns normally.
			cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)),
		),
		log: log,
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := dailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	s.log.Debug().Str("at", timeStr).Str("spec", spec).Msg("schedule daily job")
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval registers a job repeating every interval, rounded down to
// whole seconds.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("interval must be at least 1s, got %s", interval)
	}
	spec := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	s.log.Debug().Dur("every", interval).Str("spec", spec).Msg("schedule interval job")
	return s.cron.AddFunc(spec, job)
}

// Next reports when the entry runs next. It is zero until Start is called.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func dailySpec(timeStr string) (string, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
