package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

// Schedule holds the cron expressions of the recurring jobs.
type Schedule struct {
	Ingest       string
	Summarize    string
	MorningBrief string
	EveningBrief string
}

// SchedulerDeps wires jobs to the scheduling driver.
type SchedulerDeps struct {
	Driver    ports.Scheduler
	Ingest    *IngestPipeline
	Summarize *SummarizeJob
	Narrator  *Narrator
	Schedule  Schedule
	Logger    *slog.Logger
	// Clock must return time in the scheduler's location; it picks the startup brief slot.
	Clock func() time.Time
}

// Scheduler registers the pipeline jobs with a cron-like driver.
type Scheduler struct {
	driver    ports.Scheduler
	ingest    *IngestPipeline
	summarize *SummarizeJob
	narrator  *Narrator
	schedule  Schedule
	logger    *slog.Logger
	clock     func() time.Time
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	return &Scheduler{
		driver:    deps.Driver,
		ingest:    deps.Ingest,
		summarize: deps.Summarize,
		narrator:  deps.Narrator,
		schedule:  deps.Schedule,
		logger:    loggerOrDiscard(deps.Logger),
		clock:     clockOrNow(deps.Clock),
	}
}

// Tasks lists the jobs in registration order.
func (s *Scheduler) Tasks() []ports.Task {
	var tasks []ports.Task
	if s.ingest != nil {
		tasks = append(tasks, ports.Task{
			Name:       "ingest-feeds",
			Spec:       s.schedule.Ingest,
			RunOnStart: true,
			Run: func(ctx context.Context) {
				s.ingest.FetchAllFeeds(ctx)
			},
		})
	}
	if s.summarize != nil {
		tasks = append(tasks, ports.Task{
			Name:       "summarize",
			Spec:       s.schedule.Summarize,
			RunOnStart: true,
			Run: func(ctx context.Context) {
				if _, err := s.summarize.SummarizeUnsummarizedStories(ctx); err != nil {
					s.logger.Error("summarization failed", "error", err)
				}
			},
		})
	}
	if s.narrator != nil {
		tasks = append(tasks,
			ports.Task{
				Name: "daily-brief-morning",
				Spec: s.schedule.MorningBrief,
				Run:  func(ctx context.Context) { s.runBriefs(ctx, domain.SlotMorning) },
			},
			ports.Task{
				Name: "daily-brief-evening",
				Spec: s.schedule.EveningBrief,
				Run:  func(ctx context.Context) { s.runBriefs(ctx, domain.SlotEvening) },
			},
			ports.Task{
				Name:       "daily-brief-startup",
				RunOnStart: true,
				Run: func(ctx context.Context) {
					s.runBriefs(ctx, domain.SlotAt(s.clock()))
				},
			},
		)
	}
	return tasks
}

// Start registers every task with the driver and starts it.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	for _, task := range s.Tasks() {
		if err := s.driver.Register(task); err != nil {
			return fmt.Errorf("register task %s: %w", task.Name, err)
		}
	}
	return s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) runBriefs(ctx context.Context, slot domain.Slot) {
	for _, lang := range domain.Languages() {
		if _, err := s.narrator.GenerateDailyBrief(ctx, slot, lang); err != nil {
			s.logger.Error("daily brief failed", "slot", slot, "lang", lang, "error", err)
		}
	}
}
