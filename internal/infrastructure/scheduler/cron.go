package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"EthioNews/internal/logging"
	"EthioNews/internal/ports"
)

// CronScheduler runs registered tasks on standard five-field cron expressions.
// A task never overlaps with itself: a tick that fires while the previous run
// is still going is skipped.
type CronScheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	chain   cron.Chain
	log     *slog.Logger
	startup []cron.Job
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler evaluating expressions in loc.
func NewCronScheduler(loc *time.Location, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	cronLog := logging.Cron(log)
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithLogger(cronLog)),
		chain:  cron.NewChain(cron.Recover(cronLog)),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds task to the schedule. Must be called before Start.
func (c *CronScheduler) Register(task ports.Task) error {
	if task.Run == nil {
		return fmt.Errorf("task %s: missing run func", task.Name)
	}
	if task.Spec == "" && !task.RunOnStart {
		return fmt.Errorf("task %s: neither a schedule nor a startup run", task.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return errors.New("scheduler already started")
	}

	job := c.wrap(task)
	if task.Spec != "" {
		if _, err := c.cron.AddJob(task.Spec, job); err != nil {
			return fmt.Errorf("task %s: parse schedule %q: %w", task.Name, task.Spec, err)
		}
	}
	if task.RunOnStart {
		c.startup = append(c.startup, job)
	}
	c.log.Debug("task registered", "task", task.Name, "spec", task.Spec, "run_on_start", task.RunOnStart)
	return nil
}

// Start begins ticking and runs the startup tasks once, in registration order.
// Cancelling ctx cancels running tasks.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	c.started = true

	context.AfterFunc(ctx, c.cancel)
	c.cron.Start()

	startup := c.startup
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for _, job := range startup {
			if c.ctx.Err() != nil {
				return
			}
			job.Run()
		}
	}()

	c.log.Info("scheduler started", "entries", len(c.cron.Entries()), "startup_tasks", len(startup))
	return nil
}

// Stop halts scheduling, cancels running tasks and waits for them until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	c.mu.Unlock()

	c.cancel()
	cronDone := c.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running tasks: %w", ctx.Err())
	}
}

// wrap shares one overlap guard between the startup run and the scheduled ticks.
func (c *CronScheduler) wrap(task ports.Task) cron.Job {
	guard := cron.SkipIfStillRunning(logging.Cron(c.log.With("task", task.Name)))
	return c.chain.Then(guard(cron.FuncJob(func() {
		start := time.Now()
		c.log.Debug("task started", "task", task.Name)
		task.Run(c.ctx)
		c.log.Info("task finished", "task", task.Name, "took", time.Since(start).Round(time.Millisecond))
	})))
}
