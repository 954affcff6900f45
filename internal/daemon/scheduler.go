package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/logfields"
	"github.com/pipewright/pipewright/internal/queue"
)

// Scheduler enqueues periodic verification runs against the main branch so
// toolchain or dependency drift surfaces even when nothing is pushed.
type Scheduler struct {
	cfg       *config.Config
	queue     *queue.RunQueue
	scheduler gocron.Scheduler
}

// NewScheduler builds the periodic scheduler. A zero interval disables it.
func NewScheduler(cfg *config.Config, runQueue *queue.RunQueue) (*Scheduler, error) {
	s := &Scheduler{cfg: cfg, queue: runQueue}
	if cfg.Daemon.ScheduleMinutes <= 0 {
		return s, nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	job, err := sched.NewJob(
		gocron.DurationJob(time.Duration(cfg.Daemon.ScheduleMinutes)*time.Minute),
		gocron.NewTask(s.enqueueScheduledRun),
	)
	if err != nil {
		return nil, fmt.Errorf("register scheduled verification: %w", err)
	}
	slog.Info("scheduled verification enabled",
		logfields.ScheduleID(job.ID().String()),
		slog.Int("interval_minutes", cfg.Daemon.ScheduleMinutes))

	s.scheduler = sched
	return s, nil
}

// Start begins firing scheduled runs. No-op when scheduling is disabled.
func (s *Scheduler) Start(_ context.Context) {
	if s.scheduler != nil {
		s.scheduler.Start()
	}
}

// Stop shuts the scheduler down, waiting for a running task to finish.
func (s *Scheduler) Stop(_ context.Context) error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

func (s *Scheduler) enqueueScheduledRun() {
	branch := s.cfg.Repository.MainBranch
	ev := event.Push(s.cfg.Repository.Name, branch, "")

	job := &queue.RunJob{
		ID:        uuid.New().String(),
		Type:      queue.RunTypeScheduled,
		Event:     ev,
		Status:    queue.RunStatusQueued,
		CreatedAt: time.Now(),
	}
	if err := s.queue.Enqueue(job); err != nil {
		if errors.Is(err, queue.ErrDuplicate) {
			slog.Debug("scheduled run skipped, commit already in flight", logfields.Ref(ev.Ref))
			return
		}
		slog.Warn("failed to enqueue scheduled run", logfields.Error(err))
		return
	}
	slog.Info("scheduled run queued", logfields.Job(job.ID), logfields.Ref(ev.Ref))
}
