package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/riskibarqy/fpl-insight/internal/domain/player"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
)

const (
	JobRefreshDirectory = "refresh-player-directory"
	JobRefreshEvents    = "refresh-gameweek-events"

	defaultDirectoryInterval = 24 * time.Hour
	defaultEventsInterval    = time.Hour
	defaultJobTimeout        = 30 * time.Second
)

type BootstrapRefresher interface {
	RefreshBootstrap(ctx context.Context) error
}

type DirectoryRefresher interface {
	Refresh(ctx context.Context) (player.Directory, error)
}

type EventsInvalidator interface {
	Invalidate(ctx context.Context)
}

type Options struct {
	DirectoryInterval time.Duration
	EventsInterval    time.Duration
	JobTimeout        time.Duration
	Location          *time.Location
}

// Scheduler keeps the upstream directory and gameweek caches warm.
type Scheduler struct {
	s         gocron.Scheduler
	bootstrap BootstrapRefresher
	directory DirectoryRefresher
	events    EventsInvalidator
	opts      Options
	logger    *logging.Logger
}

func New(bootstrap BootstrapRefresher, directory DirectoryRefresher, events EventsInvalidator, opts Options, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.DirectoryInterval <= 0 {
		opts.DirectoryInterval = defaultDirectoryInterval
	}
	if opts.EventsInterval <= 0 {
		opts.EventsInterval = defaultEventsInterval
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = defaultJobTimeout
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(opts.Location))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:         s,
		bootstrap: bootstrap,
		directory: directory,
		events:    events,
		opts:      opts,
		logger:    logger.Named("scheduler"),
	}, nil
}

// Start registers the refresh jobs; both run once immediately.
func (s *Scheduler) Start() error {
	if s.bootstrap != nil || s.events != nil {
		if err := s.addJob(JobRefreshEvents, s.opts.EventsInterval, s.refreshEvents); err != nil {
			return err
		}
	}
	if s.directory != nil {
		if err := s.addJob(JobRefreshDirectory, s.opts.DirectoryInterval, s.refreshDirectory); err != nil {
			return err
		}
	}

	s.s.Start()
	s.logger.Info("scheduler started",
		"jobs", len(s.s.Jobs()),
		"directory_interval", s.opts.DirectoryInterval,
		"events_interval", s.opts.EventsInterval,
	)
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) addJob(name string, every time.Duration, task func()) error {
	_, err := s.s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", name, err)
	}
	return nil
}

func (s *Scheduler) refreshEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()

	if s.bootstrap != nil {
		if err := s.bootstrap.RefreshBootstrap(ctx); err != nil {
			s.logger.Warn("bootstrap refresh failed", "job", JobRefreshEvents, "error", err)
			return
		}
	}
	if s.events != nil {
		s.events.Invalidate(ctx)
	}
	s.logger.Debug("gameweek events refreshed", "job", JobRefreshEvents)
}

func (s *Scheduler) refreshDirectory() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()

	dir, err := s.directory.Refresh(ctx)
	if err != nil {
		s.logger.Warn("player directory refresh failed", "job", JobRefreshDirectory, "error", err)
		return
	}
	s.logger.Info("player directory refreshed", "job", JobRefreshDirectory, "players", dir.Len())
}
