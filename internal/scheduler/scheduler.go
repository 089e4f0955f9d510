package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"RateSentinel/internal/collector"
	"RateSentinel/internal/comparator"
	"RateSentinel/internal/model"
	"RateSentinel/internal/notifier"
	"RateSentinel/internal/strategy"
	"RateSentinel/internal/tracker"
)

// Job describes what a scheduled run does after fetching.
type Job struct {
	Mode     collector.Mode
	Strategy string
	Params   strategy.Params
}

// Scheduler runs the watch loop: scheduled fetches followed by a recommendation.
type Scheduler struct {
	Cron     *cron.Cron
	Tracker  *tracker.Tracker
	Notifier *notifier.TelegramNotifier // nil disables messages
	Job      Job
	Ctx      context.Context
}

// NewScheduler creates a Scheduler. Runs never overlap: a tick arriving while
// the previous run is still going is skipped.
func NewScheduler(ctx context.Context, tr *tracker.Tracker, tn *notifier.TelegramNotifier, job Job) *Scheduler {
	if job.Strategy == "" {
		job.Strategy = "ma"
	}
	cronLog := log.With().Str("component", "cron").Logger()
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.PrintfLogger(&cronLog)), cron.SkipIfStillRunning(cron.PrintfLogger(&cronLog))),
		),
		Tracker:  tr,
		Notifier: tn,
		Job:      job,
		Ctx:      ctx,
	}
}

// Register adds the fetch task on fetchCron (six fields, with seconds).
func (s *Scheduler) Register(fetchCron string) error {
	if _, err := s.Cron.AddFunc(fetchCron, s.fetchTask); err != nil {
		return fmt.Errorf("register fetch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Str("pair", s.Tracker.Pair()).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the fetch task immediately.
func (s *Scheduler) RunNow() {
	s.fetchTask()
}

func (s *Scheduler) fetchTask() {
	runID := uuid.NewString()
	logger := log.With().Str("run", runID).Str("pair", s.Tracker.Pair()).Logger()
	logger.Info().Msg("running scheduled fetch")

	obs, err := s.Tracker.Fetch(s.Ctx, s.Job.Mode)
	if err != nil {
		logger.Error().Err(err).Msg("scheduled fetch failed")
		s.trySend(notifier.FormatFailure(s.Tracker.Pair(), "fetch", err))
		return
	}

	sig, err := s.Tracker.Recommend(s.Job.Strategy, s.Job.Params)
	if err != nil {
		logger.Warn().Err(err).Msg("recommendation skipped")
		s.trySend(notifier.FormatObservation(s.Tracker.Pair(), obs))
		return
	}
	logger.Info().
		Str("strategy", sig.Strategy).
		Str("recommendation", string(sig.Recommendation)).
		Float64("metric", sig.MetricValue).
		Msg("scheduled run complete")
	s.trySend(notifier.FormatSignal(s.Tracker.Pair(), sig))
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch strings.ToLower(fields[0]) {
	case "/rate":
		series, err := s.Tracker.Series()
		if err != nil {
			return notifier.FormatFailure(s.Tracker.Pair(), "load", err)
		}
		latest, ok := series.Latest()
		if !ok {
			return "No rates stored yet."
		}
		return notifier.FormatObservation(s.Tracker.Pair(), latest)
	case "/fetch":
		obs, err := s.Tracker.Fetch(ctx, collector.ParseMode(arg(1)))
		if err != nil {
			return notifier.FormatFailure(s.Tracker.Pair(), "fetch", err)
		}
		return notifier.FormatObservation(s.Tracker.Pair(), obs)
	case "/recommend":
		name := arg(1)
		if name == "" {
			name = s.Job.Strategy
		}
		sig, err := s.Tracker.Recommend(name, s.Job.Params)
		if err != nil {
			return notifier.FormatFailure(s.Tracker.Pair(), "recommend", err)
		}
		return notifier.FormatSignal(s.Tracker.Pair(), sig)
	case "/compare":
		res, err := s.Tracker.Compare(
			model.Window{Length: comparator.DefaultLength},
			model.Window{Length: comparator.DefaultLength},
		)
		if err != nil {
			return notifier.FormatFailure(s.Tracker.Pair(), "compare", err)
		}
		return notifier.FormatComparison(res)
	default:
		return "Available commands:\n• /rate\n• /fetch [source]\n• /recommend [ma|rsi|ma-cross]\n• /compare"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
