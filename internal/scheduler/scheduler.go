package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"IntradayScreener/internal/model"
	"IntradayScreener/internal/notifier"
	"IntradayScreener/internal/scanner"
)

// Scanner runs one scan pass.
type Scanner interface {
	Scan(ctx context.Context, symbols []string, interval model.Interval, lookbackDays int) *model.ScanResult
}

// Notifier delivers alert messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string) error
}

// Job is the scan repeated on every tick.
type Job struct {
	Symbols  []string
	Interval model.Interval
	Lookback int
}

// Options tune the scheduler.
type Options struct {
	Session model.Session
	// MarketHoursOnly skips ticks outside the trading session.
	MarketHoursOnly bool
}

// Scheduler runs the watch loop: scan on a cron schedule and push signals
// that have not been alerted for the same candle yet.
type Scheduler struct {
	Cron     *cron.Cron
	scanner  Scanner
	notifier Notifier
	job      Job
	opts     Options
	ctx      context.Context
	logger   zerolog.Logger
	now      func() time.Time

	running sync.Mutex // held while a scheduled scan runs

	mu      sync.Mutex
	alerted map[string]int64 // symbol|signal -> candle unix time
}

// NewScheduler creates a Scheduler. A nil notifier only logs fired signals.
func NewScheduler(ctx context.Context, sc Scanner, n Notifier, job Job, opts Options) *Scheduler {
	loc := opts.Session.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		scanner:  sc,
		notifier: n,
		job:      job,
		opts:     opts,
		ctx:      ctx,
		logger:   log.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
		alerted:  make(map[string]int64),
	}
}

// Register adds the scan task under a six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Strs("symbols", s.job.Symbols).Str("interval", string(s.job.Interval)).Msg("Scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// RunNow executes one scheduled scan immediately. A tick that arrives while
// the previous scan is still running is skipped.
func (s *Scheduler) RunNow() {
	if !s.running.TryLock() {
		s.logger.Warn().Msg("Previous scan still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	if s.opts.MarketHoursOnly && !s.opts.Session.Contains(s.now()) {
		s.logger.Debug().Msg("Outside market hours, skipping tick")
		return
	}

	res := s.scanner.Scan(s.ctx, s.job.Symbols, s.job.Interval, s.job.Lookback)
	fresh := s.fresh(res.Rows)
	msg := notifier.FormatAlert(res.Interval, res.StartedAt, fresh)
	if msg == "" {
		return
	}
	if s.notifier == nil {
		s.logger.Info().Int("symbols", len(fresh)).Msg("Signals fired (no notifier configured)")
		s.markAlerted(fresh)
		return
	}
	if err := s.notifier.SendWithRetry(s.ctx, msg); err != nil {
		// Not marked, so the next tick on the same candle retries.
		s.logger.Error().Err(err).Msg("Failed to send alert")
		return
	}
	s.markAlerted(fresh)
}

func candleOf(row model.Row) int64 {
	if row.Snapshot == nil {
		return 0
	}
	return row.Snapshot.Time
}

// fresh keeps the fired signals not yet alerted for the row's latest candle.
func (s *Scheduler) fresh(rows []model.Row) []model.Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Row
	for _, row := range rows {
		candle := candleOf(row)
		var signals []model.Signal
		for _, sig := range row.Fired() {
			if last, ok := s.alerted[row.Symbol+"|"+sig.Name]; ok && last == candle {
				continue
			}
			signals = append(signals, sig)
		}
		if len(signals) > 0 {
			row.Signals = signals
			out = append(out, row)
		}
	}
	return out
}

// markAlerted records the signals of rows as delivered for their candle.
func (s *Scheduler) markAlerted(rows []model.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		for _, sig := range row.Signals {
			s.alerted[row.Symbol+"|"+sig.Name] = candleOf(row)
		}
	}
}

// HandleCommand processes a chat command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i] // /scan@screener_bot
	}

	switch cmd {
	case "/scan":
		symbols := s.job.Symbols
		if len(fields) > 1 {
			symbols = scanner.ParseSymbols(fields[1:]...)
		}
		if len(symbols) == 0 {
			return "⚠️ No symbols to scan."
		}
		res := s.scanner.Scan(ctx, symbols, s.job.Interval, s.job.Lookback)
		return notifier.FormatScanReply(res)
	case "/help", "/start":
		return notifier.HelpText()
	default:
		return "Unknown command.\n\n" + notifier.HelpText()
	}
}
