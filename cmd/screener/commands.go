package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"IntradayScreener/internal/api"
	"IntradayScreener/internal/collector"
	"IntradayScreener/internal/config"
	"IntradayScreener/internal/model"
	"IntradayScreener/internal/notifier"
	"IntradayScreener/internal/recorder"
	"IntradayScreener/internal/scanner"
	"IntradayScreener/internal/scheduler"
	"IntradayScreener/internal/strategy"
)

// app bundles the components shared by every command.
type app struct {
	cfg      *config.Config
	session  model.Session
	scanner  *scanner.Scanner
	recorder recorder.Recorder
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Warn().Err(err).Msg("close recorder")
	}
}

// loadConfig reads .env and the config file, then applies the command-line
// overrides through override before validating.
func loadConfig(c *cli.Context, override func(*config.Config)) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func newApp(cfg *config.Config) (*app, error) {
	session, err := cfg.Session()
	if err != nil {
		return nil, err
	}

	fetcher, err := collector.New(cfg.CollectorOptions(session))
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	log.Info().Str("source", fetcher.Name()).Msg("Data source ready")

	evaluator, err := strategy.NewEvaluator(cfg.Strategy, session)
	if err != nil {
		return nil, fmt.Errorf("init evaluator: %w", err)
	}

	rec, err := recorder.Open(cfg.Database.SQLitePath, cfg.Database.PostgresDSN)
	if err != nil {
		log.Warn().Err(err).Msg("Init recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
	}

	return &app{
		cfg:      cfg,
		session:  session,
		scanner:  scanner.New(fetcher, evaluator, rec),
		recorder: rec,
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "run one scan and print the signals",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "symbols", Aliases: []string{"s"}, Usage: "comma-separated tickers, e.g. RELIANCE.NS,INFY.NS"},
			&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Usage: "candle interval: 5m, 15m or 30m"},
			&cli.IntFlag{Name: "lookback", Aliases: []string{"l"}, Usage: "days of history to fetch (1-10)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format: lines or table"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c, func(cfg *config.Config) {
				if c.IsSet("symbols") {
					cfg.Screener.Symbols = scanner.ParseSymbols(c.String("symbols"))
				}
				if c.IsSet("interval") {
					cfg.Screener.Interval = c.String("interval")
				}
				if c.IsSet("lookback") {
					cfg.Screener.LookbackDays = c.Int("lookback")
				}
				if c.IsSet("format") {
					cfg.Screener.Format = c.String("format")
				}
			})
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			res := a.scanner.Scan(ctx, cfg.Symbols(), cfg.Interval(), cfg.Screener.LookbackDays)
			if cfg.Screener.Format == "table" {
				return notifier.FormatTable(os.Stdout, res)
			}
			return notifier.FormatLines(os.Stdout, res)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "scan on the configured cron schedule and push signals to Telegram",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "run-on-start", Usage: "run one scan immediately", EnvVars: []string{"RUN_ON_START"}},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c, nil)
			if err != nil {
				return err
			}
			if err := cfg.ValidateWatch(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			chatID, err := cfg.ChatID()
			if err != nil {
				return err
			}
			tn, err := notifier.NewTelegramNotifier(notifier.Options{
				Token:    cfg.Telegram.BotToken,
				ChatID:   chatID,
				ProxyURL: cfg.Proxy,
			})
			if err != nil {
				return fmt.Errorf("init telegram: %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			job := scheduler.Job{Symbols: cfg.Symbols(), Interval: cfg.Interval(), Lookback: cfg.Screener.LookbackDays}
			sched := scheduler.NewScheduler(ctx, a.scanner, tn, job, scheduler.Options{
				Session:         a.session,
				MarketHoursOnly: cfg.Schedule.MarketHoursOnly,
			})
			if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("Telegram polling started")

			if c.Bool("run-on-start") || cfg.Schedule.RunOnStart {
				log.Info().Msg("Run on start enabled, executing scan now")
				go sched.RunNow()
			}

			log.Info().Str("cron", cfg.Schedule.ScanCron).Msg("Screener is running. Press Ctrl+C to stop.")
			<-ctx.Done()
			log.Info().Msg("Shutdown signal received, stopping...")
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve scans over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides server.addr)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c, func(cfg *config.Config) {
				if c.IsSet("addr") {
					cfg.Server.Addr = c.String("addr")
				}
			})
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			srv := api.NewServer(a.scanner, api.Defaults{
				Symbols:  cfg.Symbols(),
				Interval: cfg.Interval(),
				Lookback: cfg.Screener.LookbackDays,
			})
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
}
