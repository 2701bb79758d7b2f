package main

import (
	"os"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"IntradayScreener/internal/config"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).With().Timestamp().Logger()

	if err := cliApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("screener failed")
	}
}

func cliApp() *cli.App {
	return &cli.App{
		Name:  "screener",
		Usage: "intraday stock screener: RSI, MACD, VWAP and EMA setups on the latest candle",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   config.DefaultPath,
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error (overrides log.level)",
			},
		},
		Commands: []*cli.Command{
			scanCommand(),
			watchCommand(),
			serveCommand(),
		},
	}
}
