package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"
	"uct/experiments"
	"uct/game"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "YAML experiment config; flags set explicitly override it")
	workers := flag.Int("workers", 0, "Number of concurrent search workers")
	budget := flag.Int("budget", 0, "Iterations of the first search; step l gets budget/(l+1)")
	steps := flag.Int("steps", 0, "Searches per episode")
	seed := flag.Uint64("seed", 0, "Base seed; worker i uses seed+i")
	out := flag.String("out", "", "Directory for experiment records")
	format := flag.String("format", "", "Record format: csv or parquet")
	dot := flag.Bool("dot", false, "Also store each worker's final search tree as Graphviz DOT")
	fanOut := flag.Bool("fanout", false, "Run a single round of searches with decaying budgets across workers instead of full episodes")
	logLevel := flag.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	pretty := flag.Bool("pretty", false, "Human readable console logs")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	cfg := experiments.DefaultConfig()
	if *configPath != "" {
		cfg, err = experiments.LoadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = *workers
		case "budget":
			cfg.InitialBudget = *budget
		case "steps":
			cfg.Steps = *steps
		case "seed":
			cfg.Seed = *seed
		case "out":
			cfg.OutDir = *out
		case "format":
			cfg.Format = *format
		case "dot":
			cfg.Dot = *dot
		}
	})
	validate := cfg.Validate
	if *fanOut {
		validate = cfg.ValidateFanOut
	}
	if err := validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initial := func() game.State { return game.NewSumState() }

	if *fanOut {
		if _, err := experiments.RunFanOut(ctx, cfg, initial); err != nil {
			log.Fatal().Err(err).Msg("fan-out failed")
		}
		return
	}

	report, err := experiments.Run(ctx, cfg, initial)
	if err != nil {
		log.Fatal().Err(err).Msg("experiment failed")
	}
	for _, e := range report.Episodes {
		log.Info().Msgf("worker %d: %s", e.Metric.Worker, e.Metric.Final)
	}
	if report.Dir != "" {
		log.Info().Msgf("records stored in %s", report.Dir)
	}
}
