package main

import (
	"context"
	"ctftimebot/internal/bot"
	"ctftimebot/internal/config"
	"ctftimebot/internal/ctftime"
	"ctftimebot/internal/registry"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("ctftimebot stopped")
		os.Exit(1)
	}
}

func run() error {

	var envFile, dataFile, logLevel string
	flagSet := pflag.NewFlagSet("ctftimebot", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "file with environment variables to load before reading the configuration")
	flagSet.StringVar(&dataFile, "data", "", "file holding the custom CTFs, empty to keep them in memory (overrides CUSTOM_CTFS_FILE)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	// Configuration
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}
	if logLevel != "" {
		os.Setenv("LOG_LEVEL", logLevel)
	}
	if flagSet.Changed("data") {
		os.Setenv("CUSTOM_CTFS_FILE", dataFile)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Logging
	level, _ := cfg.Level()
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	zerolog.DefaultContextLogger = &log.Logger
	log.Info().Msg("Hello from inside ctftimebot")

	// Custom CTFs
	var store registry.Store
	if cfg.DataFile == "" {
		log.Warn().Msg("No file for the custom CTFs, they will be lost on exit")
		store = registry.NewMemoryStore()
	} else {
		log.Info().Msg(fmt.Sprintf("Custom CTFs are stored in %s", cfg.DataFile))
		store = registry.NewFileStore(cfg.DataFile)
	}
	reg, err := registry.Load(store)
	if err != nil {
		return err
	}

	// CTFTime
	directory := ctftime.NewClient(cfg.DirectoryUrl, cfg.DirectoryUserAgent, cfg.DirectoryTimeout)

	// Run bot until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bot.New(cfg, reg, directory).Run(ctx)
}
