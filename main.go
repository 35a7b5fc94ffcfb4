package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	app "github.com/rocketscienceinc/megattt-backend/internal"
	"github.com/rocketscienceinc/megattt-backend/internal/config"
)

// main - is the entry point of the application. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := initConfig(os.Args[1:])
	logger := initLogger(conf)

	if err := app.RunApp(logger, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize config. An optional first argument overrides the player count.
func initConfig(args []string) *config.Config {
	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	conf := config.MustLoad(filepath.Join(baseDir, "./config.yml"))

	if len(args) > 0 {
		players, err := strconv.Atoi(args[0])
		if err != nil {
			panic(fmt.Errorf("usage: %s [num_players]: %w", filepath.Base(os.Args[0]), err))
		}

		conf.Players = players
		if err = conf.Validate(); err != nil {
			panic(err)
		}
	}

	return conf
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
