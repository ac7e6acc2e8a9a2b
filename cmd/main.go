package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"schoolcal/internal/config"
	"schoolcal/internal/ics"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "schoolcal",
		Usage: "School event calendar backed by Google Sheets.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML config file.",
				EnvVars: []string{"CONFIG_FILE"},
				Value:   "config.yaml",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			eventsCommand(),
			holidaysCommand(),
			exportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds the logger it asks for.
func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := buildDeps(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			srv, err := buildServer(cfg, logger, deps)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen(":" + cfg.Port)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server stopped: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down cleanly: %w", err)
			}
			return nil
		},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List stored events.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			deps, err := buildDeps(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, cancel := context.WithTimeout(c.Context, cfg.UpstreamTimeout)
			defer cancel()
			list, err := deps.Repo.Events(ctx)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}
			printEvents(c.App.Writer, list)
			return nil
		},
	}
}

func holidaysCommand() *cli.Command {
	return &cli.Command{
		Name:  "holidays",
		Usage: "Show the holidays the configured feed returns for a year.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "year", Usage: "Calendar year (defaults to the current year)."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			feed, err := buildHolidayFeed(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			if feed == nil {
				return errors.New("holiday source is disabled")
			}

			year := c.Int("year")
			if year == 0 {
				year = time.Now().In(cfg.Location()).Year()
			}
			ctx, cancel := context.WithTimeout(c.Context, cfg.UpstreamTimeout)
			defer cancel()
			holidays, err := feed.Holidays(ctx, year)
			if err != nil {
				return fmt.Errorf("failed to fetch holidays: %w", err)
			}
			printHolidays(c.App.Writer, holidays)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write stored events as an iCalendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file; '-' writes to stdout.", Value: "-"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			deps, err := buildDeps(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, cancel := context.WithTimeout(c.Context, cfg.UpstreamTimeout)
			defer cancel()
			list, err := deps.Repo.Events(ctx)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			var w io.Writer = c.App.Writer
			if out := c.String("out"); out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("unable to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := ics.Export(w, list, time.Now()); err != nil {
				return err
			}
			logger.Info("Exported events", "count", len(list), "out", c.String("out"))
			return nil
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
