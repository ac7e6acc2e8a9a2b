package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"

	"schoolcal/internal/access"
	"schoolcal/internal/caldav"
	"schoolcal/internal/config"
	"schoolcal/internal/events"
	"schoolcal/internal/google"
	"schoolcal/internal/ics"
	"schoolcal/internal/server"
	"schoolcal/internal/session"
	"schoolcal/internal/store"
)

// deps holds the long-lived collaborators shared by every command.
type deps struct {
	Repo    *events.Repository
	closers []func() error
}

// Close releases resources opened by buildDeps.
func (d *deps) Close() {
	for _, c := range d.closers {
		_ = c()
	}
}

func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*deps, error) {
	d := &deps{}

	var table store.Table
	switch cfg.Store.Driver {
	case config.StoreSheets:
		opts, err := googleOptions(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sheets, err := google.NewSheetsClient(ctx, logger, cfg.Store.SpreadsheetID, cfg.Store.SheetName, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets client: %w", err)
		}
		table = sheets
	case config.StoreSQLite:
		db, err := store.OpenSQLite(ctx, logger, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		table = db
	default:
		logger.Warn("Using the in-memory event store; events are lost on restart")
		table = store.NewMemory()
	}
	logger.Info("Initialized event store", "driver", cfg.Store.Driver)

	feed, err := buildHolidayFeed(ctx, cfg, logger)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Repo = events.NewRepository(logger, table, feed, events.WithLocation(cfg.Location()))
	return d, nil
}

// buildHolidayFeed returns nil when holidays are disabled.
func buildHolidayFeed(ctx context.Context, cfg *config.Config, logger *slog.Logger) (events.HolidayFeed, error) {
	h := cfg.Holiday
	switch h.Source {
	case config.HolidayGoogle:
		opts, err := googleOptions(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client, err := google.NewHolidayClient(ctx, logger, h.CalendarID, cfg.Location(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create holiday client: %w", err)
		}
		return client, nil
	case config.HolidayICS:
		return ics.NewFeed(logger, h.ICSURL, cfg.UpstreamTimeout, cfg.Location()), nil
	case config.HolidayCalDAV:
		client, err := caldav.NewHolidayClient(logger, h.CalDAVURL, h.CalDAVUsername, h.CalDAVPassword, h.CalDAVCalendar, cfg.UpstreamTimeout, cfg.Location())
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		logger.Info("Holiday feed disabled")
		return nil, nil
	}
}

func googleOptions(ctx context.Context, cfg *config.Config) ([]option.ClientOption, error) {
	client, err := google.ServiceHTTPClient(ctx, google.ServiceAccount{
		Email:           cfg.Google.ServiceAccountEmail,
		PrivateKey:      cfg.Google.PrivateKey,
		CredentialsFile: cfg.Google.CredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithHTTPClient(client)}, nil
}

func buildServer(cfg *config.Config, logger *slog.Logger, d *deps) (*server.Server, error) {
	if cfg.Production() && cfg.SessionSecret == config.DefaultConfig().SessionSecret {
		return nil, errors.New("SESSION_SECRET must be set in production")
	}

	// Without OAuth credentials the API still serves existing sessions; sign-in answers 503.
	var login server.IdentityProvider
	if cfg.Google.ClientID != "" {
		client, err := google.NewLoginClient(logger, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL)
		if err != nil {
			return nil, err
		}
		login = client
	} else {
		logger.Warn("GOOGLE_CLIENT_ID not set; Google sign-in is disabled")
	}

	policy := access.NewPolicy(cfg.Access.AdminEmails, cfg.Access.AllowedEmails, cfg.Access.AllowedDomains)
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)

	return server.New(logger, d.Repo, login, sessions, policy, server.Options{
		SchoolNameKo:   cfg.SchoolNameKo,
		SchoolNameEn:   cfg.SchoolNameEn,
		SecureCookies:  cfg.Production(),
		RequestTimeout: cfg.UpstreamTimeout,
	}), nil
}
