// ABOUTME: Wires config, logging, storage, and the field service for CLI commands
// ABOUTME: Picks the sqlite, charm, or memory backend and optional geocoder and GPS track
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/harperreed/workly/charm"
	"github.com/harperreed/workly/config"
	"github.com/harperreed/workly/crm"
	"github.com/harperreed/workly/db"
	"github.com/harperreed/workly/fieldwork"
	"github.com/harperreed/workly/geocode"
	"github.com/harperreed/workly/location"
	"github.com/harperreed/workly/logging"
	"github.com/harperreed/workly/session"
	"github.com/harperreed/workly/store"
	"github.com/harperreed/workly/visit"
	"go.uber.org/zap"
)

// geocodeCacheTTL bounds how long a reverse-geocoded address is reused.
const geocodeCacheTTL = 24 * time.Hour

// globalOptions are the persistent root flags.
type globalOptions struct {
	configPath  string
	backend     string
	salesperson string
	logLevel    string
}

// App is everything a command needs for one invocation.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Service *fieldwork.Service
	// Charm is set only for the charm backend.
	Charm *charm.Client

	closers []func() error
}

// appOption adjusts the config after it is loaded and before anything opens.
type appOption func(*config.Config)

func withTrack(path string) appOption {
	return func(cfg *config.Config) {
		if path != "" {
			cfg.Location.Track = path
		}
	}
}

func loadApp(opts *globalOptions, extra ...appOption) (*App, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.Storage.Backend = opts.backend
	}
	if opts.salesperson != "" {
		cfg.Sales.Salesperson = opts.salesperson
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	for _, o := range extra {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, closers: []func() error{closeLog}}
	kv, err := app.openStore()
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	svcOpts := []fieldwork.Option{fieldwork.WithLogger(logger)}
	if cfg.Geocode.APIKey != "" {
		var gopts []geocode.Option
		if cfg.Geocode.BaseURL != "" {
			gopts = append(gopts, geocode.WithBaseURL(cfg.Geocode.BaseURL))
		}
		gopts = append(gopts, geocode.WithLogger(logger))
		svcOpts = append(svcOpts, fieldwork.WithGeocoder(
			geocode.NewCached(geocode.NewGoogleGeocoder(cfg.Geocode.APIKey, gopts...), geocodeCacheTTL)))
	}
	if cfg.Location.Track != "" {
		src, err := openTrack(cfg.Location.Track, cfg.Location.ReplayInterval())
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		svcOpts = append(svcOpts, fieldwork.WithLocationSource(src))
	}

	tracker := session.NewTracker(kv,
		session.WithLogger(logger),
		session.WithCommissionRate(cfg.Sales.CommissionRate))
	visits := visit.NewStore(kv, visit.WithLogger(logger))
	resolver := crm.NewResolver(kv, crm.WithLogger(logger))
	app.Service = fieldwork.NewService(tracker, visits, resolver, svcOpts...)

	logger.Debug("app loaded",
		zap.String("backend", cfg.Storage.Backend),
		zap.Bool("geocoder", cfg.Geocode.APIKey != ""),
		zap.String("track", cfg.Location.Track))
	return app, nil
}

func (a *App) openStore() (store.KV, error) {
	switch a.Config.Storage.Backend {
	case config.BackendCharm:
		client, err := charm.NewClient(&a.Config.Charm)
		if err != nil {
			return nil, err
		}
		a.Charm = client
		a.closers = append(a.closers, client.Close)
		return client, nil

	case config.BackendMemory:
		return store.NewMemory(), nil

	default:
		path := a.Config.Storage.Path
		if path == "" {
			path = db.DefaultPath()
		}
		database, err := db.OpenDatabase(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database %s: %w", path, err)
		}
		a.closers = append(a.closers, database.Close)
		a.Logger.Debug("database opened", zap.String("path", path))
		return db.NewKVStore(database), nil
	}
}

func openTrack(path string, interval time.Duration) (*location.Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track: %w", err)
	}
	defer func() { _ = f.Close() }()

	samples, err := location.ReadTrack(f)
	if err != nil {
		return nil, err
	}
	return &location.Replay{Samples: samples, Interval: interval}, nil
}

// Salesperson is the configured salesperson, falling back to $USER.
func (a *App) Salesperson() string {
	if a.Config.Sales.Salesperson != "" {
		return a.Config.Sales.Salesperson
	}
	return os.Getenv("USER")
}

// Close releases storage and flushes logs, last opened first.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
