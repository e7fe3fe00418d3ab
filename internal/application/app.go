// Package application assembles the store, import service, printer and
// export registry from configuration. Both the HTTP server and the CLI
// start from New.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/addrbook/internal/config"
	"github.com/JonMunkholm/addrbook/internal/core"
	"github.com/JonMunkholm/addrbook/internal/export"
	"github.com/JonMunkholm/addrbook/internal/layout"
	"github.com/JonMunkholm/addrbook/internal/store"
)

// App holds the wired components. Close releases the store.
type App struct {
	Config  *config.Config
	Store   store.Store
	Service *core.Service
	Printer *layout.Printer
	Exports *export.Registry
}

// New opens the store and loads the print profile named in cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	profile, err := layout.LoadProfile(cfg.Print.Profile, cfg.Print.FontDir)
	if err != nil {
		return nil, err
	}
	printer, err := layout.NewPrinterFromProfile(profile)
	if err != nil {
		return nil, fmt.Errorf("print profile: %w", err)
	}

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	slog.Info("store opened", "backend", store.Backend(cfg.Database.URL))

	limiter := core.NewImportLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	return &App{
		Config:  cfg,
		Store:   st,
		Service: core.NewService(st, limiter),
		Printer: printer,
		Exports: export.NewDefaultRegistry(printer.Registry(), cfg.Export.DisabledFormats...),
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
