package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lcalzada-xor/blemap/internal/adapters/lookup"
	"github.com/lcalzada-xor/blemap/internal/adapters/render"
	"github.com/lcalzada-xor/blemap/internal/adapters/reporting"
	"github.com/lcalzada-xor/blemap/internal/adapters/scanner"
	"github.com/lcalzada-xor/blemap/internal/adapters/storage"
	"github.com/lcalzada-xor/blemap/internal/adapters/web"
	"github.com/lcalzada-xor/blemap/internal/config"
	"github.com/lcalzada-xor/blemap/internal/core/ports"
	"github.com/lcalzada-xor/blemap/internal/core/services/persistence"
	"github.com/lcalzada-xor/blemap/internal/core/services/presence"
	"github.com/lcalzada-xor/blemap/internal/core/services/resolver"
	"github.com/lcalzada-xor/blemap/internal/core/services/tracker"
	"github.com/lcalzada-xor/blemap/internal/telemetry"
)

// scannerStopTimeout bounds the scan-stop call on shutdown.
const scannerStopTimeout = 5 * time.Second

// Application holds the core components and acts as the facade wiring the
// presence pipeline to its adapters.
type Application struct {
	Config      *config.Config
	Store       *presence.Store
	Tracker     *tracker.Tracker
	Persistence *persistence.Manager
	Storage     *storage.SQLiteAdapter
	Scanner     ports.Scanner
	WebServer   *web.Server
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}
	if err := app.bootstrap(); err != nil {
		// Release the storage handle if it was opened before the failure.
		if app.Storage != nil {
			if closeErr := app.Storage.Close(); closeErr != nil {
				slog.Warn("Failed to close storage after bootstrap error", "error", closeErr)
			}
		}
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	store, err := presence.NewStore(app.Config.Window(), app.Config.MinSamples)
	if err != nil {
		return err
	}
	app.Store = store

	manufacturers := lookup.NewManufacturerTable()
	if app.Config.ManufacturerDB != "" {
		if err := manufacturers.LoadFile(app.Config.ManufacturerDB); err != nil {
			return err
		}
	}

	sqlStore, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("open storage at %s: %w", app.Config.DBPath, err)
	}
	app.Storage = sqlStore

	pm, err := persistence.NewManager(sqlStore, 256)
	if err != nil {
		return err
	}
	app.Persistence = pm

	res := resolver.New(resolver.Config{Debug: app.Config.Debug})
	console := render.NewConsole(os.Stdout, app.Config.Window())

	trk, err := tracker.New(tracker.Config{
		RSSIThreshold: app.Config.RSSIThreshold,
		TickInterval:  app.Config.TickInterval(),
		Debug:         app.Config.Debug,
	}, store, res, lookup.NewResolver(manufacturers), pm, console)
	if err != nil {
		return err
	}
	app.Tracker = trk

	if !app.Config.MockMode {
		// No radio bindings ship with this build; the scanner port is the
		// integration point for a real advertisement source.
		return fmt.Errorf("no advertisement source available, run with -mock")
	}
	app.Scanner = scanner.NewMock(0, 0)

	app.WebServer = web.NewServer(app.Config.Addr, trk, sqlStore)
	return nil
}

// Run starts the application components and manages their execution lifecycle.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting blemap components...",
		"window_sec", app.Config.WindowSec,
		"rssi_threshold", app.Config.RSSIThreshold,
		"debug", app.Config.Debug)

	if err := app.Persistence.Start(ctx); err != nil {
		return err
	}

	errChan := make(chan error, 2)

	// Ingestion worker: drains the scanner into the tracker. Exits when the
	// scanner closes its channel on Stop.
	ingestDone := make(chan struct{})
	go func() {
		defer close(ingestDone)
		for s := range app.Scanner.Sightings() {
			app.Tracker.HandleSighting(s)
		}
	}()

	go app.Tracker.Run(ctx)

	go func() {
		slog.Info("Web server listening", "addr", app.Config.Addr)
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	if err := app.Scanner.Start(ctx); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	slog.Info("blemap ready. Press Ctrl+C to terminate.")

	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case err := <-errChan:
		app.cleanup(ingestDone)
		return err
	}

	return app.cleanup(ingestDone)
}

// cleanup stops the scanner, waits for ingestion to drain, and closes the
// persistence session exactly once.
func (app *Application) cleanup(ingestDone <-chan struct{}) error {
	slog.Info("Cleaning up resources...")

	stopCtx, cancel := context.WithTimeout(context.Background(), scannerStopTimeout)
	defer cancel()
	if err := app.Scanner.Stop(stopCtx); err != nil {
		slog.Warn("Scanner did not stop cleanly", "error", err)
	}

	select {
	case <-ingestDone:
	case <-time.After(scannerStopTimeout):
		slog.Warn("Ingestion worker did not drain in time")
	}

	session, hadSession := app.Storage.CurrentSession()

	if err := app.Persistence.Close(); err != nil {
		slog.Error("Failed to close persistence session", "error", err)
	}

	if app.Config.ExportPDFPath != "" && hadSession {
		if err := app.exportSessionPDF(session.ID); err != nil {
			slog.Error("Session PDF export failed", "error", err)
		} else {
			slog.Info("Session PDF written", "path", app.Config.ExportPDFPath)
		}
	}

	return app.Storage.Close()
}

func (app *Application) exportSessionPDF(sessionID string) error {
	session, err := app.Storage.GetSession(sessionID)
	if err != nil {
		return err
	}
	txCount, err := app.Storage.CountTransactions(sessionID)
	if err != nil {
		return err
	}
	reports, err := app.Storage.ListReports(sessionID)
	if err != nil {
		return err
	}

	exporter := reporting.NewPDFExporter()
	return exporter.ExportToFile(app.Config.ExportPDFPath, reporting.SessionSummary{
		Session:          session,
		TransactionCount: txCount,
		Reports:          reports,
	})
}
