// cmd/meetpoint/main.go
//
// This is the entry point for the meetpoint CLI.
// When you run `meetpoint` from any directory, that directory becomes the
// project: settings, logs and the amenity catalog live under .meetpoint/.
//
// Flow:
// 1. Initialize .meetpoint/ and load config (config.yaml, .env, environment)
// 2. Load the amenity catalog and build the walking engine
// 3. Start the read-only bridge if enabled
// 4. Launch the TUI

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/meetpoint/internal/bridge"
	"github.com/kingrea/meetpoint/internal/config"
	"github.com/kingrea/meetpoint/internal/engine"
	"github.com/kingrea/meetpoint/internal/logbook"
	"github.com/kingrea/meetpoint/internal/session"
	"github.com/kingrea/meetpoint/internal/tui"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}
	if err := config.InitDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .meetpoint directory: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	book, err := logbook.New(cfg.LogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}

	opts := []session.Option{
		session.WithLogger(book),
		session.WithAPIKey(cfg.APIKey()),
	}
	if eng, err := loadEngine(cfg); err != nil {
		// The UI still runs; searches report that no engine is loaded.
		book.Warn("Engine unavailable: %v (put a catalog in %s)", err, cfg.DataDir())
	} else {
		opts = append(opts, session.WithEngine(eng))
		book.Info("Engine ready · %s · %.1f km/h", cfg.CatalogPath(), eng.SpeedKmh())
	}
	sess := session.New(opts...)
	defer sess.Close()

	state := bridge.NewState(bridge.WithStateLogger(book))
	defer state.Track(sess)()
	server := bridge.NewServer(cfg.Bridge(), state, bridge.WithLogger(book))
	switch err := server.Start(context.Background()); {
	case err == nil:
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		}()
	case !errors.Is(err, bridge.ErrDisabled):
		book.Warn("Bridge not started: %v", err)
	}

	app := tui.NewApp(sess, tui.WithLogbook(book), tui.WithAPIKeySaver(cfg.SetAPIKey))
	defer app.Close()

	// Run blocks until the user quits
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func loadEngine(cfg *config.Config) (*engine.Walking, error) {
	catalog, err := engine.LoadCatalog(cfg.CatalogPath())
	if err != nil {
		return nil, err
	}
	return engine.NewWalking(catalog, engine.WithSpeedKmh(cfg.WalkingSpeedKmh()))
}
