//go:build linux

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/dockbar/internal/appbar"
	"github.com/1broseidon/dockbar/internal/barwin"
	"github.com/1broseidon/dockbar/internal/buttons"
	"github.com/1broseidon/dockbar/internal/config"
	"github.com/1broseidon/dockbar/internal/daemon"
	"github.com/1broseidon/dockbar/internal/geom"
	"github.com/1broseidon/dockbar/internal/hotkeys"
	"github.com/1broseidon/dockbar/internal/ipc"
	"github.com/1broseidon/dockbar/internal/launcher"
	"github.com/1broseidon/dockbar/internal/layout"
	"github.com/1broseidon/dockbar/internal/logging"
	"github.com/1broseidon/dockbar/internal/platform"
	"github.com/1broseidon/dockbar/internal/reorder"
	"github.com/1broseidon/dockbar/internal/shell"
	"github.com/1broseidon/dockbar/internal/x11"
)

func runDaemon() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closeLog, err := logging.New(cfg.Logging, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	settings, err := cfg.AppBarSettings()
	if err != nil {
		log.Fatalf("Invalid dock settings: %v", err)
	}
	logger.Info("configuration loaded", "edge", settings.Edge, "thickness", settings.Thickness(), "monitor", settings.Monitor)

	// Connect to display server
	session, err := x11.ResolveSession(os.Environ(), cfg.Display, cfg.XAuthority)
	if err != nil {
		log.Fatalf("Failed to find display: %v", err)
	}
	if err := session.Export(); err != nil {
		logger.Warn("failed to export XAUTHORITY", "error", err)
	}
	conn, err := x11.NewConnection(session.Display)
	if err != nil {
		log.Fatalf("Failed to connect to display %s: %v", session.Display, err)
	}
	defer conn.Close()
	backend := platform.NewLinuxBackend(conn)

	coll := buttons.NewCollection()
	launch := launcher.New(backend, logger.With("component", "launcher"))
	launch.SetEnv(session.Environ(os.Environ()))

	var dock *daemon.Dock
	window, err := barwin.New(barwin.Options{
		Conn:       conn,
		Collection: coll,
		Layout:     cfg.LayoutOptions(),
		DPI:        cfg.DPI,
		Threshold:  reorder.Threshold{X: cfg.Buttons.DragThreshold, Y: cfg.Buttons.DragThreshold},
		Logger:     logger.With("component", "barwin"),
		OnClick: func(b *buttons.Info) {
			if err := launch.Activate(b); err != nil {
				logger.Warn("failed to activate button", "button", b.Key(), "error", err)
			}
		},
		OnReorder: func(mv reorder.Move) { dock.OnReorder(mv) },
		OnMeasured: func(g layout.Grid) {
			if dock != nil {
				dock.OnMeasured(g)
			}
		},
	})
	if err != nil {
		log.Fatalf("Failed to create bar window: %v", err)
	}

	bar := appbar.New(appbar.Options{
		Host:      window,
		Transport: shell.NewX11(conn, logger.With("component", "shell")),
		Monitors:  platform.MonitorProvider(backend),
		Settings:  settings,
		Logger:    logger.With("component", "appbar"),
		OnApplied: func(r geom.Rect) {
			logger.Debug("bar docked", "x", r.Left, "y", r.Top, "width", r.Width(), "height", r.Height())
		},
	})
	dock = daemon.NewDock(bar, window, coll, cfg.LayoutOptions(), logger)

	var initErr error
	window.Do(func() {
		initErr = bar.Initialize()
		window.Show()
	})
	if initErr != nil {
		log.Fatalf("Failed to dock: %v", initErr)
	}

	if cfg.ActivateModifier != "" {
		keys := hotkeys.NewHandler(conn, logger.With("component", "hotkeys"))
		err := keys.RegisterActivation(cfg.ActivateModifier, func(index int) {
			var target *buttons.Info
			window.Do(func() {
				if sorted := coll.Sorted(); index < len(sorted) {
					target = sorted[index]
				}
			})
			if target == nil {
				return
			}
			if err := launch.Activate(target); err != nil {
				logger.Warn("failed to activate button", "button", target.Key(), "error", err)
			}
		})
		if err != nil {
			logger.Warn("activation hotkeys disabled", "error", err)
		}
	}

	// Button sources
	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: time.Duration(cfg.RefreshInterval) * time.Second,
		Logger:   logger.With("component", "reconciler"),
	}, daemon.SourcesFromConfig(cfg), daemon.WindowListerFromBackend(backend), dock.Sync)
	reconciler.ReconcileNow()

	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	defer reconcilerCancel()
	go reconciler.Run(reconcilerCtx)

	// Create config reload channel
	reloadChan := make(chan struct{}, 1)

	ipcServer, err := ipc.NewServer(ipc.ServerOptions{
		Config:     cfg,
		Controller: dock,
		Backend:    backend,
		ReloadChan: reloadChan,
		Logger:     logger.With("component", "ipc"),
	})
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	applyConfig := func(newCfg *config.Config) {
		if err := dock.ApplyConfig(newCfg); err != nil {
			logger.Error("failed to apply config", "error", err)
			return
		}
		reconciler.UpdateSources(daemon.SourcesFromConfig(newCfg))
		logger.Info("config reloaded")
	}

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					logger.Info("received SIGHUP, reloading config")
					newCfg, err := config.Load()
					if err != nil {
						logger.Error("config reload failed", "error", err)
						continue
					}
					ipcServer.UpdateConfig(newCfg)
					applyConfig(newCfg)

				case os.Interrupt, syscall.SIGTERM:
					logger.Info("shutting down dockbar daemon")
					reconcilerCancel()
					ipcServer.Stop()
					window.Do(func() {
						if err := bar.Remove(); err != nil {
							logger.Warn("failed to unregister bar", "error", err)
						}
						window.Close()
					})
					conn.Quit()
					return
				}

			case <-reloadChan:
				// Config was reloaded via IPC
				applyConfig(ipcServer.GetConfig())
			}
		}
	}()

	logger.Info("entering event loop")
	conn.EventLoop()
}
