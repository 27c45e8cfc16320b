package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coopco/autopost/internal/bus"
	"github.com/coopco/autopost/internal/channels"
	"github.com/coopco/autopost/internal/config"
	"github.com/coopco/autopost/internal/history"
	"github.com/coopco/autopost/internal/scheduler"
	"github.com/coopco/autopost/internal/server"
	"github.com/coopco/autopost/internal/store"
)

// transport is the only channel deliveries are sent on.
const transport = "discord"

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the profile server and scheduler",
		Long: `Start the HTTP profile API together with the delivery scheduler.

The server provides:
  • Profile storage under storage.profilesPath
  • Attachment uploads under storage.uploadDir
  • Delivery history under storage.historyDir
  • Start/stop of scheduled posting per profile
  • Health check at /healthz

Environment Variables:
  AUTOPOST_SERVER_HOST   Listen host (default: 127.0.0.1)
  AUTOPOST_SERVER_PORT   Listen port (default: 8080)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&host, "host", "", "Host to listen on")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on")
	return serveCmd
}

// app is everything "serve" wires together.
type app struct {
	bus       *bus.MessageBus
	scheduler *scheduler.Service
	handler   http.Handler
}

func newApp(cfg *config.Config) (*app, error) {
	st, err := store.Open(cfg.Storage.ProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}
	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	msgBus := bus.NewMessageBus(100)
	mgr := channels.NewManager(msgBus, 30*time.Second)
	discordCfg, err := json.Marshal(map[string]any{
		"ratePerSecond": cfg.Discord.RatePerSecond,
		"burst":         cfg.Discord.Burst,
		"uploadDir":     cfg.Storage.UploadDir,
	})
	if err != nil {
		return nil, err
	}
	if err := mgr.AddChannel(transport, discordCfg); err != nil {
		return nil, err
	}

	hist := history.NewManager(cfg.Storage.HistoryDir, cfg.Storage.HistoryLimit)
	sched := scheduler.NewService(msgBus, transport)
	sched.OnResult(func(res bus.Result) {
		if err := hist.Record(res); err != nil {
			slog.Warn("failed to record delivery history", "profile", res.Delivery.Profile, "error", err)
		}
	})
	srv := server.New(server.Config{
		Store:     st,
		Scheduler: sched,
		Deliverer: mgr,
		History:   hist,
		Channel:   transport,
		UploadDir: cfg.Storage.UploadDir,
	})
	return &app{bus: msgBus, scheduler: sched, handler: srv.Handler()}, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.scheduler.Start()
	defer a.scheduler.Stop()

	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.bus.DispatchOutbound(gctx)
		return nil
	})
	g.Go(func() error {
		a.scheduler.TrackResults(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("autopost server listening", "addr", httpSrv.Addr, "profiles", cfg.Storage.ProfilesPath)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("autopost server stopped")
	return err
}
