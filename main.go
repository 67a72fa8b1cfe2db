package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pelco-remote/internal/app"
	"pelco-remote/internal/config"
	"pelco-remote/internal/logging"
	"pelco-remote/internal/metrics"
	"pelco-remote/internal/ptz"
	"pelco-remote/internal/server"
)

//go:embed web/*
var staticFiles embed.FS

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "pelco-remote: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("pelco-remote", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default: $PELCO_CONFIG or configs/pelco.yaml)")
	listenAddr := fs.String("listen", "", "HTTP listen address, overrides http.addr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if *listenAddr != "" {
		cfg.HTTP.Addr = *listenAddr
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	opts := []server.Option{server.WithLogger(logger)}
	if cfg.Metrics.Enable {
		opts = append(opts, server.WithMetrics(m, metrics.Handler(reg)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The web UI still serves video when the RS-485 adapter is missing.
	var camera server.Camera
	var ctrl *ptz.PelcoController
	rig, err := app.OpenRig(cfg, logger, m)
	if err != nil {
		log.Warn("camera control unavailable", zap.Error(err))
	} else {
		ctrl, err = app.NewController(cfg, rig, logger, m)
		if err != nil {
			_ = rig.Close()
			return fmt.Errorf("controller: %w", err)
		}
		camera = ctrl
		go func() { _ = ctrl.Run(ctx) }()
		log.Info("camera control ready",
			zap.Int("address", cfg.Camera.Address),
			zap.String("model", cfg.Camera.Model),
			zap.Int("baud", cfg.Serial.Baud))
	}

	srv, err := server.New(server.Config{
		ListenAddr:    cfg.HTTP.Addr,
		RTSPURL:       cfg.Video.RTSPURL,
		ICEServers:    cfg.Video.ICEServers,
		ICEIPs:        cfg.Video.ICEIPs,
		CameraAddress: cfg.Camera.Address,
		MessageRate:   cfg.Control.MessageRate,
		MessageBurst:  cfg.Control.MessageBurst,
		MetricsPath:   cfg.Metrics.Path,
	}, staticFiles, camera, opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	if len(cfg.Video.ICEIPs) > 0 {
		log.Info("ICE-lite enabled", zap.Strings("ips", cfg.Video.ICEIPs))
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	if ctrl != nil {
		if err := ctrl.Close(); err != nil {
			log.Warn("close camera", zap.Error(err))
		}
	}
	return nil
}
