package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/visiona/sensorctl/internal/config"
	"github.com/visiona/sensorctl/internal/control"
	"github.com/visiona/sensorctl/internal/driver/mock"
	"github.com/visiona/sensorctl/internal/driver/uart"
	"github.com/visiona/sensorctl/internal/geometry"
	"github.com/visiona/sensorctl/internal/imu"
	"github.com/visiona/sensorctl/internal/sensor"
)

const defaultConfigPath = "config/sensorctl.yaml"

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup structured logger
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting sensorctl service",
		"config", *configPath,
		"debug", *debug,
	)

	if err := run(*configPath); err != nil {
		slog.Error("service error", "error", err)
		os.Exit(1)
	}

	slog.Info("sensorctl service stopped successfully")
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	drv, closeDrv, err := openDriver(cfg)
	if err != nil {
		return err
	}
	defer closeDrv()

	attitude := imu.NewStatic(0, 0)

	ctl, err := sensor.New(drv, attitude, sensor.Config{
		Capabilities: sensor.Capabilities{
			Autofocus:    cfg.Sensor.Capabilities.Autofocus,
			MotionDetect: cfg.Sensor.Capabilities.MotionDetect,
		},
		AutoRotation: cfg.Sensor.AutoRotation,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sensor: %w", err)
	}

	if err := applyStartupState(ctl, cfg); err != nil {
		return fmt.Errorf("failed to apply startup state: %w", err)
	}

	client, err := control.Connect(cfg)
	if err != nil {
		return err
	}
	defer control.Disconnect(client)

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := control.NewHandler(cfg, client, control.NewDispatcher(ctl), cancel)
	if err := handler.Start(ctx); err != nil {
		return err
	}

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal or MQTT shutdown command
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	case <-ctx.Done():
		slog.Info("service stopped (via control plane shutdown command)")
	}

	// Graceful shutdown
	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutS) * time.Second
	slog.Info("shutting down gracefully", "timeout", shutdownTimeout)

	done := make(chan error, 1)
	go func() {
		done <- handler.Stop()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("shutdown timed out after %s", shutdownTimeout)
	}
}

// openDriver builds the configured hardware backend.
func openDriver(cfg *config.Config) (sensor.Driver, func(), error) {
	switch cfg.Driver.Backend {
	case "uart":
		d, err := uart.Open(cfg.Driver.SerialPort)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("sensor bridge opened", "port", cfg.Driver.SerialPort)
		return d, func() { _ = d.Close() }, nil
	case "mock":
		slog.Info("using mock sensor driver")
		return mock.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown driver backend: %s", cfg.Driver.Backend)
}

// applyStartupState pushes the configured defaults through the facade
// so the device starts in a known state.
func applyStartupState(ctl *sensor.Controller, cfg *config.Config) error {
	if err := ctl.Reset(); err != nil {
		return err
	}
	if cfg.Sensor.Pixformat != "" {
		pf, err := sensor.ParsePixformat(cfg.Sensor.Pixformat)
		if err != nil {
			return err
		}
		if err := ctl.SetPixformat(pf); err != nil {
			return err
		}
	}
	if cfg.Sensor.Framesize != "" {
		fs, err := geometry.ParseFrameSize(cfg.Sensor.Framesize)
		if err != nil {
			return err
		}
		if err := ctl.SetFramesize(fs); err != nil {
			return err
		}
	}
	if cfg.Sensor.FPS > 0 {
		if err := ctl.SetFramerate(cfg.Sensor.FPS); err != nil {
			return err
		}
	}
	if err := ctl.SetFramebuffers(cfg.Sensor.Framebuffers); err != nil {
		return err
	}
	return nil
}
