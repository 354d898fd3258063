package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	_ "condensing_unit/docs"
	"condensing_unit/internal/config"
	"condensing_unit/internal/control"
	"condensing_unit/internal/handlers"
	"condensing_unit/internal/logger"
	"condensing_unit/internal/models"
	"condensing_unit/internal/repository"
	"condensing_unit/internal/repository/db"
	"condensing_unit/internal/server"
	"condensing_unit/internal/service"
	"condensing_unit/internal/telemetry"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the control loop against the plant simulator and serve the read-only API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configDir, ".")
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	log := logger.Get(cfg.Log.Level, cfg.Log.Encoding)
	defer func() { _ = log.Sync() }()

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("close_sqlite_failed", "err", cerr)
		}
	}()
	repos := repository.NewRepository(sqlDB)

	pub := newPublisher(cfg.MQTT, log)
	defer func() { _ = pub.Close() }()

	services := service.NewService(repos, service.Deps{
		Control:   cfg.Control.Control(),
		Source:    newSource(cfg.Plant, log),
		Publisher: pub,
		Auth:      service.AuthConfig{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		Log:       log,
	})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	journal(ctx, repos.EventRepo, pub, log, models.EventStartup, "controller started", map[string]any{
		"tick":    cfg.Control.Tick.String(),
		"plant":   cfg.Plant.Enable,
		"mqtt":    cfg.MQTT.Broker != "",
		"db_path": cfg.DB.Path,
	})

	if cfg.Plant.Enable {
		go services.Controller.Run(ctx, cfg.Control.Tick)
	} else {
		log.Warnw("no_signal_source", "hint", "enable plant in config.yml to drive the control loop")
	}

	srv := &server.Server{}
	errCh := make(chan error, 1)
	go func() {
		log.Infow("http_listening", "port", cfg.Port)
		errCh <- srv.Run(cfg.Port, handlers.NewHandler(services, log).InitRoutes())
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Infow("shutting_down")
	case runErr = <-errCh:
		if runErr != nil {
			log.Errorw("http_server_failed", "err", runErr)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http_shutdown_failed", "err", err)
	}
	journal(shutdownCtx, repos.EventRepo, pub, log, models.EventShutdown, "controller stopped", nil)
	return runErr
}

func newPublisher(cfg config.MQTTConfig, log *logger.Logger) telemetry.Publisher {
	pub, err := telemetry.New(telemetry.Options{
		Broker:   cfg.Broker,
		ClientID: cfg.ClientID,
		Topic:    cfg.Topic,
	})
	if err != nil {
		// Telemetry only observes the unit; run without it.
		log.Errorw("mqtt_connect_failed", "broker", cfg.Broker, "err", err)
		return telemetry.Nop{}
	}
	if cfg.Broker != "" {
		log.Infow("mqtt_connected", "broker", cfg.Broker, "topic", cfg.Topic)
	}
	return pub
}

func newSource(cfg config.PlantConfig, log *logger.Logger) service.SignalSource {
	if !cfg.Enable {
		return nil
	}
	log.Infow("plant_simulator", "ambient_oat", cfg.AmbientOAT, "oat_swing", cfg.OATSwing, "start_pressure", cfg.StartPressure)
	return service.NewPlantSimulator(service.PlantConfig{
		Inputs:        control.CompressorInputs{Enable: true},
		AmbientOAT:    cfg.AmbientOAT,
		OATSwing:      cfg.OATSwing,
		StartPressure: cfg.StartPressure,
	})
}

// journal records a lifecycle event outside the control cycle.
func journal(ctx context.Context, events repository.EventRepo, pub telemetry.Publisher, log *logger.Logger, typ, desc string, meta map[string]any) {
	e := models.UnitEvent{OccurredAt: time.Now().UTC(), Type: typ, Description: desc}
	if meta != nil {
		e.Metadata = meta
	}
	if err := events.Append(ctx, e); err != nil {
		log.Errorw("append_event_failed", "type", typ, "err", err)
	}
	if err := pub.PublishEvent(e); err != nil {
		log.Warnw("publish_event_failed", "type", typ, "err", err)
	}
	log.Infow("unit_event", "type", typ, "description", desc)
}
