// Package app assembles the charging optimizer from its parts: fleet store,
// capacity tracker, controller, transports and metrics sinks.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apifleet "github.com/greenmove/evcharge/api/fleet"
	"github.com/greenmove/evcharge/config"
	"github.com/greenmove/evcharge/core/capacity"
	"github.com/greenmove/evcharge/core/cost"
	"github.com/greenmove/evcharge/core/fleet"
	coremetrics "github.com/greenmove/evcharge/core/metrics"
	"github.com/greenmove/evcharge/core/optimizer"
	"github.com/greenmove/evcharge/infra/logger"
	"github.com/greenmove/evcharge/infra/metrics"
	"github.com/greenmove/evcharge/infra/mqtt"
	"github.com/greenmove/evcharge/internal/eventbus"
	"github.com/greenmove/evcharge/simulator"
)

// Service orchestrates the optimizer, transports and background workers.
type Service struct {
	Store      *fleet.Store
	Tracker    *capacity.Tracker
	Controller *optimizer.Controller

	cfg    *config.Config
	bus    *eventbus.Bus
	server *http.Server
	mqtt   *mqtt.Client
	influx *metrics.InfluxSink
	sim    *simulator.Simulator
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	var influx *metrics.InfluxSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		influx = metrics.NewInfluxSink(cfg.Metrics)
		sinks = append(sinks, influx)
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	store := fleet.NewStore(cfg.Cost.NeedThreshold, bus)
	if cfg.Fleet.SeedFile != "" {
		seed, err := fleet.LoadSeed(cfg.Fleet.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("fleet seed: %w", err)
		}
		store.Apply(seed)
	}
	tracker := capacity.NewTracker()
	tracker.Sync(store.Snapshot().Stations)

	var mqttCli *mqtt.Client
	var resultSink optimizer.ResultSink
	if cfg.MQTT.Enabled {
		cli, err := mqtt.NewClient(cfg.MQTT, store)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		mqttCli = cli
		resultSink = cli
	}

	ctrl, err := optimizer.New(cfg.Optimizer, store, tracker, cost.NewModel(cfg.Cost), resultSink, sink, bus, logger.New("optimizer"))
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}

	handler := apifleet.NewHandler(store, tracker, ctrl, logger.New("api"))
	server := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           handler.Router(cfg.API),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var sim *simulator.Simulator
	if cfg.Simulator.Enabled {
		sim = simulator.New(cfg.Simulator, store, ctrl, logger.New("simulator"))
	}

	return &Service{
		Store:      store,
		Tracker:    tracker,
		Controller: ctrl,
		cfg:        cfg,
		bus:        bus,
		server:     server,
		mqtt:       mqttCli,
		influx:     influx,
		sim:        sim,
		log:        logg,
	}, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Controller.Run(ctx)
	if s.sim != nil {
		go s.sim.Run(ctx)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go func() {
		s.log.Infof("http listening on %s", s.cfg.API.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.mqtt != nil {
		s.mqtt.Close()
	}
	if s.influx != nil {
		s.influx.Close()
	}
	s.bus.Close()
	return nil
}
