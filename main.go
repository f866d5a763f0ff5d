package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/openfield/as7341-logger/pkg/acquisition"
	"github.com/openfield/as7341-logger/pkg/clock"
	"github.com/openfield/as7341-logger/pkg/config"
	"github.com/openfield/as7341-logger/pkg/mux"
	"github.com/openfield/as7341-logger/pkg/record"
	"github.com/openfield/as7341-logger/pkg/sensor"
	"github.com/openfield/as7341-logger/pkg/storage"
	"github.com/openfield/as7341-logger/pkg/telemetry"
	"github.com/openfield/as7341-logger/pkg/timesync"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.LoadFromFlags()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	var metrics telemetry.Collector = telemetry.Noop()
	if cfg.MetricsListen != "" {
		collector, err := telemetry.NewPrometheusCollector(prometheus.DefaultRegisterer)
		if err != nil {
			logger.Fatal().Err(err).Msg("register metrics")
		}
		metrics = collector
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsListen, nil); err != nil {
				logger.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	// Storage is the system's entire purpose: failing to create the artifact
	// at startup is the one non-recoverable condition.
	sink := storage.NewSink(cfg.CSVPath, logger)
	if err := sink.WriteHeaderIfAbsent(record.Header); err != nil {
		logger.Fatal().Err(err).Msg("storage unavailable")
	}

	var (
		bus      i2c.BusCloser
		selector acquisition.ChannelSelector
		sens     sensor.Sensor
	)
	if cfg.SensorType == "simulation" {
		selector = nopSelector{}
		sens = sensor.NewFakeSensor(time.Now().UnixNano())
	} else {
		if _, err := host.Init(); err != nil {
			logger.Fatal().Err(err).Msg("host init")
		}
		bus, err = i2creg.Open(cfg.I2CBus)
		if err != nil {
			logger.Fatal().Err(err).Str("bus", cfg.I2CBus).Msg("open i2c")
		}
		defer bus.Close()
		selector = mux.New(bus, uint16(cfg.MuxAddress), cfg.Channels, logger)
		sens = sensor.NewAS7341(bus, uint16(cfg.SensorAddress))
	}
	defer sens.Close()

	clk := clock.NewAuthority(logger)
	sub, err := timesync.NewSubscriber(cfg.MQTT, clk, logger, metrics)
	if err != nil {
		logger.Fatal().Err(err).Msg("time-sync transport")
	}
	defer sub.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loop := acquisition.New(selector, sens, clk, record.NewBuffer(), sink,
		cfg.Channels, acquisition.DefaultDelays(), logger, metrics)
	loop.Run(ctx)
	logger.Info().Msg("shutting down")
}

// nopSelector stands in for the mux in simulation mode.
type nopSelector struct{}

func (nopSelector) Select(int) error   { return nil }
func (nopSelector) DeselectAll() error { return nil }
