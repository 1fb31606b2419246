package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Agrid-Dev/thermozone/cmd/app"
	httpctrl "github.com/Agrid-Dev/thermozone/internal/controllers/http"
	modbusctrl "github.com/Agrid-Dev/thermozone/internal/controllers/modbus"
	mqttctrl "github.com/Agrid-Dev/thermozone/internal/controllers/mqtt"
	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/ports"
	"github.com/Agrid-Dev/thermozone/internal/report"
	"github.com/Agrid-Dev/thermozone/internal/simulation"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

func main() {
	var (
		configPath  string
		printConfig bool
		serve       bool
	)
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")
	flag.BoolVar(&printConfig, "print-config", false, "print the effective config and exit")
	flag.BoolVar(&serve, "serve", false, "run zones live behind the enabled controllers instead of a batch run")
	flag.Parse()

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if printConfig {
		b, err := cfg.YAML()
		if err != nil {
			log.Fatal(err)
		}
		_, _ = os.Stdout.Write(b)
		return
	}

	logger, err := app.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(logger)

	reg, err := cfg.BuildRegistry(filepath.Dir(configPath), logger)
	if err != nil {
		log.Fatal(err)
	}
	start, err := cfg.StartTime()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if serve {
		err = runServe(ctx, cfg, reg, start, logger)
	} else {
		err = runBatch(ctx, cfg, reg, start, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("exited", "err", err)
		os.Exit(1)
	}
}

func openSinks(cfg app.Config, logger *slog.Logger, withCSV bool) (report.MultiSink, error) {
	var sinks report.MultiSink
	if withCSV {
		switch cfg.Simulation.Output {
		case "":
		case "-":
			sinks = append(sinks, report.NewCSVSink(writerOnly{os.Stdout}))
		default:
			f, err := os.Create(cfg.Simulation.Output)
			if err != nil {
				return nil, fmt.Errorf("open output: %w", err)
			}
			sinks = append(sinks, report.NewCSVSink(f))
		}
	}
	if cfg.Kafka.Enabled {
		sinks = append(sinks, report.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger))
	}
	return sinks, nil
}

func runBatch(ctx context.Context, cfg app.Config, reg *zone.Registry, start time.Time, logger *slog.Logger) error {
	sinks, err := openSinks(cfg, logger, true)
	if err != nil {
		return err
	}

	r := simulation.NewRunner(simulation.Params{Start: start, Sink: sinks, Log: logger})
	logger.Info("batch run", "run_id", r.RunID(), "zones", len(reg.IDs()), "hours", cfg.Simulation.Hours)

	sum, runErr := r.Run(ctx, reg.All(), cfg.Simulation.Hours)
	if err := sinks.Close(); err != nil {
		logger.Error("closing sinks", "err", err)
	}
	if runErr != nil {
		return runErr
	}
	for _, id := range reg.IDs() {
		zs := sum.Zones[id]
		logger.Info("zone summary",
			"zone", id,
			"heating_kwh", zs.HeatingKWh,
			"cooling_kwh", zs.CoolingKWh,
			"limited_hours", zs.LimitedHours,
			"mean_air", zs.MeanAir,
			"min_air", zs.MinAir,
			"max_air", zs.MaxAir,
		)
	}
	return nil
}

func runServe(ctx context.Context, cfg app.Config, reg *zone.Registry, start time.Time, logger *slog.Logger) error {
	sinks, err := openSinks(cfg, logger, false)
	if err != nil {
		return err
	}
	defer sinks.Close()

	runID := uuid.NewString()
	g, ctx := errgroup.WithContext(ctx)

	for _, z := range reg.All() {
		if len(sinks) > 0 {
			z.OnAdvance(func(o zone.Outcome) {
				_ = sinks.Emit(ctx, report.FromOutcome(runID, start, o))
			})
		}
		g.Go(func() error { return z.Run(ctx, cfg.Simulation.Interval) })
	}

	dir := ports.FromRegistry(reg)

	if c := cfg.Controllers.HTTP; c.Enabled {
		res, err := demand.NewResolver(demand.ResolverParams{ProbePower: demand.DefaultProbePower})
		if err != nil {
			return err
		}
		srv := httpctrl.New(dir, res, c.Addr, cfg.DeviceID, logger)
		logger.Info("http listening", "addr", c.Addr)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if c := cfg.Controllers.MQTT; c.Enabled {
		mc, err := mqttctrl.New(dir, mqttctrl.Config{
			DeviceID:        cfg.DeviceID,
			BrokerURL:       c.BrokerURL,
			ClientID:        c.ClientID,
			BaseTopic:       c.BaseTopic,
			QoS:             c.QoS,
			RetainSnapshot:  c.RetainSnapshot,
			PublishInterval: c.PublishInterval,
			Username:        c.Username,
			Password:        c.Password,
		}, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return mc.Run(ctx) })
	}

	if c := cfg.Controllers.Modbus; c.Enabled {
		id := c.Zone
		if id == "" {
			id = reg.IDs()[0]
		}
		svc, ok := dir.Lookup(id)
		if !ok {
			return fmt.Errorf("modbus: unknown zone %q", id)
		}
		mc, err := modbusctrl.New(svc, modbusctrl.Config{DeviceID: cfg.DeviceID, Addr: c.Addr, UnitID: c.UnitID}, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return mc.Run(ctx) })
	}

	logger.Info("serving", "run_id", runID, "zones", reg.IDs(), "interval", cfg.Simulation.Interval)
	return g.Wait()
}

// writerOnly hides Close so the CSV sink leaves stdout open.
type writerOnly struct{ io.Writer }
