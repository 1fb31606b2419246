package simulation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Agrid-Dev/thermozone/internal/report"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

var ErrNoZones = errors.New("no zones to simulate")
var ErrInvalidHours = errors.New("hours must be positive")

type Params struct {
	RunID string
	Start time.Time // timestamp of hour 0
	Sink  report.Sink
	Log   *slog.Logger
}

// Runner advances a set of zones through a fixed number of hours. Zones run
// in parallel, each zone's hours in order.
type Runner struct {
	runID string
	start time.Time
	sink  report.Sink
	log   *slog.Logger
}

func NewRunner(p Params) *Runner {
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	}
	if p.Log == nil {
		p.Log = slog.Default()
	}
	return &Runner{runID: p.RunID, start: p.Start, sink: p.Sink, log: p.Log}
}

func (r *Runner) RunID() string {
	return r.runID
}

// ZoneSummary aggregates the hours simulated for one zone.
type ZoneSummary struct {
	Hours        int
	HeatingKWh   float64
	CoolingKWh   float64
	LimitedHours int
	MeanAir      float64
	MinAir       float64
	MaxAir       float64
}

type Summary struct {
	RunID string
	Zones map[string]ZoneSummary
}

// Run stops at the first failing step. Records already emitted stay emitted.
func (r *Runner) Run(ctx context.Context, zones []*zone.Zone, hours int) (Summary, error) {
	if len(zones) == 0 {
		return Summary{}, ErrNoZones
	}
	if hours <= 0 {
		return Summary{}, ErrInvalidHours
	}

	var mu sync.Mutex
	sum := Summary{RunID: r.runID, Zones: make(map[string]ZoneSummary, len(zones))}

	g, ctx := errgroup.WithContext(ctx)
	for _, z := range zones {
		g.Go(func() error {
			zs, err := r.runZone(ctx, z, hours)
			if err != nil {
				return err
			}
			mu.Lock()
			sum.Zones[z.ID()] = zs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	r.log.Info("run complete", "run_id", r.runID, "zones", len(zones), "hours", hours)
	return sum, nil
}

func (r *Runner) runZone(ctx context.Context, z *zone.Zone, hours int) (ZoneSummary, error) {
	air := make([]float64, 0, hours)
	heat := make([]float64, 0, hours)
	cool := make([]float64, 0, hours)
	limited := 0

	for range hours {
		if err := ctx.Err(); err != nil {
			return ZoneSummary{}, err
		}
		out, err := z.Advance()
		if err != nil {
			r.log.Error("step failed", "zone", z.ID(), "err", err)
			return ZoneSummary{}, err
		}
		if r.sink != nil {
			if err := r.sink.Emit(ctx, report.FromOutcome(r.runID, r.start, out)); err != nil {
				return ZoneSummary{}, err
			}
		}
		air = append(air, out.Result.ThetaAir)
		heat = append(heat, out.HeatingLoad())
		cool = append(cool, out.CoolingLoad())
		if out.Limited {
			limited++
		}
	}

	// one-hour steps: W summed over hours is Wh
	return ZoneSummary{
		Hours:        hours,
		HeatingKWh:   floats.Sum(heat) / 1000,
		CoolingKWh:   floats.Sum(cool) / 1000,
		LimitedHours: limited,
		MeanAir:      stat.Mean(air, nil),
		MinAir:       floats.Min(air),
		MaxAir:       floats.Max(air),
	}, nil
}
