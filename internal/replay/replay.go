package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"condensing_unit/internal/control"
	"condensing_unit/internal/logger"
	"condensing_unit/internal/models"
	"condensing_unit/internal/service"
)

// ErrExpectation is wrapped by every failed step expectation.
var ErrExpectation = errors.New("expectation failed")

// epoch anchors replay timestamps so that records never depend on the wall clock.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Record is the observable result of one replayed tick.
type Record struct {
	Tick         int      `json:"tick"`
	Step         int      `json:"step"`
	Compressor   string   `json:"compressor"`
	CompressorOn bool     `json:"compressor_on"`
	FanDemand    float64  `json:"fan_demand"`
	DemandMode   string   `json:"demand_mode"`
	GroupsOn     int      `json:"groups_on"`
	Fans         []bool   `json:"fans"`
	OATFailed    bool     `json:"oat_failed"`
	Events       []string `json:"events,omitempty"`
}

// frameSource hands the controller whatever frame the runner set last.
type frameSource struct {
	in control.Inputs
}

func (f *frameSource) Read(context.Context, time.Time) (control.Inputs, error) {
	return f.in, nil
}

// Run replays the script against a fresh controller. Identical scripts and
// configurations always produce identical records. Failed expectations are
// joined into the returned error; the records are complete either way.
func Run(ctx context.Context, s *Script, base control.Config, log *logger.Logger) ([]Record, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cfg := s.Config(base)
	if cfg.Tick <= 0 {
		cfg.Tick = control.DefaultTick
	}

	src := &frameSource{}
	ctrl := service.NewControllerService(cfg, service.ControllerDeps{Source: src, Log: log})

	records := make([]Record, 0, s.Ticks())
	var failures []error
	tick := 0
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if st.Force != "" {
			target, _ := control.ParseCompressorState(st.Force)
			if err := ctrl.Force(target); err != nil {
				return records, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		src.in = st.Inputs

		for r := 0; r < st.Repeat; r++ {
			tick++
			snap, events, err := ctrl.Cycle(ctx, epoch.Add(time.Duration(tick)*cfg.Tick))
			if err != nil {
				return records, fmt.Errorf("tick %d: %w", tick, err)
			}
			records = append(records, newRecord(tick, i+1, snap, events))
		}

		if st.Expect != nil {
			if err := st.Expect.check(records[len(records)-1]); err != nil {
				failures = append(failures, fmt.Errorf("step %d (tick %d): %w", i+1, tick, err))
			}
		}
	}
	return records, errors.Join(failures...)
}

func newRecord(tick, step int, snap models.UnitState, events []models.UnitEvent) Record {
	rec := Record{
		Tick:         tick,
		Step:         step,
		Compressor:   snap.CompressorState,
		CompressorOn: snap.CompressorOn,
		FanDemand:    snap.FanDemand,
		DemandMode:   snap.DemandMode,
		Fans:         make([]bool, len(snap.Fans)),
		OATFailed:    snap.OATSensorFailed,
	}
	for _, on := range snap.FanGroups {
		if on {
			rec.GroupsOn++
		}
	}
	for i, f := range snap.Fans {
		rec.Fans[i] = f.Active
	}
	for _, e := range events {
		rec.Events = append(rec.Events, e.Type)
	}
	return rec
}

func (e *Expectation) check(r Record) error {
	var errs []error
	if e.Compressor != "" {
		want, _ := control.ParseCompressorState(e.Compressor)
		if r.Compressor != want.String() {
			errs = append(errs, fmt.Errorf("%w: compressor %s, want %s", ErrExpectation, r.Compressor, want))
		}
	}
	if e.CompressorOn != nil && r.CompressorOn != *e.CompressorOn {
		errs = append(errs, fmt.Errorf("%w: compressor_on %v, want %v", ErrExpectation, r.CompressorOn, *e.CompressorOn))
	}
	if e.FanDemand != nil && math.Abs(r.FanDemand-*e.FanDemand) > 1e-9 {
		errs = append(errs, fmt.Errorf("%w: fan_demand %.3f, want %.3f", ErrExpectation, r.FanDemand, *e.FanDemand))
	}
	if e.GroupsOn != nil && r.GroupsOn != *e.GroupsOn {
		errs = append(errs, fmt.Errorf("%w: groups_on %d, want %d", ErrExpectation, r.GroupsOn, *e.GroupsOn))
	}
	if e.OATFailed != nil && r.OATFailed != *e.OATFailed {
		errs = append(errs, fmt.Errorf("%w: oat_failed %v, want %v", ErrExpectation, r.OATFailed, *e.OATFailed))
	}
	return errors.Join(errs...)
}

// WriteRecords writes one JSON object per line.
func WriteRecords(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
