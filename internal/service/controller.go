package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"condensing_unit/internal/control"
	"condensing_unit/internal/logger"
	"condensing_unit/internal/models"
	"condensing_unit/internal/repository"
	"condensing_unit/internal/telemetry"

	"github.com/google/uuid"
)

// Error codes carried on the published snapshot.
const (
	CodeAlarm      = "ALARM"
	CodeLPS        = "LPS"
	CodeHPS        = "HPS"
	CodeOATFault   = "OAT_SENSOR_FAULT"
	CodeNoPressure = "HEAD_PRESSURE_MISSING"
)

var ErrNoSignalSource = errors.New("no signal source configured")

// SignalSource supplies one frame of plant signals per tick.
type SignalSource interface {
	Read(ctx context.Context, now time.Time) (control.Inputs, error)
}

// OutputSink is implemented by sources that react to the commanded outputs,
// like the plant simulator.
type OutputSink interface {
	Apply(out control.Output, tick time.Duration)
}

// ControllerDeps are the collaborators of a ControllerService.
// Everything except Source is optional.
type ControllerDeps struct {
	Source    SignalSource
	States    repository.StateRepo
	Events    repository.EventRepo
	Publisher telemetry.Publisher
	Log       *logger.Logger
}

// ControllerService owns the control state and runs one control period per
// Cycle. Storage and telemetry only observe it; nothing is read back.
type ControllerService struct {
	cfg  control.Config
	deps ControllerDeps
	log  *logger.Logger

	mu      sync.Mutex
	state   control.State
	cycle   uint64
	stage   fanStage
	faulted bool
	pending []control.CompressorState
}

// fanStage is what FAN_STAGE events are diffed on. Duty cycling flips the
// group count every few ticks, so the whole part of the demand is used.
type fanStage struct {
	mode  control.DemandMode
	whole int
}

func NewControllerService(cfg control.Config, deps ControllerDeps) *ControllerService {
	if cfg.Tick <= 0 {
		cfg.Tick = control.DefaultTick
	}
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	if deps.Publisher == nil {
		deps.Publisher = telemetry.Nop{}
	}
	return &ControllerService{
		cfg:   cfg,
		deps:  deps,
		log:   log.Named("controller"),
		state: control.NewState(),
	}
}

// Run cycles at the given interval until ctx is canceled. A failed cycle is
// logged and the loop carries on with the next tick.
func (c *ControllerService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = c.cfg.Tick
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if _, _, err := c.Cycle(ctx, now); err != nil {
				c.log.Warnw("cycle_skipped", "error", err)
			}
		}
	}
}

// Force queues an external forcing request. It is applied at the start of
// the next cycle, before the sequencer steps.
func (c *ControllerService) Force(target control.CompressorState) error {
	if _, err := (control.Sequencer{}).Force(target); err != nil {
		return err
	}
	c.mu.Lock()
	c.pending = append(c.pending, target)
	c.mu.Unlock()
	return nil
}

// Cycle runs one control period at time now and returns the published
// snapshot together with the events it produced.
func (c *ControllerService) Cycle(ctx context.Context, now time.Time) (models.UnitState, []models.UnitEvent, error) {
	if c.deps.Source == nil {
		return models.UnitState{}, nil, ErrNoSignalSource
	}
	in, err := c.deps.Source.Read(ctx, now)
	if err != nil {
		return models.UnitState{}, nil, fmt.Errorf("read signals: %w", err)
	}
	now = now.UTC()

	c.mu.Lock()
	var events []models.UnitEvent
	for _, target := range c.pending {
		from := c.state.Compressor.State
		// Force only rejects targets already refused by Controller.Force.
		c.state.Compressor, _ = c.state.Compressor.Force(target)
		events = append(events, newEvent(now, models.EventForce,
			fmt.Sprintf("compressor forced %s -> %s", from, target),
			map[string]any{"from": from.String(), "to": target.String()}))
	}
	c.pending = nil

	next, out := control.Step(c.state, in, c.cfg)
	c.state = next
	c.cycle++
	cycle := c.cycle

	if out.Compressor.Transitioned(next.Compressor) {
		events = append(events, newEvent(now, models.EventCompressorState,
			fmt.Sprintf("%s -> %s", out.Compressor.From, next.Compressor.State),
			map[string]any{
				"from":          out.Compressor.From.String(),
				"to":            next.Compressor.State.String(),
				"compressor_on": out.CompressorOn,
			}))
	}

	stage := fanStage{mode: out.Fans.Mode, whole: int(math.Floor(out.Fans.Demand))}
	if stage != c.stage {
		events = append(events, newEvent(now, models.EventFanStage,
			fmt.Sprintf("fan demand %.2f (%s)", out.Fans.Demand, out.Fans.Mode),
			map[string]any{
				"mode":      string(out.Fans.Mode),
				"demand":    out.Fans.Demand,
				"groups_on": out.Fans.GroupsOn,
				"fans_on":   out.Fans.FansOn,
			}))
		c.stage = stage
	}

	if out.Fans.OATFailed != c.faulted {
		typ, desc := models.EventSensorFault, "outdoor air temperature implausible; staging on head pressure"
		if !out.Fans.OATFailed {
			typ, desc = models.EventSensorRecovered, "outdoor air temperature back in range"
		}
		events = append(events, newEvent(now, typ, desc, map[string]any{
			"sensor":   "oat",
			"filtered": finiteOrNil(out.Fans.FilteredOAT),
			"raw":      finiteOrNil(in.OAT),
		}))
		c.faulted = out.Fans.OATFailed
	}

	snap := newUnitState(cycle, now, next, in, out)
	c.mu.Unlock()

	if sink, ok := c.deps.Source.(OutputSink); ok {
		sink.Apply(out, c.cfg.Tick)
	}

	c.logCycle(snap, events)
	c.observe(ctx, snap, events)
	return snap, events, nil
}

func (c *ControllerService) logCycle(snap models.UnitState, events []models.UnitEvent) {
	for _, e := range events {
		switch e.Type {
		case models.EventSensorFault:
			c.log.Warnw("sensor_fault", "cycle", snap.Cycle, "description", e.Description)
		default:
			c.log.Infow("unit_event", "cycle", snap.Cycle, "type", e.Type, "description", e.Description)
		}
	}
	c.log.Debugw("cycle",
		"cycle", snap.Cycle,
		"compressor", snap.CompressorState,
		"compressor_on", snap.CompressorOn,
		"demand", snap.FanDemand,
		"mode", snap.DemandMode,
	)
}

// observe hands the cycle result to storage and telemetry.
func (c *ControllerService) observe(ctx context.Context, snap models.UnitState, events []models.UnitEvent) {
	for _, e := range events {
		if c.deps.Events != nil {
			if err := c.deps.Events.Append(ctx, e); err != nil {
				c.log.Errorw("append_event_failed", "type", e.Type, "error", err)
			}
		}
		if err := c.deps.Publisher.PublishEvent(e); err != nil {
			c.log.Warnw("publish_event_failed", "type", e.Type, "error", err)
		}
	}
	if c.deps.States != nil {
		if err := c.deps.States.Save(ctx, snap); err != nil {
			c.log.Errorw("save_state_failed", "cycle", snap.Cycle, "error", err)
		}
	}
	if err := c.deps.Publisher.PublishState(snap); err != nil {
		c.log.Warnw("publish_state_failed", "cycle", snap.Cycle, "error", err)
	}
}

func newEvent(at time.Time, typ, desc string, meta map[string]any) models.UnitEvent {
	return models.UnitEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  at,
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}
}

// newUnitState flattens one cycle into the published read model.
func newUnitState(cycle uint64, at time.Time, s control.State, in control.Inputs, out control.Output) models.UnitState {
	groups := make([]bool, control.GroupCount)
	copy(groups, out.Fans.GroupStates[:])

	fans := make([]models.FanUnit, control.FanCount)
	for id, u := range s.Fans.Rotation.Units {
		fans[id] = models.FanUnit{
			ID:         id,
			Active:     u.Active,
			RunTimeSec: u.RunTime.Seconds(),
			OffTimeSec: u.OffTime.Seconds(),
		}
	}

	var codes []string
	if in.Alarm {
		codes = append(codes, CodeAlarm)
	}
	if in.LPS {
		codes = append(codes, CodeLPS)
	}
	if in.HPS {
		codes = append(codes, CodeHPS)
	}
	if out.Fans.OATFailed {
		codes = append(codes, CodeOATFault)
	}
	if !s.Fans.HeadPressure.Valid {
		codes = append(codes, CodeNoPressure)
	}

	return models.UnitState{
		ID:              1,
		Cycle:           cycle,
		CompressorState: s.Compressor.State.String(),
		CompressorOn:    out.CompressorOn,
		RunTimerSec:     s.Compressor.Timers.Run.Seconds(),
		StopTimerSec:    s.Compressor.Timers.Stop.Seconds(),
		SafetyTimerSec:  s.Compressor.Timers.Safety.Seconds(),
		FanDemand:       out.Fans.Demand,
		DemandMode:      string(out.Fans.Mode),
		OATSensorFailed: out.Fans.OATFailed,
		FanGroups:       groups,
		Fans:            fans,
		HeadPressure:    finitePtr(out.Fans.FilteredHeadPressure),
		OAT:             finitePtr(out.Fans.FilteredOAT),
		SaturatedTemp:   finitePtr(out.Fans.FilteredSaturatedTemp),
		ErrorCodes:      codes,
		UpdatedAt:       at,
	}
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// finiteOrNil keeps NaN out of JSON metadata.
func finiteOrNil(v float64) any {
	if p := finitePtr(v); p != nil {
		return *p
	}
	return nil
}
