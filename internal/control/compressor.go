// Package control holds the cyclic control logic of the condensing unit.
// It has no I/O: every step takes the previous state by value and returns the
// next one, so identical input sequences always reproduce identical outputs.
package control

import (
	"fmt"
	"strings"
	"time"
)

// CompressorState is the supervisor state of the compressor sequencer.
type CompressorState int

const (
	StateOff CompressorState = iota
	StateStarting
	StateRunning
	StateForcedOff
	StateOffByAlarm
	StateOffBySafetyTimer
	StateOnBySafetyTimer
	StateManual
	StatePumpdown
)

var compressorStateNames = [...]string{
	StateOff:              "OFF",
	StateStarting:         "STARTING",
	StateRunning:          "RUNNING",
	StateForcedOff:        "FORCED_OFF",
	StateOffByAlarm:       "OFF_BY_ALARM",
	StateOffBySafetyTimer: "OFF_BY_SAFETY_TIMER",
	StateOnBySafetyTimer:  "ON_BY_SAFETY_TIMER",
	StateManual:           "MANUAL",
	StatePumpdown:         "PUMPDOWN",
}

func (s CompressorState) String() string {
	if s < 0 || int(s) >= len(compressorStateNames) {
		return fmt.Sprintf("CompressorState(%d)", int(s))
	}
	return compressorStateNames[s]
}

// MarshalText encodes the state by name for JSON and YAML.
func (s CompressorState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText, case-insensitively.
func (s *CompressorState) UnmarshalText(b []byte) error {
	st, err := ParseCompressorState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseCompressorState maps a state name back to its value.
func ParseCompressorState(name string) (CompressorState, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, v := range compressorStateNames {
		if v == n {
			return CompressorState(i), nil
		}
	}
	return StateOff, fmt.Errorf("unknown compressor state %q", name)
}

// Energized reports whether the compressor contactor is closed in this state.
func (s CompressorState) Energized() bool {
	switch s {
	case StateStarting, StateRunning, StateOnBySafetyTimer, StateManual, StatePumpdown:
		return true
	default:
		return false
	}
}

// CompressorInputs are the digital signals sampled once per tick.
// LPS and HPS are true when the low/high pressure switch has tripped.
type CompressorInputs struct {
	Enable          bool `json:"enable" yaml:"enable"`
	LPS             bool `json:"lps" yaml:"lps"`
	HPS             bool `json:"hps" yaml:"hps"`
	Alarm           bool `json:"alarm" yaml:"alarm"`
	ManualMode      bool `json:"manual_mode" yaml:"manual_mode"`
	PumpdownTrigger bool `json:"pumpdown_trigger" yaml:"pumpdown_trigger"`
}

// CompressorConfig holds the anti-short-cycling and safety timer settings.
type CompressorConfig struct {
	MinRunTime  time.Duration
	MinStopTime time.Duration
	SafetyTimer time.Duration
}

// CompressorTimers are the accumulators owned by the sequencer.
type CompressorTimers struct {
	Run    time.Duration `json:"run"`
	Stop   time.Duration `json:"stop"`
	Safety time.Duration `json:"safety"`
}

// Sequencer is the persistent state of the compressor sequencer.
// The zero value is the initial state: Off with all timers at zero.
type Sequencer struct {
	State  CompressorState  `json:"state"`
	Timers CompressorTimers `json:"timers"`
}

// CompressorOutput is the result of one sequencer tick.
type CompressorOutput struct {
	On bool
	// From is the state that executed this tick; Sequencer.State is where it went.
	From CompressorState
}

// Transitioned reports whether the tick moved the sequencer to another state.
func (o CompressorOutput) Transitioned(next Sequencer) bool {
	return o.From != next.State
}

// StepCompressor runs one tick of the sequencer.
//
// The contactor is commanded on only when both the executing state and the
// resulting state are energized: dropping out takes effect in the same tick,
// pulling in takes effect on the next one.
func StepCompressor(s Sequencer, in CompressorInputs, cfg CompressorConfig, tick time.Duration) (Sequencer, CompressorOutput) {
	from := s.State
	t := s.Timers

	switch s.State {
	case StateOff:
		t.Stop += tick
		switch {
		case in.ManualMode:
			s.State = StateManual
		case in.Alarm:
			s.State = StateOffByAlarm
		case in.PumpdownTrigger:
			s.State = StatePumpdown
		case in.Enable && t.Stop >= cfg.MinStopTime:
			s.State = StateStarting
		}

	case StateStarting:
		t.Run = 0
		t.Stop = 0
		s.State = StateRunning

	case StateRunning:
		t.Run += tick
		switch {
		case in.Alarm:
			s.State = StateOffByAlarm
		case in.HPS || in.LPS:
			t.Stop = 0
			s.State = StateForcedOff
		case t.Run >= cfg.MinRunTime && in.PumpdownTrigger:
			s.State = StatePumpdown
		case t.Run >= cfg.MinRunTime && !in.Enable:
			s.State = StateOff
		}

	case StateForcedOff:
		t.Stop += tick
		if t.Stop >= cfg.MinStopTime && in.Enable && !in.HPS && !in.LPS {
			s.State = StateStarting
		}

	case StateOffByAlarm:
		if !in.Alarm {
			s.State = StateOff
		}

	case StateOffBySafetyTimer:
		t.Safety += tick
		if t.Safety >= cfg.SafetyTimer {
			s.State = StateOnBySafetyTimer
		}

	case StateOnBySafetyTimer:
		t.Safety = 0
		s.State = StateRunning

	case StateManual:
		if !in.ManualMode {
			s.State = StateOff
		}

	case StatePumpdown:
		if !in.PumpdownTrigger {
			s.State = StateOff
		}

	default:
		// Unknown codes can only come from a corrupted value; fall back to a safe stop.
		s.State = StateOff
	}

	s.Timers = t
	return s, CompressorOutput{
		On:   from.Energized() && s.State.Energized(),
		From: from,
	}
}

// Force moves the sequencer into one of the externally driven states.
// Only ForcedOff and OffBySafetyTimer can be forced; the matching timer restarts
// from zero so the stop or safety interval is measured from the request.
func (s Sequencer) Force(target CompressorState) (Sequencer, error) {
	switch target {
	case StateForcedOff:
		s.Timers.Stop = 0
	case StateOffBySafetyTimer:
		s.Timers.Safety = 0
	default:
		return s, fmt.Errorf("compressor state %s cannot be forced", target)
	}
	s.State = target
	return s, nil
}
