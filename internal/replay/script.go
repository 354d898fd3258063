// Package replay runs the controller against a scripted input sequence.
package replay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"condensing_unit/internal/control"

	"gopkg.in/yaml.v3"
)

var ErrInvalidScript = errors.New("invalid replay script")

// Script is a YAML description of an input sequence.
type Script struct {
	Name    string           `yaml:"name"`
	Tick    time.Duration    `yaml:"tick"`
	Control *ControlSettings `yaml:"control"`
	Steps   []Step           `yaml:"steps"`
}

// ControlSettings overrides the controller configuration for one script.
type ControlSettings struct {
	MinRunTime      time.Duration `yaml:"min_run_time"`
	MinStopTime     time.Duration `yaml:"min_stop_time"`
	SafetyTimer     time.Duration `yaml:"safety_timer"`
	MaxRuntime      time.Duration `yaml:"max_runtime"`
	MinOffTime      time.Duration `yaml:"min_off_time"`
	MinCondPressure float64       `yaml:"min_cond_pressure"`
	MaxCondPressure float64       `yaml:"max_cond_pressure"`
	SensorBand      float64       `yaml:"sensor_band"`
}

// Step holds one input frame for Repeat ticks (at least one).
// Force, if set, is requested before the first of those ticks.
type Step struct {
	Repeat int            `yaml:"repeat"`
	Force  string         `yaml:"force"`
	Inputs control.Inputs `yaml:"inputs"`
	Expect *Expectation   `yaml:"expect"`
}

// Expectation is checked against the last tick of a step.
type Expectation struct {
	Compressor   string   `yaml:"compressor"`
	CompressorOn *bool    `yaml:"compressor_on"`
	FanDemand    *float64 `yaml:"fan_demand"`
	GroupsOn     *int     `yaml:"groups_on"`
	OATFailed    *bool    `yaml:"oat_failed"`
}

// LoadScript reads and validates a script file.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScript decodes and validates a script.
func ParseScript(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the script and fills per-step defaults.
func (s *Script) Validate() error {
	if s.Tick < 0 {
		return fmt.Errorf("%w: tick must not be negative", ErrInvalidScript)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScript)
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		if st.Repeat < 0 {
			return fmt.Errorf("%w: step %d: repeat must not be negative", ErrInvalidScript, i+1)
		}
		if st.Repeat == 0 {
			st.Repeat = 1
		}
		if st.Force != "" {
			target, err := control.ParseCompressorState(st.Force)
			if err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err)
			}
			if _, err := (control.Sequencer{}).Force(target); err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err)
			}
		}
		if e := st.Expect; e != nil && e.Compressor != "" {
			if _, err := control.ParseCompressorState(e.Compressor); err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err)
			}
		}
	}
	return nil
}

// Ticks is the total number of control periods the script runs.
func (s *Script) Ticks() int {
	n := 0
	for _, st := range s.Steps {
		n += max(st.Repeat, 1)
	}
	return n
}

// Config returns the controller configuration for this script, starting
// from base and applying the script's own settings.
func (s *Script) Config(base control.Config) control.Config {
	cfg := base
	if s.Tick > 0 {
		cfg.Tick = s.Tick
	}
	if c := s.Control; c != nil {
		cfg.Compressor = control.CompressorConfig{
			MinRunTime:  c.MinRunTime,
			MinStopTime: c.MinStopTime,
			SafetyTimer: c.SafetyTimer,
		}
		cfg.Fans = control.FanConfig{
			MinCondPressure: c.MinCondPressure,
			MaxCondPressure: c.MaxCondPressure,
			SensorBand:      c.SensorBand,
			MaxRuntime:      c.MaxRuntime,
			MinOffTime:      c.MinOffTime,
		}
	}
	return cfg
}
