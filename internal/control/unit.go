package control

import "time"

// DefaultTick is the control period used when none is configured.
const DefaultTick = time.Second

// Config bundles the configuration of both components.
type Config struct {
	Tick       time.Duration
	Compressor CompressorConfig
	Fans       FanConfig
}

// Inputs is one tick's worth of plant signals.
type Inputs struct {
	CompressorInputs `yaml:",inline"`
	FanInputs        `yaml:",inline"`
}

// State is the complete carried state of a condensing unit controller.
// The two halves never read each other.
type State struct {
	Compressor Sequencer `json:"compressor"`
	Fans       FanState  `json:"fans"`
}

// NewState returns the power-on state.
func NewState() State {
	return State{Fans: NewFanState()}
}

// Output is what one tick commands.
type Output struct {
	CompressorOn bool
	Compressor   CompressorOutput
	Fans         FanOutput
}

// Step runs one control period for both components.
func Step(s State, in Inputs, cfg Config) (State, Output) {
	tick := cfg.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	var out Output
	s.Compressor, out.Compressor = StepCompressor(s.Compressor, in.CompressorInputs, cfg.Compressor, tick)
	s.Fans, out.Fans = StepFans(s.Fans, in.FanInputs, cfg.Fans, tick)
	out.CompressorOn = out.Compressor.On
	return s, out
}
