package service

import (
	"context"
	"math"
	"sync"
	"time"

	"condensing_unit/internal/control"
)

// ----------- Plant constants -----------
const (
	PressureRisePerSec    = 1.5  // head pressure gain per second with the compressor running
	FanPullDownPerSec     = 0.35 // head pressure drop per second for each running fan
	IdleSettlePerSec      = 0.8  // drift toward equilibrium per second with the compressor off
	PressurePerDegree     = 2.0  // head pressure per degree of condensing split
	DayLength             = 24 * time.Hour
	defaultPlantTickInSec = 1.0
)

// PlantConfig describes the simulated condensing unit.
type PlantConfig struct {
	Inputs        control.CompressorInputs
	AmbientOAT    float64 // mean outdoor air temperature
	OATSwing      float64 // amplitude of the daily OAT profile
	StartPressure float64 // head pressure at rest with OAT == AmbientOAT
}

// PlantSimulator is a deterministic first-order plant. It advances on the
// controller's commanded outputs and never looks at the wall clock, so the
// same output sequence always yields the same signals.
type PlantSimulator struct {
	mu sync.Mutex

	cfg      PlantConfig
	elapsed  time.Duration
	pressure float64
	on       bool
	fansOn   int
}

func NewPlantSimulator(cfg PlantConfig) *PlantSimulator {
	return &PlantSimulator{cfg: cfg, pressure: cfg.StartPressure}
}

// SetInputs replaces the digital inputs the plant reports from the next read on.
func (p *PlantSimulator) SetInputs(in control.CompressorInputs) {
	p.mu.Lock()
	p.cfg.Inputs = in
	p.mu.Unlock()
}

// Read reports the current plant signals.
func (p *PlantSimulator) Read(_ context.Context, _ time.Time) (control.Inputs, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	oat := p.oat()
	return control.Inputs{
		CompressorInputs: p.cfg.Inputs,
		FanInputs: control.FanInputs{
			HeadPressure:  p.pressure,
			OAT:           oat,
			SaturatedTemp: p.saturatedTemp(oat),
		},
	}, nil
}

// Apply advances the plant by one tick under the given outputs.
func (p *PlantSimulator) Apply(out control.Output, tick time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := tick.Seconds()
	if elapsed <= 0 {
		elapsed = defaultPlantTickInSec
	}
	p.elapsed += time.Duration(elapsed * float64(time.Second))
	p.on = out.CompressorOn
	p.fansOn = out.Fans.FansOn

	floor := p.equilibrium(p.oat())
	if p.on {
		p.pressure += PressureRisePerSec * elapsed
		p.pressure -= FanPullDownPerSec * float64(p.fansOn) * elapsed
		p.pressure = math.Max(p.pressure, floor)
		return
	}
	// Compressor off: bleed toward equilibrium from either side.
	switch {
	case p.pressure > floor:
		p.pressure = math.Max(p.pressure-IdleSettlePerSec*elapsed, floor)
	case p.pressure < floor:
		p.pressure = math.Min(p.pressure+IdleSettlePerSec*elapsed, floor)
	}
}

// HeadPressure returns the current simulated head pressure.
func (p *PlantSimulator) HeadPressure() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pressure
}

// oat follows a sine over one simulated day, starting at the mean.
func (p *PlantSimulator) oat() float64 {
	phase := 2 * math.Pi * float64(p.elapsed%DayLength) / float64(DayLength)
	return p.cfg.AmbientOAT + p.cfg.OATSwing*math.Sin(phase)
}

// equilibrium is the head pressure of an idle unit at the given OAT.
func (p *PlantSimulator) equilibrium(oat float64) float64 {
	return p.cfg.StartPressure + PressurePerDegree*(oat-p.cfg.AmbientOAT)
}

// saturatedTemp maps head pressure back onto a condensing temperature so that
// the split above OAT grows with the pressure above equilibrium.
func (p *PlantSimulator) saturatedTemp(oat float64) float64 {
	return oat + (p.pressure-p.equilibrium(oat))/PressurePerDegree
}
