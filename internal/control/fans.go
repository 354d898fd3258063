package control

import (
	"math"
	"time"
)

// Fan staging constants. Temperatures share the deployment's temperature unit.
const (
	GroupCount = 4

	OATMin = -20.0
	OATMax = 110.0

	// Above either threshold every group runs regardless of the computed demand.
	ExtremeOAT      = 90.0
	ExtremeTempDiff = 30.0

	// TempDiffPerGroup is the condensing split that calls for one more fan group.
	TempDiffPerGroup = 10.0

	MaxDemand = float64(GroupCount)
)

// FanInputs are the raw analog readings for one tick.
type FanInputs struct {
	HeadPressure  float64 `json:"head_pressure" yaml:"head_pressure"`
	OAT           float64 `json:"oat" yaml:"oat"`
	SaturatedTemp float64 `json:"saturated_temp" yaml:"saturated_temp"`
}

// FanConfig is the staging configuration, constant for the life of the process.
type FanConfig struct {
	MinCondPressure float64
	MaxCondPressure float64
	SensorBand      float64
	MaxRuntime      time.Duration
	MinOffTime      time.Duration
}

func (c FanConfig) policy() WearPolicy {
	return WearPolicy{MaxRuntime: c.MaxRuntime, MinOffTime: c.MinOffTime}
}

// FanState is everything the staging engine carries between ticks.
type FanState struct {
	HeadPressure  BandFilter `json:"head_pressure"`
	OAT           BandFilter `json:"oat"`
	SaturatedTemp BandFilter `json:"saturated_temp"`
	Rotation      Rotation   `json:"rotation"`
	// Duty accumulates the fractional part of the demand between ticks.
	Duty float64 `json:"duty"`
}

// NewFanState returns the initial engine state.
func NewFanState() FanState {
	return FanState{Rotation: NewRotation()}
}

// DemandMode says which rule produced the demand on a tick.
type DemandMode string

const (
	ModeTempSplit    DemandMode = "TEMP_SPLIT"
	ModeExtreme      DemandMode = "EXTREME"
	ModePressureRate DemandMode = "PRESSURE_FALLBACK"
	ModeLowPressure  DemandMode = "LOW_PRESSURE"
	ModeHighPressure DemandMode = "HIGH_PRESSURE"
)

// FanOutput is the result of one staging tick.
type FanOutput struct {
	Demand      float64
	Mode        DemandMode
	OATFailed   bool
	GroupsOn    int
	GroupStates [GroupCount]bool
	FansOn      int
	Fans        [FanCount]bool

	FilteredHeadPressure  float64
	FilteredOAT           float64
	FilteredSaturatedTemp float64
}

// StepFans runs the staging pipeline for one tick: filter, fault check,
// demand, pressure clamp, group count and fan rotation, in that order.
func StepFans(s FanState, in FanInputs, cfg FanConfig, tick time.Duration) (FanState, FanOutput) {
	s.HeadPressure = s.HeadPressure.Update(in.HeadPressure, cfg.SensorBand)
	s.OAT = s.OAT.Update(in.OAT, cfg.SensorBand)
	s.SaturatedTemp = s.SaturatedTemp.Update(in.SaturatedTemp, cfg.SensorBand)

	out := FanOutput{
		FilteredHeadPressure:  s.HeadPressure.Reading(),
		FilteredOAT:           s.OAT.Reading(),
		FilteredSaturatedTemp: s.SaturatedTemp.Reading(),
	}
	out.OATFailed = OATFailed(out.FilteredOAT)
	out.Demand, out.Mode = Demand(out.FilteredHeadPressure, out.FilteredOAT, out.FilteredSaturatedTemp, out.OATFailed, cfg)

	whole := math.Floor(out.Demand)
	s.Duty += out.Demand - whole
	groups := int(whole)
	if s.Duty >= 1 {
		s.Duty--
		groups++
	}
	if groups >= GroupCount {
		groups = GroupCount
		s.Duty = 0
	}
	out.GroupsOn = groups
	for g := 0; g < groups; g++ {
		out.GroupStates[g] = true
	}

	out.FansOn = FansForGroups(groups)
	s.Rotation, out.Fans = s.Rotation.Advance(out.FansOn, cfg.policy(), tick)
	return s, out
}

// OATFailed reports whether an outdoor air reading is physically implausible.
func OATFailed(oat float64) bool {
	return math.IsNaN(oat) || oat < OATMin || oat > OATMax
}

// Demand computes the fan demand in groups, within [0, GroupCount].
func Demand(headPressure, oat, satTemp float64, oatFailed bool, cfg FanConfig) (float64, DemandMode) {
	var (
		demand float64
		mode   DemandMode
	)
	if oatFailed {
		demand, mode = pressureRatio(headPressure, cfg), ModePressureRate
	} else {
		diff := satTemp - oat
		if oat > ExtremeOAT || diff > ExtremeTempDiff {
			demand, mode = MaxDemand, ModeExtreme
		} else {
			demand, mode = clamp(diff/TempDiffPerGroup, 0, MaxDemand), ModeTempSplit
		}
	}

	if headPressure < cfg.MinCondPressure {
		demand, mode = 0, ModeLowPressure
	}
	if headPressure > cfg.MaxCondPressure {
		demand, mode = MaxDemand, ModeHighPressure
	}
	return clamp(demand, 0, MaxDemand), mode
}

func pressureRatio(headPressure float64, cfg FanConfig) float64 {
	span := cfg.MaxCondPressure - cfg.MinCondPressure
	if !(span > 0) {
		return 0
	}
	return clamp((headPressure-cfg.MinCondPressure)/span*MaxDemand, 0, MaxDemand)
}

// FansForGroups maps engaged groups onto physical fans, 1.5 fans per group rounded up.
func FansForGroups(groups int) int {
	if groups <= 0 {
		return 0
	}
	if groups >= GroupCount {
		return FanCount
	}
	return (groups*FanCount + GroupCount - 1) / GroupCount
}

// clamp bounds v to [lo, hi]; NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
