package control

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCompressorCfg = CompressorConfig{
	MinRunTime:  3 * time.Second,
	MinStopTime: 5 * time.Second,
	SafetyTimer: 4 * time.Second,
}

// runTicks steps the sequencer n times with the same inputs and returns the outputs.
func runTicks(s Sequencer, in CompressorInputs, n int) (Sequencer, []bool) {
	outs := make([]bool, 0, n)
	for i := 0; i < n; i++ {
		var out CompressorOutput
		s, out = StepCompressor(s, in, testCompressorCfg, time.Second)
		outs = append(outs, out.On)
	}
	return s, outs
}

// running returns a sequencer that has just entered Running.
func running(t *testing.T) Sequencer {
	t.Helper()
	s, _ := runTicks(Sequencer{}, CompressorInputs{Enable: true}, 6)
	require.Equal(t, StateRunning, s.State)
	return s
}

func TestStepCompressor_StartsAfterMinStopTime(t *testing.T) {
	s := Sequencer{}
	in := CompressorInputs{Enable: true}

	for tick := 1; tick <= 5; tick++ {
		var out CompressorOutput
		s, out = StepCompressor(s, in, testCompressorCfg, time.Second)
		assert.Falsef(t, out.On, "tick %d: compressor should still be off", tick)
	}
	assert.Equal(t, StateStarting, s.State)
	assert.Equal(t, 5*time.Second, s.Timers.Stop)

	s, out := StepCompressor(s, in, testCompressorCfg, time.Second)
	assert.True(t, out.On, "tick 6 should energize")
	assert.Equal(t, StateRunning, s.State)
	assert.Zero(t, s.Timers.Run)
	assert.Zero(t, s.Timers.Stop)
}

func TestStepCompressor_AlarmDropsOutSameTick(t *testing.T) {
	s := running(t)

	s, out := StepCompressor(s, CompressorInputs{Enable: true, Alarm: true}, testCompressorCfg, time.Second)
	assert.False(t, out.On)
	assert.Equal(t, StateOffByAlarm, s.State)

	s, outs := runTicks(s, CompressorInputs{Enable: true, Alarm: true}, 20)
	assert.NotContains(t, outs, true)
	assert.Equal(t, StateOffByAlarm, s.State)

	s, out = StepCompressor(s, CompressorInputs{Enable: true}, testCompressorCfg, time.Second)
	assert.False(t, out.On)
	assert.Equal(t, StateOff, s.State)
}

func TestStepCompressor_MinRunTimeDefersStop(t *testing.T) {
	s := running(t)
	stop := CompressorInputs{Enable: false}

	s, outs := runTicks(s, stop, 2)
	assert.Equal(t, []bool{true, true}, outs)
	assert.Equal(t, StateRunning, s.State)

	s, out := StepCompressor(s, stop, testCompressorCfg, time.Second)
	assert.False(t, out.On)
	assert.Equal(t, StateOff, s.State)
	assert.Equal(t, 3*time.Second, s.Timers.Run)
}

func TestStepCompressor_PumpdownAfterMinRun(t *testing.T) {
	s := running(t)
	in := CompressorInputs{Enable: true, PumpdownTrigger: true}

	s, _ = runTicks(s, in, 2)
	require.Equal(t, StateRunning, s.State)

	s, out := StepCompressor(s, in, testCompressorCfg, time.Second)
	assert.True(t, out.On, "pumpdown keeps the compressor running")
	assert.Equal(t, StatePumpdown, s.State)

	// Alarm is not consulted while pumping down.
	s, out = StepCompressor(s, CompressorInputs{PumpdownTrigger: true, Alarm: true}, testCompressorCfg, time.Second)
	assert.True(t, out.On)
	assert.Equal(t, StatePumpdown, s.State)

	s, out = StepCompressor(s, CompressorInputs{}, testCompressorCfg, time.Second)
	assert.False(t, out.On)
	assert.Equal(t, StateOff, s.State)
}

func TestStepCompressor_OffPriorityOrder(t *testing.T) {
	all := CompressorInputs{Enable: true, ManualMode: true, Alarm: true, PumpdownTrigger: true}
	s, _ := StepCompressor(Sequencer{}, all, testCompressorCfg, time.Second)
	assert.Equal(t, StateManual, s.State)

	all.ManualMode = false
	s, _ = StepCompressor(Sequencer{}, all, testCompressorCfg, time.Second)
	assert.Equal(t, StateOffByAlarm, s.State)

	all.Alarm = false
	s, _ = StepCompressor(Sequencer{}, all, testCompressorCfg, time.Second)
	assert.Equal(t, StatePumpdown, s.State)
}

func TestStepCompressor_ManualOverride(t *testing.T) {
	manual := CompressorInputs{ManualMode: true, Alarm: true}

	s, out := StepCompressor(Sequencer{}, manual, testCompressorCfg, time.Second)
	assert.False(t, out.On, "energizing takes effect on the next tick")
	assert.Equal(t, StateManual, s.State)

	s, outs := runTicks(s, manual, 3)
	assert.Equal(t, []bool{true, true, true}, outs)

	s, out = StepCompressor(s, CompressorInputs{}, testCompressorCfg, time.Second)
	assert.False(t, out.On)
	assert.Equal(t, StateOff, s.State)
}

func TestStepCompressor_PressureSwitchForcesOff(t *testing.T) {
	s := running(t)

	s, out := StepCompressor(s, CompressorInputs{Enable: true, HPS: true}, testCompressorCfg, time.Second)
	assert.False(t, out.On)
	assert.Equal(t, StateForcedOff, s.State)

	// Still tripped after the minimum stop time: stays off.
	s, outs := runTicks(s, CompressorInputs{Enable: true, HPS: true}, 8)
	assert.NotContains(t, outs, true)
	assert.Equal(t, StateForcedOff, s.State)

	s, _ = StepCompressor(s, CompressorInputs{Enable: true}, testCompressorCfg, time.Second)
	assert.Equal(t, StateStarting, s.State)
}

func TestStepCompressor_ForcedOffWaitsForMinStop(t *testing.T) {
	s, err := running(t).Force(StateForcedOff)
	require.NoError(t, err)

	s, outs := runTicks(s, CompressorInputs{Enable: true}, 4)
	assert.NotContains(t, outs, true)
	assert.Equal(t, StateForcedOff, s.State)

	s, _ = StepCompressor(s, CompressorInputs{Enable: true}, testCompressorCfg, time.Second)
	assert.Equal(t, StateStarting, s.State)
}

func TestStepCompressor_SafetyTimerCycle(t *testing.T) {
	s, err := running(t).Force(StateOffBySafetyTimer)
	require.NoError(t, err)
	assert.Zero(t, s.Timers.Safety)

	s, outs := runTicks(s, CompressorInputs{}, 4)
	assert.Equal(t, []bool{false, false, false, false}, outs)
	assert.Equal(t, StateOnBySafetyTimer, s.State)

	s, out := StepCompressor(s, CompressorInputs{}, testCompressorCfg, time.Second)
	assert.True(t, out.On)
	assert.Equal(t, StateRunning, s.State)
	assert.Zero(t, s.Timers.Safety)
}

func TestSequencer_ForceRejectsAutomaticStates(t *testing.T) {
	for _, st := range []CompressorState{StateOff, StateRunning, StateManual, StateOnBySafetyTimer} {
		_, err := Sequencer{}.Force(st)
		assert.Errorf(t, err, "forcing %s should fail", st)
	}
}

func TestCompressorState_TextRoundTrip(t *testing.T) {
	for st := StateOff; st <= StatePumpdown; st++ {
		b, err := st.MarshalText()
		require.NoError(t, err)
		var got CompressorState
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, st, got)
	}
	_, err := ParseCompressorState("defrost")
	assert.Error(t, err)
	assert.Equal(t, "CompressorState(42)", CompressorState(42).String())
}

// randomInputs draws a signal frame biased toward long quiet stretches.
func randomInputs(r *rand.Rand) CompressorInputs {
	return CompressorInputs{
		Enable:          r.Intn(4) != 0,
		LPS:             r.Intn(40) == 0,
		HPS:             r.Intn(40) == 0,
		Alarm:           r.Intn(25) == 0,
		ManualMode:      r.Intn(30) == 0,
		PumpdownTrigger: r.Intn(20) == 0,
	}
}

func TestStepCompressor_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	s := Sequencer{}

	for i := 0; i < 20000; i++ {
		in := randomInputs(r)
		if r.Intn(500) == 0 {
			s, _ = s.Force(StateOffBySafetyTimer)
		}
		prev := s
		next, out := StepCompressor(s, in, testCompressorCfg, time.Second)

		if out.On {
			require.Truef(t, prev.State.Energized() && next.State.Energized(),
				"tick %d: on while %s -> %s", i, prev.State, next.State)
		}
		if prev.State == StateOff && next.State == StateStarting {
			require.GreaterOrEqualf(t, next.Timers.Stop, testCompressorCfg.MinStopTime, "tick %d", i)
		}
		if prev.State == StateRunning && (next.State == StateOff || next.State == StatePumpdown) {
			require.GreaterOrEqualf(t, next.Timers.Run, testCompressorCfg.MinRunTime, "tick %d", i)
		}
		s = next
	}
}

func TestStepCompressor_Deterministic(t *testing.T) {
	replay := func() []Sequencer {
		r := rand.New(rand.NewSource(99))
		s := Sequencer{}
		trace := make([]Sequencer, 0, 2000)
		for i := 0; i < 2000; i++ {
			s, _ = StepCompressor(s, randomInputs(r), testCompressorCfg, time.Second)
			trace = append(trace, s)
		}
		return trace
	}
	assert.Equal(t, replay(), replay())
}
