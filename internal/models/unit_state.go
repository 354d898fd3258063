package models

import "time"

// UnitState is the published snapshot of the condensing unit after a cycle.
// It is a read model for the API and telemetry; the controller never loads it back.
type UnitState struct {
	ID              int       `json:"id"`
	Cycle           uint64    `json:"cycle"`
	CompressorState string    `json:"compressor_state"` // OFF | STARTING | RUNNING | ...
	CompressorOn    bool      `json:"compressor_on"`
	RunTimerSec     float64   `json:"run_timer_s"`
	StopTimerSec    float64   `json:"stop_timer_s"`
	SafetyTimerSec  float64   `json:"safety_timer_s"`
	FanDemand       float64   `json:"fan_demand"` // groups, 0..4
	DemandMode      string    `json:"demand_mode"`
	OATSensorFailed bool      `json:"oat_sensor_failed"`
	FanGroups       []bool    `json:"fan_groups"`
	Fans            []FanUnit `json:"fans"`
	HeadPressure    *float64  `json:"head_pressure,omitempty"` // filtered; nil before the first good reading
	OAT             *float64  `json:"oat,omitempty"`
	SaturatedTemp   *float64  `json:"saturated_temp,omitempty"`
	ErrorCodes      []string  `json:"error_codes,omitempty"` // e.g. ["ALARM", "OAT_SENSOR_FAULT"]
	UpdatedAt       time.Time `json:"updated_at"`
}

// FanUnit is the wear bookkeeping of one physical fan.
type FanUnit struct {
	ID         int     `json:"id"`
	Active     bool    `json:"active"`
	RunTimeSec float64 `json:"run_time_s"`
	OffTimeSec float64 `json:"off_time_s"`
}
