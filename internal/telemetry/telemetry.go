// Package telemetry publishes unit snapshots and events over MQTT.
package telemetry

import (
	"encoding/json"
	"strings"
	"time"

	"condensing_unit/internal/models"
)

// Topic suffixes below the configured base topic.
const (
	stateSuffix  = "/state"
	eventsSuffix = "/events"
)

// Publisher sends controller output to the broker.
// Errors are reported to the caller and must not stop the control loop.
type Publisher interface {
	PublishState(state models.UnitState) error
	PublishEvent(event models.UnitEvent) error
	Close() error
}

// Topics returns the state and event topics for a base topic.
func Topics(base string) (state, events string) {
	base = strings.TrimRight(base, "/")
	return base + stateSuffix, base + eventsSuffix
}

// StatePayload is the JSON body published on the state topic.
type StatePayload struct {
	Unit UnitPayload `json:"unit"`
}

type UnitPayload struct {
	Timestamp    string   `json:"timestamp"`
	Cycle        uint64   `json:"cycle"`
	Compressor   string   `json:"compressor"`
	CompressorOn bool     `json:"compressor_on"`
	FanDemand    float64  `json:"fan_demand"`
	DemandMode   string   `json:"demand_mode"`
	FanGroups    []bool   `json:"fan_groups"`
	FansOn       []int    `json:"fans_on"`
	OATFailed    bool     `json:"oat_sensor_failed"`
	ErrorCodes   []string `json:"error_codes,omitempty"`
}

// FormatState builds the state payload. Fan ids are listed for the fans that run.
func FormatState(s models.UnitState) ([]byte, error) {
	on := make([]int, 0, len(s.Fans))
	for _, f := range s.Fans {
		if f.Active {
			on = append(on, f.ID)
		}
	}
	groups := s.FanGroups
	if groups == nil {
		groups = []bool{}
	}
	return json.Marshal(StatePayload{Unit: UnitPayload{
		Timestamp:    s.UpdatedAt.UTC().Format(time.RFC3339),
		Cycle:        s.Cycle,
		Compressor:   s.CompressorState,
		CompressorOn: s.CompressorOn,
		FanDemand:    s.FanDemand,
		DemandMode:   s.DemandMode,
		FanGroups:    groups,
		FansOn:       on,
		OATFailed:    s.OATSensorFailed,
		ErrorCodes:   s.ErrorCodes,
	}})
}

// EventPayload is the JSON body published on the events topic.
type EventPayload struct {
	Event EventInner `json:"event"`
}

type EventInner struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Metadata    any    `json:"metadata,omitempty"`
}

// FormatEvent builds the event payload.
func FormatEvent(e models.UnitEvent) ([]byte, error) {
	return json.Marshal(EventPayload{Event: EventInner{
		ID:          e.EventID,
		Timestamp:   e.OccurredAt.UTC().Format(time.RFC3339),
		Type:        e.Type,
		Description: e.Description,
		Metadata:    e.Metadata,
	}})
}

// Nop discards everything. It stands in when no broker is configured.
type Nop struct{}

func (Nop) PublishState(models.UnitState) error { return nil }
func (Nop) PublishEvent(models.UnitEvent) error { return nil }
func (Nop) Close() error                        { return nil }
