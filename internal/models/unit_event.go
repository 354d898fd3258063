package models

import "time"

// Event types written to the journal.
const (
	EventStartup         = "STARTUP"
	EventShutdown        = "SHUTDOWN"
	EventCompressorState = "COMPRESSOR_STATE"
	EventFanStage        = "FAN_STAGE"
	EventSensorFault     = "SENSOR_FAULT"
	EventSensorRecovered = "SENSOR_RECOVERED"
	EventForce           = "FORCE"
)

// UnitEvent is a single journal entry.
type UnitEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
