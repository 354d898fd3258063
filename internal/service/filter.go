package service

import "time"

// LogFilter narrows an event history query.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "COMPRESSOR_STATE", "FAN_STAGE", "SENSOR_FAULT", ...
}
