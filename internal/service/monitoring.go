package service

import (
	"context"
	"time"

	"condensing_unit/internal/control"
	"condensing_unit/internal/models"
	"condensing_unit/internal/repository"
)

type MonitoringService struct {
	stateRepo repository.StateRepo
}

func NewMonitoringService(stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo}
}

// GetState returns the latest published unit snapshot.
// Before the first cycle it returns a baseline OFF snapshot.
func (s *MonitoringService) GetState(ctx context.Context) (models.UnitState, error) {
	state, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.UnitState{}, err
	}
	if state.ID == 0 {
		return baselineState(), nil
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	return state, nil
}

// GetFans returns the per-fan wear bookkeeping from the latest snapshot.
func (s *MonitoringService) GetFans(ctx context.Context) ([]models.FanUnit, error) {
	state, err := s.GetState(ctx)
	if err != nil {
		return nil, err
	}
	return state.Fans, nil
}

// baselineState is the power-on snapshot: compressor OFF, all fans idle.
func baselineState() models.UnitState {
	fans := make([]models.FanUnit, control.FanCount)
	for i := range fans {
		fans[i].ID = i
	}
	return models.UnitState{
		ID:              1, // single-row snapshot table
		CompressorState: control.StateOff.String(),
		DemandMode:      string(control.ModeTempSplit),
		FanGroups:       make([]bool, control.GroupCount),
		Fans:            fans,
		UpdatedAt:       time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
