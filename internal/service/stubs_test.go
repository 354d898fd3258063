package service

import (
	"context"
	"sync"
	"time"

	"condensing_unit/internal/control"
	"condensing_unit/internal/models"
)

// stateRepoStub satisfies repository.StateRepo.
type stateRepoStub struct {
	mu       sync.Mutex
	loadResp models.UnitState
	loadErr  error
	saveErr  error
	saves    []models.UnitState
}

func (s *stateRepoStub) Save(_ context.Context, st models.UnitState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, st)
	return s.saveErr
}

func (s *stateRepoStub) Load(context.Context) (models.UnitState, error) {
	return s.loadResp, s.loadErr
}

func (s *stateRepoStub) saved() []models.UnitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.UnitState(nil), s.saves...)
}

// eventRepoStub satisfies repository.EventRepo.
type eventRepoStub struct {
	appends   []models.UnitEvent
	appendErr error

	gotFrom, gotTo time.Time
	gotType        string
	listResp       []models.UnitEvent
	listErr        error
	listCalls      int
}

func (e *eventRepoStub) Append(_ context.Context, ev models.UnitEvent) error {
	e.appends = append(e.appends, ev)
	return e.appendErr
}

func (e *eventRepoStub) List(_ context.Context, from, to time.Time, typ string) ([]models.UnitEvent, error) {
	e.listCalls++
	e.gotFrom, e.gotTo, e.gotType = from, to, typ
	return e.listResp, e.listErr
}

// scriptedSource replays a fixed list of frames, repeating the last one.
type scriptedSource struct {
	frames []control.Inputs
	reads  int
	err    error
}

func (s *scriptedSource) Read(context.Context, time.Time) (control.Inputs, error) {
	if s.err != nil {
		return control.Inputs{}, s.err
	}
	i := s.reads
	if i >= len(s.frames) {
		i = len(s.frames) - 1
	}
	s.reads++
	return s.frames[i], nil
}

func eventTypes(events []models.UnitEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}
