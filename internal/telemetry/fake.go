package telemetry

import "condensing_unit/internal/models"

// FakePublisher records what was published, for tests.
type FakePublisher struct {
	States        []models.UnitState
	StatePayloads [][]byte
	Events        []models.UnitEvent
	EventPayloads [][]byte

	// PublishError, if set, is returned by both publish methods.
	PublishError error

	Closed bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) PublishState(s models.UnitState) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatState(s)
	if err != nil {
		return err
	}
	f.States = append(f.States, s)
	f.StatePayloads = append(f.StatePayloads, payload)
	return nil
}

func (f *FakePublisher) PublishEvent(e models.UnitEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatEvent(e)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, e)
	f.EventPayloads = append(f.EventPayloads, payload)
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
