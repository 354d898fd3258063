package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"condensing_unit/internal/models"
	"condensing_unit/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")

// normalizeFilter returns UTC bounds and an upper-case type, validating the range.
func normalizeFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := toUTC(f.From)
	to := toUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}
	return from, to, strings.ToUpper(strings.TrimSpace(f.Type)), nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.UnitEvent, error) {
	from, to, typ, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}
