package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"condensing_unit/internal/models"
)

func TestEventLogService_List_NormalisesFilter(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("UTC+3", 3*3600)
	from := time.Date(2026, 1, 1, 10, 0, 0, 0, zone)
	to := time.Date(2026, 1, 1, 12, 0, 0, 0, zone)

	repo := &eventRepoStub{listResp: []models.UnitEvent{{EventID: "a"}}}
	got, err := NewEventLogService(repo).List(context.Background(), LogFilter{From: from, To: to, Type: " fan_stage "})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "a" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if repo.gotFrom.Location() != time.UTC || !repo.gotFrom.Equal(from) {
		t.Errorf("from = %v", repo.gotFrom)
	}
	if repo.gotTo.Location() != time.UTC || !repo.gotTo.Equal(to) {
		t.Errorf("to = %v", repo.gotTo)
	}
	if repo.gotType != "FAN_STAGE" {
		t.Errorf("type = %q", repo.gotType)
	}
}

func TestEventLogService_List_ZeroBoundsPassThrough(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{}
	if _, err := NewEventLogService(repo).List(context.Background(), LogFilter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if !repo.gotFrom.IsZero() || !repo.gotTo.IsZero() || repo.gotType != "" {
		t.Errorf("unexpected filter: %v %v %q", repo.gotFrom, repo.gotTo, repo.gotType)
	}
}

func TestEventLogService_List_InvertedRange(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{}
	now := time.Now()
	_, err := NewEventLogService(repo).List(context.Background(), LogFilter{From: now, To: now.Add(-time.Minute)})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
	if repo.listCalls != 0 {
		t.Fatalf("repository should not be queried, got %d calls", repo.listCalls)
	}
}

func TestEventLogService_List_RepoError(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	_, err := NewEventLogService(&eventRepoStub{listErr: boom}).List(context.Background(), LogFilter{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}
