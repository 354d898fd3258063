package service

import (
	"context"
	"time"

	"condensing_unit/internal/control"
	"condensing_unit/internal/logger"
	"condensing_unit/internal/models"
	"condensing_unit/internal/repository"
	"condensing_unit/internal/telemetry"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Controller drives the control core once per tick.
type Controller interface {
	Run(ctx context.Context, tick time.Duration)
	Cycle(ctx context.Context, now time.Time) (models.UnitState, []models.UnitEvent, error)
	Force(target control.CompressorState) error
}

// Monitoring exposes the latest published snapshot.
type Monitoring interface {
	GetState(ctx context.Context) (models.UnitState, error)
	GetFans(ctx context.Context) ([]models.FanUnit, error)
}

// EventLog exposes the append-only journal with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.UnitEvent, error)
}

type Service struct {
	Controller
	Monitoring
	EventLog
	Authorization
}

// Deps are the non-repository collaborators of the services.
type Deps struct {
	Control   control.Config
	Source    SignalSource
	Publisher telemetry.Publisher
	Auth      AuthConfig
	Log       *logger.Logger
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Controller: NewControllerService(deps.Control, ControllerDeps{
			Source:    deps.Source,
			States:    repos.StateRepo,
			Events:    repos.EventRepo,
			Publisher: deps.Publisher,
			Log:       deps.Log,
		}),
		Monitoring:    NewMonitoringService(repos.StateRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, deps.Auth),
	}
}
