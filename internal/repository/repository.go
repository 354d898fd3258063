package repository

import (
	"context"
	"database/sql"
	"time"

	"condensing_unit/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// StateRepo stores the latest published unit snapshot.
type StateRepo interface {
	Save(ctx context.Context, s models.UnitState) error
	Load(ctx context.Context) (models.UnitState, error)
}

// EventRepo is the append-only journal of unit events.
type EventRepo interface {
	Append(ctx context.Context, e models.UnitEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.UnitEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
