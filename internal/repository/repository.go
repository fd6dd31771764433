package repository

import (
	"context"
	"database/sql"
	"time"

	"petdoor_hub/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// EventRepo is the append-only journal of observed door and pet transitions.
type EventRepo interface {
	Append(ctx context.Context, e models.DoorEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DoorEvent, error)
}

type Repository struct {
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
