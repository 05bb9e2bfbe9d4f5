package userevent

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

type Clock interface {
	Now() time.Time
}

type UserEventRepo interface {
	List(ctx context.Context, spec query.Spec) ([]*domain.UserEvent, int, error)
	GetByID(ctx context.Context, id int64) (*domain.UserEvent, error)

	WithTx(ctx context.Context, fn func(tx TxUserEventRepo) error) error
}

type TxUserEventRepo interface {
	// LockEvent takes a row lock on the event so participant counts stay
	// consistent with user_events inside the transaction.
	LockEvent(ctx context.Context, eventID int64) (*domain.Event, error)
	// UserLocation returns nil when the user has not registered a location.
	UserLocation(ctx context.Context, userID string) (*geo.Point, error)

	// Insert is create-or-get on (userId, eventId). created reports whether a
	// new row was written; ue is filled from the stored row either way.
	Insert(ctx context.Context, ue *domain.UserEvent) (created bool, err error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.UserEvent, error)
	UpdateDistance(ctx context.Context, ue *domain.UserEvent) error
	Delete(ctx context.Context, id int64) error

	// AdjustParticipants adds delta to cur_participants, never going below
	// zero, and returns the new value.
	AdjustParticipants(ctx context.Context, eventID int64, delta int) (int, error)
}
