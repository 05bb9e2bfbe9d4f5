package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

type Clock interface {
	Now() time.Time
}

type EventRepo interface {
	// List returns one page and the total number of rows matching spec's filters.
	List(ctx context.Context, spec query.Spec) ([]*domain.Event, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	Create(ctx context.Context, e *domain.Event) error

	WithTx(ctx context.Context, fn func(tx TxEventRepo) error) error
}

// TxEventRepo runs inside one transaction; every call shares it.
type TxEventRepo interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Event, error)
	Update(ctx context.Context, e *domain.Event) error
	Delete(ctx context.Context, id int64) error
}
