package user

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

type Clock interface {
	Now() time.Time
}

type UserRepo interface {
	List(ctx context.Context, spec query.Spec) ([]*domain.User, int, error)
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	// Create returns a conflict error when userID is taken.
	Create(ctx context.Context, u *domain.User) error

	WithTx(ctx context.Context, fn func(tx TxUserRepo) error) error
}

type TxUserRepo interface {
	GetByIDForUpdate(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, userID string) error
}
