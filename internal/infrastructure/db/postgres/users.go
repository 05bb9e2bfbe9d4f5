package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

var userColumns = []string{"users.user_id", "users.lat", "users.long", "users.created_at", "users.updated_at"}

const getUserSQL = `
SELECT user_id, lat, long, created_at, updated_at
FROM users WHERE user_id = $1
`

const insertUserSQL = `
INSERT INTO users (user_id, lat, long, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5)
`

const updateUserSQL = `UPDATE users SET lat=$2, long=$3, updated_at=$4 WHERE user_id=$1`

const deleteUserSQL = `DELETE FROM users WHERE user_id = $1`

const userLocationSQL = `SELECT lat, long FROM users WHERE user_id = $1`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(s rowScanner) (*domain.User, error) {
	var u domain.User
	if err := s.Scan(&u.UserID, &u.Lat, &u.Long, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, spec query.Spec) ([]*domain.User, int, error) {
	q := query.Select(userColumns...).From("users")
	if err := applySpec(q, spec, domain.UserMapping); err != nil {
		return nil, 0, err
	}
	if err := applyOrder(q, spec.Options, domain.UserMapping); err != nil {
		return nil, 0, err
	}
	return listPage(ctx, r.db, q, scanUser)
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return getUser(ctx, r.db, getUserSQL, userID)
}

func getUser(ctx context.Context, db DBTX, stmt, userID string) (*domain.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, stmt, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, insertUserSQL, u.UserID, u.Lat, u.Long, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict("user already exists")
	}
	return err
}

func (r *UserRepo) WithTx(ctx context.Context, fn func(tx user.TxUserRepo) error) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&userTxRepo{tx: tx})
	})
}

type userTxRepo struct {
	tx DBTX
}

func (r *userTxRepo) GetByIDForUpdate(ctx context.Context, userID string) (*domain.User, error) {
	return getUser(ctx, r.tx, getUserSQL+"FOR UPDATE\n", userID)
}

func (r *userTxRepo) Update(ctx context.Context, u *domain.User) error {
	_, err := r.tx.ExecContext(ctx, updateUserSQL, u.UserID, u.Lat, u.Long, u.UpdatedAt)
	return err
}

func (r *userTxRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.tx.ExecContext(ctx, deleteUserSQL, userID)
	return err
}

// userLocation returns nil for unknown users.
func userLocation(ctx context.Context, db DBTX, userID string) (*geo.Point, error) {
	var p geo.Point
	err := db.QueryRowContext(ctx, userLocationSQL, userID).Scan(&p.Lat, &p.Long)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
