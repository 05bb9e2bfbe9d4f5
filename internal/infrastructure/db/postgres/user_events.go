package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/userevent"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

var userEventColumns = []string{
	"user_events.id", "user_events.user_id", "user_events.event_id", "user_events.distance",
	"user_events.created_at", "user_events.updated_at",
}

const getUserEventSQL = `
SELECT id, user_id, event_id, distance, created_at, updated_at
FROM user_events WHERE id = $1
`

// The no-op DO UPDATE makes RETURNING yield the existing row on conflict;
// xmax = 0 only for freshly inserted tuples.
const upsertUserEventSQL = `
INSERT INTO user_events (user_id, event_id, distance, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id, event_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING id, user_id, event_id, distance, created_at, updated_at, (xmax = 0) AS inserted
`

const updateUserEventDistanceSQL = `UPDATE user_events SET distance=$2, updated_at=$3 WHERE id=$1`

const deleteUserEventSQL = `DELETE FROM user_events WHERE id = $1`

const adjustParticipantsSQL = `
UPDATE events
SET cur_participants = GREATEST(cur_participants + $2, 0)
WHERE id = $1
RETURNING cur_participants
`

type UserEventRepo struct {
	db *sql.DB
}

func NewUserEventRepo(db *sql.DB) *UserEventRepo { return &UserEventRepo{db: db} }

func scanUserEvent(s rowScanner, extra ...any) (*domain.UserEvent, error) {
	var ue domain.UserEvent
	dest := []any{&ue.ID, &ue.UserID, &ue.EventID, &ue.Distance, &ue.CreatedAt, &ue.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &ue, nil
}

func (r *UserEventRepo) List(ctx context.Context, spec query.Spec) ([]*domain.UserEvent, int, error) {
	q := query.Select(userEventColumns...).
		From("user_events").
		LeftJoin("events", "events.id = user_events.event_id")
	if err := applySpec(q, spec, domain.UserEventMapping); err != nil {
		return nil, 0, err
	}
	if err := applyOrder(q, spec.Options, domain.UserEventMapping); err != nil {
		return nil, 0, err
	}
	return listPage(ctx, r.db, q, func(s rowScanner) (*domain.UserEvent, error) { return scanUserEvent(s) })
}

func (r *UserEventRepo) GetByID(ctx context.Context, id int64) (*domain.UserEvent, error) {
	return getUserEvent(ctx, r.db, getUserEventSQL, id)
}

func getUserEvent(ctx context.Context, db DBTX, stmt string, id int64) (*domain.UserEvent, error) {
	ue, err := scanUserEvent(db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("participation not found")
	}
	if err != nil {
		return nil, err
	}
	return ue, nil
}

func (r *UserEventRepo) WithTx(ctx context.Context, fn func(tx userevent.TxUserEventRepo) error) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&userEventTxRepo{tx: tx})
	})
}

type userEventTxRepo struct {
	tx DBTX
}

func (r *userEventTxRepo) LockEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	return getEvent(ctx, r.tx, selectEventForUpdateSQL, eventID)
}

func (r *userEventTxRepo) UserLocation(ctx context.Context, userID string) (*geo.Point, error) {
	return userLocation(ctx, r.tx, userID)
}

func (r *userEventTxRepo) Insert(ctx context.Context, ue *domain.UserEvent) (bool, error) {
	row := r.tx.QueryRowContext(ctx, upsertUserEventSQL, ue.UserID, ue.EventID, ue.Distance, ue.CreatedAt, ue.UpdatedAt)
	var inserted bool
	stored, err := scanUserEvent(row, &inserted)
	if err != nil {
		return false, err
	}
	*ue = *stored
	return inserted, nil
}

func (r *userEventTxRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.UserEvent, error) {
	return getUserEvent(ctx, r.tx, getUserEventSQL+"FOR UPDATE\n", id)
}

func (r *userEventTxRepo) UpdateDistance(ctx context.Context, ue *domain.UserEvent) error {
	_, err := r.tx.ExecContext(ctx, updateUserEventDistanceSQL, ue.ID, ue.Distance, ue.UpdatedAt)
	return err
}

func (r *userEventTxRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.tx.ExecContext(ctx, deleteUserEventSQL, id)
	return err
}

func (r *userEventTxRepo) AdjustParticipants(ctx context.Context, eventID int64, delta int) (int, error) {
	var cur int
	err := r.tx.QueryRowContext(ctx, adjustParticipantsSQL, eventID, delta).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound("event not found")
	}
	return cur, err
}
