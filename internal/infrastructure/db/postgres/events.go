package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

var eventColumns = []string{
	"events.id", "events.name", "events.description", "events.start_time", "events.duration",
	"events.max_participants", "events.cur_participants", "events.lat", "events.long",
	"events.address", "events.creator_id", "events.admin_id", "events.review_deadline",
	"events.chat_id", "events.category_id", "events.created_at", "events.updated_at",
}

const participantsColumn = `COALESCE(json_agg(user_events.user_id) FILTER (WHERE user_events.user_id IS NOT NULL), '[]')::text`

const insertEventSQL = `
INSERT INTO events (
  name, description, start_time, duration, max_participants, cur_participants,
  lat, long, address, creator_id, admin_id, review_deadline, chat_id, category_id,
  created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
RETURNING id
`

const getEventSQL = `
SELECT id, name, description, start_time, duration, max_participants, cur_participants,
       lat, long, address, creator_id, admin_id, review_deadline, chat_id, category_id,
       created_at, updated_at
FROM events WHERE id = $1
`

const selectEventForUpdateSQL = getEventSQL + "FOR UPDATE\n"

const updateEventSQL = `
UPDATE events SET
  name=$2, description=$3, start_time=$4, duration=$5, max_participants=$6,
  cur_participants=$7, lat=$8, long=$9, address=$10, admin_id=$11,
  review_deadline=$12, chat_id=$13, category_id=$14, updated_at=$15
WHERE id=$1
`

const deleteEventSQL = `DELETE FROM events WHERE id = $1`

type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func scanEvent(s rowScanner, extra ...any) (*domain.Event, error) {
	var e domain.Event
	dest := []any{
		&e.ID, &e.Name, &e.Description, &e.StartTime, &e.Duration,
		&e.MaxParticipants, &e.CurParticipants, &e.Lat, &e.Long,
		&e.Address, &e.CreatorID, &e.AdminID, &e.ReviewDeadline,
		&e.ChatID, &e.CategoryID, &e.CreatedAt, &e.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEventWithParticipants(s rowScanner) (*domain.Event, error) {
	var raw string
	e, err := scanEvent(s, &raw)
	if err != nil {
		return nil, err
	}
	e.Participants = []string{}
	if err := json.Unmarshal([]byte(raw), &e.Participants); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns events with the ids of their participants.
func (r *EventRepo) List(ctx context.Context, spec query.Spec) ([]*domain.Event, int, error) {
	q := query.Select(append(append([]string(nil), eventColumns...), participantsColumn)...).
		From("events").
		LeftJoin("user_events", "user_events.event_id = events.id").
		GroupBy("events.id")
	if err := applySpec(q, spec, domain.EventMapping); err != nil {
		return nil, 0, err
	}
	if err := applyOrder(q, spec.Options, domain.EventMapping); err != nil {
		return nil, 0, err
	}
	return listPage(ctx, r.db, q, scanEventWithParticipants)
}

func (r *EventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	return getEvent(ctx, r.db, getEventSQL, id)
}

func getEvent(ctx context.Context, db DBTX, stmt string, id int64) (*domain.Event, error) {
	e, err := scanEvent(db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	return r.db.QueryRowContext(ctx, insertEventSQL,
		e.Name, e.Description, e.StartTime, e.Duration, e.MaxParticipants, e.CurParticipants,
		e.Lat, e.Long, e.Address, e.CreatorID, e.AdminID, e.ReviewDeadline, e.ChatID, e.CategoryID,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *EventRepo) WithTx(ctx context.Context, fn func(tx event.TxEventRepo) error) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&eventTxRepo{tx: tx})
	})
}

type eventTxRepo struct {
	tx DBTX
}

func (r *eventTxRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Event, error) {
	return getEvent(ctx, r.tx, selectEventForUpdateSQL, id)
}

// Update writes every mutable column; creator_id and created_at are never touched.
func (r *eventTxRepo) Update(ctx context.Context, e *domain.Event) error {
	_, err := r.tx.ExecContext(ctx, updateEventSQL,
		e.ID,
		e.Name, e.Description, e.StartTime, e.Duration, e.MaxParticipants,
		e.CurParticipants, e.Lat, e.Long, e.Address, e.AdminID,
		e.ReviewDeadline, e.ChatID, e.CategoryID, e.UpdatedAt,
	)
	return err
}

func (r *eventTxRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.tx.ExecContext(ctx, deleteEventSQL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}
