package userevent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type memRepo struct {
	events map[int64]*domain.Event
	users  map[string]geo.Point
	rows   map[int64]*domain.UserEvent
	nextID int64
	specs  []query.Spec
	// locks records row locks taken inside transactions, in order.
	locks []string
}

func newMemRepo() *memRepo {
	return &memRepo{
		events: map[int64]*domain.Event{},
		users:  map[string]geo.Point{},
		rows:   map[int64]*domain.UserEvent{},
		nextID: 1,
	}
}

func (m *memRepo) List(_ context.Context, spec query.Spec) ([]*domain.UserEvent, int, error) {
	m.specs = append(m.specs, spec)
	var out []*domain.UserEvent
	for _, ue := range m.rows {
		cp := *ue
		out = append(out, &cp)
	}
	query.SortRows(out, []query.SortKey{{Field: domain.UserEventFieldID, Direction: query.Asc}}, func(ue *domain.UserEvent, f query.Field) any {
		return ue.Record()[string(f)]
	})
	return query.Paginate(out, spec.Options.Limit, spec.Options.Offset), len(out), nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*domain.UserEvent, error) {
	ue, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound("participation not found")
	}
	cp := *ue
	return &cp, nil
}

func (m *memRepo) WithTx(_ context.Context, fn func(tx TxUserEventRepo) error) error {
	return fn(memTx{m})
}

type memTx struct{ m *memRepo }

func (t memTx) LockEvent(_ context.Context, id int64) (*domain.Event, error) {
	t.m.locks = append(t.m.locks, "events")
	ev, ok := t.m.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	cp := *ev
	return &cp, nil
}

func (t memTx) UserLocation(_ context.Context, userID string) (*geo.Point, error) {
	p, ok := t.m.users[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t memTx) Insert(_ context.Context, ue *domain.UserEvent) (bool, error) {
	t.m.locks = append(t.m.locks, "user_events")
	for _, existing := range t.m.rows {
		if existing.UserID == ue.UserID && existing.EventID == ue.EventID {
			*ue = *existing
			return false, nil
		}
	}
	ue.ID = t.m.nextID
	t.m.nextID++
	cp := *ue
	t.m.rows[ue.ID] = &cp
	return true, nil
}

func (t memTx) GetByIDForUpdate(ctx context.Context, id int64) (*domain.UserEvent, error) {
	t.m.locks = append(t.m.locks, "user_events")
	return t.m.GetByID(ctx, id)
}

func (t memTx) UpdateDistance(_ context.Context, ue *domain.UserEvent) error {
	cp := *ue
	t.m.rows[ue.ID] = &cp
	return nil
}

func (t memTx) Delete(_ context.Context, id int64) error {
	delete(t.m.rows, id)
	return nil
}

func (t memTx) AdjustParticipants(_ context.Context, eventID int64, delta int) (int, error) {
	t.m.locks = append(t.m.locks, "events")
	ev := t.m.events[eventID]
	ev.CurParticipants = max(ev.CurParticipants+delta, 0)
	return ev.CurParticipants, nil
}

func TestParticipation(t *testing.T) {
	repo := newMemRepo()
	repo.events[1] = &domain.Event{ID: 1, Lat: 60.0, Long: 24.0, MaxParticipants: 1}
	repo.users["alice"] = geo.Point{Lat: 60.0, Long: 24.0}

	svc := New(repo, fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}, nil, nil)
	ctx := context.Background()
	alice := domain.Actor{ID: "alice", Role: domain.RoleUser}
	bob := domain.Actor{ID: "bob", Role: domain.RoleUser}

	t.Run("join_stores_distance", func(t *testing.T) {
		res, err := svc.Join(ctx, alice, map[string]any{"eventId": 1})
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, "alice", res.Record["userId"])
		require.NotNil(t, res.Record["distance"])
		assert.Equal(t, 0, *res.Record["distance"].(*int))
		assert.Equal(t, 1, repo.events[1].CurParticipants)
	})

	t.Run("join_twice_returns_existing", func(t *testing.T) {
		res, err := svc.Join(ctx, alice, map[string]any{"eventId": "1"})
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Equal(t, int64(1), res.Record["id"])
		assert.Equal(t, 1, repo.events[1].CurParticipants)
	})

	t.Run("unknown_location_has_no_distance", func(t *testing.T) {
		res, err := svc.Join(ctx, bob, map[string]any{"eventId": 1})
		require.NoError(t, err)
		assert.Nil(t, res.Record["distance"])
		// capacity is reported, not enforced
		assert.Equal(t, 2, repo.events[1].CurParticipants)
	})

	t.Run("join_for_other_user_forbidden", func(t *testing.T) {
		_, err := svc.Join(ctx, bob, map[string]any{"eventId": 1, "userId": "alice"})
		assert.True(t, domain.IsCode(err, domain.CodeForbidden))
	})

	t.Run("join_missing_event", func(t *testing.T) {
		_, err := svc.Join(ctx, alice, map[string]any{"eventId": 99})
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})

	t.Run("distance_redacted_for_public", func(t *testing.T) {
		rec, err := svc.Get(ctx, "1", Opts{})
		require.NoError(t, err)
		assert.NotContains(t, rec, "distance")

		res, err := svc.List(ctx, query.Params{"hasDistance": {"true"}, "categoryId": {"5"}}, Opts{IncludeAllFields: true})
		require.NoError(t, err)
		assert.Equal(t, 2, res.TotalCount)
		assert.Contains(t, res.Data[0], "distance")

		spec := repo.specs[len(repo.specs)-1]
		assert.Equal(t, []query.Presence{{Field: domain.UserEventFieldDistance, Present: true}}, spec.Presence)
		_, ok := spec.Filters.Get(domain.UserEventFieldCategoryID)
		assert.True(t, ok)
	})

	t.Run("set_distance_requires_service_role", func(t *testing.T) {
		_, err := svc.SetDistance(ctx, alice, "1", map[string]any{"distance": 10})
		assert.True(t, domain.IsCode(err, domain.CodeForbidden))

		rec, err := svc.SetDistance(ctx, domain.Actor{ID: "svc", Role: domain.RoleService}, "1", map[string]any{"distance": 10})
		require.NoError(t, err)
		assert.Equal(t, 10, *rec["distance"].(*int))

		_, err = svc.SetDistance(ctx, domain.Actor{ID: "svc", Role: domain.RoleService}, "1", map[string]any{"distance": -1})
		assert.True(t, domain.IsCode(err, domain.CodeValidation))
	})

	t.Run("leave_releases_seat", func(t *testing.T) {
		_, err := svc.Leave(ctx, bob, "1")
		assert.True(t, domain.IsCode(err, domain.CodeForbidden))

		snap, err := svc.Leave(ctx, alice, "1")
		require.NoError(t, err)
		assert.Equal(t, "alice", snap["userId"])
		assert.Equal(t, 1, repo.events[1].CurParticipants)

		_, err = svc.Leave(ctx, alice, "1")
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})
}

// Every participation write takes the event row before the participation
// row, matching event deletion, so concurrent join/leave/delete cannot
// deadlock.
func TestParticipation_LockOrder(t *testing.T) {
	repo := newMemRepo()
	repo.events[1] = &domain.Event{ID: 1}
	svc := New(repo, fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}, nil, nil)
	ctx := context.Background()
	alice := domain.Actor{ID: "alice", Role: domain.RoleUser}

	firstLock := func(locks []string, table string) int {
		for i, l := range locks {
			if l == table {
				return i
			}
		}
		return -1
	}

	t.Run("join", func(t *testing.T) {
		repo.locks = nil
		_, err := svc.Join(ctx, alice, map[string]any{"eventId": 1})
		require.NoError(t, err)
		require.NotEmpty(t, repo.locks)
		assert.Equal(t, "events", repo.locks[0])
		assert.Less(t, firstLock(repo.locks, "events"), firstLock(repo.locks, "user_events"))
	})

	t.Run("leave", func(t *testing.T) {
		repo.locks = nil
		_, err := svc.Leave(ctx, alice, "1")
		require.NoError(t, err)
		require.NotEmpty(t, repo.locks)
		assert.Equal(t, "events", repo.locks[0])
		assert.Less(t, firstLock(repo.locks, "events"), firstLock(repo.locks, "user_events"))
		assert.Equal(t, 0, repo.events[1].CurParticipants)
	})

	t.Run("leave_after_event_deleted", func(t *testing.T) {
		_, err := svc.Join(ctx, alice, map[string]any{"eventId": 1})
		require.NoError(t, err)
		delete(repo.events, 1)

		_, err = svc.Leave(ctx, alice, "2")
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})
}
