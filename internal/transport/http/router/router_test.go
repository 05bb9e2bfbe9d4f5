package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/report"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/userevent"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/middleware"
)

const secret = "router-secret"

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// stubEvents holds a fixed set of events; writes only touch the map.
type stubEvents struct {
	events map[int64]*domain.Event
	nextID int64
}

func (s *stubEvents) List(ctx context.Context, spec query.Spec) ([]*domain.Event, int, error) {
	out := make([]*domain.Event, 0, len(s.events))
	for id := int64(1); id <= s.nextID; id++ {
		if ev, ok := s.events[id]; ok {
			out = append(out, ev)
		}
	}
	total := len(out)
	return query.Paginate(out, spec.Options.Limit, spec.Options.Offset), total, nil
}

func (s *stubEvents) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	ev, ok := s.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	cp := *ev
	return &cp, nil
}

func (s *stubEvents) Create(ctx context.Context, e *domain.Event) error {
	s.nextID++
	e.ID = s.nextID
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *stubEvents) WithTx(ctx context.Context, fn func(tx event.TxEventRepo) error) error {
	return fn(stubEventsTx{s})
}

type stubEventsTx struct{ s *stubEvents }

func (t stubEventsTx) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Event, error) {
	return t.s.GetByID(ctx, id)
}

func (t stubEventsTx) Update(ctx context.Context, e *domain.Event) error {
	cp := *e
	t.s.events[e.ID] = &cp
	return nil
}

func (t stubEventsTx) Delete(ctx context.Context, id int64) error {
	delete(t.s.events, id)
	return nil
}

type stubReports struct{}

func (stubReports) EventCandidates(ctx context.Context, filters, notFilters query.Filters) ([]*domain.EventDistance, error) {
	return []*domain.EventDistance{
		{EventID: 1, Lat: 0, Long: 1},
		{EventID: 2, Lat: 0, Long: 0.5},
	}, nil
}

func (stubReports) UserLocation(ctx context.Context, userID string) (*geo.Point, error) {
	return nil, nil
}

func token(t *testing.T, uid, role string) string {
	t.Helper()
	claims := authmw.Claims{
		UserID: uid,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return ss
}

func newTestRouter(t *testing.T) (http.Handler, *stubEvents) {
	t.Helper()
	clock := fixedClock{t: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	events := &stubEvents{events: map[int64]*domain.Event{}}
	for i := 0; i < 2; i++ {
		require.NoError(t, events.Create(context.Background(), &domain.Event{
			Name: "Meetup", StartTime: start, MaxParticipants: 5, Lat: 60.19, Long: 24.94,
			CreatorID: "user_A", AdminID: "user_A", ReviewDeadline: start, ChatID: 1, CategoryID: 3,
		}))
	}

	h := Handlers{
		Events:     handlers.NewEventsHandler(event.New(events, clock, nil, nil, 0)),
		Users:      handlers.NewUsersHandler(user.New(nil, clock, nil, nil)),
		UserEvents: handlers.NewUserEventsHandler(userevent.New(nil, clock, nil, nil)),
		Reports:    handlers.NewReportsHandler(report.New(stubReports{}, nil, 0)),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"postgres": handlers.PingFunc(func(context.Context) error { return nil }),
		}),
	}
	return New(h, authmw.NewAuth(secret, ""), &config.Config{}), events
}

func do(t *testing.T, h http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter(t *testing.T) {
	h, events := newTestRouter(t)
	userA := token(t, "user_A", domain.RoleUser)
	userB := token(t, "user_B", domain.RoleUser)
	mod := token(t, "mod_1", domain.RoleModerator)

	t.Run("healthz_is_public", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get(authmw.HeaderXRequestID))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	})

	t.Run("readyz_reports_dependencies", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/readyz", "", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"data":{"postgres":"ok"}}`, rr.Body.String())
	})

	t.Run("metrics_is_exposed", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/metrics", "", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "meetup_service_http_requests_total")
	})

	t.Run("api_requires_token", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/api/v1/events", "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("list_events", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/api/v1/events?limit=1", "", userA)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "2", rr.Header().Get("X-Total-Count"))

		var body struct {
			Data []map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Len(t, body.Data, 1)
	})

	t.Run("list_rejects_unknown_sort", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/api/v1/events?sort=nope", "", userA)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("get_event", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/api/v1/events/1", "", userA)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"name":"Meetup"`)

		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/events/abc", "", userA).Code)
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/events/999", "", userA).Code)
	})

	t.Run("create_event", func(t *testing.T) {
		body := `{"name":"New","startTime":"2025-06-01T18:00:00Z","maxParticipants":3,` +
			`"lat":60.2,"long":24.9,"reviewDeadline":"2025-05-30T18:00:00Z","chatId":5,"categoryId":2}`
		rr := do(t, h, http.MethodPost, "/api/v1/events", body, userA)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Contains(t, rr.Body.String(), `"creatorId":"user_A"`)

		rr = do(t, h, http.MethodPost, "/api/v1/events", `[1]`, userA)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = do(t, h, http.MethodPost, "/api/v1/events", `{"name":"x"}`, userA)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("update_event", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/api/v1/events/1", `{"name":"Renamed","id":77}`, userA)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "Renamed", events.events[1].Name)
		assert.Equal(t, int64(1), events.events[1].ID)

		rr = do(t, h, http.MethodPut, "/api/v1/events/1", `{"name":"Hijacked"}`, userB)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("delete_event", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodDelete, "/api/v1/events/2", "", userB).Code)
		assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/events/2", "", mod).Code)
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/v1/events/2", "", mod).Code)
	})

	t.Run("reports_need_privilege", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/api/v1/reports/distances?lat=0&long=0", "", userA)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = do(t, h, http.MethodGet, "/api/v1/reports/distances?lat=0&long=0", "", mod)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "2", rr.Header().Get("X-Total-Count"))

		var body struct {
			Data []map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body.Data, 2)
		assert.EqualValues(t, 2, body.Data[0]["eventId"])
	})
}

func TestReadyz_Unavailable(t *testing.T) {
	h := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"redis": handlers.PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	rr := httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
}
