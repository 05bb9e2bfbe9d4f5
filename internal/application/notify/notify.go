package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	appCtx "github.com/baechuer/real-time-ressys/services/meetup-service/internal/pkg/context"
)

const producer = "meetup-service"

// Publisher sends one domain event to the broker.
type Publisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, string, string, []byte) error { return nil }

// Envelope is the wire format of every domain event.
type Envelope[T any] struct {
	MessageID  string    `json:"message_id"`
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

// Emit publishes payload best-effort: failures are logged, never returned,
// because the mutation they describe has already committed.
func Emit[T any](ctx context.Context, pub Publisher, routingKey string, occurredAt time.Time, payload T) {
	if pub == nil {
		return
	}
	env := Envelope[T]{
		MessageID:  uuid.NewString(),
		Version:    1,
		Producer:   producer,
		RequestID:  appCtx.GetRequestID(ctx),
		OccurredAt: occurredAt.UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		zlog.Error().Err(err).Str("rk", routingKey).Msg("encode domain event failed")
		return
	}
	if err := pub.PublishEvent(ctx, routingKey, env.MessageID, body); err != nil {
		zlog.Error().Err(err).Str("rk", routingKey).Str("message_id", env.MessageID).Msg("publish domain event failed")
	}
}

const (
	RKEventCreated     = "event.created"
	RKEventUpdated     = "event.updated"
	RKEventDeleted     = "event.deleted"
	RKUserCreated      = "user.created"
	RKUserUpdated      = "user.updated"
	RKUserDeleted      = "user.deleted"
	RKParticipationNew = "participation.joined"
	RKParticipationSet = "participation.updated"
	RKParticipationEnd = "participation.left"
)
