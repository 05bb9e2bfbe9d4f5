package event

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/notify"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

type CreateCmd struct {
	Actor  domain.Actor
	Values map[string]any
}

func (s *Service) Create(ctx context.Context, cmd CreateCmd) (shaping.Record, error) {
	values := query.Pick(cmd.Values, domain.EventEntity.Schema)

	if v, ok := values["creatorId"]; !ok || v == nil {
		values["creatorId"] = cmd.Actor.ID
	}
	if v, ok := values["adminId"]; !ok || v == nil {
		values["adminId"] = values["creatorId"]
	}

	valid, err := query.ValidateFields(domain.EventEntity.Schema, values, false)
	if err != nil {
		return nil, domain.FromValidation(err)
	}
	if !cmd.Actor.Privileged() && valid["creatorId"] != cmd.Actor.ID {
		return nil, domain.ErrForbidden("cannot create events for another user")
	}

	now := s.clock.Now().UTC()
	ev := &domain.Event{CreatedAt: now, UpdatedAt: now}
	ev.Apply(valid)

	if err := s.repo.Create(ctx, ev); err != nil {
		return nil, err
	}

	s.invalidate(ctx, ev)
	notify.Emit(ctx, s.pub, notify.RKEventCreated, now, payloadOf(ev))

	zlog.Info().
		Str("operation", "event.create").
		Int64("event_id", ev.ID).
		Str("creator_id", ev.CreatorID).
		Msg("event created")

	return ev.Record(), nil
}
