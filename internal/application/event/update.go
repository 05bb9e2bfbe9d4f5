package event

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/notify"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

// immutableFields are dropped from patches without error.
var immutableFields = []string{"id", "createdAt", "updatedAt", "creatorId"}

type UpdateCmd struct {
	Actor domain.Actor
	ID    string
	Patch map[string]any
}

// Update merges a partial patch into the stored event. Concurrent updates
// are last-writer-wins.
func (s *Service) Update(ctx context.Context, cmd UpdateCmd) (shaping.Record, error) {
	id, err := ParseID(cmd.ID)
	if err != nil {
		return nil, err
	}

	patch := make(map[string]any, len(cmd.Patch))
	for k, v := range cmd.Patch {
		patch[k] = v
	}
	for _, k := range immutableFields {
		delete(patch, k)
	}
	patch = query.Pick(patch, domain.EventEntity.Schema)

	valid, err := query.ValidateFields(domain.EventEntity.Schema, patch, true)
	if err != nil {
		return nil, domain.FromValidation(err)
	}
	if !cmd.Actor.Privileged() {
		for _, f := range domain.EventPrivilegedPatchFields {
			if _, ok := valid[f]; ok {
				return nil, domain.ErrForbidden(f + " can only be changed by moderators")
			}
		}
	}

	var out *domain.Event
	err = s.repo.WithTx(ctx, func(tx TxEventRepo) error {
		ev, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanManage(cmd.Actor.ID, cmd.Actor.Role, ev.CreatorID) {
			return domain.ErrForbidden("not allowed to modify this event")
		}

		ev.Apply(valid)
		ev.UpdatedAt = s.clock.Now().UTC()
		if err := tx.Update(ctx, ev); err != nil {
			return err
		}
		out = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, out)
	notify.Emit(ctx, s.pub, notify.RKEventUpdated, out.UpdatedAt, payloadOf(out))

	zlog.Info().
		Str("operation", "event.update").
		Int64("event_id", out.ID).
		Str("actor_id", cmd.Actor.ID).
		Int("fields", len(valid)).
		Msg("event updated")

	return out.Record(), nil
}
