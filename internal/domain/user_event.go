package domain

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

// UserEvent is a user's participation in an event.
type UserEvent struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	EventID   int64     `json:"eventId"`
	Distance  *int      `json:"distance"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var UserEventEntity = &query.Entity{
	Name:  "userEvent",
	Table: "user_events",
	Schema: query.Schema{
		"userId":   query.StringID().Req(),
		"eventId":  query.BigInteger().Req(),
		"distance": query.Int32().Null(),
	},
}

const (
	UserEventFieldID          query.Field = "id"
	UserEventFieldUserID      query.Field = "userId"
	UserEventFieldEventID     query.Field = "eventId"
	UserEventFieldDistance    query.Field = "distance"
	UserEventFieldCategoryID  query.Field = "categoryId"
	UserEventFieldCreatorID   query.Field = "creatorId"
	UserEventFieldStartTime   query.Field = "startTime"
	UserEventFieldCreatedAt   query.Field = "createdAt"
	UserEventFieldUpdatedAt   query.Field = "updatedAt"
	UserEventFieldHasDistance query.Field = "hasDistance"
)

// UserEventMapping joins participations with their events, so lists can be
// filtered and sorted by event attributes.
var UserEventMapping = query.NewMapping(map[query.Field]query.Column{
	UserEventFieldID:         {Entity: UserEventEntity, Attribute: "id"},
	UserEventFieldUserID:     {Entity: UserEventEntity, Attribute: "userId"},
	UserEventFieldEventID:    {Entity: UserEventEntity, Attribute: "eventId"},
	UserEventFieldDistance:   {Entity: UserEventEntity, Attribute: "distance"},
	UserEventFieldCreatedAt:  {Entity: UserEventEntity, Attribute: "createdAt"},
	UserEventFieldUpdatedAt:  {Entity: UserEventEntity, Attribute: "updatedAt"},
	UserEventFieldCategoryID: {Entity: EventEntity, Attribute: "categoryId"},
	UserEventFieldCreatorID:  {Entity: EventEntity, Attribute: "creatorId"},
	UserEventFieldStartTime:  {Entity: EventEntity, Attribute: "startTime"},
})

var (
	UserEventFilterFields = []query.Field{
		UserEventFieldID, UserEventFieldUserID, UserEventFieldEventID,
		UserEventFieldDistance, UserEventFieldCategoryID, UserEventFieldCreatorID,
	}
	UserEventSortFields = []query.Field{
		UserEventFieldID, UserEventFieldUserID, UserEventFieldEventID, UserEventFieldDistance,
		UserEventFieldStartTime, UserEventFieldCreatedAt, UserEventFieldUpdatedAt,
	}
	UserEventPublicFields = []string{"id", "userId", "eventId", "createdAt", "updatedAt"}
)

func (ue *UserEvent) Record() shaping.Record {
	return shaping.Record{
		"id":        ue.ID,
		"userId":    ue.UserID,
		"eventId":   ue.EventID,
		"distance":  ue.Distance,
		"createdAt": ue.CreatedAt,
		"updatedAt": ue.UpdatedAt,
	}
}
