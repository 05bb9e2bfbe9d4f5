package domain

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

type Event struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	StartTime       time.Time `json:"startTime"`
	Duration        *int      `json:"duration"`
	MaxParticipants int       `json:"maxParticipants"`
	CurParticipants int       `json:"curParticipants"`
	Lat             float64   `json:"lat"`
	Long            float64   `json:"long"`
	Address         *string   `json:"address"`
	CreatorID       string    `json:"creatorId"`
	AdminID         string    `json:"adminId"`
	ReviewDeadline  time.Time `json:"reviewDeadline"`
	ChatID          int64     `json:"chatId"`
	CategoryID      int64     `json:"categoryId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// Participants is only filled by list queries.
	Participants []string `json:"participants,omitempty"`
}

var EventEntity = &query.Entity{
	Name:  "event",
	Table: "events",
	Schema: query.Schema{
		"name":            {Kind: query.KindString, Rules: "min=1,max=100", Required: true},
		"description":     query.Constraint{Kind: query.KindString, Rules: "max=2000"}.Null(),
		"startTime":       query.Constraint{Kind: query.KindTime}.Req(),
		"duration":        query.Int32().Null(),
		"maxParticipants": query.Int32().Req(),
		"curParticipants": query.Int32(),
		"lat":             query.Latitude().Req(),
		"long":            query.Longitude().Req(),
		"address":         query.Constraint{Kind: query.KindString, Rules: "max=500"}.Null(),
		"creatorId":       query.StringID().Req(),
		"adminId":         query.StringID().Req(),
		"reviewDeadline":  query.Constraint{Kind: query.KindTime}.Req(),
		"chatId":          query.BigInteger().Req(),
		"categoryId":      query.BigInteger().Req(),
	},
}

const (
	EventFieldID              query.Field = "id"
	EventFieldName            query.Field = "name"
	EventFieldStartTime       query.Field = "startTime"
	EventFieldMaxParticipants query.Field = "maxParticipants"
	EventFieldCurParticipants query.Field = "curParticipants"
	EventFieldLat             query.Field = "lat"
	EventFieldLong            query.Field = "long"
	EventFieldAddress         query.Field = "address"
	EventFieldCreatorID       query.Field = "creatorId"
	EventFieldAdminID         query.Field = "adminId"
	EventFieldReviewDeadline  query.Field = "reviewDeadline"
	EventFieldChatID          query.Field = "chatId"
	EventFieldCategoryID      query.Field = "categoryId"
	EventFieldCreatedAt       query.Field = "createdAt"
	EventFieldUpdatedAt       query.Field = "updatedAt"
)

var EventMapping = query.SingleEntity(EventEntity,
	EventFieldID, EventFieldName, EventFieldStartTime, EventFieldMaxParticipants,
	EventFieldCurParticipants, EventFieldLat, EventFieldLong, EventFieldAddress,
	EventFieldCreatorID, EventFieldAdminID, EventFieldReviewDeadline, EventFieldChatID,
	EventFieldCategoryID, EventFieldCreatedAt, EventFieldUpdatedAt,
)

var EventFilterFields = []query.Field{
	EventFieldID, EventFieldCategoryID, EventFieldMaxParticipants, EventFieldCurParticipants,
	EventFieldLat, EventFieldLong, EventFieldCreatorID, EventFieldAdminID, EventFieldChatID,
}

var EventSortFields = []query.Field{
	EventFieldID, EventFieldCategoryID, EventFieldCreatorID, EventFieldAdminID,
	EventFieldLat, EventFieldLong, EventFieldStartTime, EventFieldCreatedAt, EventFieldUpdatedAt,
}

// EventPublicFields is what unprivileged callers see.
var EventPublicFields = []string{
	"id", "name", "description", "startTime", "duration", "maxParticipants",
	"curParticipants", "lat", "long", "address", "creatorId", "adminId",
	"chatId", "categoryId", "participants", "distance", "createdAt", "updatedAt",
}

// EventPrivilegedPatchFields may only be changed by admins and moderators.
var EventPrivilegedPatchFields = []string{"adminId", "curParticipants"}

func (e *Event) Location() geo.Point { return geo.Point{Lat: e.Lat, Long: e.Long} }

// Apply copies validated, coerced values onto e. Unknown keys are ignored;
// nil clears the nullable attributes.
func (e *Event) Apply(v map[string]any) {
	for k, val := range v {
		switch k {
		case "name":
			e.Name = val.(string)
		case "description":
			e.Description = optString(val)
		case "startTime":
			e.StartTime = val.(time.Time)
		case "duration":
			e.Duration = optInt(val)
		case "maxParticipants":
			e.MaxParticipants = int(val.(int64))
		case "curParticipants":
			e.CurParticipants = int(val.(int64))
		case "lat":
			e.Lat = val.(float64)
		case "long":
			e.Long = val.(float64)
		case "address":
			e.Address = optString(val)
		case "creatorId":
			e.CreatorID = val.(string)
		case "adminId":
			e.AdminID = val.(string)
		case "reviewDeadline":
			e.ReviewDeadline = val.(time.Time)
		case "chatId":
			e.ChatID = val.(int64)
		case "categoryId":
			e.CategoryID = val.(int64)
		}
	}
}

func (e *Event) Record() shaping.Record {
	r := shaping.Record{
		"id":              e.ID,
		"name":            e.Name,
		"description":     e.Description,
		"startTime":       e.StartTime,
		"duration":        e.Duration,
		"maxParticipants": e.MaxParticipants,
		"curParticipants": e.CurParticipants,
		"lat":             e.Lat,
		"long":            e.Long,
		"address":         e.Address,
		"creatorId":       e.CreatorID,
		"adminId":         e.AdminID,
		"reviewDeadline":  e.ReviewDeadline,
		"chatId":          e.ChatID,
		"categoryId":      e.CategoryID,
		"createdAt":       e.CreatedAt,
		"updatedAt":       e.UpdatedAt,
	}
	if e.Participants != nil {
		r["participants"] = e.Participants
	}
	return r
}

func optString(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

func optInt(v any) *int {
	if v == nil {
		return nil
	}
	d := int(v.(int64))
	return &d
}
