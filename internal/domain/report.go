package domain

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

// EventDistance is one row of the distance report.
type EventDistance struct {
	EventID           int64     `json:"eventId"`
	CategoryID        int64     `json:"categoryId"`
	Lat               float64   `json:"lat"`
	Long              float64   `json:"long"`
	CreatorID         string    `json:"creatorId"`
	AdminID           string    `json:"adminId"`
	DescriptionLength *int      `json:"descriptionLength"`
	CapacityLeft      *int      `json:"capacityLeft"`
	StartTime         time.Time `json:"startTime"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	Distance          int       `json:"distance"`
}

const (
	ReportFieldEventID           query.Field = "eventId"
	ReportFieldCategoryID        query.Field = "categoryId"
	ReportFieldLat               query.Field = "lat"
	ReportFieldLong              query.Field = "long"
	ReportFieldCreatorID         query.Field = "creatorId"
	ReportFieldAdminID           query.Field = "adminId"
	ReportFieldDescriptionLength query.Field = "descriptionLength"
	ReportFieldCapacityLeft      query.Field = "capacityLeft"
	ReportFieldDistance          query.Field = "distance"
	ReportFieldStartTime         query.Field = "startTime"
	ReportFieldCreatedAt         query.Field = "createdAt"
	ReportFieldUpdatedAt         query.Field = "updatedAt"
)

// ReportMapping covers the columns the store can filter on; derived columns
// (distance, descriptionLength, capacityLeft) only exist in memory.
var ReportMapping = query.NewMapping(map[query.Field]query.Column{
	ReportFieldEventID:    {Entity: EventEntity, Attribute: "id"},
	ReportFieldCategoryID: {Entity: EventEntity, Attribute: "categoryId"},
	ReportFieldCreatorID:  {Entity: EventEntity, Attribute: "creatorId"},
	ReportFieldAdminID:    {Entity: EventEntity, Attribute: "adminId"},
	ReportFieldLat:        {Entity: EventEntity, Attribute: "lat"},
	ReportFieldLong:       {Entity: EventEntity, Attribute: "long"},
	ReportFieldStartTime:  {Entity: EventEntity, Attribute: "startTime"},
	ReportFieldCreatedAt:  {Entity: EventEntity, Attribute: "createdAt"},
	ReportFieldUpdatedAt:  {Entity: EventEntity, Attribute: "updatedAt"},
})

var (
	ReportFilterFields = []query.Field{
		ReportFieldEventID, ReportFieldCategoryID, ReportFieldCreatorID, ReportFieldAdminID,
	}
	ReportSortFields = []query.Field{
		ReportFieldEventID, ReportFieldCategoryID, ReportFieldCreatorID, ReportFieldAdminID,
		ReportFieldLat, ReportFieldLong, ReportFieldDistance, ReportFieldDescriptionLength,
		ReportFieldCapacityLeft, ReportFieldStartTime, ReportFieldCreatedAt, ReportFieldUpdatedAt,
	}
	// ReportServiceFields is what service accounts see; moderators get every column.
	ReportServiceFields = []string{
		"eventId", "categoryId", "creatorId", "adminId", "descriptionLength",
		"capacityLeft", "distance", "startTime", "createdAt", "updatedAt",
	}
)

func (d *EventDistance) Location() geo.Point { return geo.Point{Lat: d.Lat, Long: d.Long} }

// Value reads a sortable column by public name.
func (d *EventDistance) Value(f query.Field) any {
	switch f {
	case ReportFieldEventID:
		return d.EventID
	case ReportFieldCategoryID:
		return d.CategoryID
	case ReportFieldLat:
		return d.Lat
	case ReportFieldLong:
		return d.Long
	case ReportFieldCreatorID:
		return d.CreatorID
	case ReportFieldAdminID:
		return d.AdminID
	case ReportFieldDescriptionLength:
		return d.DescriptionLength
	case ReportFieldCapacityLeft:
		return d.CapacityLeft
	case ReportFieldDistance:
		return d.Distance
	case ReportFieldStartTime:
		return d.StartTime
	case ReportFieldCreatedAt:
		return d.CreatedAt
	case ReportFieldUpdatedAt:
		return d.UpdatedAt
	}
	return nil
}

func (d *EventDistance) Record() shaping.Record {
	return shaping.Record{
		"eventId":           d.EventID,
		"categoryId":        d.CategoryID,
		"lat":               d.Lat,
		"long":              d.Long,
		"creatorId":         d.CreatorID,
		"adminId":           d.AdminID,
		"descriptionLength": d.DescriptionLength,
		"capacityLeft":      d.CapacityLeft,
		"distance":          d.Distance,
		"startTime":         d.StartTime,
		"createdAt":         d.CreatedAt,
		"updatedAt":         d.UpdatedAt,
	}
}
