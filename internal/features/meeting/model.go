package meeting

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// Meeting represents a scheduled appointment with a lead or client
type Meeting struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`

	Title    string        `json:"title" bson:"title"`
	Location string        `json:"location,omitempty" bson:"location,omitempty"`
	Notes    string        `json:"notes,omitempty" bson:"notes,omitempty"`
	Status   MeetingStatus `json:"status" bson:"status"`

	StartsAt time.Time `json:"starts_at" bson:"starts_at"`
	EndsAt   time.Time `json:"ends_at,omitempty" bson:"ends_at,omitempty"`

	Organizer *primitive.ObjectID  `json:"organizer,omitempty" bson:"organizer,omitempty"`
	Attendees []primitive.ObjectID `json:"attendees,omitempty" bson:"attendees,omitempty"`

	RelatedType string `json:"related_type,omitempty" bson:"related_type,omitempty"`
	RelatedID   string `json:"related_id,omitempty" bson:"related_id,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (m *Meeting) EventPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"title":     m.Title,
		"status":    string(m.Status),
		"starts_at": m.StartsAt.Format(time.RFC3339),
	}
	if m.RelatedType != "" {
		payload["related_type"] = m.RelatedType
		payload["related_id"] = m.RelatedID
	}
	return payload
}
