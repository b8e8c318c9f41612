package project

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project represents client work tracked in the CRM
type Project struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`

	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`

	Status ProjectStatus `json:"status" bson:"status"`
	Budget float64       `json:"budget,omitempty" bson:"budget,omitempty"`

	ClientID *primitive.ObjectID `json:"client_id,omitempty" bson:"client_id,omitempty"`
	Manager  *primitive.ObjectID `json:"manager,omitempty" bson:"manager,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *Project) EventPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"name":   p.Name,
		"status": string(p.Status),
		"budget": p.Budget,
	}
	if p.ClientID != nil {
		payload["client_id"] = p.ClientID.Hex()
	}
	return payload
}
