package lead

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeadStatus represents where a lead sits in the pipeline
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// Lead represents a sales lead
type Lead struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`

	Name    string `json:"name" bson:"name"`
	Email   string `json:"email,omitempty" bson:"email,omitempty"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Company string `json:"company,omitempty" bson:"company,omitempty"`
	Source  string `json:"source,omitempty" bson:"source,omitempty"`
	Notes   string `json:"notes,omitempty" bson:"notes,omitempty"`

	Status LeadStatus `json:"status" bson:"status"`
	Value  float64    `json:"value,omitempty" bson:"value,omitempty"`

	AssignedTo *primitive.ObjectID `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`

	// ClientID links the client created when this lead was converted.
	// Set at most once.
	ClientID *primitive.ObjectID `json:"client_id,omitempty" bson:"client_id,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// EventPayload is the flat view of the lead handed to automation rules.
func (l *Lead) EventPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"name":    l.Name,
		"email":   l.Email,
		"phone":   l.Phone,
		"company": l.Company,
		"source":  l.Source,
		"status":  string(l.Status),
		"value":   l.Value,
	}
	if l.AssignedTo != nil {
		payload["assigned_to"] = l.AssignedTo.Hex()
	}
	return payload
}
