package client

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientStatus represents the standing of a client account
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusChurned  ClientStatus = "churned"
)

// Client represents a converted customer account
type Client struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`

	Name    string `json:"name" bson:"name"`
	Email   string `json:"email,omitempty" bson:"email,omitempty"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Company string `json:"company,omitempty" bson:"company,omitempty"`

	Status ClientStatus `json:"status" bson:"status"`

	// LeadID points back to the originating lead for converted clients.
	LeadID *primitive.ObjectID `json:"lead_id,omitempty" bson:"lead_id,omitempty"`

	AccountManager *primitive.ObjectID `json:"account_manager,omitempty" bson:"account_manager,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (c *Client) EventPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"name":    c.Name,
		"email":   c.Email,
		"phone":   c.Phone,
		"company": c.Company,
		"status":  string(c.Status),
	}
	if c.LeadID != nil {
		payload["lead_id"] = c.LeadID.Hex()
	}
	return payload
}
