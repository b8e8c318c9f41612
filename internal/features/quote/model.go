package quote

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
	QuoteStatusPaid     QuoteStatus = "paid"
)

// QuoteItem is one line of a quote
type QuoteItem struct {
	Description string  `json:"description" bson:"description"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	UnitPrice   float64 `json:"unit_price" bson:"unit_price"`
}

// Quote represents a priced offer sent to a lead or client
type Quote struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`

	Title  string      `json:"title" bson:"title"`
	Items  []QuoteItem `json:"items,omitempty" bson:"items,omitempty"`
	Amount float64     `json:"amount" bson:"amount"`
	Status QuoteStatus `json:"status" bson:"status"`

	LeadID   *primitive.ObjectID `json:"lead_id,omitempty" bson:"lead_id,omitempty"`
	ClientID *primitive.ObjectID `json:"client_id,omitempty" bson:"client_id,omitempty"`

	SentAt     *time.Time `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty" bson:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (q *Quote) EventPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"title":  q.Title,
		"amount": q.Amount,
		"status": string(q.Status),
	}
	if q.LeadID != nil {
		payload["lead_id"] = q.LeadID.Hex()
	}
	if q.ClientID != nil {
		payload["client_id"] = q.ClientID.Hex()
	}
	return payload
}
