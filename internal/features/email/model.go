package email

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmailStatus string

const (
	EmailQueued EmailStatus = "queued"
	EmailSent   EmailStatus = "sent"
	EmailFailed EmailStatus = "failed"
)

// Email is the persisted record of one outbound message
type Email struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID     primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	From         string             `bson:"from" json:"from"`
	To           []string           `bson:"to" json:"to"`
	Subject      string             `bson:"subject" json:"subject"`
	HtmlBody     string             `bson:"html_body" json:"html_body"`
	Status       EmailStatus        `bson:"status" json:"status"`
	ErrorMessage string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	SentAt       *time.Time         `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
