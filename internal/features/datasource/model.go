package datasource

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DataSource describes an external Postgres database that leads can be
// imported from. Mapping translates source columns to lead fields.
type DataSource struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`

	Name     string `json:"name" bson:"name"`
	Host     string `json:"host" bson:"host"`
	Port     int    `json:"port" bson:"port"`
	User     string `json:"user" bson:"user"`
	Password string `json:"password,omitempty" bson:"password,omitempty"`
	Database string `json:"database" bson:"database"`
	SSLMode  string `json:"ssl_mode,omitempty" bson:"ssl_mode,omitempty"`

	Table   string            `json:"table" bson:"table"`
	Mapping map[string]string `json:"mapping" bson:"mapping"` // source column -> lead field

	LastImportAt *time.Time `json:"last_import_at,omitempty" bson:"last_import_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

func (d *DataSource) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, sslMode)
}
