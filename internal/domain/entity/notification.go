package entity

import (
	"encoding/json"
	"time"
)

// Severity nivel de una notificación.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification mensaje dirigido a un usuario. Read es el único campo mutable y se gestiona fuera del motor.
type Notification struct {
	ID        string
	UserID    string
	CompanyID string
	StoreID   string
	Title     string
	Message   string
	Severity  Severity
	Read      bool
	Metadata  json.RawMessage
	CreatedAt time.Time
}
