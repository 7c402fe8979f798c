// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// PlatformSetting is a flat key/value row. Values are stored as strings and
// parsed by the settings service with typed accessors and defaults.
type PlatformSetting struct {
	BaseModel
	Key         string     `json:"key" gorm:"uniqueIndex;size:100;not null"`
	Value       string     `json:"value" gorm:"type:text;not null"`
	Description string     `json:"description" gorm:"type:text"`
	UpdatedBy   *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

type AuditLog struct {
	BaseModel
	ActionType string     `json:"action_type" gorm:"size:100;not null;index"`
	EntityType string     `json:"entity_type" gorm:"size:50;not null;index"`
	EntityID   *uuid.UUID `json:"entity_id" gorm:"type:uuid;index"`
	UserID     *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	AdminID    *uuid.UUID `json:"admin_id" gorm:"type:uuid;index"`
	OldValue   JSONB      `json:"old_value" gorm:"type:jsonb"`
	NewValue   JSONB      `json:"new_value" gorm:"type:jsonb"`
	Reason     string     `json:"reason,omitempty" gorm:"type:text"`
	Metadata   JSONB      `json:"metadata" gorm:"type:jsonb"`
	IPAddress  string     `json:"ip_address" gorm:"size:45"`
	UserAgent  string     `json:"user_agent" gorm:"type:text"`
}

// Notification is the outbox row written by business transactions. A
// background dispatcher delivers pending rows; delivery failures never
// propagate into the operation that enqueued them.
type Notification struct {
	BaseModel
	UserID    *uuid.UUID         `json:"user_id" gorm:"type:uuid;index"`
	Type      string             `json:"type" gorm:"size:50;not null;index"`
	Recipient string             `json:"recipient" gorm:"size:255;not null"`
	Subject   string             `json:"subject" gorm:"size:255;not null"`
	Body      string             `json:"body" gorm:"type:text;not null"`
	Status    NotificationStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Attempts  int                `json:"attempts" gorm:"default:0"`
	LastError string             `json:"last_error,omitempty" gorm:"type:text"`
	SentAt    *time.Time         `json:"sent_at"`
}

type KYCSubmission struct {
	BaseModel
	UserID       uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	DocumentType string     `json:"document_type" gorm:"size:50;not null"`
	DocumentURL  string     `json:"document_url" gorm:"size:512;not null"`
	Status       KYCStatus  `json:"status" gorm:"type:varchar(20);default:'submitted';index"`
	ReviewedBy   *uuid.UUID `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	Notes        string     `json:"notes,omitempty" gorm:"type:text"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
