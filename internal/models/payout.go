// internal/models/payout.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type PayoutRequest struct {
	BaseModel
	UserID         uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	Amount         float64      `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status         PayoutStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentMethod  string       `json:"payment_method" gorm:"size:50"`
	PaymentDetails JSONB        `json:"payment_details" gorm:"type:jsonb"`
	ProcessedBy    *uuid.UUID   `json:"processed_by" gorm:"type:uuid"`
	ProcessedAt    *time.Time   `json:"processed_at"`
	RejectReason   string       `json:"reject_reason,omitempty" gorm:"type:text"`

	// Relationships
	User      User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Processor *User `json:"processor,omitempty" gorm:"foreignKey:ProcessedBy"`
}

// AutoGenerated reports whether the request was created by the auto-payout
// batch rather than by the affiliate.
func (p *PayoutRequest) AutoGenerated() bool {
	if p.PaymentDetails == nil {
		return false
	}
	v, ok := p.PaymentDetails["auto_generated"].(bool)
	return ok && v
}
