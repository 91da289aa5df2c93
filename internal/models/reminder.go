package models

import (
	"time"

	"github.com/shopspring/decimal"

	"tirelire/internal/recurrence"
)

// ReminderType categorizes what a reminder is about.
type ReminderType string

const (
	ReminderTypePayment ReminderType = "payment"
	ReminderTypeBill    ReminderType = "bill"
	ReminderTypeGeneral ReminderType = "general"
)

// Reminder is a dated note, optionally recurring, that becomes due for
// notification at its date. Completing a recurring reminder spawns the
// next occurrence; a reminder never materializes a transaction.
type Reminder struct {
	Base
	UserID  string  `gorm:"type:uuid;not null;index:idx_reminder_user_date" json:"user_id"`
	GroupID *string `gorm:"type:uuid;index" json:"group_id,omitempty"`

	Title        string           `gorm:"not null" json:"title"`
	Description  string           `json:"description"`
	ReminderType ReminderType     `gorm:"not null;default:'general'" json:"reminder_type"`
	ReminderDate time.Time        `gorm:"not null;index:idx_reminder_user_date" json:"reminder_date"`
	Amount       *decimal.Decimal `gorm:"type:numeric(15,2)" json:"amount,omitempty"`

	IsRecurring    bool             `gorm:"default:false" json:"is_recurring"`
	RecurrenceRule *recurrence.Rule `gorm:"serializer:json" json:"recurrence_rule,omitempty"`

	IsCompleted        bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	NotificationSent   bool       `gorm:"default:false" json:"notification_sent"`
	NotificationSentAt *time.Time `json:"notification_sent_at,omitempty"`
}

// IsOverdue reports whether the reminder date has passed without
// completion.
func (r *Reminder) IsOverdue(now time.Time) bool {
	return !r.IsCompleted && r.ReminderDate.Before(now)
}
