package models

import (
	"time"

	"github.com/shopspring/decimal"

	"tirelire/internal/recurrence"
)

// TransactionType is the direction of a monetary movement.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction is one income or expense entry in the ledger. It is owned
// by exactly one user or, when GroupID is set, recorded against a group
// by one of its members. Amount is always positive; the sign comes from
// the type.
type Transaction struct {
	SoftDeleteBase
	UserID     string  `gorm:"type:uuid;not null;index:idx_tx_user_date" json:"user_id"`
	GroupID    *string `gorm:"type:uuid;index" json:"group_id,omitempty"`
	CategoryID *string `gorm:"type:uuid;index" json:"category_id,omitempty"`

	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Currency    string          `gorm:"not null;default:'XAF'" json:"currency"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index:idx_tx_user_date" json:"date"`

	// Recurrence
	IsRecurring    bool             `gorm:"default:false" json:"is_recurring"`
	RecurrenceRule *recurrence.Rule `gorm:"serializer:json" json:"recurrence_rule,omitempty"`
	// Set on transactions materialized from a recurring source; the
	// (source, date) pair is unique so re-materialization is idempotent.
	RecurringSourceID *string `gorm:"type:uuid;uniqueIndex:idx_tx_occurrence" json:"recurring_source_id,omitempty"`
	OccurrenceDate    *time.Time `gorm:"uniqueIndex:idx_tx_occurrence" json:"occurrence_date,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}

// SignedAmount returns the amount negated for expenses.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsPersonal reports whether the transaction belongs to a user rather
// than a group.
func (t *Transaction) IsPersonal() bool {
	return t.GroupID == nil
}
