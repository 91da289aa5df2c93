package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseSplit is one member's owed share of a group expense. The sum of
// all splits for a transaction always equals the transaction's amount;
// this is enforced when splits are created.
type ExpenseSplit struct {
	Base
	TransactionID string          `gorm:"type:uuid;not null;uniqueIndex:idx_split_per_user" json:"transaction_id"`
	UserID        string          `gorm:"type:uuid;not null;uniqueIndex:idx_split_per_user" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	IsPaid        bool            `gorm:"default:false;index" json:"is_paid"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`

	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
