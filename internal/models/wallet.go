package models

import "github.com/shopspring/decimal"

// Wallet holds a user's mobile-money-backed balance. One wallet per
// user. The balance is never negative and always equals the sum of
// credit entries minus debit entries in the wallet's history.
type Wallet struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Balance  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"balance"`
	Currency string          `gorm:"not null;default:'XAF'" json:"currency"`
	IsActive bool            `gorm:"default:true" json:"is_active"`
}

// EntryType is the direction of a wallet entry.
type EntryType string

const (
	EntryTypeCredit EntryType = "credit"
	EntryTypeDebit  EntryType = "debit"
)

// WalletEntry is one append-only credit or debit against a wallet.
// BalanceAfter records the running balance after applying this entry;
// consistency checks replay the history against it.
type WalletEntry struct {
	Base
	WalletID     string          `gorm:"type:uuid;not null;index" json:"wallet_id"`
	Type         EntryType       `gorm:"not null" json:"type"`
	Amount       decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"balance_after"`
	PaymentID    *string         `gorm:"type:uuid;index" json:"payment_id,omitempty"`
	Description  string          `json:"description"`
}
