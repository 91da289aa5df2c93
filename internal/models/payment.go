package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentProvider is a mobile-money operator the wallet can move money
// through. Fees and amount limits are provider-specific.
type PaymentProvider struct {
	Base
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	DisplayName string `gorm:"not null" json:"display_name"`
	IsActive    bool   `gorm:"default:false" json:"is_active"`

	FeePercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"fee_percentage"`
	FeeFixed      decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"fee_fixed"`
	MinAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:100" json:"min_amount"`
	MaxAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:1000000" json:"max_amount"`
}

// UserPaymentMethod is a phone number a user registered with a provider.
type UserPaymentMethod struct {
	Base
	UserID      string `gorm:"type:uuid;not null;uniqueIndex:idx_method_per_phone" json:"user_id"`
	ProviderID  string `gorm:"type:uuid;not null;uniqueIndex:idx_method_per_phone" json:"provider_id"`
	PhoneNumber string `gorm:"not null;uniqueIndex:idx_method_per_phone" json:"phone_number"`
	AccountName string `json:"account_name"`
	IsDefault   bool   `gorm:"default:false" json:"is_default"`
	IsVerified  bool   `gorm:"default:false" json:"is_verified"`

	Provider *PaymentProvider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

// PaymentType is the kind of wallet operation a payment settles.
type PaymentType string

const (
	PaymentTypeDeposit  PaymentType = "deposit"
	PaymentTypeWithdraw PaymentType = "withdraw"
	PaymentTypeTransfer PaymentType = "transfer"
)

// PaymentStatus tracks a payment through the gateway lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment records one wallet operation against a provider. The reference
// is generated once at creation and never changes; the external gateway
// finalizes pending payments through it.
type Payment struct {
	Base
	Reference string `gorm:"uniqueIndex;not null" json:"reference"`
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`

	ProviderID      string  `gorm:"type:uuid;not null" json:"provider_id"`
	PaymentMethodID *string `gorm:"type:uuid" json:"payment_method_id,omitempty"`
	// Destination wallet for transfers.
	CounterpartyWalletID *string `gorm:"type:uuid" json:"counterparty_wallet_id,omitempty"`

	Type   PaymentType   `gorm:"not null" json:"type"`
	Status PaymentStatus `gorm:"not null;default:'pending';index" json:"status"`

	Amount   decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Fee      decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"fee"`
	// amount + fee for deposits (charged to the payer), amount - fee
	// for withdrawals (net paid out).
	TotalAmount decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_amount"`
	Currency    string          `gorm:"not null;default:'XAF'" json:"currency"`
	Description string          `json:"description"`

	ProviderReference string     `json:"provider_reference,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	InitiatedAt       time.Time  `gorm:"not null" json:"initiated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`

	Provider *PaymentProvider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

// IsFinal reports whether the payment has left the pending state.
func (p *Payment) IsFinal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}
