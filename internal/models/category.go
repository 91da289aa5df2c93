package models

import "github.com/shopspring/decimal"

// CategoryType restricts which transaction kinds a category accepts.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeBoth    CategoryType = "both"
)

// Category classifies transactions. System categories (UserID nil) are
// shared read-only templates; user categories are private to their owner.
type Category struct {
	Base
	UserID      *string      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name        string       `gorm:"not null" json:"name"`
	Type        CategoryType `gorm:"not null;default:'expense'" json:"type"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
	IsSystem    bool         `gorm:"default:false;index" json:"is_system"`

	// Monthly budget; nil means no budget tracking for this category.
	Budget *decimal.Decimal `gorm:"type:numeric(15,2)" json:"budget,omitempty"`
	// Percent of budget spent at which an alert fires.
	BudgetAlertThreshold int `gorm:"default:80" json:"budget_alert_threshold"`
}

// Accepts reports whether the category can classify the given
// transaction type.
func (c *Category) Accepts(t TransactionType) bool {
	switch c.Type {
	case CategoryTypeBoth:
		return true
	case CategoryTypeIncome:
		return t == TransactionTypeIncome
	case CategoryTypeExpense:
		return t == TransactionTypeExpense
	}
	return false
}

// HasBudget reports whether budget tracking is enabled.
func (c *Category) HasBudget() bool {
	return c.Budget != nil && c.Budget.IsPositive()
}
