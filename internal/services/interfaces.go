package services

import (
	"time"

	"github.com/shopspring/decimal"

	"tirelire/internal/models"
	"tirelire/internal/pagination"
	"tirelire/internal/recurrence"
)

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Type       *models.TransactionType
	CategoryID *string
	GroupID    *string
	FromDate   *time.Time
	ToDate     *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	// Case-insensitive substring match on the description.
	Search string
	// "date" (default) or "amount".
	OrderBy   string
	Ascending bool
}

// TransactionPatch holds the mutable fields of a transaction; nil fields
// are left unchanged.
type TransactionPatch struct {
	CategoryID  *string
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
}

// TransactionServicer is the contract for the transaction ledger.
type TransactionServicer interface {
	Record(userID string, groupID, categoryID *string, txType models.TransactionType, amount decimal.Decimal, currency, description string, date time.Time, rule *recurrence.Rule) (*models.Transaction, error)
	Amend(userID, transactionID string, patch TransactionPatch) (*models.Transaction, error)
	SoftDelete(userID, transactionID string) error
	GetByID(userID, transactionID string) (*models.Transaction, error)
	// GetIncludingDeleted retrieves a transaction even after soft
	// deletion, for operator recovery.
	GetIncludingDeleted(userID, transactionID string) (*models.Transaction, error)
	List(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	// MaterializeDue creates concrete occurrences for every recurring
	// transaction due at or before now. Idempotent per (source, date).
	MaterializeDue(now time.Time) (int, error)
}

// CategoryPatch holds the mutable fields of a category.
type CategoryPatch struct {
	Name                 *string
	Description          *string
	Icon                 *string
	Color                *string
	Budget               *decimal.Decimal
	ClearBudget          bool
	BudgetAlertThreshold *int
}

// CategoryServicer is the contract for category management.
type CategoryServicer interface {
	Create(userID, name, description, icon, color string, categoryType models.CategoryType, budget *decimal.Decimal, alertThreshold int) (*models.Category, error)
	GetByID(userID, categoryID string) (*models.Category, error)
	ListForUser(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	Update(userID, categoryID string, patch CategoryPatch) (*models.Category, error)
	Delete(userID, categoryID string) error
	// SeedSystemCategories creates the shared default categories if
	// missing and returns how many were created.
	SeedSystemCategories() (int, error)
}

// BudgetStatus is the derived spending position of one budgeted category
// for a calendar month. Budget is nil when the category has no budget,
// in which case the alert fields carry no meaning.
type BudgetStatus struct {
	CategoryID     string           `json:"category_id"`
	CategoryName   string           `json:"category_name"`
	Budget         *decimal.Decimal `json:"budget"`
	Spent          decimal.Decimal  `json:"spent"`
	Remaining      decimal.Decimal  `json:"remaining"`
	Percentage     decimal.Decimal  `json:"percentage"`
	IsOverBudget   bool             `json:"is_over_budget"`
	IsAlert        bool             `json:"is_alert"`
	AlertThreshold int              `json:"alert_threshold"`
}

// BudgetAlerts partitions budgeted categories by alert state, each slice
// sorted by descending percentage.
type BudgetAlerts struct {
	OverBudget []BudgetStatus `json:"over_budget"`
	Alert      []BudgetStatus `json:"alert"`
	Healthy    []BudgetStatus `json:"healthy"`
}

// BudgetServicer is the contract for per-category budget tracking.
type BudgetServicer interface {
	Status(userID, categoryID string, year int, month time.Month) (*BudgetStatus, error)
	Overview(userID string, year int, month time.Month) ([]BudgetStatus, error)
	Alerts(userID string, year int, month time.Month) (*BudgetAlerts, error)
}

// GroupBalance is the read projection of a group's ledger position.
type GroupBalance struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// GroupServicer is the contract for group and membership management.
type GroupServicer interface {
	CreateGroup(ownerID, name, description, currency string) (*models.Group, error)
	GetGroupByID(userID, groupID string) (*models.Group, error)
	InviteMember(inviterID, groupID, userID string) (*models.GroupMember, error)
	AcceptInvitation(userID, groupID string) (*models.GroupMember, error)
	LeaveGroup(userID, groupID string) error
	// ActiveMembers returns active memberships in join order; equal
	// splits rely on this ordering being stable.
	ActiveMembers(groupID string) ([]models.GroupMember, error)
	IsActiveMember(groupID, userID string) (bool, error)
	Balance(userID, groupID string) (*GroupBalance, error)
}

// SplitMode selects how a group expense is divided.
type SplitMode string

const (
	SplitModeEqual  SplitMode = "equal"
	SplitModeCustom SplitMode = "custom"
)

// SplitShare is one member's requested share in a custom split.
type SplitShare struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// SplitServicer is the contract for dividing group expenses.
type SplitServicer interface {
	// Split divides a group expense among members. Re-splitting
	// replaces prior splits atomically.
	Split(userID, transactionID string, mode SplitMode, shares []SplitShare) ([]models.ExpenseSplit, error)
	Splits(userID, transactionID string) ([]models.ExpenseSplit, error)
	// MarkPaid is idempotent; a second call leaves paid_at unchanged.
	MarkPaid(userID, splitID string) (*models.ExpenseSplit, error)
}

// WalletServicer is the contract for the wallet ledger.
type WalletServicer interface {
	GetOrCreateWallet(userID string) (*models.Wallet, error)
	AddPaymentMethod(userID, providerName, phoneNumber, accountName string) (*models.UserPaymentMethod, error)
	Deposit(userID, paymentMethodID string, amount decimal.Decimal) (*models.Payment, error)
	Withdraw(userID, paymentMethodID string, amount decimal.Decimal) (*models.Payment, error)
	Transfer(fromUserID, toUserID string, amount decimal.Decimal) (*models.Payment, *models.Payment, error)
	// HandleGatewayResult finalizes a pending payment from the external
	// gateway callback. Unknown or already-final references are no-ops.
	HandleGatewayResult(reference string, success bool, providerTransactionID string) (*models.Payment, error)
	Entries(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.WalletEntry], error)
	GetPaymentByReference(reference string) (*models.Payment, error)
}

// CategoryBreakdown is one category's share of a period's income or
// expense total.
type CategoryBreakdown struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Icon         string          `json:"icon"`
	Color        string          `json:"color"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// Dashboard is the aggregate view of a user's personal finances,
// recomputed on every call.
type Dashboard struct {
	TotalBalance       decimal.Decimal      `json:"total_balance"`
	TotalIncome        decimal.Decimal      `json:"total_income"`
	TotalExpense       decimal.Decimal      `json:"total_expense"`
	MonthlyIncome      decimal.Decimal      `json:"monthly_income"`
	MonthlyExpense     decimal.Decimal      `json:"monthly_expense"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
	ExpenseByCategory  []CategoryBreakdown  `json:"expense_by_category"`
	IncomeByCategory   []CategoryBreakdown  `json:"income_by_category"`
	BudgetAlerts       []BudgetStatus       `json:"budget_alerts"`
}

// MonthSummary is one calendar month's totals.
type MonthSummary struct {
	Year             int             `json:"year"`
	Month            time.Month      `json:"month"`
	Income           decimal.Decimal `json:"income"`
	Expense          decimal.Decimal `json:"expense"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transaction_count"`
}

// ChartPeriod selects the bucketing of a chart series.
type ChartPeriod string

const (
	ChartPeriodMonthly ChartPeriod = "monthly"
	ChartPeriodWeekly  ChartPeriod = "weekly"
)

// ChartSeries carries aligned labels and income/expense arrays for
// trailing periods, zero-filled where no transactions exist.
type ChartSeries struct {
	Labels  []string          `json:"labels"`
	Income  []decimal.Decimal `json:"income"`
	Expense []decimal.Decimal `json:"expense"`
}

// ReportServicer is the read-only composition layer over the ledger.
type ReportServicer interface {
	Dashboard(userID string) (*Dashboard, error)
	MonthlySummary(userID string, months int) ([]MonthSummary, error)
	ChartSeries(userID string, period ChartPeriod, count int) (*ChartSeries, error)
}

// ReminderServicer is the contract for reminders.
type ReminderServicer interface {
	Create(userID string, groupID *string, title, description string, reminderType models.ReminderType, reminderDate time.Time, amount *decimal.Decimal, rule *recurrence.Rule) (*models.Reminder, error)
	GetByID(userID, reminderID string) (*models.Reminder, error)
	List(userID string, includeCompleted bool, page pagination.PageRequest) (*pagination.PageResponse[models.Reminder], error)
	Upcoming(userID string, days int) ([]models.Reminder, error)
	Overdue(userID string) ([]models.Reminder, error)
	// Complete marks the reminder done and, for recurring reminders,
	// returns the spawned next occurrence.
	Complete(userID, reminderID string) (*models.Reminder, *models.Reminder, error)
	PendingNotifications(now time.Time, leadTime time.Duration) ([]models.Reminder, error)
	MarkNotified(reminderID string, at time.Time) error
}
