package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tirelire/internal/errors"
	"tirelire/internal/models"
	"tirelire/internal/money"
)

// budgetService derives budget positions from the transaction ledger.
// Nothing here is stored; every status is recomputed from rows.
type budgetService struct {
	db         *gorm.DB
	categories CategoryServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, categories CategoryServicer) BudgetServicer {
	return &budgetService{db: db, categories: categories}
}

// monthBounds returns the half-open [start, end) interval of a calendar
// month in UTC.
func monthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// spentInMonth sums the user's expense transactions for one category
// over a calendar month. Summation happens in Go so amounts keep exact
// decimal semantics regardless of the database's numeric affinity.
func (s *budgetService) spentInMonth(userID, categoryID string, year int, month time.Month) (decimal.Decimal, error) {
	start, end := monthBounds(year, month)

	var transactions []models.Transaction
	err := s.db.Select("amount").
		Where("user_id = ? AND category_id = ? AND type = ? AND date >= ? AND date < ?",
			userID, categoryID, models.TransactionTypeExpense, start, end).
		Find(&transactions).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent := decimal.Zero
	for i := range transactions {
		spent = spent.Add(transactions[i].Amount)
	}
	return spent, nil
}

func (s *budgetService) status(userID string, category *models.Category, year int, month time.Month) (*BudgetStatus, error) {
	spent, err := s.spentInMonth(userID, category.ID, year, month)
	if err != nil {
		return nil, err
	}

	status := &BudgetStatus{
		CategoryID:     category.ID,
		CategoryName:   category.Name,
		Budget:         category.Budget,
		Spent:          spent,
		Remaining:      decimal.Zero,
		Percentage:     decimal.Zero,
		AlertThreshold: category.BudgetAlertThreshold,
	}
	if !category.HasBudget() {
		return status, nil
	}

	budget := *category.Budget
	status.Remaining = budget.Sub(spent)
	status.Percentage = money.Percentage(spent, budget)
	status.IsOverBudget = spent.GreaterThan(budget)
	threshold := decimal.NewFromInt(int64(category.BudgetAlertThreshold))
	status.IsAlert = status.Percentage.GreaterThanOrEqual(threshold)
	return status, nil
}

// Status returns the budget position of one category for a month.
func (s *budgetService) Status(userID, categoryID string, year int, month time.Month) (*BudgetStatus, error) {
	category, err := s.categories.GetByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	return s.status(userID, category, year, month)
}

// budgetedCategories returns the user's own categories that carry a
// budget. System categories never carry budgets.
func (s *budgetService) budgetedCategories(userID string) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Where("user_id = ? AND budget IS NOT NULL", userID).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// Overview returns the budget position of every budgeted category for a
// month, sorted by descending spend percentage.
func (s *budgetService) Overview(userID string, year int, month time.Month) ([]BudgetStatus, error) {
	categories, err := s.budgetedCategories(userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]BudgetStatus, 0, len(categories))
	for i := range categories {
		status, err := s.status(userID, &categories[i], year, month)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].Percentage.GreaterThan(statuses[j].Percentage)
	})
	return statuses, nil
}

// Alerts partitions the month's budget statuses into over-budget,
// alerting, and healthy buckets.
func (s *budgetService) Alerts(userID string, year int, month time.Month) (*BudgetAlerts, error) {
	statuses, err := s.Overview(userID, year, month)
	if err != nil {
		return nil, err
	}

	alerts := &BudgetAlerts{
		OverBudget: []BudgetStatus{},
		Alert:      []BudgetStatus{},
		Healthy:    []BudgetStatus{},
	}
	for _, status := range statuses {
		switch {
		case status.IsOverBudget:
			alerts.OverBudget = append(alerts.OverBudget, status)
		case status.IsAlert:
			alerts.Alert = append(alerts.Alert, status)
		default:
			alerts.Healthy = append(alerts.Healthy, status)
		}
	}
	return alerts, nil
}
