package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tirelire/internal/config"
	apperrors "tirelire/internal/errors"
	"tirelire/internal/models"
	"tirelire/internal/money"
)

// reportService composes read-only views over the personal ledger.
// Every figure is recomputed from undeleted rows on each call; group
// transactions are excluded, they live in the group's own balance.
type reportService struct {
	db      *gorm.DB
	budgets BudgetServicer
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, budgets BudgetServicer) ReportServicer {
	return &reportService{db: db, budgets: budgets}
}

func (s *reportService) personal(userID string) *gorm.DB {
	return s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND group_id IS NULL", userID)
}

// totals sums income and expense over an optional [from, to) window.
func (s *reportService) totals(userID string, from, to *time.Time) (income, expense decimal.Decimal, count int, err error) {
	query := s.personal(userID).Select("type", "amount")
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date < ?", *to)
	}

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return decimal.Zero, decimal.Zero, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income, expense = decimal.Zero, decimal.Zero
	for i := range transactions {
		if transactions[i].Type == models.TransactionTypeIncome {
			income = income.Add(transactions[i].Amount)
		} else {
			expense = expense.Add(transactions[i].Amount)
		}
	}
	return income, expense, len(transactions), nil
}

// breakdown groups one month's transactions of a type by category, with
// each category's share of the type total. Uncategorized transactions
// are reported under an empty category id.
func (s *reportService) breakdown(userID string, txType models.TransactionType, from, to time.Time) ([]CategoryBreakdown, error) {
	var transactions []models.Transaction
	err := s.personal(userID).
		Preload("Category").
		Where("type = ? AND date >= ? AND date < ?", txType, from, to).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byCategory := make(map[string]*CategoryBreakdown)
	total := decimal.Zero
	for i := range transactions {
		tx := &transactions[i]
		total = total.Add(tx.Amount)

		key := ""
		if tx.CategoryID != nil {
			key = *tx.CategoryID
		}
		entry, ok := byCategory[key]
		if !ok {
			entry = &CategoryBreakdown{CategoryID: key, CategoryName: "Uncategorized", Total: decimal.Zero}
			if tx.Category != nil {
				entry.CategoryName = tx.Category.Name
				entry.Icon = tx.Category.Icon
				entry.Color = tx.Category.Color
			}
			byCategory[key] = entry
		}
		entry.Total = entry.Total.Add(tx.Amount)
		entry.Count++
	}

	breakdowns := make([]CategoryBreakdown, 0, len(byCategory))
	for _, entry := range byCategory {
		entry.Percentage = money.Percentage(entry.Total, total)
		breakdowns = append(breakdowns, *entry)
	}
	sort.SliceStable(breakdowns, func(i, j int) bool {
		return breakdowns[i].Total.GreaterThan(breakdowns[j].Total)
	})
	return breakdowns, nil
}

// Dashboard assembles the aggregate view of a user's personal finances.
func (s *reportService) Dashboard(userID string) (*Dashboard, error) {
	now := time.Now().UTC()
	monthStart, monthEnd := monthBounds(now.Year(), now.Month())

	totalIncome, totalExpense, _, err := s.totals(userID, nil, nil)
	if err != nil {
		return nil, err
	}
	monthlyIncome, monthlyExpense, _, err := s.totals(userID, &monthStart, &monthEnd)
	if err != nil {
		return nil, err
	}

	var recent []models.Transaction
	err = s.personal(userID).
		Preload("Category").
		Order("date DESC, id DESC").
		Limit(config.Get().RecentTransactionsLimit).
		Find(&recent).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	expenseBreakdown, err := s.breakdown(userID, models.TransactionTypeExpense, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	incomeBreakdown, err := s.breakdown(userID, models.TransactionTypeIncome, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	alerts, err := s.budgets.Alerts(userID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	alerting := append([]BudgetStatus{}, alerts.OverBudget...)
	alerting = append(alerting, alerts.Alert...)

	return &Dashboard{
		TotalBalance:       totalIncome.Sub(totalExpense),
		TotalIncome:        totalIncome,
		TotalExpense:       totalExpense,
		MonthlyIncome:      monthlyIncome,
		MonthlyExpense:     monthlyExpense,
		RecentTransactions: recent,
		ExpenseByCategory:  expenseBreakdown,
		IncomeByCategory:   incomeBreakdown,
		BudgetAlerts:       alerting,
	}, nil
}

// MonthlySummary returns totals for the last n calendar months, most
// recent first, including the current month. Empty months appear with
// zeros.
func (s *reportService) MonthlySummary(userID string, months int) ([]MonthSummary, error) {
	if months < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "months must be at least 1")
	}

	now := time.Now().UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	summaries := make([]MonthSummary, 0, months)
	for i := 0; i < months; i++ {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		income, expense, count, err := s.totals(userID, &start, &end)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, MonthSummary{
			Year:             start.Year(),
			Month:            start.Month(),
			Income:           income,
			Expense:          expense,
			Balance:          income.Sub(expense),
			TransactionCount: count,
		})
	}
	return summaries, nil
}

// ChartSeries returns aligned label/income/expense arrays for the last
// count periods ending now, zero-filled where nothing was recorded.
func (s *reportService) ChartSeries(userID string, period ChartPeriod, count int) (*ChartSeries, error) {
	if count < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "count must be at least 1")
	}

	now := time.Now().UTC()
	series := &ChartSeries{
		Labels:  make([]string, 0, count),
		Income:  make([]decimal.Decimal, 0, count),
		Expense: make([]decimal.Decimal, 0, count),
	}

	switch period {
	case ChartPeriodMonthly:
		current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i := count - 1; i >= 0; i-- {
			start := current.AddDate(0, -i, 0)
			end := start.AddDate(0, 1, 0)
			income, expense, _, err := s.totals(userID, &start, &end)
			if err != nil {
				return nil, err
			}
			series.Labels = append(series.Labels, start.Format("2006-01"))
			series.Income = append(series.Income, income)
			series.Expense = append(series.Expense, expense)
		}
	case ChartPeriodWeekly:
		// Weeks start on Monday.
		offset := (int(now.Weekday()) + 6) % 7
		weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -offset)
		for i := count - 1; i >= 0; i-- {
			start := weekStart.AddDate(0, 0, -7*i)
			end := start.AddDate(0, 0, 7)
			income, expense, _, err := s.totals(userID, &start, &end)
			if err != nil {
				return nil, err
			}
			year, week := start.ISOWeek()
			series.Labels = append(series.Labels, fmt.Sprintf("%d-W%02d", year, week))
			series.Income = append(series.Income, income)
			series.Expense = append(series.Expense, expense)
		}
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unsupported chart period")
	}
	return series, nil
}
