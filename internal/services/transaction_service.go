package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tirelire/internal/config"
	apperrors "tirelire/internal/errors"
	"tirelire/internal/logger"
	"tirelire/internal/models"
	"tirelire/internal/money"
	"tirelire/internal/pagination"
	"tirelire/internal/recurrence"
)

// transactionService handles the income and expense ledger.
type transactionService struct {
	db         *gorm.DB
	categories CategoryServicer
	groups     GroupServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, categories CategoryServicer, groups GroupServicer) TransactionServicer {
	return &transactionService{db: db, categories: categories, groups: groups}
}

// parseAmount normalizes a monetary amount to the minor unit, mapping
// malformed or non-positive input to a validation error.
func parseAmount(d decimal.Decimal) (decimal.Decimal, error) {
	amount, err := money.Parse(d.String())
	if err != nil {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrValidation, err.Error())
	}
	return amount, nil
}

// Record validates and persists a new transaction. Group transactions
// require active membership; categorized transactions require a category
// whose type accepts the transaction type.
func (s *transactionService) Record(userID string, groupID, categoryID *string, txType models.TransactionType, amount decimal.Decimal, currency, description string, date time.Time, rule *recurrence.Rule) (*models.Transaction, error) {
	switch txType {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unsupported transaction type")
	}

	amount, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}

	if currency == "" {
		currency = config.Get().DefaultCurrency
	}
	if !money.ValidCurrency(currency) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unsupported currency %q", currency))
	}

	if date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "transaction date is required")
	}
	if date.After(time.Now().Add(config.Get().FutureDatingAllowance)) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "transaction date is too far in the future")
	}

	if categoryID != nil {
		category, err := s.categories.GetByID(userID, *categoryID)
		if err != nil {
			return nil, err
		}
		if !category.Accepts(txType) {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("category %q does not accept %s transactions", category.Name, txType))
		}
	}

	if groupID != nil {
		active, err := s.groups.IsActiveMember(*groupID, userID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, apperrors.ErrNotGroupMember
		}
	}

	if rule != nil {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
	}

	transaction := &models.Transaction{
		UserID:         userID,
		GroupID:        groupID,
		CategoryID:     categoryID,
		Type:           txType,
		Amount:         amount,
		Currency:       currency,
		Description:    description,
		Date:           date,
		IsRecurring:    rule != nil,
		RecurrenceRule: rule,
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// GetByID retrieves a transaction owned by the user.
func (s *transactionService) GetByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// GetIncludingDeleted retrieves a transaction even after soft deletion.
func (s *transactionService) GetIncludingDeleted(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Unscoped().
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// Amend applies a partial update to a transaction the user owns.
func (s *transactionService) Amend(userID, transactionID string, patch TransactionPatch) (*models.Transaction, error) {
	transaction, err := s.GetByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.CategoryID != nil {
		category, err := s.categories.GetByID(userID, *patch.CategoryID)
		if err != nil {
			return nil, err
		}
		if !category.Accepts(transaction.Type) {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("category %q does not accept %s transactions", category.Name, transaction.Type))
		}
		updates["category_id"] = *patch.CategoryID
	}
	if patch.Amount != nil {
		amount, err := parseAmount(*patch.Amount)
		if err != nil {
			return nil, err
		}
		updates["amount"] = amount
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Date != nil {
		if patch.Date.After(time.Now().Add(config.Get().FutureDatingAllowance)) {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "transaction date is too far in the future")
		}
		updates["date"] = *patch.Date
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return transaction, nil
}

// SoftDelete hides a transaction from all listings and aggregates while
// keeping the row recoverable.
func (s *transactionService) SoftDelete(userID, transactionID string) error {
	result := s.db.Where("id = ? AND user_id = ?", transactionID, userID).
		Delete(&models.Transaction{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// List returns the user's transactions, filtered and paginated.
func (s *transactionService) List(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	query := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(description) LIKE ?", pattern)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	orderColumn := "date"
	if filter.OrderBy == "amount" {
		orderColumn = "amount"
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}

	var transactions []models.Transaction
	err := query.Scopes(pagination.Paginate(page)).
		Preload("Category").
		Order(fmt.Sprintf("%s %s, id %s", orderColumn, direction, direction)).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// MaterializeDue creates concrete occurrences for recurring transactions
// whose next occurrence falls at or before now. The unique index on
// (recurring_source_id, occurrence_date) makes replays idempotent.
func (s *transactionService) MaterializeDue(now time.Time) (int, error) {
	var sources []models.Transaction
	err := s.db.Where("is_recurring = ? AND recurring_source_id IS NULL", true).
		Find(&sources).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := 0
	for i := range sources {
		source := &sources[i]
		if source.RecurrenceRule == nil {
			logger.Get().Warnw("recurring transaction has no rule, skipping",
				"transaction_id", source.ID)
			continue
		}

		n, err := s.materializeSource(source, now)
		if err != nil {
			logger.Get().Errorw("failed to materialize recurring transaction",
				"transaction_id", source.ID, "error", err)
			continue
		}
		created += n
	}
	return created, nil
}

func (s *transactionService) materializeSource(source *models.Transaction, now time.Time) (int, error) {
	// Resume after the latest occurrence already materialized so
	// repeated runs only fill the gap.
	from := source.Date
	var last models.Transaction
	err := s.db.Unscoped().
		Where("recurring_source_id = ?", source.ID).
		Order("occurrence_date DESC").
		First(&last).Error
	switch {
	case err == nil && last.OccurrenceDate != nil:
		from = *last.OccurrenceDate
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := 0
	for _, due := range source.RecurrenceRule.Expand(from, now) {
		occurrence := due
		sourceID := source.ID
		clone := &models.Transaction{
			UserID:            source.UserID,
			GroupID:           source.GroupID,
			CategoryID:        source.CategoryID,
			Type:              source.Type,
			Amount:            source.Amount,
			Currency:          source.Currency,
			Description:       source.Description,
			Date:              due,
			RecurringSourceID: &sourceID,
			OccurrenceDate:    &occurrence,
		}
		result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(clone)
		if result.Error != nil {
			return created, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected > 0 {
			created++
		}
	}
	return created, nil
}
