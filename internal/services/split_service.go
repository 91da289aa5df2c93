package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tirelire/internal/config"
	apperrors "tirelire/internal/errors"
	"tirelire/internal/models"
	"tirelire/internal/money"
)

// splitService divides group expenses among members.
type splitService struct {
	db     *gorm.DB
	groups GroupServicer
	locks  *lockTable
}

// NewSplitService creates a new SplitServicer.
func NewSplitService(db *gorm.DB, groups GroupServicer) SplitServicer {
	return &splitService{db: db, groups: groups, locks: aggregateLocks}
}

// splittableTransaction loads a group expense visible to the user. Any
// active member of the group may split or read splits, not just the
// member who recorded the expense.
func (s *splitService) splittableTransaction(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Where("id = ?", transactionID).First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if transaction.GroupID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "only group expenses can be split")
	}
	if transaction.Type != models.TransactionTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "only expenses can be split")
	}

	active, err := s.groups.IsActiveMember(*transaction.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, apperrors.ErrNotGroupMember
	}
	return &transaction, nil
}

// Split divides a group expense among members. Equal mode divides the
// amount over all active members with remainder cents going to the
// earliest joined. Custom mode takes explicit shares that must sum to
// the transaction amount exactly. Re-splitting replaces prior splits in
// the same transaction.
func (s *splitService) Split(userID, transactionID string, mode SplitMode, shares []SplitShare) ([]models.ExpenseSplit, error) {
	transaction, err := s.splittableTransaction(userID, transactionID)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.acquire("split:"+transactionID, config.Get().LockWaitTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	switch mode {
	case SplitModeEqual:
		members, err := s.groups.ActiveMembers(*transaction.GroupID)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "group has no active members")
		}
		amounts, err := money.SplitEven(transaction.Amount, len(members))
		if err != nil {
			return nil, err
		}
		shares = make([]SplitShare, len(members))
		for i, member := range members {
			shares[i] = SplitShare{UserID: member.UserID, Amount: amounts[i]}
		}
	case SplitModeCustom:
		if len(shares) == 0 {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "custom split requires at least one share")
		}
		seen := make(map[string]bool, len(shares))
		total := decimal.Zero
		for _, share := range shares {
			if seen[share.UserID] {
				return nil, apperrors.WithMessage(apperrors.ErrValidation, "duplicate user in split shares")
			}
			seen[share.UserID] = true
			if !share.Amount.IsPositive() {
				return nil, apperrors.WithMessage(apperrors.ErrValidation, "split amounts must be positive")
			}
			active, err := s.groups.IsActiveMember(*transaction.GroupID, share.UserID)
			if err != nil {
				return nil, err
			}
			if !active {
				return nil, apperrors.ErrNotGroupMember
			}
			total = total.Add(share.Amount)
		}
		if !total.Equal(transaction.Amount) {
			return nil, apperrors.WithMessage(apperrors.ErrSplitAmountMismatch,
				fmt.Sprintf("shares total %s but the expense is %s", money.Format(total), money.Format(transaction.Amount)))
		}
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unsupported split mode")
	}

	splits := make([]models.ExpenseSplit, len(shares))
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", transactionID).
			Delete(&models.ExpenseSplit{}).Error; err != nil {
			return err
		}
		for i, share := range shares {
			splits[i] = models.ExpenseSplit{
				TransactionID: transactionID,
				UserID:        share.UserID,
				Amount:        share.Amount,
			}
			if err := tx.Create(&splits[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return splits, nil
}

// Splits returns the splits of a group expense.
func (s *splitService) Splits(userID, transactionID string) ([]models.ExpenseSplit, error) {
	if _, err := s.splittableTransaction(userID, transactionID); err != nil {
		return nil, err
	}

	var splits []models.ExpenseSplit
	err := s.db.Where("transaction_id = ?", transactionID).
		Order("created_at ASC, id ASC").
		Find(&splits).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return splits, nil
}

// MarkPaid marks the caller's own split as settled. Calling it again
// leaves the original paid_at untouched.
func (s *splitService) MarkPaid(userID, splitID string) (*models.ExpenseSplit, error) {
	var split models.ExpenseSplit
	err := s.db.Where("id = ? AND user_id = ?", splitID, userID).First(&split).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSplitNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if split.IsPaid {
		return &split, nil
	}

	now := time.Now()
	updates := map[string]interface{}{"is_paid": true, "paid_at": now}
	if err := s.db.Model(&split).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &split, nil
}
