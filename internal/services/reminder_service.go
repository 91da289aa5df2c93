package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tirelire/internal/errors"
	"tirelire/internal/models"
	"tirelire/internal/pagination"
	"tirelire/internal/recurrence"
)

// reminderService handles payment and bill reminders.
type reminderService struct {
	db     *gorm.DB
	groups GroupServicer
}

// NewReminderService creates a new ReminderServicer.
func NewReminderService(db *gorm.DB, groups GroupServicer) ReminderServicer {
	return &reminderService{db: db, groups: groups}
}

// Create creates a reminder, optionally attached to a group the user is
// an active member of.
func (s *reminderService) Create(userID string, groupID *string, title, description string, reminderType models.ReminderType, reminderDate time.Time, amount *decimal.Decimal, rule *recurrence.Rule) (*models.Reminder, error) {
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "reminder title is required")
	}
	switch reminderType {
	case models.ReminderTypePayment, models.ReminderTypeBill, models.ReminderTypeGeneral:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unsupported reminder type")
	}
	if reminderDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "reminder date is required")
	}
	if amount != nil && !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be positive")
	}
	if rule != nil {
		if err := rule.Validate(); err != nil {
			return nil, err
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

	reminder := &models.Reminder{
		UserID:         userID,
		GroupID:        groupID,
		Title:          title,
		Description:    description,
		ReminderType:   reminderType,
		ReminderDate:   reminderDate,
		Amount:         amount,
		IsRecurring:    rule != nil,
		RecurrenceRule: rule,
	}
	if err := s.db.Create(reminder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminder, nil
}

// GetByID retrieves a reminder owned by the user.
func (s *reminderService) GetByID(userID, reminderID string) (*models.Reminder, error) {
	var reminder models.Reminder
	err := s.db.Where("id = ? AND user_id = ?", reminderID, userID).First(&reminder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReminderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &reminder, nil
}

// List returns the user's reminders by ascending date, hiding completed
// ones unless asked for.
func (s *reminderService) List(userID string, includeCompleted bool, page pagination.PageRequest) (*pagination.PageResponse[models.Reminder], error) {
	page.Defaults()

	query := s.db.Model(&models.Reminder{}).Where("user_id = ?", userID)
	if !includeCompleted {
		query = query.Where("is_completed = ?", false)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var reminders []models.Reminder
	err := query.Scopes(pagination.Paginate(page)).
		Order("reminder_date ASC, id ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(reminders, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Upcoming returns uncompleted reminders due within the next given days.
func (s *reminderService) Upcoming(userID string, days int) ([]models.Reminder, error) {
	if days < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "days must be at least 1")
	}

	now := time.Now()
	var reminders []models.Reminder
	err := s.db.Where("user_id = ? AND is_completed = ? AND reminder_date >= ? AND reminder_date <= ?",
		userID, false, now, now.AddDate(0, 0, days)).
		Order("reminder_date ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminders, nil
}

// Overdue returns uncompleted reminders whose date has passed, oldest
// first.
func (s *reminderService) Overdue(userID string) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.Where("user_id = ? AND is_completed = ? AND reminder_date < ?",
		userID, false, time.Now()).
		Order("reminder_date ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminders, nil
}

// Complete marks a reminder done. A recurring reminder spawns its next
// occurrence in the same transaction, carrying the rule forward; the
// spawned reminder is returned alongside the completed one. A recurring
// rule whose end date has passed spawns nothing.
func (s *reminderService) Complete(userID, reminderID string) (*models.Reminder, *models.Reminder, error) {
	reminder, err := s.GetByID(userID, reminderID)
	if err != nil {
		return nil, nil, err
	}
	if reminder.IsCompleted {
		return reminder, nil, nil
	}

	var next *models.Reminder
	if reminder.IsRecurring && reminder.RecurrenceRule != nil {
		if nextDate, ok := reminder.RecurrenceRule.Next(reminder.ReminderDate); ok {
			next = &models.Reminder{
				UserID:         reminder.UserID,
				GroupID:        reminder.GroupID,
				Title:          reminder.Title,
				Description:    reminder.Description,
				ReminderType:   reminder.ReminderType,
				ReminderDate:   nextDate,
				Amount:         reminder.Amount,
				IsRecurring:    true,
				RecurrenceRule: reminder.RecurrenceRule,
			}
		}
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"is_completed": true, "completed_at": now}
		if err := tx.Model(reminder).Updates(updates).Error; err != nil {
			return err
		}
		if next != nil {
			return tx.Create(next).Error
		}
		return nil
	})
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminder, next, nil
}

// PendingNotifications returns uncompleted, unnotified reminders whose
// date falls within the lead-time window ending at now plus leadTime.
func (s *reminderService) PendingNotifications(now time.Time, leadTime time.Duration) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.Where("is_completed = ? AND notification_sent = ? AND reminder_date <= ?",
		false, false, now.Add(leadTime)).
		Order("reminder_date ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminders, nil
}

// MarkNotified records that a reminder's notification went out.
func (s *reminderService) MarkNotified(reminderID string, at time.Time) error {
	result := s.db.Model(&models.Reminder{}).
		Where("id = ?", reminderID).
		Updates(map[string]interface{}{"notification_sent": true, "notification_sent_at": at})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrReminderNotFound
	}
	return nil
}
