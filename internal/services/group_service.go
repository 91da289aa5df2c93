package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tirelire/internal/config"
	apperrors "tirelire/internal/errors"
	"tirelire/internal/models"
	"tirelire/internal/money"
)

// groupService handles shared ledgers and their memberships.
type groupService struct {
	db *gorm.DB
}

// NewGroupService creates a new GroupServicer.
func NewGroupService(db *gorm.DB) GroupServicer {
	return &groupService{db: db}
}

// CreateGroup creates a group and enrolls the owner as its first active
// admin member in one transaction.
func (s *groupService) CreateGroup(ownerID, name, description, currency string) (*models.Group, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "group name is required")
	}
	if currency == "" {
		currency = config.Get().DefaultCurrency
	}
	if !money.ValidCurrency(currency) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unsupported currency")
	}

	group := &models.Group{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Currency:    currency,
		IsActive:    true,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		now := time.Now()
		member := &models.GroupMember{
			GroupID:  group.ID,
			UserID:   ownerID,
			Role:     models.MemberRoleAdmin,
			Status:   models.MemberStatusActive,
			JoinedAt: &now,
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return group, nil
}

// GetGroupByID returns a group the user is an active member of.
func (s *groupService) GetGroupByID(userID, groupID string) (*models.Group, error) {
	active, err := s.IsActiveMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, apperrors.ErrGroupNotFound
	}

	var group models.Group
	err = s.db.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("id = ? AND is_active = ?", groupID, true).
		First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &group, nil
}

// InviteMember creates a pending membership for a user. Only active
// admins may invite. Re-inviting a user who left reopens the row as a
// fresh invitation.
func (s *groupService) InviteMember(inviterID, groupID, userID string) (*models.GroupMember, error) {
	var inviter models.GroupMember
	err := s.db.Where("group_id = ? AND user_id = ? AND role = ? AND status = ?",
		groupID, inviterID, models.MemberRoleAdmin, models.MemberStatusActive).
		First(&inviter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotGroupMember
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var existing models.GroupMember
	err = s.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status != models.MemberStatusLeft {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "user is already a member of this group")
		}
		updates := map[string]interface{}{
			"status":        models.MemberStatusPending,
			"role":          models.MemberRoleMember,
			"invited_by_id": inviterID,
			"joined_at":     nil,
		}
		if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		member := &models.GroupMember{
			GroupID:     groupID,
			UserID:      userID,
			Role:        models.MemberRoleMember,
			Status:      models.MemberStatusPending,
			InvitedByID: &inviterID,
		}
		if err := s.db.Create(member).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return member, nil
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// AcceptInvitation activates a pending membership.
func (s *groupService) AcceptInvitation(userID, groupID string) (*models.GroupMember, error) {
	var member models.GroupMember
	err := s.db.Where("group_id = ? AND user_id = ? AND status = ?",
		groupID, userID, models.MemberStatusPending).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":    models.MemberStatusActive,
		"joined_at": now,
	}
	if err := s.db.Model(&member).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &member, nil
}

// LeaveGroup marks the membership as left. The owner cannot leave while
// other active members remain.
func (s *groupService) LeaveGroup(userID, groupID string) error {
	var member models.GroupMember
	err := s.db.Where("group_id = ? AND user_id = ? AND status = ?",
		groupID, userID, models.MemberStatusActive).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrMemberNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var group models.Group
	if err := s.db.Where("id = ?", groupID).First(&group).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if group.OwnerID == userID {
		var others int64
		err := s.db.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id <> ? AND status = ?", groupID, userID, models.MemberStatusActive).
			Count(&others).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if others > 0 {
			return apperrors.WithMessage(apperrors.ErrValidation, "group owner cannot leave while other members remain")
		}
	}

	if err := s.db.Model(&member).Update("status", models.MemberStatusLeft).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ActiveMembers returns active memberships ordered by join time. Equal
// splits hand remainder cents to the earliest of these.
func (s *groupService) ActiveMembers(groupID string) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := s.db.Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
		Order("joined_at ASC, created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return members, nil
}

// IsActiveMember reports whether the user is an active member of the
// group.
func (s *groupService) IsActiveMember(groupID, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.MemberStatusActive).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// Balance totals the group's undeleted transactions. Only active
// members may read it.
func (s *groupService) Balance(userID, groupID string) (*GroupBalance, error) {
	active, err := s.IsActiveMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, apperrors.ErrNotGroupMember
	}

	var transactions []models.Transaction
	err = s.db.Select("type", "amount").
		Where("group_id = ?", groupID).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance := &GroupBalance{Income: decimal.Zero, Expense: decimal.Zero, Balance: decimal.Zero}
	for i := range transactions {
		if transactions[i].Type == models.TransactionTypeIncome {
			balance.Income = balance.Income.Add(transactions[i].Amount)
		} else {
			balance.Expense = balance.Expense.Add(transactions[i].Amount)
		}
	}
	balance.Balance = balance.Income.Sub(balance.Expense)
	return balance, nil
}
