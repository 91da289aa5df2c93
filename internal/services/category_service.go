package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tirelire/internal/errors"
	"tirelire/internal/models"
	"tirelire/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// Create creates a private category for a user.
func (s *categoryService) Create(userID, name, description, icon, color string, categoryType models.CategoryType, budget *decimal.Decimal, alertThreshold int) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "category name is required")
	}
	switch categoryType {
	case models.CategoryTypeIncome, models.CategoryTypeExpense, models.CategoryTypeBoth:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unsupported category type")
	}
	if budget != nil && !budget.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "budget must be positive")
	}
	if alertThreshold < 1 || alertThreshold > 100 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "alert threshold must be between 1 and 100")
	}

	category := &models.Category{
		UserID:               &userID,
		Name:                 name,
		Type:                 categoryType,
		Description:          description,
		Icon:                 icon,
		Color:                color,
		Budget:               budget,
		BudgetAlertThreshold: alertThreshold,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetByID returns a category visible to the user: a system category or
// one the user owns.
func (s *categoryService) GetByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	err := s.db.Where("id = ? AND (is_system = ? OR user_id = ?)", categoryID, true, userID).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// ListForUser returns system categories plus the user's own, optionally
// narrowed by type ("both" categories match either type).
func (s *categoryService) ListForUser(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{}).
		Where("is_system = ? OR user_id = ?", true, userID)
	if categoryType != nil {
		base = base.Where("type = ? OR type = ?", *categoryType, models.CategoryTypeBoth)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Update amends a user-owned category. System categories are read-only.
func (s *categoryService) Update(userID, categoryID string, patch CategoryPatch) (*models.Category, error) {
	category, err := s.GetByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsSystem {
		return nil, apperrors.ErrCategoryReadOnly
	}

	updates := make(map[string]interface{})
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Icon != nil {
		updates["icon"] = *patch.Icon
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}
	if patch.ClearBudget {
		updates["budget"] = nil
	} else if patch.Budget != nil {
		if !patch.Budget.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "budget must be positive")
		}
		updates["budget"] = *patch.Budget
	}
	if patch.BudgetAlertThreshold != nil {
		if *patch.BudgetAlertThreshold < 1 || *patch.BudgetAlertThreshold > 100 {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "alert threshold must be between 1 and 100")
		}
		updates["budget_alert_threshold"] = *patch.BudgetAlertThreshold
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// Delete removes a user-owned category that no transaction references.
func (s *categoryService) Delete(userID, categoryID string) error {
	category, err := s.GetByID(userID, categoryID)
	if err != nil {
		return err
	}
	if category.IsSystem {
		return apperrors.ErrCategoryReadOnly
	}

	var inUse int64
	if err := s.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// defaultCategory describes one seeded system category.
type defaultCategory struct {
	name        string
	icon        string
	color       string
	catType     models.CategoryType
	description string
}

var defaultCategories = []defaultCategory{
	{"Alimentation", "🍔", "#F59E0B", models.CategoryTypeExpense, "Courses alimentaires, restaurants et livraisons"},
	{"Transport", "🚗", "#3B82F6", models.CategoryTypeExpense, "Carburant, transports en commun, taxi"},
	{"Logement", "🏠", "#8B5CF6", models.CategoryTypeExpense, "Loyer, charges, entretien"},
	{"Factures & Services", "💡", "#EF4444", models.CategoryTypeExpense, "Électricité, eau, internet, abonnements"},
	{"Divertissement", "🎬", "#EC4899", models.CategoryTypeExpense, "Cinéma, sorties, jeux, streaming"},
	{"Shopping", "🛒", "#14B8A6", models.CategoryTypeExpense, "Vêtements, électronique, achats divers"},
	{"Santé", "💊", "#10B981", models.CategoryTypeExpense, "Médecin, pharmacie, mutuelle"},
	{"Éducation", "📚", "#6366F1", models.CategoryTypeExpense, "Formations, livres, scolarité"},
	{"Voyages", "✈️", "#F97316", models.CategoryTypeExpense, "Billets, hôtels, vacances"},
	{"Autres dépenses", "📦", "#6B7280", models.CategoryTypeExpense, "Dépenses diverses non catégorisées"},
	{"Salaire", "💰", "#22C55E", models.CategoryTypeIncome, "Revenus salariaux mensuels et primes"},
	{"Freelance", "💼", "#0EA5E9", models.CategoryTypeIncome, "Missions freelance et consulting"},
	{"Investissements", "📈", "#A855F7", models.CategoryTypeIncome, "Dividendes, intérêts et gains"},
	{"Cadeaux reçus", "🎁", "#F43F5E", models.CategoryTypeIncome, "Cadeaux et dons reçus"},
	{"Autres revenus", "💵", "#84CC16", models.CategoryTypeIncome, "Autres sources de revenus"},
}

// SeedSystemCategories creates the shared default categories if they do
// not exist yet.
func (s *categoryService) SeedSystemCategories() (int, error) {
	created := 0
	for _, dc := range defaultCategories {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("name = ? AND is_system = ?", dc.name, true).
			Count(&count).Error; err != nil {
			return created, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			continue
		}
		category := &models.Category{
			Name:                 dc.name,
			Type:                 dc.catType,
			Description:          dc.description,
			Icon:                 dc.icon,
			Color:                dc.color,
			IsSystem:             true,
			BudgetAlertThreshold: 80,
		}
		if err := s.db.Create(category).Error; err != nil {
			return created, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		created++
	}
	return created, nil
}
