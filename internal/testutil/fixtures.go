package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tirelire/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		Email:     fmt.Sprintf("user%d@test.com", nextID()),
		FirstName: "Test",
		LastName:  "User",
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates an expense category owned by the user.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:               &userID,
		Name:                 fmt.Sprintf("Test Category %d", nextID()),
		Type:                 categoryType,
		BudgetAlertThreshold: 80,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudgetedCategory creates an expense category with a monthly
// budget and alert threshold.
func CreateTestBudgetedCategory(t *testing.T, db *gorm.DB, userID string, budget decimal.Decimal, threshold int) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:               &userID,
		Name:                 fmt.Sprintf("Budgeted Category %d", nextID()),
		Type:                 models.CategoryTypeExpense,
		Budget:               &budget,
		BudgetAlertThreshold: threshold,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestSystemCategory creates a shared system category.
func CreateTestSystemCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:                 fmt.Sprintf("System Category %d", nextID()),
		Type:                 categoryType,
		IsSystem:             true,
		BudgetAlertThreshold: 80,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test system category: %v", err)
	}
	return category
}

// CreateTestGroup creates an active group owned by ownerID with every
// given user enrolled as an active member. The owner joins first as
// admin, members follow in argument order with later join times.
func CreateTestGroup(t *testing.T, db *gorm.DB, ownerID string, memberIDs ...string) *models.Group {
	t.Helper()

	group := &models.Group{
		OwnerID:  ownerID,
		Name:     fmt.Sprintf("Test Group %d", nextID()),
		Currency: "XAF",
		IsActive: true,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}

	joined := time.Now().Add(-time.Hour)
	owner := &models.GroupMember{
		GroupID:  group.ID,
		UserID:   ownerID,
		Role:     models.MemberRoleAdmin,
		Status:   models.MemberStatusActive,
		JoinedAt: &joined,
	}
	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("failed to create group owner membership: %v", err)
	}

	for i, userID := range memberIDs {
		at := joined.Add(time.Duration(i+1) * time.Minute)
		member := &models.GroupMember{
			GroupID:     group.ID,
			UserID:      userID,
			Role:        models.MemberRoleMember,
			Status:      models.MemberStatusActive,
			InvitedByID: &ownerID,
			JoinedAt:    &at,
		}
		if err := db.Create(member).Error; err != nil {
			t.Fatalf("failed to create group membership: %v", err)
		}
	}
	return group
}

// CreateTestWallet creates an active wallet with the given balance.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID string, balance decimal.Decimal) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		UserID:   userID,
		Balance:  balance,
		Currency: "XAF",
		IsActive: true,
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestProvider creates an active provider charging 1.5% plus a
// 100 fixed fee, with limits 100 to 1000000.
func CreateTestProvider(t *testing.T, db *gorm.DB) *models.PaymentProvider {
	t.Helper()

	provider := &models.PaymentProvider{
		Name:          fmt.Sprintf("provider-%d", nextID()),
		DisplayName:   "Test Provider",
		IsActive:      true,
		FeePercentage: decimal.NewFromFloat(1.5),
		FeeFixed:      decimal.NewFromInt(100),
		MinAmount:     decimal.NewFromInt(100),
		MaxAmount:     decimal.NewFromInt(1000000),
	}
	if err := db.Create(provider).Error; err != nil {
		t.Fatalf("failed to create test provider: %v", err)
	}
	return provider
}

// CreateTestPaymentMethod registers a unique phone number for the user
// with the provider.
func CreateTestPaymentMethod(t *testing.T, db *gorm.DB, userID, providerID string) *models.UserPaymentMethod {
	t.Helper()

	method := &models.UserPaymentMethod{
		UserID:      userID,
		ProviderID:  providerID,
		PhoneNumber: fmt.Sprintf("+2376%08d", nextID()),
		AccountName: "Test Account",
		IsDefault:   true,
	}
	if err := db.Create(method).Error; err != nil {
		t.Fatalf("failed to create test payment method: %v", err)
	}
	return method
}

// CreateTestTransaction creates a transaction dated now.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, amount decimal.Decimal) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		UserID:   userID,
		Type:     txType,
		Amount:   amount,
		Currency: "XAF",
		Date:     time.Now(),
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}

// CreateTestGroupExpense creates an expense recorded against a group.
func CreateTestGroupExpense(t *testing.T, db *gorm.DB, userID, groupID string, amount decimal.Decimal) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		UserID:   userID,
		GroupID:  &groupID,
		Type:     models.TransactionTypeExpense,
		Amount:   amount,
		Currency: "XAF",
		Date:     time.Now(),
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test group expense: %v", err)
	}
	return transaction
}
