package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tirelire/internal/models"
	"tirelire/internal/testutil"
)

func newSplitService(db *gorm.DB) SplitServicer {
	return NewSplitService(db, NewGroupService(db))
}

func TestEqualSplit(t *testing.T) {
	t.Run("shares_reconcile_exactly", func(t *testing.T) {
		db := setup(t)
		svc := newSplitService(db)
		owner := testutil.CreateTestUser(t, db)
		m1 := testutil.CreateTestUser(t, db)
		m2 := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, owner.ID, m1.ID, m2.ID)
		expense := testutil.CreateTestGroupExpense(t, db, owner.ID, group.ID, decimal.NewFromInt(50000))

		splits, err := svc.Split(owner.ID, expense.ID, SplitModeEqual, nil)
		testutil.AssertNoError(t, err)

		if len(splits) != 3 {
			t.Fatalf("expected 3 splits, got %d", len(splits))
		}
		total := decimal.Zero
		for _, split := range splits {
			total = total.Add(split.Amount)
		}
		testutil.AssertDecimalEqual(t, decimal.NewFromInt(50000), total)

		// Owner joined first and takes the remainder cent.
		testutil.AssertDecimalEqual(t, decimal.RequireFromString("16666.67"), splits[0].Amount)
		testutil.AssertDecimalEqual(t, decimal.RequireFromString("16666.67"), splits[1].Amount)
		testutil.AssertDecimalEqual(t, decimal.RequireFromString("16666.66"), splits[2].Amount)
	})

	t.Run("resplit_replaces", func(t *testing.T) {
		db := setup(t)
		svc := newSplitService(db)
		owner := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, owner.ID, member.ID)
		expense := testutil.CreateTestGroupExpense(t, db, owner.ID, group.ID, decimal.NewFromInt(10000))

		_, err := svc.Split(owner.ID, expense.ID, SplitModeEqual, nil)
		testutil.AssertNoError(t, err)

		shares := []SplitShare{
			{UserID: owner.ID, Amount: decimal.NewFromInt(7000)},
			{UserID: member.ID, Amount: decimal.NewFromInt(3000)},
		}
		_, err = svc.Split(owner.ID, expense.ID, SplitModeCustom, shares)
		testutil.AssertNoError(t, err)

		splits, err := svc.Splits(owner.ID, expense.ID)
		testutil.AssertNoError(t, err)
		if len(splits) != 2 {
			t.Fatalf("expected 2 splits after re-split, got %d", len(splits))
		}
		total := decimal.Zero
		for _, split := range splits {
			total = total.Add(split.Amount)
		}
		testutil.AssertDecimalEqual(t, decimal.NewFromInt(10000), total)
	})

	t.Run("personal_expense_rejected", func(t *testing.T) {
		db := setup(t)
		svc := newSplitService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, decimal.NewFromInt(10000))

		_, err := svc.Split(user.ID, tx.ID, SplitModeEqual, nil)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestCustomSplit(t *testing.T) {
	t.Run("mismatched_total_rejected", func(t *testing.T) {
		db := setup(t)
		svc := newSplitService(db)
		owner := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, owner.ID, member.ID)
		expense := testutil.CreateTestGroupExpense(t, db, owner.ID, group.ID, decimal.NewFromInt(10000))

		shares := []SplitShare{
			{UserID: owner.ID, Amount: decimal.NewFromInt(7000)},
			{UserID: member.ID, Amount: decimal.NewFromInt(2999)},
		}
		_, err := svc.Split(owner.ID, expense.ID, SplitModeCustom, shares)
		testutil.AssertAppError(t, err, "SPLIT_AMOUNT_MISMATCH")

		// Nothing was written.
		splits, err := svc.Splits(owner.ID, expense.ID)
		testutil.AssertNoError(t, err)
		if len(splits) != 0 {
			t.Fatalf("expected no splits, got %d", len(splits))
		}
	})

	t.Run("non_member_share_rejected", func(t *testing.T) {
		db := setup(t)
		svc := newSplitService(db)
		owner := testutil.CreateTestUser(t, db)
		outsider := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, owner.ID)
		expense := testutil.CreateTestGroupExpense(t, db, owner.ID, group.ID, decimal.NewFromInt(10000))

		shares := []SplitShare{
			{UserID: owner.ID, Amount: decimal.NewFromInt(5000)},
			{UserID: outsider.ID, Amount: decimal.NewFromInt(5000)},
		}
		_, err := svc.Split(owner.ID, expense.ID, SplitModeCustom, shares)
		testutil.AssertAppError(t, err, "NOT_GROUP_MEMBER")
	})

	t.Run("duplicate_user_rejected", func(t *testing.T) {
		db := setup(t)
		svc := newSplitService(db)
		owner := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, owner.ID)
		expense := testutil.CreateTestGroupExpense(t, db, owner.ID, group.ID, decimal.NewFromInt(10000))

		shares := []SplitShare{
			{UserID: owner.ID, Amount: decimal.NewFromInt(5000)},
			{UserID: owner.ID, Amount: decimal.NewFromInt(5000)},
		}
		_, err := svc.Split(owner.ID, expense.ID, SplitModeCustom, shares)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestMarkPaid(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		db := setup(t)
		svc := newSplitService(db)
		owner := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, owner.ID, member.ID)
		expense := testutil.CreateTestGroupExpense(t, db, owner.ID, group.ID, decimal.NewFromInt(10000))

		splits, err := svc.Split(owner.ID, expense.ID, SplitModeEqual, nil)
		testutil.AssertNoError(t, err)

		var memberSplit *models.ExpenseSplit
		for i := range splits {
			if splits[i].UserID == member.ID {
				memberSplit = &splits[i]
			}
		}
		if memberSplit == nil {
			t.Fatal("expected a split for the member")
		}

		paid, err := svc.MarkPaid(member.ID, memberSplit.ID)
		testutil.AssertNoError(t, err)
		if !paid.IsPaid || paid.PaidAt == nil {
			t.Fatal("expected split to be paid with paid_at set")
		}
		firstPaidAt := *paid.PaidAt

		again, err := svc.MarkPaid(member.ID, memberSplit.ID)
		testutil.AssertNoError(t, err)
		if !again.PaidAt.Equal(firstPaidAt) {
			t.Error("expected paid_at to survive a repeated call")
		}
	})

	t.Run("cannot_pay_someone_elses_share", func(t *testing.T) {
		db := setup(t)
		svc := newSplitService(db)
		owner := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, owner.ID, member.ID)
		expense := testutil.CreateTestGroupExpense(t, db, owner.ID, group.ID, decimal.NewFromInt(10000))

		splits, err := svc.Split(owner.ID, expense.ID, SplitModeEqual, nil)
		testutil.AssertNoError(t, err)

		for i := range splits {
			if splits[i].UserID == member.ID {
				_, err := svc.MarkPaid(owner.ID, splits[i].ID)
				testutil.AssertAppError(t, err, "SPLIT_NOT_FOUND")
			}
		}
	})
}
