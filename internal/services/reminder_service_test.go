package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tirelire/internal/models"
	"tirelire/internal/pagination"
	"tirelire/internal/recurrence"
	"tirelire/internal/testutil"
)

func newReminderService(db *gorm.DB) ReminderServicer {
	return NewReminderService(db, NewGroupService(db))
}

func TestCreateReminder(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		amount := decimal.NewFromInt(25000)
		reminder, err := svc.Create(user.ID, nil, "Loyer", "Paiement du loyer",
			models.ReminderTypeBill, time.Now().AddDate(0, 0, 5), &amount, nil)
		testutil.AssertNoError(t, err)

		if reminder.ID == "" {
			t.Fatal("expected non-empty reminder ID")
		}
		if reminder.IsCompleted {
			t.Error("new reminders must not be completed")
		}
	})

	t.Run("empty_title", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Create(user.ID, nil, "", "", models.ReminderTypeGeneral, time.Now(), nil, nil)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("group_reminder_requires_membership", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		owner := testutil.CreateTestUser(t, db)
		outsider := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, owner.ID)

		_, err := svc.Create(outsider.ID, &group.ID, "Charges", "",
			models.ReminderTypeBill, time.Now(), nil, nil)
		testutil.AssertAppError(t, err, "NOT_GROUP_MEMBER")
	})
}

func TestCompleteReminder(t *testing.T) {
	t.Run("one_shot", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		reminder, err := svc.Create(user.ID, nil, "Facture", "",
			models.ReminderTypeBill, time.Now(), nil, nil)
		testutil.AssertNoError(t, err)

		done, next, err := svc.Complete(user.ID, reminder.ID)
		testutil.AssertNoError(t, err)
		if !done.IsCompleted || done.CompletedAt == nil {
			t.Error("expected completed reminder with completed_at")
		}
		if next != nil {
			t.Error("one-shot reminders must not spawn a successor")
		}
	})

	t.Run("recurring_spawns_next_occurrence", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		date := time.Date(2026, time.September, 5, 9, 0, 0, 0, time.UTC)
		rule := &recurrence.Rule{Frequency: recurrence.FrequencyMonthly, Interval: 1}
		reminder, err := svc.Create(user.ID, nil, "Loyer", "",
			models.ReminderTypeBill, date, nil, rule)
		testutil.AssertNoError(t, err)

		_, next, err := svc.Complete(user.ID, reminder.ID)
		testutil.AssertNoError(t, err)
		if next == nil {
			t.Fatal("expected a spawned successor")
		}
		want := time.Date(2026, time.October, 5, 9, 0, 0, 0, time.UTC)
		if !next.ReminderDate.Equal(want) {
			t.Errorf("expected next date %s, got %s", want, next.ReminderDate)
		}
		if next.IsCompleted || !next.IsRecurring {
			t.Error("successor must be open and recurring")
		}
	})

	t.Run("ended_rule_spawns_nothing", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		date := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
		end := date.AddDate(0, 0, 10)
		rule := &recurrence.Rule{Frequency: recurrence.FrequencyMonthly, Interval: 1, EndDate: &end}
		reminder, err := svc.Create(user.ID, nil, "Abonnement", "",
			models.ReminderTypeBill, date, nil, rule)
		testutil.AssertNoError(t, err)

		_, next, err := svc.Complete(user.ID, reminder.ID)
		testutil.AssertNoError(t, err)
		if next != nil {
			t.Errorf("expected no successor past the end date, got %+v", next)
		}
	})

	t.Run("repeat_complete_is_noop", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		rule := &recurrence.Rule{Frequency: recurrence.FrequencyWeekly, Interval: 1}
		reminder, err := svc.Create(user.ID, nil, "Sport", "",
			models.ReminderTypeGeneral, time.Now(), nil, rule)
		testutil.AssertNoError(t, err)

		_, first, err := svc.Complete(user.ID, reminder.ID)
		testutil.AssertNoError(t, err)
		if first == nil {
			t.Fatal("expected a successor on first completion")
		}

		_, second, err := svc.Complete(user.ID, reminder.ID)
		testutil.AssertNoError(t, err)
		if second != nil {
			t.Error("repeated completion must not spawn another successor")
		}
	})
}

func TestListReminders(t *testing.T) {
	t.Run("hides_completed_by_default", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		open, err := svc.Create(user.ID, nil, "Ouvert", "", models.ReminderTypeGeneral, time.Now(), nil, nil)
		testutil.AssertNoError(t, err)
		closed, err := svc.Create(user.ID, nil, "Fermé", "", models.ReminderTypeGeneral, time.Now(), nil, nil)
		testutil.AssertNoError(t, err)
		_, _, err = svc.Complete(user.ID, closed.ID)
		testutil.AssertNoError(t, err)

		page, err := svc.List(user.ID, false, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 || page.Data[0].ID != open.ID {
			t.Fatalf("expected only the open reminder, got %d items", page.TotalItems)
		}

		page, err = svc.List(user.ID, true, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Fatalf("expected both reminders, got %d", page.TotalItems)
		}
	})
}

func TestUpcomingReminders(t *testing.T) {
	t.Run("window_bounds", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		soon, err := svc.Create(user.ID, nil, "Bientôt", "", models.ReminderTypeGeneral,
			time.Now().AddDate(0, 0, 3), nil, nil)
		testutil.AssertNoError(t, err)
		_, err = svc.Create(user.ID, nil, "Lointain", "", models.ReminderTypeGeneral,
			time.Now().AddDate(0, 0, 30), nil, nil)
		testutil.AssertNoError(t, err)

		upcoming, err := svc.Upcoming(user.ID, 7)
		testutil.AssertNoError(t, err)
		if len(upcoming) != 1 || upcoming[0].ID != soon.ID {
			t.Fatalf("expected only the near reminder, got %d", len(upcoming))
		}
	})
}

func TestOverdueReminders(t *testing.T) {
	t.Run("past_and_uncompleted_only", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		older, err := svc.Create(user.ID, nil, "Loyer", "", models.ReminderTypeBill,
			time.Now().AddDate(0, 0, -7), nil, nil)
		testutil.AssertNoError(t, err)
		recent, err := svc.Create(user.ID, nil, "Facture", "", models.ReminderTypeBill,
			time.Now().AddDate(0, 0, -1), nil, nil)
		testutil.AssertNoError(t, err)
		settled, err := svc.Create(user.ID, nil, "Réglé", "", models.ReminderTypeBill,
			time.Now().AddDate(0, 0, -3), nil, nil)
		testutil.AssertNoError(t, err)
		_, err = svc.Create(user.ID, nil, "À venir", "", models.ReminderTypeBill,
			time.Now().AddDate(0, 0, 3), nil, nil)
		testutil.AssertNoError(t, err)

		_, _, err = svc.Complete(user.ID, settled.ID)
		testutil.AssertNoError(t, err)

		overdue, err := svc.Overdue(user.ID)
		testutil.AssertNoError(t, err)
		if len(overdue) != 2 {
			t.Fatalf("expected 2 overdue reminders, got %d", len(overdue))
		}
		if overdue[0].ID != older.ID || overdue[1].ID != recent.ID {
			t.Error("expected overdue reminders oldest first")
		}
	})
}

func TestReminderNotifications(t *testing.T) {
	t.Run("pending_then_marked", func(t *testing.T) {
		db := setup(t)
		svc := newReminderService(db)
		user := testutil.CreateTestUser(t, db)

		due, err := svc.Create(user.ID, nil, "Échéance", "", models.ReminderTypeBill,
			time.Now().Add(30*time.Minute), nil, nil)
		testutil.AssertNoError(t, err)
		_, err = svc.Create(user.ID, nil, "Plus tard", "", models.ReminderTypeBill,
			time.Now().Add(48*time.Hour), nil, nil)
		testutil.AssertNoError(t, err)

		pending, err := svc.PendingNotifications(time.Now(), time.Hour)
		testutil.AssertNoError(t, err)
		if len(pending) != 1 || pending[0].ID != due.ID {
			t.Fatalf("expected only the due reminder, got %d", len(pending))
		}

		testutil.AssertNoError(t, svc.MarkNotified(due.ID, time.Now()))

		pending, err = svc.PendingNotifications(time.Now(), time.Hour)
		testutil.AssertNoError(t, err)
		if len(pending) != 0 {
			t.Fatalf("expected no pending notifications, got %d", len(pending))
		}
	})
}
