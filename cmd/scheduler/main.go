package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tirelire/internal/config"
	"tirelire/internal/database"
	"tirelire/internal/logger"
	"tirelire/internal/services"
)

// The scheduler materializes due recurring transactions and surfaces
// reminders whose notification window has opened. Both loops are
// idempotent, so overlapping deployments or restarts cannot duplicate
// work.
func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Scheduler error: %v", err)
	}
}

func run() error {
	cfg := config.Get()

	dbConfig, err := database.NewConfig()
	if err != nil {
		return err
	}
	manager, err := database.NewManager(dbConfig)
	if err != nil {
		return err
	}
	defer manager.Close()

	db := manager.DB()
	groups := services.NewGroupService(db)
	categories := services.NewCategoryService(db)
	transactions := services.NewTransactionService(db, categories, groups)
	reminders := services.NewReminderService(db, groups)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Get().Infow("Scheduler started", "interval", cfg.SchedulerInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop(ctx, cfg.SchedulerInterval, func(now time.Time) {
			created, err := transactions.MaterializeDue(now)
			if err != nil {
				logger.Get().Errorw("recurring materialization failed", "error", err)
				return
			}
			if created > 0 {
				logger.Get().Infow("materialized recurring transactions", "created", created)
			}
		})
	})
	g.Go(func() error {
		return loop(ctx, cfg.SchedulerInterval, func(now time.Time) {
			due, err := reminders.PendingNotifications(now, cfg.ReminderLeadTime)
			if err != nil {
				logger.Get().Errorw("reminder scan failed", "error", err)
				return
			}
			for _, reminder := range due {
				// Delivery is out of process; record the handoff so the
				// reminder is not picked up again.
				logger.Get().Infow("reminder due",
					"reminder_id", reminder.ID,
					"user_id", reminder.UserID,
					"title", reminder.Title,
					"date", reminder.ReminderDate)
				if err := reminders.MarkNotified(reminder.ID, now); err != nil {
					logger.Get().Errorw("failed to mark reminder notified",
						"reminder_id", reminder.ID, "error", err)
				}
			}
		})
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	logger.Get().Info("Scheduler stopped")
	return nil
}

// loop runs fn immediately and then on every tick until ctx is done.
func loop(ctx context.Context, interval time.Duration, fn func(now time.Time)) error {
	fn(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			fn(now)
		}
	}
}
