package main

import (
	"errors"
	"os"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tirelire/internal/database"
	"tirelire/internal/logger"
	"tirelire/internal/models"
	"tirelire/internal/services"
)

// defaultProviders are the mobile money operators seeded on first run.
var defaultProviders = []models.PaymentProvider{
	{
		Name:          "mtn_momo",
		DisplayName:   "MTN Mobile Money",
		IsActive:      true,
		FeePercentage: decimal.NewFromFloat(1.5),
		FeeFixed:      decimal.NewFromInt(100),
		MinAmount:     decimal.NewFromInt(100),
		MaxAmount:     decimal.NewFromInt(1000000),
	},
	{
		Name:          "orange_money",
		DisplayName:   "Orange Money",
		IsActive:      true,
		FeePercentage: decimal.NewFromFloat(2.0),
		FeeFixed:      decimal.NewFromInt(50),
		MinAmount:     decimal.NewFromInt(100),
		MaxAmount:     decimal.NewFromInt(500000),
	},
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Seed error: %v", err)
	}
}

func run() error {
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

	created, err := services.NewCategoryService(db).SeedSystemCategories()
	if err != nil {
		return err
	}
	logger.Get().Infow("seeded system categories", "created", created)

	seeded := 0
	for _, provider := range defaultProviders {
		var existing models.PaymentProvider
		err := db.Where("name = ?", provider.Name).First(&existing).Error
		switch {
		case err == nil:
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
			p := provider
			if err := db.Create(&p).Error; err != nil {
				return err
			}
			seeded++
		default:
			return err
		}
	}
	logger.Get().Infow("seeded payment providers", "created", seeded)
	return nil
}
