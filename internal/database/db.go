package database

import (
	"fishledger-backend/internal/config"
	"fishledger-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Init(cfg *config.Config, logger *logrus.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Fatalf("could not connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		logger.Fatalf("AutoMigrate failed: %v", err)
	}

	logger.Info("database connected, migration complete")
	return db
}

// Migrate creates or updates every table the ledger needs. Order matters for
// foreign keys: parties first, then purchases, sales and their dependents.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Supplier{},
		&models.Customer{},
		&models.Purchase{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Expense{},
		&models.Payment{},
		&models.Receipt{},
		&models.ReceiptCounter{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// The counter row must exist before the first receipt number is allocated.
	var counter models.ReceiptCounter
	return db.Where(models.ReceiptCounter{ID: 1}).
		Attrs(models.ReceiptCounter{Next: 1}).
		FirstOrCreate(&counter).Error
}
