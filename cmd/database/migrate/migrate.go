package migration

import (
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Errorf("error migrating user table: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Donation{}); err != nil {
		log.Errorf("error migrating donation table: %v", err)
		return err
	}

	// Rows written before the lifecycle columns existed.
	if err := db.Model(&entities.Donation{}).
		Where("confirmation_status IS NULL OR confirmation_status = ''").
		Update("confirmation_status", string(domain.ConfirmationPending)).Error; err != nil {
		log.Errorf("error backfilling confirmation status: %v", err)
		return err
	}

	log.Info("database migration complete")
	return nil
}
