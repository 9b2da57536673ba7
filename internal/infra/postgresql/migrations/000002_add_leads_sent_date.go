package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/outreach-pipeline/internal/repository"
	"gorm.io/gorm"
)

func addLeadsSentDateColumn() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_add_leads_sent_date",
		Migrate: func(tx *gorm.DB) error {
			if !tx.Migrator().HasColumn(&repository.LeadModel{}, "SentDate") {
				if err := tx.Migrator().AddColumn(&repository.LeadModel{}, "SentDate"); err != nil {
					return err
				}
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_leads_status_sent_date ON leads (status, sent_date)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec(`DROP INDEX IF EXISTS idx_leads_status_sent_date`).Error; err != nil {
				return err
			}
			return tx.Migrator().DropColumn(&repository.LeadModel{}, "SentDate")
		},
	}
}
