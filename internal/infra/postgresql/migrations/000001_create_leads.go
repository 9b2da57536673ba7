package migrations

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// leadV1 is the leads table as first shipped, before sent_date existed.
type leadV1 struct {
	ID              string `gorm:"type:varchar(255);primaryKey"`
	CompanyName     string `gorm:"type:text;not null"`
	Website         string `gorm:"type:text"`
	ContactName     string `gorm:"type:text;not null"`
	Email           string `gorm:"type:varchar(320);not null;uniqueIndex:idx_leads_email"`
	LinkedInProfile string `gorm:"column:linkedin_profile;type:text"`
	Industry        string `gorm:"type:text"`
	Role            string `gorm:"type:text"`
	CompanySize     string `gorm:"type:text"`
	Location        string `gorm:"type:text"`
	Status          string `gorm:"type:varchar(20);not null;default:pending"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (leadV1) TableName() string {
	return "leads"
}

func createLeadsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_leads",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&leadV1{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&leadV1{})
		},
	}
}
