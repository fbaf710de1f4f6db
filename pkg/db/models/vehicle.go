package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle is a customer-owned car serviced by the workshop.
type Vehicle struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID `gorm:"type:uuid;not null"`
	LicensePlate     string    `gorm:"column:license_plate;not null;uniqueIndex"`
	VINNumber        *string   `gorm:"column:vin_number"`
	Brand            string    `gorm:"column:brand;not null"`
	Model            string    `gorm:"column:model;not null"`
	YearManufactured *int      `gorm:"column:year_manufactured"`
}

func (v *Vehicle) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
