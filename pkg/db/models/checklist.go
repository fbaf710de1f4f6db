package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChecklistTemplate is a reusable inspection checklist, optionally bound to one service.
type ChecklistTemplate struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Description *string    `gorm:"column:description"`
	ServiceID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`

	Items []ChecklistTemplateItem `gorm:"foreignKey:TemplateID"`
}

func (c *ChecklistTemplate) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type ChecklistTemplateItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TemplateID  uuid.UUID `gorm:"type:uuid;not null"`
	Position    int       `gorm:"column:position;not null"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
}

func (c *ChecklistTemplateItem) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ServiceChecklistItem is one ordered step of the checklist for a service.
type ServiceChecklistItem struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceID         uuid.UUID `gorm:"type:uuid;not null"`
	ItemName          string    `gorm:"column:item_name;not null"`
	ItemNameEn        *string   `gorm:"column:item_name_en"`
	ItemDescription   *string   `gorm:"column:item_description"`
	ItemDescriptionEn *string   `gorm:"column:item_description_en"`
	StepOrder         int       `gorm:"column:step_order;not null"`
	Category          *string   `gorm:"column:category"`
	EstimatedMinutes  *int      `gorm:"column:estimated_minutes"`
	IsRequired        bool      `gorm:"column:is_required;not null"`
	IsActive          bool      `gorm:"column:is_active;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *ServiceChecklistItem) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
