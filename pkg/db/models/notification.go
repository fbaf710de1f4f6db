package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification stores in-app notifications scoped to a single user.
type Notification struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null"`
	Message        string     `gorm:"type:text;not null"`
	IsRead         bool       `gorm:"column:is_read;not null"`
	ReadAt         *time.Time `gorm:"type:timestamptz"`
	RelatedOrderID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time  `gorm:"type:timestamptz;autoCreateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// NotificationTemplate is an admin-managed message keyed by a unique template key.
type NotificationTemplate struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TemplateKey string    `gorm:"column:template_key;size:100;not null;uniqueIndex"`
	Subject     string    `gorm:"column:subject;size:255;not null"`
	Body        string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (n *NotificationTemplate) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
