package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/apexev/apexev-backend/pkg/enums"
)

// Appointment is a booked workshop visit. ReminderSentAt is stamped once the
// customer reminder has been dispatched.
type Appointment struct {
	ID               uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID               `gorm:"type:uuid;not null"`
	VehicleID        uuid.UUID               `gorm:"type:uuid;not null"`
	ServiceAdvisorID *uuid.UUID              `gorm:"type:uuid"`
	AppointmentTime  time.Time               `gorm:"column:appointment_time;type:timestamptz;not null"`
	Status           enums.AppointmentStatus `gorm:"type:appointment_status;not null"`
	RequestedService *string                 `gorm:"column:requested_service"`
	Notes            *string                 `gorm:"column:notes"`
	ReminderSentAt   *time.Time              `gorm:"column:reminder_sent_at;type:timestamptz"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`

	Customer *User    `gorm:"foreignKey:CustomerID"`
	Vehicle  *Vehicle `gorm:"foreignKey:VehicleID"`
}

func (a *Appointment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
