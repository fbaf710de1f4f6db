package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/apexev/apexev-backend/pkg/db/models"
	"github.com/apexev/apexev-backend/pkg/enums"
)

// Repository exposes the appointment finders used by scheduled jobs.
type Repository interface {
	FindDueForReminder(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, appointmentID uuid.UUID, sentAt time.Time) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an appointments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// FindDueForReminder returns confirmed appointments within [from, to] whose
// reminder has not been sent, with customer and vehicle loaded.
func (r *repositoryImpl) FindDueForReminder(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	rows := []models.Appointment{}
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Vehicle").
		Where("status = ? AND appointment_time BETWEEN ? AND ? AND reminder_sent_at IS NULL",
			enums.AppointmentStatusConfirmed, from.UTC(), to.UTC()).
		Order("appointment_time ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkReminderSent stamps reminder_sent_at once. It reports false when the
// reminder had already been recorded.
func (r *repositoryImpl) MarkReminderSent(ctx context.Context, appointmentID uuid.UUID, sentAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND reminder_sent_at IS NULL", appointmentID).
		UpdateColumn("reminder_sent_at", sentAt.UTC())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
