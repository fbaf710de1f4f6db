package mailer

import (
	"context"
	"errors"

	"github.com/apexev/apexev-backend/pkg/logger"
)

// LogSender records reminders in the log instead of sending them. Used in dev.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) (*LogSender, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &LogSender{logg: logg}, nil
}

func (s *LogSender) SendAppointmentReminder(ctx context.Context, reminder AppointmentReminder) error {
	if err := reminder.Validate(); err != nil {
		return err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"email_type":       EventAppointmentReminder,
		"email":            reminder.Email,
		"full_name":        reminder.FullName,
		"appointment_date": reminder.Date,
		"appointment_time": reminder.Time,
		"vehicle":          reminder.Vehicle,
	})
	s.logg.Info(ctx, "email suppressed (log driver)")
	return nil
}
