// Package mailer delivers transactional customer emails.
package mailer

import (
	"context"
	"net/mail"
	"strings"

	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
)

const (
	EventAppointmentReminder = "APPOINTMENT_REMINDER"

	appointmentReminderSubject = "Nhắc nhở: Cuộc hẹn của bạn sắp tới - ApexEV"
)

// AppointmentReminder carries the already formatted values of a reminder email.
// An empty Subject falls back to the built-in subject line.
type AppointmentReminder struct {
	Email    string
	FullName string
	Date     string
	Time     string
	Vehicle  string
	Subject  string
}

// SubjectLine returns the email subject line for the reminder.
func (r AppointmentReminder) SubjectLine() string {
	if subject := strings.TrimSpace(r.Subject); subject != "" {
		return subject
	}
	return appointmentReminderSubject
}

// Validate rejects reminders that can never be delivered.
func (r AppointmentReminder) Validate() error {
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "recipient email is invalid")
	}
	if strings.TrimSpace(r.Date) == "" || strings.TrimSpace(r.Time) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "appointment date and time are required")
	}
	return nil
}

// Sender dispatches customer emails.
type Sender interface {
	SendAppointmentReminder(ctx context.Context, reminder AppointmentReminder) error
}
