package cron

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/apexev/apexev-backend/internal/notifications"
	"github.com/apexev/apexev-backend/pkg/db/models"
	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
	"github.com/apexev/apexev-backend/pkg/logger"
	"github.com/apexev/apexev-backend/pkg/mailer"
	"github.com/apexev/apexev-backend/pkg/metrics"
)

const (
	appointmentReminderJobName = "appointment-reminder"

	defaultReminderLookahead       = 24 * time.Hour
	defaultReminderDispatchTimeout = 30 * time.Second

	reminderDateLayout = "02/01/2006"
	reminderTimeLayout = "15:04"
)

const (
	ReminderStageValidate = "validate"
	ReminderStageDispatch = "dispatch"
	ReminderStageMark     = "mark"
)

type appointmentReminderRepository interface {
	FindDueForReminder(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, appointmentID uuid.UUID, sentAt time.Time) (bool, error)
}

type reminderTemplateLookup interface {
	GetByKey(ctx context.Context, key string) (*notifications.TemplateDTO, error)
}

// AppointmentReminderJobParams configures the reminder job. Templates is
// optional; when set, the APPOINTMENT_REMINDER template supplies the subject.
type AppointmentReminderJobParams struct {
	Logger          *logger.Logger
	Repository      appointmentReminderRepository
	Sender          mailer.Sender
	Templates       reminderTemplateLookup
	Metrics         *metrics.ReminderMetrics
	Lookahead       time.Duration
	Location        *time.Location
	DispatchTimeout time.Duration
}

// AppointmentReminderJob emails customers whose confirmed appointment falls
// inside the lookahead window and has not been reminded yet.
type AppointmentReminderJob struct {
	logg            *logger.Logger
	repo            appointmentReminderRepository
	sender          mailer.Sender
	templates       reminderTemplateLookup
	metrics         *metrics.ReminderMetrics
	lookahead       time.Duration
	location        *time.Location
	dispatchTimeout time.Duration
	now             func() time.Time
}

// ReminderFailure records why a single appointment was not fully processed.
type ReminderFailure struct {
	AppointmentID uuid.UUID
	Stage         string
	Err           error
}

// ReminderBatch summarizes one reminder run.
type ReminderBatch struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Selected    int
	Sent        int
	Failed      int
	Failures    []ReminderFailure
}

// Err combines every per-appointment failure, or returns nil.
func (b ReminderBatch) Err() error {
	var combined error
	for _, failure := range b.Failures {
		combined = multierr.Append(combined, fmt.Errorf("appointment %s (%s): %w", failure.AppointmentID, failure.Stage, failure.Err))
	}
	return combined
}

func NewAppointmentReminderJob(params AppointmentReminderJobParams) (*AppointmentReminderJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("appointment repository required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	lookahead := params.Lookahead
	if lookahead <= 0 {
		lookahead = defaultReminderLookahead
	}
	location := params.Location
	if location == nil {
		location = time.UTC
	}
	timeout := params.DispatchTimeout
	if timeout <= 0 {
		timeout = defaultReminderDispatchTimeout
	}
	return &AppointmentReminderJob{
		logg:            params.Logger,
		repo:            params.Repository,
		sender:          params.Sender,
		templates:       params.Templates,
		metrics:         params.Metrics,
		lookahead:       lookahead,
		location:        location,
		dispatchTimeout: timeout,
		now:             time.Now,
	}, nil
}

func (j *AppointmentReminderJob) Name() string { return appointmentReminderJobName }

// Run processes one batch. Only a failed fetch is reported as a job failure;
// per-appointment problems are logged and left for the next run.
func (j *AppointmentReminderJob) Run(ctx context.Context) error {
	batch, err := j.RunBatch(ctx)
	if err != nil {
		return err
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"window_start": batch.WindowStart.Format(time.RFC3339),
		"window_end":   batch.WindowEnd.Format(time.RFC3339),
		"selected":     batch.Selected,
		"sent":         batch.Sent,
		"failed":       batch.Failed,
	})
	if failures := batch.Err(); failures != nil {
		j.logg.Warn(ctx, fmt.Sprintf("appointment reminders finished with failures: %v", failures))
		return nil
	}
	j.logg.Info(ctx, "appointment reminders dispatched")
	return nil
}

// RunBatch selects due appointments and dispatches one reminder per
// appointment. A failing appointment never stops the rest of the batch.
func (j *AppointmentReminderJob) RunBatch(ctx context.Context) (ReminderBatch, error) {
	now := j.now().UTC()
	batch := ReminderBatch{WindowStart: now, WindowEnd: now.Add(j.lookahead)}

	appointments, err := j.repo.FindDueForReminder(ctx, batch.WindowStart, batch.WindowEnd)
	if err != nil {
		return batch, fmt.Errorf("find appointments due for reminder: %w", err)
	}
	batch.Selected = len(appointments)
	j.metrics.SetSelected(batch.Selected)
	if batch.Selected == 0 {
		return batch, nil
	}

	subject := j.reminderSubject(ctx)
	for i := range appointments {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		j.process(ctx, &appointments[i], subject, now, &batch)
	}
	return batch, nil
}

// reminderSubject returns the admin-managed subject, or "" to keep the
// sender's built-in one.
func (j *AppointmentReminderJob) reminderSubject(ctx context.Context) string {
	if j.templates == nil {
		return ""
	}
	template, err := j.templates.GetByKey(ctx, notifications.TemplateKeyAppointmentReminder)
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return ""
	case err != nil:
		j.logg.Warn(ctx, fmt.Sprintf("reminder template unavailable, using default subject: %v", err))
		return ""
	}
	return template.Subject
}

func (j *AppointmentReminderJob) process(ctx context.Context, appt *models.Appointment, subject string, now time.Time, batch *ReminderBatch) {
	itemCtx := j.logg.WithField(ctx, "appointment_id", appt.ID.String())

	reminder, err := buildAppointmentReminder(appt, j.location)
	if err != nil {
		batch.fail(appt.ID, ReminderStageValidate, err)
		j.metrics.ObserveDispatch(metrics.ReminderOutcomeInvalid, 0)
		j.logg.Warn(itemCtx, fmt.Sprintf("skipping reminder: %v", err))
		return
	}

	reminder.Subject = subject

	start := time.Now()
	if err := j.dispatch(ctx, reminder); err != nil {
		batch.fail(appt.ID, ReminderStageDispatch, err)
		j.metrics.ObserveDispatch(metrics.ReminderOutcomeFailed, time.Since(start))
		j.logg.Error(itemCtx, "reminder dispatch failed", err)
		return
	}
	j.metrics.ObserveDispatch(metrics.ReminderOutcomeSent, time.Since(start))
	batch.Sent++

	marked, err := j.repo.MarkReminderSent(ctx, appt.ID, now)
	if err != nil {
		// the email already went out; the appointment stays eligible and may be reminded again
		batch.Failures = append(batch.Failures, ReminderFailure{AppointmentID: appt.ID, Stage: ReminderStageMark, Err: err})
		j.logg.Error(itemCtx, "failed to mark reminder sent", err)
		return
	}
	if !marked {
		j.logg.Warn(itemCtx, "reminder already marked by another run")
	}
}

func (j *AppointmentReminderJob) dispatch(ctx context.Context, reminder mailer.AppointmentReminder) error {
	dispatchCtx, cancel := context.WithTimeout(ctx, j.dispatchTimeout)
	defer cancel()
	return j.sender.SendAppointmentReminder(dispatchCtx, reminder)
}

func (b *ReminderBatch) fail(id uuid.UUID, stage string, err error) {
	b.Failed++
	b.Failures = append(b.Failures, ReminderFailure{AppointmentID: id, Stage: stage, Err: err})
}

func buildAppointmentReminder(appt *models.Appointment, loc *time.Location) (mailer.AppointmentReminder, error) {
	if appt.Customer == nil {
		return mailer.AppointmentReminder{}, pkgerrors.New(pkgerrors.CodeValidation, "appointment customer not loaded")
	}
	local := appt.AppointmentTime.In(loc)
	reminder := mailer.AppointmentReminder{
		Email:    strings.TrimSpace(appt.Customer.Email),
		FullName: strings.TrimSpace(appt.Customer.FullName),
		Date:     local.Format(reminderDateLayout),
		Time:     local.Format(reminderTimeLayout),
		Vehicle:  describeVehicle(appt.Vehicle),
	}
	if err := reminder.Validate(); err != nil {
		return mailer.AppointmentReminder{}, err
	}
	return reminder, nil
}

func describeVehicle(vehicle *models.Vehicle) string {
	if vehicle == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	if vehicle.YearManufactured != nil && *vehicle.YearManufactured > 0 {
		parts = append(parts, strconv.Itoa(*vehicle.YearManufactured))
	}
	for _, field := range []string{vehicle.Brand, vehicle.Model} {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
