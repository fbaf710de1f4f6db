package notifications

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/apexev/apexev-backend/pkg/db"
	"github.com/apexev/apexev-backend/pkg/db/models"
	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
)

const (
	maxTemplateKeyLength = 100
	maxSubjectLength     = 255
)

// TemplateKeyAppointmentReminder names the template whose subject is used for
// appointment reminder emails.
const TemplateKeyAppointmentReminder = "APPOINTMENT_REMINDER"

// TemplateService manages notification templates.
type TemplateService interface {
	List(ctx context.Context) ([]TemplateDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*TemplateDTO, error)
	GetByKey(ctx context.Context, key string) (*TemplateDTO, error)
	Create(ctx context.Context, input TemplateInput) (*TemplateDTO, error)
	Update(ctx context.Context, id uuid.UUID, input TemplateInput) (*TemplateDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TemplateInput is the payload for creating or replacing a template.
type TemplateInput struct {
	TemplateKey string
	Subject     string
	Body        string
}

type templateService struct {
	repo TemplateRepository
	now  func() time.Time
}

// NewTemplateService wires template dependencies.
func NewTemplateService(repo TemplateRepository) (TemplateService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification template repository required")
	}
	return &templateService{repo: repo, now: time.Now}, nil
}

func (s *templateService) List(ctx context.Context) ([]TemplateDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notification templates")
	}
	out := make([]TemplateDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, templateFromModel(row))
	}
	return out, nil
}

func (s *templateService) Get(ctx context.Context, id uuid.UUID) (*TemplateDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template id required")
	}
	row, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, templateLoadError(err)
	}
	dto := templateFromModel(*row)
	return &dto, nil
}

func (s *templateService) GetByKey(ctx context.Context, key string) (*TemplateDTO, error) {
	key = normalizeTemplateKey(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template key required")
	}
	row, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, templateLoadError(err)
	}
	dto := templateFromModel(*row)
	return &dto, nil
}

func (s *templateService) Create(ctx context.Context, input TemplateInput) (*TemplateDTO, error) {
	row, err := prepareNotificationTemplate(input)
	if err != nil {
		return nil, err
	}
	row.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, templateWriteError(err, "create notification template")
	}
	dto := templateFromModel(*row)
	return &dto, nil
}

func (s *templateService) Update(ctx context.Context, id uuid.UUID, input TemplateInput) (*TemplateDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template id required")
	}
	row, err := prepareNotificationTemplate(input)
	if err != nil {
		return nil, err
	}
	row.ID = id
	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, templateWriteError(err, "update notification template")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification template not found")
	}
	return s.Get(ctx, id)
}

func (s *templateService) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "template id required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification template")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification template not found")
	}
	return nil
}

// Keys are stored upper-case so APPOINTMENT_REMINDER and appointment_reminder collide.
func normalizeTemplateKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

func prepareNotificationTemplate(input TemplateInput) (*models.NotificationTemplate, error) {
	key := normalizeTemplateKey(input.TemplateKey)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template key required")
	}
	if utf8.RuneCountInString(key) > maxTemplateKeyLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "template key exceeds %d characters", maxTemplateKeyLength)
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject required")
	}
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "subject exceeds %d characters", maxSubjectLength)
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body required")
	}
	return &models.NotificationTemplate{TemplateKey: key, Subject: subject, Body: body}, nil
}

func templateLoadError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification template not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification template")
}

func templateWriteError(err error, msg string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "template key already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
