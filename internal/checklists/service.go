package checklists

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/apexev/apexev-backend/pkg/db"
	"github.com/apexev/apexev-backend/pkg/db/models"
	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
)

// Service exposes checklist lookup for technicians and checklist management for admins.
type Service interface {
	TemplateForService(ctx context.Context, serviceID uuid.UUID) (*TemplateDTO, error)
	ItemsForService(ctx context.Context, query ItemsQuery) ([]ItemDTO, error)
	CountItems(ctx context.Context, serviceID uuid.UUID) (int64, error)
	HasItems(ctx context.Context, serviceID uuid.UUID) (bool, error)

	GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ToggleActive(ctx context.Context, id uuid.UUID) (*ItemDTO, error)

	ListTemplates(ctx context.Context) ([]TemplateDTO, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateDTO, error)
	CreateTemplate(ctx context.Context, input TemplateInput) (*TemplateDTO, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, input TemplateInput) (*TemplateDTO, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}

// CreateItemInput holds the validated payload to create a checklist item.
// Nil IsRequired and IsActive default to true.
type CreateItemInput struct {
	ServiceID         uuid.UUID
	ItemName          string
	ItemNameEn        *string
	ItemDescription   *string
	ItemDescriptionEn *string
	StepOrder         int
	Category          *string
	EstimatedMinutes  *int
	IsRequired        *bool
	IsActive          *bool
}

// UpdateItemInput holds optional mutation values for a checklist item.
type UpdateItemInput struct {
	ItemName          *string
	ItemNameEn        *string
	ItemDescription   *string
	ItemDescriptionEn *string
	StepOrder         *int
	Category          *string
	EstimatedMinutes  *int
	IsRequired        *bool
	IsActive          *bool
}

// TemplateInput describes a template and its items in display order.
type TemplateInput struct {
	Name        string
	Description *string
	ServiceID   *uuid.UUID
	Items       []TemplateItemInput
}

// TemplateItemInput is one template line.
type TemplateItemInput struct {
	Name        string
	Description *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService wires checklist dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checklist repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// TemplateForService returns nil when the service exists but has no template.
func (s *service) TemplateForService(ctx context.Context, serviceID uuid.UUID) (*TemplateDTO, error) {
	if serviceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	if err := s.ensureService(ctx, serviceID); err != nil {
		return nil, err
	}
	template, err := s.repo.FindTemplateByService(ctx, serviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checklist template")
	}
	if template == nil {
		return nil, nil
	}
	dto := templateFromModel(*template)
	return &dto, nil
}

func (s *service) ItemsForService(ctx context.Context, query ItemsQuery) ([]ItemDTO, error) {
	if query.ServiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	rows, err := s.repo.ListItems(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list checklist items")
	}
	return itemsFromModels(rows), nil
}

func (s *service) CountItems(ctx context.Context, serviceID uuid.UUID) (int64, error) {
	if serviceID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	count, err := s.repo.CountItems(ctx, serviceID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count checklist items")
	}
	return count, nil
}

func (s *service) HasItems(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	if serviceID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	found, err := s.repo.HasItems(ctx, serviceID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check checklist items")
	}
	return found, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := itemFromModel(*item)
	return &dto, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error) {
	if input.ServiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	name := strings.TrimSpace(input.ItemName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if err := validateStep(input.StepOrder, input.EstimatedMinutes); err != nil {
		return nil, err
	}
	if err := s.ensureService(ctx, input.ServiceID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &models.ServiceChecklistItem{
		ServiceID:         input.ServiceID,
		ItemName:          name,
		ItemNameEn:        trimmedOrNil(input.ItemNameEn),
		ItemDescription:   trimmedOrNil(input.ItemDescription),
		ItemDescriptionEn: trimmedOrNil(input.ItemDescriptionEn),
		StepOrder:         input.StepOrder,
		Category:          trimmedOrNil(input.Category),
		EstimatedMinutes:  input.EstimatedMinutes,
		IsRequired:        boolOrDefault(input.IsRequired, true),
		IsActive:          boolOrDefault(input.IsActive, true),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checklist item")
	}
	dto := itemFromModel(*item)
	return &dto, nil
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ItemName != nil {
		name := strings.TrimSpace(*input.ItemName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name cannot be empty")
		}
		item.ItemName = name
	}
	if input.StepOrder != nil {
		item.StepOrder = *input.StepOrder
	}
	if input.EstimatedMinutes != nil {
		item.EstimatedMinutes = input.EstimatedMinutes
	}
	if err := validateStep(item.StepOrder, item.EstimatedMinutes); err != nil {
		return nil, err
	}
	if input.ItemNameEn != nil {
		item.ItemNameEn = trimmedOrNil(input.ItemNameEn)
	}
	if input.ItemDescription != nil {
		item.ItemDescription = trimmedOrNil(input.ItemDescription)
	}
	if input.ItemDescriptionEn != nil {
		item.ItemDescriptionEn = trimmedOrNil(input.ItemDescriptionEn)
	}
	if input.Category != nil {
		item.Category = trimmedOrNil(input.Category)
	}
	if input.IsRequired != nil {
		item.IsRequired = *input.IsRequired
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}
	item.UpdatedAt = s.now().UTC()

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update checklist item")
	}
	dto := itemFromModel(*item)
	return &dto, nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	deleted, err := s.repo.DeleteItem(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete checklist item")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "checklist item not found")
	}
	return nil
}

func (s *service) ToggleActive(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	toggled, err := s.repo.ToggleItemActive(ctx, id, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle checklist item")
	}
	if !toggled {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checklist item not found")
	}
	return s.GetItem(ctx, id)
}

func (s *service) ListTemplates(ctx context.Context) ([]TemplateDTO, error) {
	rows, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list checklist templates")
	}
	templates := make([]TemplateDTO, 0, len(rows))
	for _, row := range rows {
		templates = append(templates, templateFromModel(row))
	}
	return templates, nil
}

func (s *service) GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template id required")
	}
	template, err := s.repo.FindTemplate(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checklist template not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checklist template")
	}
	dto := templateFromModel(*template)
	return &dto, nil
}

func (s *service) CreateTemplate(ctx context.Context, input TemplateInput) (*TemplateDTO, error) {
	template, items, err := s.prepareTemplate(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateTemplate(ctx, template); err != nil {
			return err
		}
		return txRepo.ReplaceTemplateItems(ctx, template.ID, items)
	}); err != nil {
		return nil, templateWriteError(err, "create checklist template")
	}
	return s.GetTemplate(ctx, template.ID)
}

func (s *service) UpdateTemplate(ctx context.Context, id uuid.UUID, input TemplateInput) (*TemplateDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template id required")
	}
	template, items, err := s.prepareTemplate(ctx, input)
	if err != nil {
		return nil, err
	}
	template.ID = id

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindTemplate(ctx, id); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "checklist template not found")
			}
			return err
		}
		if err := txRepo.UpdateTemplate(ctx, template); err != nil {
			return err
		}
		return txRepo.ReplaceTemplateItems(ctx, id, items)
	}); err != nil {
		return nil, templateWriteError(err, "update checklist template")
	}
	return s.GetTemplate(ctx, id)
}

func (s *service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "template id required")
	}
	var deleted bool
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).DeleteTemplate(ctx, id)
		return err
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete checklist template")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "checklist template not found")
	}
	return nil
}

func (s *service) prepareTemplate(ctx context.Context, input TemplateInput) (*models.ChecklistTemplate, []models.ChecklistTemplateItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "template name required")
	}
	if len(input.Items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "template requires at least one item")
	}
	items := make([]models.ChecklistTemplateItem, 0, len(input.Items))
	for i, item := range input.Items {
		itemName := strings.TrimSpace(item.Name)
		if itemName == "" {
			return nil, nil, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d name required", i+1)
		}
		items = append(items, models.ChecklistTemplateItem{
			Position:    i + 1,
			Name:        itemName,
			Description: trimmedOrNil(item.Description),
		})
	}
	if input.ServiceID != nil {
		if *input.ServiceID == uuid.Nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "service id is invalid")
		}
		if err := s.ensureService(ctx, *input.ServiceID); err != nil {
			return nil, nil, err
		}
	}
	template := &models.ChecklistTemplate{
		Name:        name,
		Description: trimmedOrNil(input.Description),
		ServiceID:   input.ServiceID,
		CreatedAt:   s.now().UTC(),
	}
	return template, items, nil
}

func (s *service) ensureService(ctx context.Context, serviceID uuid.UUID) error {
	exists, err := s.repo.ServiceExists(ctx, serviceID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	return nil
}

func (s *service) loadItem(ctx context.Context, id uuid.UUID) (*models.ServiceChecklistItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checklist item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checklist item")
	}
	return item, nil
}

func templateWriteError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "service already has a checklist template")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func validateStep(stepOrder int, estimatedMinutes *int) error {
	if stepOrder < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "step order must be at least 1")
	}
	if estimatedMinutes != nil && *estimatedMinutes < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "estimated minutes cannot be negative")
	}
	return nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
