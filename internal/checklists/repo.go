package checklists

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/apexev/apexev-backend/pkg/db/models"
)

// ItemsQuery narrows the checklist items returned for a service.
type ItemsQuery struct {
	ServiceID  uuid.UUID
	ActiveOnly bool
	Category   string
}

// Repository exposes persistence helpers for service checklists and templates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ServiceExists(ctx context.Context, serviceID uuid.UUID) (bool, error)

	ListItems(ctx context.Context, filter ItemsQuery) ([]models.ServiceChecklistItem, error)
	CountItems(ctx context.Context, serviceID uuid.UUID) (int64, error)
	HasItems(ctx context.Context, serviceID uuid.UUID) (bool, error)
	FindItem(ctx context.Context, id uuid.UUID) (*models.ServiceChecklistItem, error)
	CreateItem(ctx context.Context, item *models.ServiceChecklistItem) error
	SaveItem(ctx context.Context, item *models.ServiceChecklistItem) error
	ToggleItemActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (bool, error)

	ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error)
	FindTemplate(ctx context.Context, id uuid.UUID) (*models.ChecklistTemplate, error)
	FindTemplateByService(ctx context.Context, serviceID uuid.UUID) (*models.ChecklistTemplate, error)
	CreateTemplate(ctx context.Context, template *models.ChecklistTemplate) error
	UpdateTemplate(ctx context.Context, template *models.ChecklistTemplate) error
	ReplaceTemplateItems(ctx context.Context, templateID uuid.UUID, items []models.ChecklistTemplateItem) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a checklist repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ServiceExists(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MaintenanceService{}).
		Where("id = ?", serviceID).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) ListItems(ctx context.Context, filter ItemsQuery) ([]models.ServiceChecklistItem, error) {
	items := []models.ServiceChecklistItem{}
	query := r.db.WithContext(ctx).Where("service_id = ?", filter.ServiceID)
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Order("step_order ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repositoryImpl) CountItems(ctx context.Context, serviceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ServiceChecklistItem{}).
		Where("service_id = ?", serviceID).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) HasItems(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ServiceChecklistItem{}).
		Where("service_id = ?", serviceID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (r *repositoryImpl) FindItem(ctx context.Context, id uuid.UUID) (*models.ServiceChecklistItem, error) {
	var item models.ServiceChecklistItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) CreateItem(ctx context.Context, item *models.ServiceChecklistItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repositoryImpl) SaveItem(ctx context.Context, item *models.ServiceChecklistItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repositoryImpl) ToggleItemActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ServiceChecklistItem{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"is_active":  gorm.Expr("NOT is_active"),
			"updated_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repositoryImpl) DeleteItem(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ServiceChecklistItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *repositoryImpl) withItems() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	})
}

func (r *repositoryImpl) ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error) {
	templates := []models.ChecklistTemplate{}
	if err := r.withItems().WithContext(ctx).Order("created_at ASC, id ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repositoryImpl) FindTemplate(ctx context.Context, id uuid.UUID) (*models.ChecklistTemplate, error) {
	var template models.ChecklistTemplate
	if err := r.withItems().WithContext(ctx).Where("id = ?", id).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// FindTemplateByService returns nil without error when the service has no template.
func (r *repositoryImpl) FindTemplateByService(ctx context.Context, serviceID uuid.UUID) (*models.ChecklistTemplate, error) {
	templates := []models.ChecklistTemplate{}
	err := r.withItems().WithContext(ctx).
		Where("service_id = ?", serviceID).
		Limit(1).
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, nil
	}
	return &templates[0], nil
}

func (r *repositoryImpl) CreateTemplate(ctx context.Context, template *models.ChecklistTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *repositoryImpl) UpdateTemplate(ctx context.Context, template *models.ChecklistTemplate) error {
	return r.db.WithContext(ctx).
		Model(&models.ChecklistTemplate{}).
		Where("id = ?", template.ID).
		Omit(clause.Associations).
		Updates(map[string]any{
			"name":        template.Name,
			"description": template.Description,
			"service_id":  template.ServiceID,
		}).Error
}

func (r *repositoryImpl) ReplaceTemplateItems(ctx context.Context, templateID uuid.UUID, items []models.ChecklistTemplateItem) error {
	if err := r.db.WithContext(ctx).Where("template_id = ?", templateID).Delete(&models.ChecklistTemplateItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].TemplateID = templateID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repositoryImpl) DeleteTemplate(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.db.WithContext(ctx).Where("template_id = ?", id).Delete(&models.ChecklistTemplateItem{}).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ChecklistTemplate{})
	return res.RowsAffected > 0, res.Error
}
