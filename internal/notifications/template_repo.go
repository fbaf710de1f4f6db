package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/apexev/apexev-backend/pkg/db/models"
)

// TemplateRepository persists admin-managed notification templates.
type TemplateRepository interface {
	List(ctx context.Context) ([]models.NotificationTemplate, error)
	Find(ctx context.Context, id uuid.UUID) (*models.NotificationTemplate, error)
	FindByKey(ctx context.Context, key string) (*models.NotificationTemplate, error)
	Create(ctx context.Context, template *models.NotificationTemplate) error
	Update(ctx context.Context, template *models.NotificationTemplate) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository returns a template repository bound to the provided database.
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) List(ctx context.Context) ([]models.NotificationTemplate, error) {
	templates := []models.NotificationTemplate{}
	if err := r.db.WithContext(ctx).Order("template_key ASC, id ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) Find(ctx context.Context, id uuid.UUID) (*models.NotificationTemplate, error) {
	var template models.NotificationTemplate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) FindByKey(ctx context.Context, key string) (*models.NotificationTemplate, error) {
	var template models.NotificationTemplate
	if err := r.db.WithContext(ctx).Where("template_key = ?", key).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) Create(ctx context.Context, template *models.NotificationTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *templateRepository) Update(ctx context.Context, template *models.NotificationTemplate) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.NotificationTemplate{}).
		Where("id = ?", template.ID).
		Updates(map[string]any{
			"template_key": template.TemplateKey,
			"subject":      template.Subject,
			"body":         template.Body,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.NotificationTemplate{})
	return res.RowsAffected > 0, res.Error
}
