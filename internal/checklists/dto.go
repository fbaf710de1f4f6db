package checklists

import (
	"time"

	"github.com/google/uuid"

	"github.com/apexev/apexev-backend/pkg/db/models"
)

// ItemDTO is the API view of a service checklist step.
type ItemDTO struct {
	ID                uuid.UUID `json:"id"`
	ServiceID         uuid.UUID `json:"serviceId"`
	ItemName          string    `json:"itemName"`
	ItemNameEn        *string   `json:"itemNameEn,omitempty"`
	ItemDescription   *string   `json:"itemDescription,omitempty"`
	ItemDescriptionEn *string   `json:"itemDescriptionEn,omitempty"`
	StepOrder         int       `json:"stepOrder"`
	Category          *string   `json:"category,omitempty"`
	EstimatedMinutes  *int      `json:"estimatedMinutes,omitempty"`
	IsRequired        bool      `json:"isRequired"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TemplateItemDTO is one line of a checklist template.
type TemplateItemDTO struct {
	ID          uuid.UUID `json:"id"`
	Position    int       `json:"position"`
	Name        string    `json:"itemName"`
	Description *string   `json:"description,omitempty"`
}

// TemplateDTO is the API view of a checklist template.
type TemplateDTO struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"templateName"`
	Description *string           `json:"description,omitempty"`
	ServiceID   *uuid.UUID        `json:"serviceId,omitempty"`
	Items       []TemplateItemDTO `json:"items"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// CountDTO reports how many checklist items a service has.
type CountDTO struct {
	ServiceID  uuid.UUID `json:"serviceId"`
	TotalItems int64     `json:"totalItems"`
}

// ExistsDTO reports whether a service has any checklist items.
type ExistsDTO struct {
	ServiceID uuid.UUID `json:"serviceId"`
	HasItems  bool      `json:"hasItems"`
}

func itemFromModel(m models.ServiceChecklistItem) ItemDTO {
	return ItemDTO{
		ID:                m.ID,
		ServiceID:         m.ServiceID,
		ItemName:          m.ItemName,
		ItemNameEn:        m.ItemNameEn,
		ItemDescription:   m.ItemDescription,
		ItemDescriptionEn: m.ItemDescriptionEn,
		StepOrder:         m.StepOrder,
		Category:          m.Category,
		EstimatedMinutes:  m.EstimatedMinutes,
		IsRequired:        m.IsRequired,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func itemsFromModels(rows []models.ServiceChecklistItem) []ItemDTO {
	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemFromModel(row))
	}
	return items
}

func templateFromModel(m models.ChecklistTemplate) TemplateDTO {
	items := make([]TemplateItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, TemplateItemDTO{
			ID:          item.ID,
			Position:    item.Position,
			Name:        item.Name,
			Description: item.Description,
		})
	}
	return TemplateDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		ServiceID:   m.ServiceID,
		Items:       items,
		CreatedAt:   m.CreatedAt,
	}
}
