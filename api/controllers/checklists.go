package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/apexev/apexev-backend/api/responses"
	"github.com/apexev/apexev-backend/api/validators"
	"github.com/apexev/apexev-backend/internal/checklists"
	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
	"github.com/apexev/apexev-backend/pkg/logger"
)

const maxCategoryLength = 64

type createChecklistItemRequest struct {
	ServiceID         string  `json:"serviceId" validate:"required,uuid"`
	ItemName          string  `json:"itemName" validate:"required,max=255"`
	ItemNameEn        *string `json:"itemNameEn,omitempty" validate:"omitempty,max=255"`
	ItemDescription   *string `json:"itemDescription,omitempty"`
	ItemDescriptionEn *string `json:"itemDescriptionEn,omitempty"`
	StepOrder         int     `json:"stepOrder" validate:"required,min=1"`
	Category          *string `json:"category,omitempty" validate:"omitempty,max=64"`
	EstimatedMinutes  *int    `json:"estimatedMinutes,omitempty" validate:"omitempty,min=0"`
	IsRequired        *bool   `json:"isRequired,omitempty"`
	IsActive          *bool   `json:"isActive,omitempty"`
}

type updateChecklistItemRequest struct {
	ItemName          *string `json:"itemName,omitempty" validate:"omitempty,max=255"`
	ItemNameEn        *string `json:"itemNameEn,omitempty" validate:"omitempty,max=255"`
	ItemDescription   *string `json:"itemDescription,omitempty"`
	ItemDescriptionEn *string `json:"itemDescriptionEn,omitempty"`
	StepOrder         *int    `json:"stepOrder,omitempty" validate:"omitempty,min=1"`
	Category          *string `json:"category,omitempty" validate:"omitempty,max=64"`
	EstimatedMinutes  *int    `json:"estimatedMinutes,omitempty" validate:"omitempty,min=0"`
	IsRequired        *bool   `json:"isRequired,omitempty"`
	IsActive          *bool   `json:"isActive,omitempty"`
}

type checklistTemplateItemRequest struct {
	ItemName    string  `json:"itemName" validate:"required,max=255"`
	Description *string `json:"description,omitempty"`
}

type checklistTemplateRequest struct {
	TemplateName string                         `json:"templateName" validate:"required,max=255"`
	Description  *string                        `json:"description,omitempty"`
	ServiceID    *string                        `json:"serviceId,omitempty" validate:"omitempty,uuid"`
	Items        []checklistTemplateItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ListServiceChecklistItems returns a service's checklist ordered by step.
// Supports ?activeOnly=true and ?category=x.
func ListServiceChecklistItems(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly, err := validators.ParseQueryBool(r, "activeOnly", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category := validators.SanitizeString(r.URL.Query().Get("category"), maxCategoryLength)
		writeChecklistItems(w, r, svc, logg, activeOnly, category)
	}
}

// ListActiveServiceChecklistItems returns only active checklist items.
func ListActiveServiceChecklistItems(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeChecklistItems(w, r, svc, logg, true, "")
	}
}

// ListServiceChecklistItemsByCategory returns items in one category.
func ListServiceChecklistItemsByCategory(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := validators.SanitizeString(chi.URLParam(r, "category"), maxCategoryLength)
		if category == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category required"))
			return
		}
		writeChecklistItems(w, r, svc, logg, false, category)
	}
}

func writeChecklistItems(w http.ResponseWriter, r *http.Request, svc checklists.Service, logg *logger.Logger, activeOnly bool, category string) {
	serviceID, err := validators.ParseUUIDParam(r, "serviceId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	items, err := svc.ItemsForService(r.Context(), checklists.ItemsQuery{
		ServiceID:  serviceID,
		ActiveOnly: activeOnly,
		Category:   category,
	})
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, items)
}

// CountServiceChecklistItems reports the total number of items for a service.
func CountServiceChecklistItems(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		count, err := svc.CountItems(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checklists.CountDTO{ServiceID: serviceID, TotalItems: count})
	}
}

// ServiceHasChecklistItems reports whether a service has any checklist items.
func ServiceHasChecklistItems(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		has, err := svc.HasItems(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checklists.ExistsDTO{ServiceID: serviceID, HasItems: has})
	}
}

func GetChecklistItem(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func CreateChecklistItem(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createChecklistItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid serviceId"))
			return
		}
		item, err := svc.CreateItem(r.Context(), checklists.CreateItemInput{
			ServiceID:         serviceID,
			ItemName:          req.ItemName,
			ItemNameEn:        req.ItemNameEn,
			ItemDescription:   req.ItemDescription,
			ItemDescriptionEn: req.ItemDescriptionEn,
			StepOrder:         req.StepOrder,
			Category:          req.Category,
			EstimatedMinutes:  req.EstimatedMinutes,
			IsRequired:        req.IsRequired,
			IsActive:          req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UpdateChecklistItem(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateChecklistItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.UpdateItem(r.Context(), itemID, checklists.UpdateItemInput{
			ItemName:          req.ItemName,
			ItemNameEn:        req.ItemNameEn,
			ItemDescription:   req.ItemDescription,
			ItemDescriptionEn: req.ItemDescriptionEn,
			StepOrder:         req.StepOrder,
			Category:          req.Category,
			EstimatedMinutes:  req.EstimatedMinutes,
			IsRequired:        req.IsRequired,
			IsActive:          req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func DeleteChecklistItem(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteItem(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func ToggleChecklistItemActive(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.ToggleActive(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ChecklistTemplateForService returns the service's template or data: null when it has none.
func ChecklistTemplateForService(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		template, err := svc.TemplateForService(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if template == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, template)
	}
}

func ListChecklistTemplates(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := svc.ListTemplates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, templates)
	}
}

func GetChecklistTemplate(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID, err := validators.ParseUUIDParam(r, "templateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		template, err := svc.GetTemplate(r.Context(), templateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, template)
	}
}

func CreateChecklistTemplate(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, ok := decodeTemplateRequest(w, r, logg)
		if !ok {
			return
		}
		template, err := svc.CreateTemplate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, template)
	}
}

func UpdateChecklistTemplate(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID, err := validators.ParseUUIDParam(r, "templateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, ok := decodeTemplateRequest(w, r, logg)
		if !ok {
			return
		}
		template, err := svc.UpdateTemplate(r.Context(), templateID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, template)
	}
}

func DeleteChecklistTemplate(svc checklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID, err := validators.ParseUUIDParam(r, "templateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteTemplate(r.Context(), templateID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func decodeTemplateRequest(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (checklists.TemplateInput, bool) {
	var req checklistTemplateRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return checklists.TemplateInput{}, false
	}
	input := checklists.TemplateInput{
		Name:        req.TemplateName,
		Description: req.Description,
		Items:       make([]checklists.TemplateItemInput, 0, len(req.Items)),
	}
	if req.ServiceID != nil {
		serviceID, err := uuid.Parse(*req.ServiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid serviceId"))
			return checklists.TemplateInput{}, false
		}
		input.ServiceID = &serviceID
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, checklists.TemplateItemInput{Name: item.ItemName, Description: item.Description})
	}
	return input, true
}
