package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/apexev/apexev-backend/pkg/db/models"
)

// NotificationDTO is the API shape of a notification.
type NotificationDTO struct {
	ID             uuid.UUID  `json:"id"`
	Message        string     `json:"message"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	RelatedOrderID *uuid.UUID `json:"relatedOrderId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// UnreadCountDTO is returned by the unread-count endpoint.
type UnreadCountDTO struct {
	UnreadCount int64 `json:"unreadCount"`
}

// SendParams describes a notification to deliver to a single user.
type SendParams struct {
	UserID         uuid.UUID
	Message        string
	RelatedOrderID *uuid.UUID
}

func fromModel(m models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:             m.ID,
		Message:        m.Message,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		RelatedOrderID: m.RelatedOrderID,
		CreatedAt:      m.CreatedAt,
	}
}

func fromModels(rows []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out
}

// TemplateDTO is the API shape of a notification template.
type TemplateDTO struct {
	ID          uuid.UUID `json:"id"`
	TemplateKey string    `json:"templateKey"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

func templateFromModel(m models.NotificationTemplate) TemplateDTO {
	return TemplateDTO{
		ID:          m.ID,
		TemplateKey: m.TemplateKey,
		Subject:     m.Subject,
		Body:        m.Body,
		CreatedAt:   m.CreatedAt,
	}
}
