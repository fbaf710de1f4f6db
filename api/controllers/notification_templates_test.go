package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/apexev/apexev-backend/internal/notifications"
	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
)

type testTemplateService struct {
	notifications.TemplateService
	createFn func(ctx context.Context, input notifications.TemplateInput) (*notifications.TemplateDTO, error)
	updateFn func(ctx context.Context, id uuid.UUID, input notifications.TemplateInput) (*notifications.TemplateDTO, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*notifications.TemplateDTO, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (s *testTemplateService) List(context.Context) ([]notifications.TemplateDTO, error) {
	return []notifications.TemplateDTO{}, nil
}

func (s *testTemplateService) Get(ctx context.Context, id uuid.UUID) (*notifications.TemplateDTO, error) {
	return s.getFn(ctx, id)
}

func (s *testTemplateService) Create(ctx context.Context, input notifications.TemplateInput) (*notifications.TemplateDTO, error) {
	return s.createFn(ctx, input)
}

func (s *testTemplateService) Update(ctx context.Context, id uuid.UUID, input notifications.TemplateInput) (*notifications.TemplateDTO, error) {
	return s.updateFn(ctx, id, input)
}

func (s *testTemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func TestCreateNotificationTemplate(t *testing.T) {
	var got notifications.TemplateInput
	svc := &testTemplateService{createFn: func(_ context.Context, input notifications.TemplateInput) (*notifications.TemplateDTO, error) {
		got = input
		return &notifications.TemplateDTO{ID: uuid.New(), TemplateKey: input.TemplateKey, Subject: input.Subject, Body: input.Body}, nil
	}}
	body := `{"templateKey":"APPOINTMENT_REMINDER","subject":"Nhắc nhở","body":"Xin chào {{fullName}}"}`
	req := httptest.NewRequest(http.MethodPost, "/api/notification-templates", strings.NewReader(body))
	resp := httptest.NewRecorder()
	CreateNotificationTemplate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.TemplateKey != "APPOINTMENT_REMINDER" || got.Subject != "Nhắc nhở" {
		t.Fatalf("unexpected input %+v", got)
	}
	var envelope struct {
		Data notifications.TemplateDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Body != "Xin chào {{fullName}}" {
		t.Fatalf("unexpected body %q", envelope.Data.Body)
	}
}

func TestCreateNotificationTemplateRequiresFields(t *testing.T) {
	svc := &testTemplateService{createFn: func(context.Context, notifications.TemplateInput) (*notifications.TemplateDTO, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/notification-templates", strings.NewReader(`{"templateKey":"X","subject":""}`))
	resp := httptest.NewRecorder()
	CreateNotificationTemplate(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateNotificationTemplateDuplicateKey(t *testing.T) {
	svc := &testTemplateService{createFn: func(context.Context, notifications.TemplateInput) (*notifications.TemplateDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "template key already exists")
	}}
	body := `{"templateKey":"WELCOME","subject":"Hi","body":"Welcome"}`
	req := httptest.NewRequest(http.MethodPost, "/api/notification-templates", strings.NewReader(body))
	resp := httptest.NewRecorder()
	CreateNotificationTemplate(svc, testLogger())(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestUpdateNotificationTemplateNotFound(t *testing.T) {
	templateID := uuid.New()
	svc := &testTemplateService{updateFn: func(_ context.Context, id uuid.UUID, _ notifications.TemplateInput) (*notifications.TemplateDTO, error) {
		if id != templateID {
			t.Fatalf("unexpected template %s", id)
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification template not found")
	}}
	body := `{"templateKey":"WELCOME","subject":"Hi","body":"Welcome"}`
	req := httptest.NewRequest(http.MethodPut, "/api/notification-templates/"+templateID.String(), strings.NewReader(body))
	req = addRouteParam(req, "templateId", templateID.String())
	resp := httptest.NewRecorder()
	UpdateNotificationTemplate(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetNotificationTemplateInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/notification-templates/abc", nil)
	req = addRouteParam(req, "templateId", "abc")
	resp := httptest.NewRecorder()
	GetNotificationTemplate(&testTemplateService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDeleteNotificationTemplate(t *testing.T) {
	templateID := uuid.New()
	deleted := false
	svc := &testTemplateService{deleteFn: func(_ context.Context, id uuid.UUID) error {
		deleted = id == templateID
		return nil
	}}
	req := httptest.NewRequest(http.MethodDelete, "/api/notification-templates/"+templateID.String(), nil)
	req = addRouteParam(req, "templateId", templateID.String())
	resp := httptest.NewRecorder()
	DeleteNotificationTemplate(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if !deleted {
		t.Fatal("expected template deleted")
	}
}

func TestListNotificationTemplatesReturnsEmptyArray(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/notification-templates", nil)
	resp := httptest.NewRecorder()
	ListNotificationTemplates(&testTemplateService{}, testLogger())(resp, req)
	if body := strings.TrimSpace(resp.Body.String()); body != `{"data":[]}` {
		t.Fatalf("unexpected body %s", body)
	}
}
