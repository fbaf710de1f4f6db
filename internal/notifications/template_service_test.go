package notifications

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexev/apexev-backend/pkg/db/dbtest"
	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
)

func newTemplateService(t *testing.T) TemplateService {
	t.Helper()
	svc, err := NewTemplateService(NewTemplateRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func requireTemplateCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), err.Error())
}

func TestNewTemplateServiceRequiresRepository(t *testing.T) {
	_, err := NewTemplateService(nil)
	require.Error(t, err)
}

func TestTemplateService_CreateGetAndList(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, TemplateInput{
		TemplateKey: "  appointment_reminder ",
		Subject:     " Nhắc nhở cuộc hẹn ",
		Body:        "Xin chào {{fullName}}",
	})
	require.NoError(t, err)
	assert.Equal(t, TemplateKeyAppointmentReminder, created.TemplateKey)
	assert.Equal(t, "Nhắc nhở cuộc hẹn", created.Subject)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = svc.Create(ctx, TemplateInput{TemplateKey: "SERVICE_COMPLETED", Subject: "Done", Body: "Your car is ready"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Body, got.Body)

	byKey, err := svc.GetByKey(ctx, "Appointment_Reminder")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byKey.ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, TemplateKeyAppointmentReminder, all[0].TemplateKey)
	assert.Equal(t, "SERVICE_COMPLETED", all[1].TemplateKey)
}

func TestTemplateService_DuplicateKeyIsConflict(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, TemplateInput{TemplateKey: "WELCOME", Subject: "Hi", Body: "Welcome"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, TemplateInput{TemplateKey: "welcome", Subject: "Hi again", Body: "Welcome"})
	requireTemplateCode(t, err, pkgerrors.CodeConflict)

	other, err := svc.Create(ctx, TemplateInput{TemplateKey: "GOODBYE", Subject: "Bye", Body: "Bye"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, other.ID, TemplateInput{TemplateKey: first.TemplateKey, Subject: "Bye", Body: "Bye"})
	requireTemplateCode(t, err, pkgerrors.CodeConflict)
}

func TestTemplateService_UpdateAndDelete(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, TemplateInput{TemplateKey: "PICKUP", Subject: "Ready", Body: "Come by"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, TemplateInput{TemplateKey: "PICKUP", Subject: "Ready now", Body: "Come by today"})
	require.NoError(t, err)
	assert.Equal(t, "Ready now", updated.Subject)
	assert.Equal(t, "Come by today", updated.Body)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	requireTemplateCode(t, err, pkgerrors.CodeNotFound)
	requireTemplateCode(t, svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound)
}

func TestTemplateService_UnknownIDs(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, uuid.New())
	requireTemplateCode(t, err, pkgerrors.CodeNotFound)
	_, err = svc.GetByKey(ctx, "MISSING")
	requireTemplateCode(t, err, pkgerrors.CodeNotFound)
	_, err = svc.Update(ctx, uuid.New(), TemplateInput{TemplateKey: "X", Subject: "s", Body: "b"})
	requireTemplateCode(t, err, pkgerrors.CodeNotFound)
}

func TestTemplateService_Validation(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	cases := map[string]TemplateInput{
		"blank key":     {TemplateKey: "  ", Subject: "s", Body: "b"},
		"blank subject": {TemplateKey: "K", Subject: " ", Body: "b"},
		"blank body":    {TemplateKey: "K", Subject: "s", Body: ""},
		"long key":      {TemplateKey: strings.Repeat("K", maxTemplateKeyLength+1), Subject: "s", Body: "b"},
		"long subject":  {TemplateKey: "K", Subject: strings.Repeat("ệ", maxSubjectLength+1), Body: "b"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, input)
			requireTemplateCode(t, err, pkgerrors.CodeValidation)
		})
	}

	_, err := svc.Create(ctx, TemplateInput{TemplateKey: "K", Subject: strings.Repeat("ệ", maxSubjectLength), Body: "b"})
	require.NoError(t, err, "subject length counts characters")

	_, err = svc.Get(ctx, uuid.Nil)
	requireTemplateCode(t, err, pkgerrors.CodeValidation)
	_, err = svc.GetByKey(ctx, " ")
	requireTemplateCode(t, err, pkgerrors.CodeValidation)
}
