package checklists

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/apexev/apexev-backend/pkg/db/dbtest"
	"github.com/apexev/apexev-backend/pkg/db/models"
)

func seedItem(t *testing.T, conn *gorm.DB, serviceID uuid.UUID, name string, step int, active bool, category *string) *models.ServiceChecklistItem {
	t.Helper()
	item := &models.ServiceChecklistItem{
		ServiceID:  serviceID,
		ItemName:   name,
		StepOrder:  step,
		Category:   category,
		IsRequired: true,
		IsActive:   active,
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func stepOrders(items []models.ServiceChecklistItem) []int {
	steps := make([]int, 0, len(items))
	for _, item := range items {
		steps = append(steps, item.StepOrder)
	}
	return steps
}

func TestListItemsOrdersByStepRegardlessOfInsertOrder(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	svc := dbtest.CreateService(t, conn, "Battery check")
	other := dbtest.CreateService(t, conn, "Tyre rotation")

	seedItem(t, conn, svc.ID, "Check coolant", 3, true, nil)
	seedItem(t, conn, svc.ID, "Visual inspection", 1, true, nil)
	seedItem(t, conn, svc.ID, "Measure voltage", 2, true, nil)
	seedItem(t, conn, other.ID, "Rotate", 1, true, nil)

	items, err := repo.ListItems(ctx, ItemsQuery{ServiceID: svc.ID})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, stepOrders(items))
}

func TestListItemsFiltersActiveAndCategory(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	svc := dbtest.CreateService(t, conn, "Battery check")
	electrical := "electrical"
	cooling := "cooling"

	seedItem(t, conn, svc.ID, "Measure voltage", 1, true, &electrical)
	seedItem(t, conn, svc.ID, "Old step", 2, false, &electrical)
	seedItem(t, conn, svc.ID, "Check coolant", 3, true, &cooling)

	all, err := repo.ListItems(ctx, ItemsQuery{ServiceID: svc.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := repo.ListItems(ctx, ItemsQuery{ServiceID: svc.ID, ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, stepOrders(active))

	byCategory, err := repo.ListItems(ctx, ItemsQuery{ServiceID: svc.ID, Category: " electrical "})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, stepOrders(byCategory))

	count, err := repo.CountItems(ctx, svc.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count, "count includes inactive items")

	has, err := repo.HasItems(ctx, svc.ID)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasItems(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, has)

	empty, err := repo.ListItems(ctx, ItemsQuery{ServiceID: uuid.New()})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestToggleItemActiveFlipsFlag(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	svc := dbtest.CreateService(t, conn, "Battery check")
	item := seedItem(t, conn, svc.ID, "Measure voltage", 1, true, nil)

	ok, err := repo.ToggleItemActive(ctx, item.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.FindItem(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	ok, err = repo.ToggleItemActive(ctx, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindTemplateByServiceReturnsOrderedItems(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	svc := dbtest.CreateService(t, conn, "Battery check")
	bare := dbtest.CreateService(t, conn, "Car wash")

	template := &models.ChecklistTemplate{Name: "Battery", ServiceID: &svc.ID}
	require.NoError(t, repo.CreateTemplate(ctx, template))
	require.NoError(t, repo.ReplaceTemplateItems(ctx, template.ID, []models.ChecklistTemplateItem{
		{Position: 2, Name: "Voltage"},
		{Position: 1, Name: "Terminals"},
	}))

	found, err := repo.FindTemplateByService(ctx, svc.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Terminals", found.Items[0].Name)
	assert.Equal(t, "Voltage", found.Items[1].Name)

	none, err := repo.FindTemplateByService(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	deleted, err := repo.DeleteTemplate(ctx, template.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var remaining int64
	require.NoError(t, conn.Model(&models.ChecklistTemplateItem{}).Where("template_id = ?", template.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}
