package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/apexev/apexev-backend/pkg/db/models"
	"github.com/apexev/apexev-backend/pkg/enums"
)

// CreateUser inserts an active user with the given role.
func CreateUser(t testing.TB, db *gorm.DB, fullName, email string, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{FullName: fullName, Email: email, Role: role, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateVehicle inserts a vehicle owned by customerID.
func CreateVehicle(t testing.TB, db *gorm.DB, customerID uuid.UUID, brand, model string, year int) *models.Vehicle {
	t.Helper()
	vehicle := &models.Vehicle{
		CustomerID:       customerID,
		LicensePlate:     fmt.Sprintf("51A-%s", uuid.NewString()[:8]),
		Brand:            brand,
		Model:            model,
		YearManufactured: &year,
	}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	return vehicle
}

// CreateService inserts an active maintenance service.
func CreateService(t testing.TB, db *gorm.DB, name string) *models.MaintenanceService {
	t.Helper()
	svc := &models.MaintenanceService{Name: name, IsActive: true}
	if err := db.Create(svc).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc
}
