package repository

import (
	"github.com/fredsterzcode/motalert/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// VehicleRepository defines the interface for vehicle-related database operations
type VehicleRepository interface {
	Create(vehicle *models.Vehicle) error
	GetByID(id uint) (*models.Vehicle, error)
	GetByUUID(uuid string) (*models.Vehicle, error)
	GetByUserID(userID uint) ([]models.Vehicle, error)
	GetByUserIDAndRegistration(userID uint, registration string) (*models.Vehicle, error)
	GetDueWithin(days int) ([]models.Vehicle, error)
	Update(vehicle *models.Vehicle) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}
