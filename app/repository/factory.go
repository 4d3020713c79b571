package repository

import (
	"gorm.io/gorm"

	"github.com/fredsterzcode/motalert/internal/pkg/database"
)

// Factory provides centralized access to all repositories
type Factory struct {
	db *gorm.DB
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// NewFactoryFromDatabase creates a factory using the global database connection
func NewFactoryFromDatabase() *Factory {
	return NewFactory(database.GetDB())
}

// GetUserRepository returns a user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return NewUserRepository(f.db)
}

// GetVehicleRepository returns a vehicle repository instance
func (f *Factory) GetVehicleRepository() VehicleRepository {
	return NewVehicleRepository(f.db)
}
