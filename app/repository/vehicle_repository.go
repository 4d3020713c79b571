package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fredsterzcode/motalert/app/models"
)

// vehicleRepository implements the VehicleRepository interface
type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository creates a new vehicle repository instance
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

// Create creates a new vehicle in the database
func (r *vehicleRepository) Create(vehicle *models.Vehicle) error {
	return r.db.Create(vehicle).Error
}

// GetByID retrieves a vehicle by its ID
func (r *vehicleRepository) GetByID(id uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.First(&vehicle, id).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// GetByUUID retrieves a vehicle by its public UUID
func (r *vehicleRepository) GetByUUID(uuid string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.Where("uuid = ?", uuid).First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// GetByUserID retrieves all vehicles belonging to a user, newest first
func (r *vehicleRepository) GetByUserID(userID uint) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&vehicles).Error
	return vehicles, err
}

// GetByUserIDAndRegistration finds a user's vehicle by normalized plate
func (r *vehicleRepository) GetByUserIDAndRegistration(userID uint, registration string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.Where("user_id = ? AND registration = ?", userID, models.NormalizeRegistration(registration)).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// GetDueWithin returns vehicles whose MOT falls due within the given number
// of days and that have not had a reminder sent for the current window.
func (r *vehicleRepository) GetDueWithin(days int) ([]models.Vehicle, error) {
	now := time.Now()
	horizon := now.AddDate(0, 0, days)
	var vehicles []models.Vehicle
	err := r.db.
		Where("mot_due IS NOT NULL AND mot_due BETWEEN ? AND ?", now, horizon).
		Where("reminder_sent_at IS NULL OR reminder_sent_at < ?", now.AddDate(0, 0, -days)).
		Find(&vehicles).Error
	return vehicles, err
}

// Update updates an existing vehicle
func (r *vehicleRepository) Update(vehicle *models.Vehicle) error {
	return r.db.Save(vehicle).Error
}

// Delete soft-deletes a vehicle by ID
func (r *vehicleRepository) Delete(id uint) error {
	return r.db.Delete(&models.Vehicle{}, id).Error
}

// CountByUserID returns the number of vehicles a user tracks
func (r *vehicleRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Vehicle{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
