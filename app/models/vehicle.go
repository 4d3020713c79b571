package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle is a tracked vehicle with its next MOT due date. Vehicle details
// come from the MOT lookup at creation time and are refreshed by the
// reminder pipeline.
type Vehicle struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UUID           string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	Registration   string         `gorm:"type:varchar(16);not null;index" json:"registration" validate:"required,min=2,max=10,alphanum"`
	Make           string         `gorm:"type:varchar(100)" json:"make"`
	Model          string         `gorm:"type:varchar(100)" json:"model"`
	Colour         string         `gorm:"type:varchar(50)" json:"colour"`
	FuelType       string         `gorm:"type:varchar(50)" json:"fuel_type"`
	MOTDue         *time.Time     `gorm:"type:timestamp;default:null;index" json:"mot_due,omitempty"`
	LastMOT        *time.Time     `gorm:"type:timestamp;default:null" json:"last_mot,omitempty"`
	ReminderSentAt *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Vehicle) Validate() error {
	val := validator.New()

	return val.Struct(v)
}

// BeforeCreate normalizes the registration and assigns the public UUID.
func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	v.Registration = NormalizeRegistration(v.Registration)
	if v.UUID == "" {
		v.UUID = uuid.New().String()
	}
	return nil
}

// NormalizeRegistration strips whitespace and uppercases a plate so the
// same vehicle always stores identically.
func NormalizeRegistration(reg string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(reg), " ", ""))
}
