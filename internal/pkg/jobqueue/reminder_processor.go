package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fredsterzcode/motalert/app/models"
	"github.com/fredsterzcode/motalert/app/repository"
	"github.com/fredsterzcode/motalert/internal/pkg/billing"
	"github.com/fredsterzcode/motalert/internal/pkg/database"
	"github.com/fredsterzcode/motalert/internal/pkg/entitlements"
	"github.com/fredsterzcode/motalert/internal/pkg/mail"
	"github.com/fredsterzcode/motalert/internal/pkg/motapi"
)

var (
	reminderMailer mail.Mailer   = mail.NewSMTPMailer()
	motClient      motapi.Client = motapi.NewStubClient()
)

// SetMailer swaps the mailer used for reminder emails. Used by tests.
func SetMailer(m mail.Mailer) {
	reminderMailer = m
}

// SetMOTClient swaps the MOT lookup client. Used by tests.
func SetMOTClient(c motapi.Client) {
	motClient = c
}

// processMOTReminderJob sends one reminder email for a vehicle whose MOT is
// due soon. The subscription gate is re-checked at send time so a lapse
// between scan and send never produces a mail the user no longer pays for.
func (q *Queue) processMOTReminderJob(ctx context.Context, job *Job) error {
	payload, err := MOTReminderJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid MOT reminder payload: %w", err)
	}

	factory := repository.NewFactoryFromDatabase()

	vehicle, err := factory.GetVehicleRepository().GetByID(payload.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Vehicle was removed between scan and send; nothing to do.
			log.Infof("[Reminder] Vehicle %d gone, skipping reminder", payload.VehicleID)
			return nil
		}
		return fmt.Errorf("vehicle lookup failed: %w", err)
	}
	if vehicle.MOTDue == nil {
		log.Infof("[Reminder] Vehicle %s has no due date, skipping", vehicle.Registration)
		return nil
	}

	user, err := factory.GetUserRepository().GetByID(payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Infof("[Reminder] User %d gone, skipping reminder", payload.UserID)
			return nil
		}
		return fmt.Errorf("user lookup failed: %w", err)
	}

	sub, err := billing.NewServiceFromDB(database.GetDB()).GetSubscription(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("subscription lookup failed: %w", err)
	}
	if !entitlements.CanReceiveNotifications(sub) {
		log.Infof("[Reminder] User %d not entitled to notifications (status %s), skipping", user.ID, entitlements.StatusText(sub))
		return nil
	}

	subject, body := buildReminderEmail(user, vehicle)
	if err := reminderMailer.Send(user.Email, subject, body); err != nil {
		return fmt.Errorf("reminder mail failed: %w", err)
	}

	now := time.Now()
	vehicle.ReminderSentAt = &now
	if err := factory.GetVehicleRepository().Update(vehicle); err != nil {
		return fmt.Errorf("failed to record reminder send: %w", err)
	}

	log.Infof("[Reminder] Sent MOT reminder for %s to user %d", vehicle.Registration, user.ID)
	return nil
}

// processMOTRefreshJob re-fetches MOT data for a vehicle and stores the
// latest due date.
func (q *Queue) processMOTRefreshJob(ctx context.Context, job *Job) error {
	payload, err := MOTRefreshJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid MOT refresh payload: %w", err)
	}

	vehicleRepo := repository.NewFactoryFromDatabase().GetVehicleRepository()

	vehicle, err := vehicleRepo.GetByID(payload.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("vehicle lookup failed: %w", err)
	}

	info, err := motClient.Lookup(ctx, vehicle.Registration)
	if err != nil {
		return fmt.Errorf("MOT lookup failed for %s: %w", vehicle.Registration, err)
	}

	vehicle.Make = info.Make
	vehicle.Model = info.Model
	vehicle.Colour = info.Colour
	vehicle.FuelType = info.FuelType
	vehicle.MOTDue = &info.MOTDue
	vehicle.LastMOT = info.LastMOT

	if err := vehicleRepo.Update(vehicle); err != nil {
		return fmt.Errorf("failed to store refreshed MOT data: %w", err)
	}

	log.Infof("[Reminder] Refreshed MOT data for %s", vehicle.Registration)
	return nil
}

func buildReminderEmail(user *models.User, vehicle *models.Vehicle) (string, string) {
	days := int(time.Until(*vehicle.MOTDue).Hours() / 24)
	subject := fmt.Sprintf("MOT due soon for %s", vehicle.Registration)
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>The MOT for your %s %s (%s) is due on <strong>%s</strong> - that's %d days away.</p>"+
			"<p>Book your test in good time to stay legal on the road.</p>"+
			"<p>MOT Alert</p>",
		user.Name, vehicle.Make, vehicle.Model, vehicle.Registration,
		vehicle.MOTDue.Format("2 January 2006"), days,
	)
	return subject, body
}
