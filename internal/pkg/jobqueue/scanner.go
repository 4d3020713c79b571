package jobqueue

import (
	"strconv"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fredsterzcode/motalert/app/repository"
	"github.com/fredsterzcode/motalert/internal/pkg/env"
)

// DefaultReminderLeadDays is how far ahead of the MOT due date reminders go
// out when MOT_REMINDER_LEAD_DAYS is not set.
const DefaultReminderLeadDays = 30

// ReminderLeadDays returns the configured reminder window in days.
func ReminderLeadDays() int {
	raw := env.GetEnv("MOT_REMINDER_LEAD_DAYS", "")
	if raw == "" {
		return DefaultReminderLeadDays
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return DefaultReminderLeadDays
	}
	return days
}

// scanDueVehiclesOnce finds vehicles whose MOT falls due inside the reminder
// window and enqueues one reminder job per vehicle. Entitlement is checked
// at send time, not here, so the scan stays a single cheap query.
func (q *Queue) scanDueVehiclesOnce() error {
	leadDays := ReminderLeadDays()

	vehicles, err := repository.NewFactoryFromDatabase().GetVehicleRepository().GetDueWithin(leadDays)
	if err != nil {
		return err
	}
	if len(vehicles) == 0 {
		return nil
	}

	log.Infof("[Reminder] Scan found %d vehicles due within %d days", len(vehicles), leadDays)

	for _, vehicle := range vehicles {
		payload := MOTReminderJobPayload{
			VehicleID:    vehicle.ID,
			VehicleUUID:  vehicle.UUID,
			UserID:       vehicle.UserID,
			Registration: vehicle.Registration,
		}
		if _, err := q.EnqueueJob(JobTypeMOTReminder, payload.ToMap()); err != nil {
			log.Errorf("[Reminder] Failed to enqueue reminder for vehicle %d: %v", vehicle.ID, err)
		}
	}

	return nil
}
