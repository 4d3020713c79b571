package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fredsterzcode/motalert/app/models"
	"github.com/fredsterzcode/motalert/app/repository"
	"github.com/fredsterzcode/motalert/internal/pkg/motapi"
	"github.com/fredsterzcode/motalert/internal/pkg/usercontext"
)

var motClient motapi.Client

// InitializeVehicleController injects the MOT lookup client.
func InitializeVehicleController(client motapi.Client) {
	motClient = client
}

func getMOTClient() motapi.Client {
	if motClient == nil {
		motClient = motapi.NewStubClient()
	}
	return motClient
}

type addVehicleRequest struct {
	Registration string `json:"registration"`
}

// HandleAddVehicle registers a vehicle for the session user. The plate is
// looked up against the MOT service so the record carries the vehicle
// details and next due date from the start.
func HandleAddVehicle(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req addVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request_body"})
	}

	vehicle := models.Vehicle{
		UserID:       userCtx.UserID,
		Registration: models.NormalizeRegistration(req.Registration),
	}
	if err := vehicle.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_registration"})
	}

	vehicleRepo := repository.NewFactoryFromDatabase().GetVehicleRepository()

	existing, err := vehicleRepo.GetByUserIDAndRegistration(userCtx.UserID, vehicle.Registration)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[Vehicle] Lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	if existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "vehicle_already_tracked"})
	}

	info, err := getMOTClient().Lookup(c.Context(), vehicle.Registration)
	if err != nil {
		log.Warnf("[Vehicle] MOT lookup failed for %s: %v", vehicle.Registration, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "mot_lookup_failed"})
	}

	vehicle.Make = info.Make
	vehicle.Model = info.Model
	vehicle.Colour = info.Colour
	vehicle.FuelType = info.FuelType
	vehicle.MOTDue = &info.MOTDue
	vehicle.LastMOT = info.LastMOT

	if err := vehicleRepo.Create(&vehicle); err != nil {
		log.Errorf("[Vehicle] Create failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "vehicle_create_failed"})
	}

	log.Infof("[Vehicle] User %d now tracks %s", userCtx.UserID, vehicle.Registration)
	return c.Status(fiber.StatusCreated).JSON(vehicle)
}

// HandleListVehicles returns the session user's tracked vehicles.
func HandleListVehicles(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	vehicles, err := repository.NewFactoryFromDatabase().GetVehicleRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		log.Errorf("[Vehicle] List failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"vehicles": vehicles})
}

// HandleDeleteVehicle removes a tracked vehicle by its public UUID. Only the
// owner can delete it.
func HandleDeleteVehicle(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	vehicleUUID := c.Params("uuid")

	vehicleRepo := repository.NewFactoryFromDatabase().GetVehicleRepository()

	vehicle, err := vehicleRepo.GetByUUID(vehicleUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "vehicle_not_found"})
		}
		log.Errorf("[Vehicle] Lookup failed for %s: %v", vehicleUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	if vehicle.UserID != userCtx.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not_your_vehicle"})
	}

	if err := vehicleRepo.Delete(vehicle.ID); err != nil {
		log.Errorf("[Vehicle] Delete failed for %s: %v", vehicleUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "vehicle_delete_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"deleted": true})
}
