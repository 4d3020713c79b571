package router

import (
	"github.com/fredsterzcode/motalert/app/controllers"
	"github.com/fredsterzcode/motalert/internal/pkg/billing"
	"github.com/fredsterzcode/motalert/internal/pkg/database"
	"github.com/fredsterzcode/motalert/internal/pkg/middleware"
	"github.com/fredsterzcode/motalert/internal/pkg/motapi"
	"github.com/fredsterzcode/motalert/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize controllers with their service dependencies
	controllers.InitializeBillingController(billing.NewServiceFromDB(database.GetDB()))
	controllers.InitializeVehicleController(motapi.NewStubClient())

	h.registerPublicRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
