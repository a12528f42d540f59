package plateHandler

import (
	plateService "ProjectPlaca/internal/api/plate/service"
	"ProjectPlaca/internal/middleware"
	"ProjectPlaca/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type PlateHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	plateService plateService.IPlateService
	utils        utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ps plateService.IPlateService,
	utils utils.IUtils,
) *PlateHandler {
	return &PlateHandler{
		log:          log,
		validator:    validator,
		middleware:   middleware,
		plateService: ps,
		utils:        utils,
	}
}

func (h *PlateHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	plates := srv.Group("/plate")
	plates.Post("/detect", h.DetectPlate)
	plates.Use("/ws", wsMiddleware)
	plates.Get("/ws", websocket.New(h.handlePlateWebSocket))

	history := srv.Group("/history")
	history.Get("", h.History)
	history.Get("/export", h.ExportHistory)
	history.Put("/:id/observation", h.UpdateObservation)
	history.Delete("/:id", h.DeleteConsultation)

	srv.Post("/reports", h.ReportVehicle)
}
