package plateHandler

import (
	"strings"
	"time"

	"ProjectPlaca/internal/api/plate"
	contextPkg "ProjectPlaca/pkg/context"
	"ProjectPlaca/pkg/handlerUtil"
	"ProjectPlaca/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

// POST /api/v1/reports
func (h *PlateHandler) ReportVehicle(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req plate.ReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, plate.ErrReportFieldsRequired, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	placa := strings.ToUpper(strings.TrimSpace(req.Placa))

	if err := h.plateService.ReportVehicle(c, placa, req.Descripcion); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "report_vehicle")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"placa":      placa,
	}).Info("Vehicle report registered")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, plate.StatusMessageResponse{
		Status:  "success",
		Message: "Reporte registrado para " + placa,
	})
}
