package plateHandler

import (
	"strconv"
	"time"

	"ProjectPlaca/internal/api/plate"
	contextPkg "ProjectPlaca/pkg/context"
	"ProjectPlaca/pkg/handlerUtil"
	"ProjectPlaca/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

// GET /api/v1/history
func (h *PlateHandler) History(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	items, err := h.plateService.History(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_history")
	}

	if items == nil {
		items = []plate.ConsultaItem{}
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, plate.HistorialResponse{
		Status:    "success",
		Historial: items,
	})
}

// GET /api/v1/history/export
func (h *PlateHandler) ExportHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	csvData, err := h.plateService.ExportHistoryCSV(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "export_history")
	}

	ctx.Set(fiber.HeaderContentType, "text/csv")
	ctx.Set(fiber.HeaderContentDisposition, "attachment;filename=historial_consultas.csv")
	return ctx.Status(fiber.StatusOK).Send(csvData)
}

// PUT /api/v1/history/:id/observation
func (h *PlateHandler) UpdateObservation(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return errHandler.Handle(ctx, requestID, plate.ErrConsultationNotFound, ctx.Path(), "parse_id")
	}

	var req plate.ObservacionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.plateService.UpdateObservation(c, id, req.Observacion); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_observation")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, plate.StatusMessageResponse{Status: "success"})
}

// DELETE /api/v1/history/:id
func (h *PlateHandler) DeleteConsultation(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return errHandler.Handle(ctx, requestID, plate.ErrConsultationNotFound, ctx.Path(), "parse_id")
	}

	if err := h.plateService.DeleteConsultation(c, id); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_consultation")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"id":         id,
	}).Info("Consultation deleted")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, plate.StatusMessageResponse{
		Status:  "success",
		Message: "Registro " + strconv.FormatInt(id, 10) + " eliminado",
	})
}
