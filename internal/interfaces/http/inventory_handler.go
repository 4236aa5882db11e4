package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP de inventario por tienda.
type InventoryHandler struct {
	engine *ledger.Engine
	log    *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *ledger.Engine, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{engine: engine, log: log}
}

// Create godoc
// @Summary      Crear inventario inicial de un producto en una tienda
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInventoryRequest  true  "productId, storeId, quantity, minStock"
// @Success      201   {object}  dto.InventoryRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /inventory [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInventoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Quantity == nil || in.MinStock == nil {
		return validation(c, "quantity y minStock son requeridos")
	}
	rec, err := h.engine.CreateInitialInventory(c.UserContext(), in.ProductID, in.StoreID, *in.Quantity, *in.MinStock)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordToResponse(rec, nil))
}

// ListByStore godoc
// @Summary      Inventario de una tienda
// @Description  Registros de la tienda con el resumen de cada producto. Lista vacía si no hay registros.
// @Tags         inventory
// @Produce      json
// @Param        storeId  path  string  true  "ID de la tienda"
// @Success      200  {array}   dto.InventoryRecordResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /stores/{storeId}/inventory [get]
func (h *InventoryHandler) ListByStore(c *fiber.Ctx) error {
	views, err := h.engine.ListStoreInventory(c.UserContext(), c.Params("storeId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ViewsToResponse(views))
}

// Transfer godoc
// @Summary      Trasladar stock entre tiendas
// @Description  Descuenta del origen y acredita en el destino (creándolo si no existe) registrando un movimiento TRANSFER.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "productId, sourceStoreId, targetStoreId, quantity"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.TransferStock(c.UserContext(), in.ProductID, in.SourceStoreID, in.TargetStoreID, in.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.TransferResponse{
		Source:   dto.RecordToResponse(res.Source, nil),
		Target:   dto.RecordToResponse(res.Target, nil),
		Movement: dto.MovementToResponse(res.Movement),
	})
}

// Adjust godoc
// @Summary      Ajustar stock (entrada o salida)
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "productId, storeId, delta (distinto de cero)"
// @Success      200   {object}  dto.InventoryRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /inventory/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rec, err := h.engine.AdjustStock(c.UserContext(), in.ProductID, in.StoreID, in.Delta)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.RecordToResponse(rec, nil))
}

// LowStock godoc
// @Summary      Alertas de stock bajo
// @Description  Registros con quantity < minStock, ordenados por tienda y producto.
// @Tags         inventory
// @Produce      json
// @Success      200  {array}   dto.LowStockAlertResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /inventory/alert [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	alerts, err := h.engine.GetLowStockAlerts(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AlertsToResponse(alerts))
}

// LowStockReport godoc
// @Summary      Reporte PDF de stock bajo
// @Tags         inventory
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /inventory/alert/report [get]
func (h *InventoryHandler) LowStockReport(c *fiber.Ctx) error {
	pdf, err := h.engine.LowStockReport(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="stock-bajo.pdf"`)
	return c.Send(pdf)
}
