package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ProductHandler consultas de stock por producto.
type ProductHandler struct {
	engine *ledger.Engine
	log    *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(engine *ledger.Engine, log *logger.Logger) *ProductHandler {
	return &ProductHandler{engine: engine, log: log}
}

// Stock godoc
// @Summary      Stock de un producto en todas las tiendas
// @Tags         products
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /products/{productId}/stock [get]
func (h *ProductHandler) Stock(c *fiber.Ctx) error {
	ps, err := h.engine.GetProductStock(c.UserContext(), c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	stores := make([]dto.InventoryRecordResponse, 0, len(ps.Records))
	for _, r := range ps.Records {
		stores = append(stores, dto.RecordToResponse(r, nil))
	}
	return c.JSON(dto.ProductStockResponse{
		ProductID: ps.Product.ID,
		Product:   dto.ProductToResponse(ps.Product),
		Total:     ps.Total,
		Stores:    stores,
	})
}
