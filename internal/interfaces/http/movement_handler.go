package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// MovementHandler consultas al libro de movimientos.
type MovementHandler struct {
	engine *ledger.Engine
	log    *logger.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(engine *ledger.Engine, log *logger.Logger) *MovementHandler {
	return &MovementHandler{engine: engine, log: log}
}

// List godoc
// @Summary      Consultar movimientos
// @Tags         movements
// @Produce      json
// @Param        productId  query  string  false  "Filtrar por producto"
// @Param        storeId    query  string  false  "Filtrar por tienda (origen o destino)"
// @Param        type       query  string  false  "IN, OUT o TRANSFER"
// @Param        from       query  string  false  "Desde (RFC3339, inclusivo)"
// @Param        to         query  string  false  "Hasta (RFC3339, inclusivo)"
// @Param        limit      query  int     false  "Máximo de resultados (por defecto 50)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	if page.Limit < 0 || page.Offset < 0 {
		return validation(c, "limit y offset no pueden ser negativos")
	}
	page.DefaultPage()

	filter := repository.MovementFilter{
		ProductID: c.Query("productId"),
		StoreID:   c.Query("storeId"),
		Type:      entity.MovementType(strings.ToUpper(c.Query("type"))),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	var err error
	if filter.From, err = parseTime(c.Query("from")); err != nil {
		return validation(c, "from debe estar en formato RFC3339")
	}
	if filter.To, err = parseTime(c.Query("to")); err != nil {
		return validation(c, "to debe estar en formato RFC3339")
	}

	list, err := h.engine.ListMovements(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementsToResponse(list, page))
}

// GetByID godoc
// @Summary      Obtener movimiento por ID
// @Tags         movements
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	m, err := h.engine.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementToResponse(m))
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
