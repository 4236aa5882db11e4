package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine *ledger.Engine
	Logger *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	inventoryHandler := NewInventoryHandler(deps.Engine, log)
	productHandler := NewProductHandler(deps.Engine, log)
	movementHandler := NewMovementHandler(deps.Engine, log)

	// Inventario
	inv := app.Group("/inventory")
	inv.Post("/", inventoryHandler.Create)
	inv.Post("/transfer", inventoryHandler.Transfer)
	inv.Post("/adjust", inventoryHandler.Adjust)
	inv.Get("/alert", inventoryHandler.LowStock)
	inv.Get("/alert/report", inventoryHandler.LowStockReport)

	app.Get("/stores/:storeId/inventory", inventoryHandler.ListByStore)

	// Productos (solo consulta de stock; el catálogo se administra fuera)
	app.Get("/products/:productId/stock", productHandler.Stock)

	// Libro de movimientos
	movements := app.Group("/movements")
	movements.Get("/", movementHandler.List)
	movements.Get("/:id", movementHandler.GetByID)
}
