package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/matiassromo/registro-helados/internal/adapter/middleware"
	"github.com/matiassromo/registro-helados/internal/adapter/storage"
)

// SetupRoutes mounts the sales API on router.
func SetupRoutes(router fiber.Router, salesHandler *SalesHandler, exportHandler *ExportHandler, keys storage.KeyStore) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	router.Post("/vender", middleware.Idempotency(keys), salesHandler.Sell)
	router.Get("/total", salesHandler.Total)
	router.Get("/stock", salesHandler.Stock)
	router.Get("/sabores", salesHandler.Flavors)
	router.Post("/limpiar-ventas", salesHandler.ClearSales)
	router.Post("/reset", salesHandler.Reset)

	router.Post("/exportar", exportHandler.Export)
	router.Delete("/exportar", exportHandler.Delete)
}
