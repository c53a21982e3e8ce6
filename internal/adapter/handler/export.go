package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/matiassromo/registro-helados/internal/core/domain"
	"github.com/matiassromo/registro-helados/internal/core/sales"
)

type ExportHandler struct {
	Register *sales.Register
	// DefaultPath is used when the request names no file. Requested names are
	// kept inside its directory.
	DefaultPath string
}

type ExportRequest struct {
	Path string `json:"path"`
}

// Export writes the spreadsheet.
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	var req ExportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}
	path := h.resolve(req.Path)

	if err := h.Register.Export(c.Context(), path); err != nil {
		if errors.Is(err, domain.ErrLayoutMismatch) {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Existing spreadsheet has an unexpected layout", "path": path})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not write spreadsheet: " + err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Sales exported successfully.", "path": path})
}

// Delete removes the spreadsheet and restarts the sales period.
func (h *ExportHandler) Delete(c *fiber.Ctx) error {
	path := h.resolve(c.Query("path"))

	if err := h.Register.DeleteExport(c.Context(), path); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "No spreadsheet to delete", "path": path})
		}
		slog.Error("Failed to delete export", "error", err, "path", path)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not delete spreadsheet"})
	}

	return c.JSON(fiber.Map{"message": "Spreadsheet deleted, stock and sales have been reset.", "path": path})
}

func (h *ExportHandler) resolve(requested string) string {
	name := filepath.Base(requested)
	if requested == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return h.DefaultPath
	}
	return filepath.Join(filepath.Dir(h.DefaultPath), name)
}
