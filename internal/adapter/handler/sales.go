package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/matiassromo/registro-helados/internal/core/domain"
	"github.com/matiassromo/registro-helados/internal/core/sales"
)

type SalesHandler struct {
	Register *sales.Register
}

// Quantity accepts 3 as well as "3", since HTML forms post numbers as text.
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("cantidad must be an integer")
	}
	*q = Quantity(n)
	return nil
}

type SellRequest struct {
	Flavor   string    `json:"sabor"`
	Quantity *Quantity `json:"cantidad"`
}

// Sell records a sale. cantidad defaults to 1 when omitted.
func (h *SalesHandler) Sell(c *fiber.Ctx) error {
	var req SellRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Warn("Invalid sell body", "error", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Flavor) == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "sabor is required"})
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = int(*req.Quantity)
	}

	sale, err := h.Register.RecordSale(c.Context(), req.Flavor, quantity)
	if err != nil {
		if isSaleRejection(err) {
			slog.Warn("Sale rejected", "sabor", req.Flavor, "cantidad", quantity, "reason", err)
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": domain.Message(err)})
		}
		slog.Error("Sale failed", "error", err, "sabor", req.Flavor)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not record sale"})
	}

	return c.JSON(fiber.Map{
		"message": sale.Message,
		"venta":   sale.Transaction,
		"total":   sale.Transaction.Total,
	})
}

// Total returns the accumulated revenue along with every transaction.
func (h *SalesHandler) Total(c *fiber.Ctx) error {
	txs := h.Register.Transactions()
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return c.JSON(fiber.Map{
		"total_ventas": h.Register.TotalRevenue(),
		"ventas":       txs,
	})
}

func (h *SalesHandler) Stock(c *fiber.Ctx) error {
	return c.JSON(h.Register.CurrentStock())
}

func (h *SalesHandler) Flavors(c *fiber.Ctx) error {
	return c.JSON(h.Register.SortedItemNames())
}

func (h *SalesHandler) ClearSales(c *fiber.Ctx) error {
	h.Register.ClearTransactions()
	return c.JSON(fiber.Map{"message": "All sales have been cleared."})
}

func (h *SalesHandler) Reset(c *fiber.Ctx) error {
	h.Register.ResetAll()
	return c.JSON(fiber.Map{"message": "All stock has been reset and sales have been restarted."})
}

func isSaleRejection(err error) bool {
	return errors.Is(err, domain.ErrUnknownItem) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrInvalidQuantity)
}
