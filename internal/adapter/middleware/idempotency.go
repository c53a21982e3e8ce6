package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/matiassromo/registro-helados/internal/adapter/storage"
)

// Idempotency replays the first successful response given for an
// Idempotency-Key header, so a retried sell does not sell twice. Rejections
// are not cached: the same key may succeed once stock is back.
func Idempotency(store storage.KeyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := utils.CopyString(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}

		cached, err := store.Get(c.Context(), key)
		if err == nil {
			slog.Info("🛑 Idempotency hit, returning cached response", "key", key)
			c.Set("X-Idempotency-Hit", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(cached.Status).Send(cached.Body)
		}
		if !errors.Is(err, storage.ErrKeyNotFound) {
			slog.Error("❌ Idempotency lookup failed", "error", err, "key", key)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "idempotency store unavailable"})
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return nil
		}
		resp := storage.StoredResponse{
			Status: status,
			Body:   append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Save(c.Context(), key, resp); err != nil {
			slog.Error("❌ Failed to save idempotency key", "error", err, "key", key)
		} else {
			slog.Info("💾 Idempotency key saved", "key", key)
		}
		return nil
	}
}
