package api

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/bayanihive/delegation-roulette/configuration"
	"github.com/bayanihive/delegation-roulette/constants"
	"github.com/bayanihive/delegation-roulette/core"
)

func registerGetLedger(app *fiber.App, engine *core.Engine) {
	app.Get("/ledger", func(c *fiber.Ctx) error {
		ledger, err := engine.Ledger()
		if err != nil {
			if errors.Is(err, constants.ErrLedgerNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "delegation ledger not built yet",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(ledger)
	})
}

func registerGetDelegator(app *fiber.App, engine *core.Engine) {
	app.Get("/ledger/:delegator", func(c *fiber.Ctx) error {
		ledger, err := engine.Ledger()
		if err != nil {
			if errors.Is(err, constants.ErrLedgerNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "delegation ledger not built yet",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		deltas, ok := ledger[c.Params("delegator")]
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "delegator not found in ledger",
			})
		}
		return c.JSON(deltas)
	})
}

func registerGetSnapshot(app *fiber.App, engine *core.Engine) {
	app.Get("/snapshot", func(c *fiber.Ctx) error {
		snapshot, err := engine.Snapshot(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(snapshot)
	})
}

func registerGetPool(app *fiber.App, engine *core.Engine) {
	app.Get("/pool/:tier", func(c *fiber.Ctx) error {
		tier, err := strconv.Atoi(c.Params("tier"))
		if err != nil || (tier != 1 && tier != 2) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "tier must be 1 or 2",
			})
		}

		entries, err := engine.PoolPreview(c.Context(), tier)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(entries)
	})
}

func CreatePublicApi(config *configuration.Runtime, engine *core.Engine) *fiber.App {
	app := fiber.New()

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 30 * time.Second,
	}))

	registerGetLedger(app, engine)
	registerGetDelegator(app, engine)
	registerGetSnapshot(app, engine)
	registerGetPool(app, engine)

	go func() {
		err := app.Listen(config.Listen)
		if err != nil {
			slog.Error("failed to start public api", "error", err.Error())
		}
	}()
	return app
}
