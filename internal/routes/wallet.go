package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/walletops/internal/operation"
	"github.com/congo-pay/walletops/internal/wallet"
)

// RegisterWalletRoutes wires wallet read, provisioning and operation endpoints.
func RegisterWalletRoutes(r fiber.Router, wallets *wallet.Handler, operations *operation.Handler, rateLimiter fiber.Handler) {
	r.Post("/wallets", wallets.Create)
	r.Get("/wallet/:walletUuid", wallets.Get)
	if rateLimiter != nil {
		r.Post("/wallet", rateLimiter, operations.Operate)
	} else {
		r.Post("/wallet", operations.Operate)
	}
}
