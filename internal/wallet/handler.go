package wallet

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/walletops/internal/validation"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	OwnerFirstName string          `json:"ownerFirstName"`
	OwnerLastName  string          `json:"ownerLastName"`
	Balance        validation.Text `json:"balance"`
}

type walletResponse struct {
	ID             string      `json:"id"`
	Balance        json.Number `json:"balance"`
	OwnerFirstName string      `json:"ownerFirstName"`
	OwnerLastName  string      `json:"ownerLastName"`
}

func newWalletResponse(w Wallet) walletResponse {
	view := w.ToView()
	return walletResponse{
		ID:             view.ID,
		Balance:        json.Number(view.Balance.StringFixed(DisplayScale)),
		OwnerFirstName: view.OwnerFirstName,
		OwnerLastName:  view.OwnerLastName,
	}
}

// Create provisions a wallet.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Malformed JSON request")
	}
	wallet, err := h.service.Create(c.UserContext(), CreateInput{
		OwnerFirstName: req.OwnerFirstName,
		OwnerLastName:  req.OwnerLastName,
		InitialBalance: req.Balance.String(),
	})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(newWalletResponse(wallet))
}

// Get returns the wallet with its balance rounded for display.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := validation.ParseWalletID(c.Params("walletUuid"))
	if err != nil {
		return httpError(err)
	}
	wallet, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(newWalletResponse(wallet))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, validation.ErrInvalidParameter):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
