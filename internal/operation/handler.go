package operation

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/walletops/internal/pool"
	"github.com/congo-pay/walletops/internal/validation"
	"github.com/congo-pay/walletops/internal/wallet"
)

const (
	successMarker   = "Successful"
	unsuccessMarker = "Unsuccessful"
)

// Handler exposes the wallet operation endpoint.
type Handler struct {
	processor *Processor
}

// NewHandler builds an operation HTTP handler.
func NewHandler(processor *Processor) *Handler {
	return &Handler{processor: processor}
}

// userId is the historical name of the wallet id field; walletId is accepted
// as well.
type operationRequest struct {
	UserID        validation.Text `json:"userId"`
	WalletID      validation.Text `json:"walletId"`
	OperationType validation.Text `json:"operationType"`
	Amount        validation.Text `json:"amount"`
}

type operationResponse struct {
	Result        bool                     `json:"result"`
	Success       string                   `json:"success,omitempty"`
	Error         string                   `json:"error,omitempty"`
	OperationType validation.OperationType `json:"operationType"`
}

// Operate applies a deposit or withdrawal. An insufficient balance is a
// normal 200 response with result=false.
func (h *Handler) Operate(c *fiber.Ctx) error {
	var body operationRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Malformed JSON request")
	}

	walletID := body.UserID.String()
	if strings.TrimSpace(walletID) == "" {
		walletID = body.WalletID.String()
	}
	req, err := ParseRequest(walletID, body.OperationType.String(), body.Amount.String())
	if err != nil {
		return httpError(err)
	}

	res, err := h.processor.Process(c.UserContext(), req)
	if err != nil {
		return httpError(err)
	}

	resp := operationResponse{Result: res.Succeeded(), OperationType: res.Type}
	if res.Succeeded() {
		resp.Success = successMarker
	} else {
		resp.Success = unsuccessMarker
		resp.Error = res.Reason()
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, validation.ErrInvalidParameter):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, wallet.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, pool.ErrOverloaded), errors.Is(err, pool.ErrPoolClosed):
		return fiber.NewError(http.StatusServiceUnavailable, "service is busy, try again later")
	default:
		return fiber.NewError(http.StatusInternalServerError, "operation could not be completed")
	}
}
