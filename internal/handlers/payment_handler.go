package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"ecommerce/internal/httperr"
	"ecommerce/internal/middleware"
	"ecommerce/internal/services"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the payment routes on a router already behind
// the auth middleware. The /order/:order_id route is registered before
// /:id so it is not shadowed.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	payments := router.Group("/payments")
	payments.Post("/", h.HandleCreatePayment)
	payments.Get("/", h.HandleListPayments)
	payments.Get("/order/:order_id", h.HandleGetPaymentsByOrder)
	payments.Get("/:id", h.HandleGetPayment)
	payments.Put("/:id", h.HandleUpdatePayment)
}

// HandleCreatePayment records a payment for the caller. The owner is the
// verified token identity, not the user_id body field.
func (h *PaymentHandler) HandleCreatePayment(c *fiber.Ctx) error {
	var req services.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("invalid request body"))
	}
	if err := h.validate.Struct(req); err != nil {
		return httperr.Respond(c, httperr.Validationf("%v", err))
	}

	payment, err := h.service.CreatePayment(middleware.CallerClaims(c), req)
	if err != nil {
		log.Printf("Error creating payment: %v", err)
		return httperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

// HandleListPayments returns all of the caller's payments.
func (h *PaymentHandler) HandleListPayments(c *fiber.Ctx) error {
	payments, err := h.service.ListPayments(middleware.CallerClaims(c))
	if err != nil {
		log.Printf("Error listing payments: %v", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(payments)
}

// HandleGetPayment returns one of the caller's payments.
func (h *PaymentHandler) HandleGetPayment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return httperr.Respond(c, httperr.Validationf("invalid payment id"))
	}

	payment, err := h.service.GetPayment(middleware.CallerClaims(c), uint(id))
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(payment)
}

// HandleGetPaymentsByOrder returns the caller's payments for one order.
func (h *PaymentHandler) HandleGetPaymentsByOrder(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("order_id")
	if err != nil || orderID < 1 {
		return httperr.Respond(c, httperr.Validationf("invalid order id"))
	}

	payments, err := h.service.GetPaymentsByOrder(middleware.CallerClaims(c), uint(orderID))
	if err != nil {
		log.Printf("Error listing payments for order %d: %v", orderID, err)
		return httperr.Respond(c, err)
	}
	return c.JSON(payments)
}

// HandleUpdatePayment applies a status change (e.g. a refund).
func (h *PaymentHandler) HandleUpdatePayment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return httperr.Respond(c, httperr.Validationf("invalid payment id"))
	}

	var req services.UpdatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("invalid request body"))
	}

	payment, err := h.service.UpdatePayment(middleware.CallerClaims(c), uint(id), req)
	if err != nil {
		log.Printf("Error updating payment %d: %v", id, err)
		return httperr.Respond(c, err)
	}
	return c.JSON(payment)
}
