package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"ecommerce/internal/httperr"
	"ecommerce/internal/middleware"
	"ecommerce/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes on a router already behind the
// auth middleware.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orders := router.Group("/orders")
	orders.Post("/", h.HandleCreateOrder)
	orders.Get("/", h.HandleListOrders)
	orders.Get("/:id", h.HandleGetOrder)
	orders.Put("/:id", h.HandleUpdateOrder)
	orders.Delete("/:id", h.HandleCancelOrder)
}

// HandleCreateOrder creates a new order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("invalid request body"))
	}
	if err := h.validate.Struct(req); err != nil {
		return httperr.Respond(c, httperr.Validationf("%v", err))
	}

	order, err := h.service.CreateOrder(middleware.CallerClaims(c), req)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		return httperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleListOrders returns the caller's orders, newest first.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(middleware.CallerClaims(c))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrder returns one of the caller's orders.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return httperr.Respond(c, httperr.Validationf("invalid order id"))
	}

	order, err := h.service.GetOrder(middleware.CallerClaims(c), uint(id))
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(order)
}

// HandleUpdateOrder applies a partial update to status and notes.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return httperr.Respond(c, httperr.Validationf("invalid order id"))
	}

	var req services.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("invalid request body"))
	}

	order, err := h.service.UpdateOrder(middleware.CallerClaims(c), uint(id), req)
	if err != nil {
		log.Printf("Error updating order %d: %v", id, err)
		return httperr.Respond(c, err)
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels the order and returns no content.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return httperr.Respond(c, httperr.Validationf("invalid order id"))
	}

	if err := h.service.CancelOrder(middleware.CallerClaims(c), uint(id)); err != nil {
		log.Printf("Error cancelling order %d: %v", id, err)
		return httperr.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
