package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(service service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.service.List(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Create(c *gin.Context) {
	var input service.CreateOrderInput
	if err := bindJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	order, err := h.service.Create(c.Request.Context(), middleware.CurrentActor(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// UpdateStatus takes a strict body: status must be the only key.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input service.UpdateOrderStatusInput
	if err := bindStrictJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), middleware.CurrentActor(c), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) InProgressCount(c *gin.Context) {
	businessUserID, err := parseID(c, "business_user_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	resp, err := h.service.InProgressCount(c.Request.Context(), middleware.CurrentActor(c), businessUserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) CompletedCount(c *gin.Context) {
	businessUserID, err := parseID(c, "business_user_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	resp, err := h.service.CompletedCount(c.Request.Context(), middleware.CurrentActor(c), businessUserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
