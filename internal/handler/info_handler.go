package handler

import (
	"net/http"

	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

type InfoHandler struct {
	service service.InfoService
}

func NewInfoHandler(service service.InfoService) *InfoHandler {
	return &InfoHandler{service: service}
}

func (h *InfoHandler) BaseInfo(c *gin.Context) {
	info, err := h.service.BaseInfo(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
