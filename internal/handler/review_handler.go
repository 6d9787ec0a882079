package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	service service.ReviewService
}

func NewReviewHandler(service service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) List(c *gin.Context) {
	businessUserID, err := queryUint(c, "business_user_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	reviewerID, err := queryUint(c, "reviewer_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	reviews, err := h.service.List(c.Request.Context(), middleware.CurrentActor(c), service.ReviewListParams{
		BusinessUserID: businessUserID,
		ReviewerID:     reviewerID,
		Ordering:       c.Query("ordering"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var input service.CreateReviewInput
	if err := bindJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	review, err := h.service.Create(c.Request.Context(), middleware.CurrentActor(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// Update takes a strict body: only rating and description are accepted.
func (h *ReviewHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input service.UpdateReviewInput
	if err := bindStrictJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	review, err := h.service.Update(c.Request.Context(), middleware.CurrentActor(c), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
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
