package handler

import (
	"encoding/json"
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/apperror"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

type OfferHandler struct {
	service service.OfferService
}

func NewOfferHandler(service service.OfferService) *OfferHandler {
	return &OfferHandler{service: service}
}

// Create accepts either a JSON body or a multipart form with an optional
// image file alongside a JSON-encoded details field.
func (h *OfferHandler) Create(c *gin.Context) {
	input, image, err := h.readOfferForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	offer, err := h.service.Create(c.Request.Context(), middleware.CurrentActor(c), *input, image)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

func (h *OfferHandler) readOfferForm(c *gin.Context) (*service.CreateOfferInput, *service.UploadFile, error) {
	var input service.CreateOfferInput

	if isMultipart(c) {
		input.Title = c.PostForm("title")
		input.Description = c.PostForm("description")
		if raw := c.PostForm("details"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &input.Details); err != nil {
				return nil, nil, apperror.Validation("details", "must be a JSON array")
			}
		}
		if input.Title == "" {
			return nil, nil, apperror.Validation("title", "title is required")
		}
		return &input, readUpload(c, "image"), nil
	}

	if err := bindJSON(c, &input); err != nil {
		return nil, nil, err
	}
	return &input, nil, nil
}

func (h *OfferHandler) List(c *gin.Context) {
	params, err := readOfferListParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), *params)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func readOfferListParams(c *gin.Context) (*service.OfferListParams, error) {
	creatorID, err := queryUint(c, "creator_id")
	if err != nil {
		return nil, err
	}
	minPrice, err := queryFloat(c, "min_price")
	if err != nil {
		return nil, err
	}
	maxDelivery, err := queryIntPtr(c, "max_delivery_time")
	if err != nil {
		return nil, err
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return nil, err
	}
	pageSize, err := queryInt(c, "page_size", 0)
	if err != nil {
		return nil, err
	}

	return &service.OfferListParams{
		CreatorID:       creatorID,
		MinPrice:        minPrice,
		MaxDeliveryTime: maxDelivery,
		Search:          c.Query("search"),
		Ordering:        c.Query("ordering"),
		Page:            page,
		PageSize:        pageSize,
	}, nil
}

func (h *OfferHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	offer, err := h.service.Get(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

func (h *OfferHandler) GetDetail(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.service.GetDetail(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *OfferHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input service.UpdateOfferInput
	var image *service.UploadFile

	if isMultipart(c) {
		if title := c.PostForm("title"); title != "" {
			input.Title = &title
		}
		if _, ok := c.GetPostForm("description"); ok {
			desc := c.PostForm("description")
			input.Description = &desc
		}
		if raw := c.PostForm("details"); raw != "" {
			var patches []service.OfferDetailPatch
			if err := json.Unmarshal([]byte(raw), &patches); err != nil {
				response.Error(c, apperror.Validation("details", "must be a JSON array"))
				return
			}
			input.Details = &patches
		}
		image = readUpload(c, "image")
	} else if err := bindJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), middleware.CurrentActor(c), id, input, image)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *OfferHandler) Delete(c *gin.Context) {
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
