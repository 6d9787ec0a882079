package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/model"
	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	service service.ProfileService
}

func NewProfileHandler(service service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, err := parseID(c, "pk")
	if err != nil {
		response.Error(c, err)
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), middleware.CurrentActor(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Update accepts JSON or a multipart form carrying a file field.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, err := parseID(c, "pk")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input service.UpdateProfileInput
	var file *service.UploadFile

	if isMultipart(c) {
		if err := c.ShouldBind(&input); err != nil {
			response.Error(c, asValidationError(err))
			return
		}
		file = readUpload(c, "file")
	} else if err := bindJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentActor(c), userID, input, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) ListBusiness(c *gin.Context) {
	h.listByType(c, model.TypeBusiness)
}

func (h *ProfileHandler) ListCustomer(c *gin.Context) {
	h.listByType(c, model.TypeCustomer)
}

func (h *ProfileHandler) listByType(c *gin.Context, profileType string) {
	profiles, err := h.service.ListProfiles(c.Request.Context(), middleware.CurrentActor(c), profileType)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, profiles)
}
