package handler

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"marketplace/internal/service"
	"marketplace/pkg/apperror"
	appvalidator "marketplace/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// readUpload pulls a named file out of a multipart form, returning nil when
// the field is absent. The file stays open for the life of the request.
func readUpload(c *gin.Context, field string) *service.UploadFile {
	header, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	f, err := header.Open()
	if err != nil {
		return nil
	}
	return &service.UploadFile{Reader: f, FileName: header.Filename}
}

// bindJSON decodes a JSON body and translates binding failures into the
// validation error shape the response layer understands.
func bindJSON(c *gin.Context, out any) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return asValidationError(err)
	}
	return nil
}

// bindStrictJSON decodes a JSON body rejecting any key the target struct
// does not declare. Used for patch endpoints where extra keys must fail the
// whole request instead of being ignored.
func bindStrictJSON(c *gin.Context, out any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			return apperror.Validation("detail", err.Error())
		}
		return apperror.Validation("detail", "invalid request body")
	}
	return nil
}

func asValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return apperror.Validation("detail", appvalidator.FormatValidationError(validationErrors))
	}
	return apperror.Validation("detail", "invalid request body")
}

func parseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperror.Validationf(name, "invalid id: %q", raw)
	}
	return uint(id), nil
}

func queryUint(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperror.Validationf(name, "must be an integer")
	}
	u := uint(v)
	return &u, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validationf(name, "must be an integer")
	}
	return v, nil
}

func queryFloat(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperror.Validationf(name, "must be a number")
	}
	return &v, nil
}

func queryIntPtr(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.Validationf(name, "must be an integer")
	}
	return &v, nil
}
