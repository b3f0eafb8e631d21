package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

// UploadField is the multipart form field carrying the file.
const UploadField = "file"

type UploadHandler struct {
	uploads ports.UploadService
}

func NewUploadHandler(uploads ports.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload stores a multipart file.
//
// @Summary      Upload a file
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "File"
// @Success      201   {object}  domain.Upload
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/uploads [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(UploadField)
	if err != nil {
		return domain.Invalid("file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return domain.Invalid("file could not be read")
	}
	defer f.Close()

	up, err := h.uploads.Upload(c.Request().Context(), sess, fh.Filename, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, up)
}

// Download streams a stored file.
//
// @Summary      Download a file
// @Tags         uploads
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path      string  true  "Upload id"
// @Success      200  {file}    file
// @Failure      404  {object}  errorResponse
// @Router       /v1/uploads/{id} [get]
func (h *UploadHandler) Download(c echo.Context) error {
	up, rc, err := h.uploads.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", up.Filename))
	return c.Stream(http.StatusOK, up.ContentType, rc)
}
