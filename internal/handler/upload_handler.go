package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rvmaher/dermatouch-backend/internal/config"
	"github.com/rvmaher/dermatouch-backend/internal/infra/upload"
	"github.com/rvmaher/dermatouch-backend/internal/middleware"
)

// 10MB
const maxUploadSize = 10 << 20

// /admin/uploads。画像をCloudinaryに上げてURLを返す。
type UploadHandler struct {
	uploader upload.ImageUploader
}

func NewUploadHandler(uploader upload.ImageUploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

func (h *UploadHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/uploads/product", h.uploadTo("dermatouch/products"))
	admin.POST("/uploads/category", h.uploadTo("dermatouch/categories"))
}

func (h *UploadHandler) uploadTo(folder string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.upload(c, folder)
	}
}

func (h *UploadHandler) upload(c echo.Context, folder string) error {
	if h.uploader == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "uploads are not configured"})
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image file is required"})
	}
	if fh.Size > maxUploadSize {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file too large"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file"})
	}
	defer src.Close()

	res, err := h.uploader.Upload(c.Request().Context(), src, folder)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "upload failed"})
	}

	return c.JSON(http.StatusCreated, res)
}
