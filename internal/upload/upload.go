package upload

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxFileSize = 5 << 20 // 5MB

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Handler saves service images under the upload directory with generated
// names and returns the public /uploads URL.
type Handler struct {
	Dir string
}

// POST /api/v1/upload  (multipart field "file")
func (h *Handler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if file.Size > maxFileSize {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file exceeds 5MB limit"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only image files are allowed"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read file"})
	}
	defer src.Close()

	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		zap.L().Error("failed to create upload dir", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(h.Dir, name))
	if err != nil {
		zap.L().Error("failed to create upload file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		zap.L().Error("failed to write upload file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"url": "/uploads/" + name})
}
