// handlers_files.go - Uploaded source file listing, download and removal
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/synthgen/backend/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultFileLimit = 50
	maxFileLimit     = 500
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store  storage.Store
	logger *zap.Logger
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(store storage.Store, logger *zap.Logger) FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandlerImpl{store: store, logger: logger}
}

// HandleListFiles returns metadata of the most recent uploads, newest first
func (h *FileHandlerImpl) HandleListFiles(c echo.Context) error {
	limit := defaultFileLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxFileLimit {
			return NewBadRequestError(fmt.Sprintf("limit must be between 1 and %d", maxFileLimit), err)
		}
		limit = n
	}

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for an uploaded file
func (h *FileHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return fileError(err, id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDownloadFile sends the uploaded file under its original name
func (h *FileHandlerImpl) HandleDownloadFile(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return fileError(err, id)
	}
	path, err := h.store.GetFilePath(id)
	if err != nil {
		return fileError(err, id)
	}
	return c.Attachment(path, info.Name)
}

// HandleDeleteFile removes an uploaded file from disk
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return fileError(err, id)
	}
	h.logger.Info("file deleted", zap.String("file", id))
	return c.NoContent(http.StatusNoContent)
}

func fileError(err error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("file", id)
	}
	return NewInternalError("failed to load file", err)
}
