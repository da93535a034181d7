// handlers_upload.go - Single file upload and synthesis
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/synthgen/backend/internal/generator"
	"github.com/synthgen/backend/internal/history"
	"github.com/synthgen/backend/internal/models"
	"github.com/synthgen/backend/internal/storage"
	"go.uber.org/zap"
)

// Error messages sent to upload clients
const (
	msgNoFilePart     = "No file part"
	msgNoSelectedFile = "No selected file"
	msgInvalidJSON    = "Invalid JSON format"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store      storage.Store
	history    history.Store
	gen        *generator.Generator
	allowedExt []string
	logger     *zap.Logger
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(store storage.Store, hist history.Store, gen *generator.Generator, allowedExt []string, logger *zap.Logger) UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandlerImpl{
		store:      store,
		history:    hist,
		gen:        gen,
		allowedExt: allowedExt,
		logger:     logger,
	}
}

// HandleUpload accepts a multipart "file" holding a JSON document and replies
// with synthetic data of the same shape.
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	upload, err := readUpload(c, "file")
	if err != nil {
		return err
	}
	if err := checkExtension(upload.Name, h.allowedExt); err != nil {
		return err
	}

	value, err := generator.DecodeJSON(upload.Data)
	if err != nil {
		return NewBadRequestError(msgInvalidJSON, err)
	}

	info, err := h.store.Save(upload.Name, bytes.NewReader(upload.Data))
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	start := time.Now()
	synthetic := h.gen.Synthesize(value)
	elapsed := time.Since(start)

	run := models.NewRun(uuid.New().String(), models.RunKindUpload)
	run.SourceFileID = info.ID
	run.SourceName = info.Name
	run.Records = recordCount(synthetic)
	run.GenerationTime = seconds(elapsed)
	run.AvgTimePerRecord = seconds(elapsed / time.Duration(run.Records))
	run.ResultsTimes = []float64{0, run.GenerationTime}
	saveRun(c, h.history, h.logger, run, synthetic)

	if err := h.store.SetStatus(info.ID, "generated"); err != nil {
		h.logger.Warn("failed to update file status", zap.String("file", info.ID), zap.Error(err))
	}

	h.logger.Info("upload synthesized",
		zap.String("file", info.Name),
		zap.Int64("bytes", info.Size),
		zap.String("run", run.ID),
		zap.Duration("elapsed", elapsed))

	return c.JSON(http.StatusOK, models.UploadResponse{
		SyntheticData: synthetic,
		RunID:         run.ID,
	})
}

// saveRun stores a run with its data. A history failure is logged and does not
// fail the request.
func saveRun(c echo.Context, hist history.Store, logger *zap.Logger, run *models.Run, data any) {
	if hist == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Warn("failed to encode run data", zap.String("run", run.ID), zap.Error(err))
		return
	}
	run.Data = raw
	if err := hist.Save(c.Request().Context(), run); err != nil {
		logger.Warn("failed to record run", zap.String("run", run.ID), zap.Error(err))
	}
	// responses carry the data separately
	run.Data = nil
}

// uploadedFile is a multipart file read fully into memory.
type uploadedFile struct {
	Name string
	Data []byte
}

// readUpload reads the multipart file under field. A part sent with an empty
// filename arrives as a plain form value, which is how browsers submit a file
// input with nothing selected.
func readUpload(c echo.Context, field string) (*uploadedFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if form := c.Request().MultipartForm; form != nil {
			if _, ok := form.Value[field]; ok {
				return nil, NewBadRequestError(msgNoSelectedFile, nil)
			}
		}
		return nil, NewBadRequestError(msgNoFilePart, err)
	}
	if fh.Filename == "" {
		return nil, NewBadRequestError(msgNoSelectedFile, nil)
	}
	data, err := readFileHeader(fh)
	if err != nil {
		return nil, NewInternalError("failed to read uploaded file", err)
	}
	return &uploadedFile{Name: fh.Filename, Data: data}, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

// optionalUpload is readUpload for forms where the file may be left out.
func optionalUpload(c echo.Context, field string) (*uploadedFile, error) {
	upload, err := readUpload(c, field)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		return nil, nil
	}
	return upload, err
}

func checkExtension(name string, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	if ext == "" {
		ext = name
	}
	return NewBadRequestError(fmt.Sprintf("Unsupported file type: %s", ext), nil)
}

func recordCount(v any) int {
	if arr, ok := v.([]any); ok && len(arr) > 0 {
		return len(arr)
	}
	return 1
}

func seconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1e6
}
