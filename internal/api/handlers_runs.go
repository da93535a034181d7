// handlers_runs.go - Run history listing, download and removal
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/synthgen/backend/internal/generator"
	"github.com/synthgen/backend/internal/history"
	"github.com/synthgen/backend/internal/storage"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// RunHandlerImpl implements the RunHandler interface
type RunHandlerImpl struct {
	history history.Store
	store   storage.Store
	logger  *zap.Logger
}

// NewRunHandler creates a new run handler instance. store may be nil, in
// which case deleting a run leaves its source file in place.
func NewRunHandler(hist history.Store, store storage.Store, logger *zap.Logger) RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandlerImpl{history: hist, store: store, logger: logger}
}

// HandleListRuns returns the most recent runs without their data
func (h *RunHandlerImpl) HandleListRuns(c echo.Context) error {
	limit := defaultRunLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunLimit {
			return NewBadRequestError(fmt.Sprintf("limit must be between 1 and %d", maxRunLimit), err)
		}
		limit = n
	}

	runs, err := h.history.List(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to list runs", err)
	}
	return c.JSON(http.StatusOK, runs)
}

// HandleGetRun returns one run including its data
func (h *RunHandlerImpl) HandleGetRun(c echo.Context) error {
	id := c.Param("id")
	run, err := h.history.Get(c.Request().Context(), id)
	if err != nil {
		return runError(err, id)
	}
	return c.JSON(http.StatusOK, run)
}

// HandleDownloadRun sends the data of a run as an attachment. The format query
// selects pretty-printed JSON (default) or msgpack.
func (h *RunHandlerImpl) HandleDownloadRun(c echo.Context) error {
	id := c.Param("id")
	format := c.QueryParam("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "msgpack" {
		return NewBadRequestError(fmt.Sprintf("unsupported format: %s", format), nil)
	}

	run, err := h.history.Get(c.Request().Context(), id)
	if err != nil {
		return runError(err, id)
	}
	raw := []byte(run.Data)
	if len(raw) == 0 {
		raw = []byte("null")
	}

	filename := fmt.Sprintf("%s_%s.%s", run.Label(), run.CreatedAt.Format("20060102_150405"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	if format == "msgpack" {
		value, err := generator.DecodeJSON(raw)
		if err != nil {
			return NewInternalError("stored run data is corrupt", err)
		}
		data, err := msgpack.Marshal(normalizeNumbers(value))
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, "application/msgpack", data)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return NewInternalError("stored run data is corrupt", err)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, buf.Bytes())
}

// HandleDeleteRun removes a run from the history along with its uploaded source file
func (h *RunHandlerImpl) HandleDeleteRun(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	run, err := h.history.Get(ctx, id)
	if err != nil {
		return runError(err, id)
	}
	if err := h.history.Delete(ctx, id); err != nil {
		return runError(err, id)
	}

	if run.SourceFileID != "" && h.store != nil {
		// The file may already be gone through retention or DELETE /api/files/:id.
		if err := h.store.Delete(run.SourceFileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.logger.Warn("failed to delete source file", zap.String("run", id), zap.String("file", run.SourceFileID), zap.Error(err))
		}
	}
	h.logger.Info("run deleted", zap.String("run", id))
	return c.NoContent(http.StatusNoContent)
}

func runError(err error, id string) error {
	if errors.Is(err, history.ErrNotFound) {
		return NewNotFoundError("run", id)
	}
	return NewInternalError("failed to load run", err)
}

// normalizeNumbers turns json.Number values into int64 or float64 so msgpack
// encodes them as numbers rather than strings.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	default:
		return v
	}
}
