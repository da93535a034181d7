package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthgen/backend/internal/models"
	"github.com/synthgen/backend/internal/storage"
	"github.com/synthgen/backend/internal/testutil"
)

func TestFileHandler_HandleGetFile(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("f1", "input.json", []byte(`{}`))
	handler := NewFileHandler(store, nil)
	e := echo.New()

	c, rec := runContext(e, http.MethodGet, "/api/files/f1", "f1")
	require.NoError(t, handler.HandleGetFile(c))
	var info models.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "input.json", info.Name)
	assert.EqualValues(t, 2, info.Size)

	c, _ = runContext(e, http.MethodGet, "/api/files/none", "none")
	err := handler.HandleGetFile(c)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestFileHandler_HandleListFiles(t *testing.T) {
	store := testutil.NewMockStorage()
	for _, id := range []string{"a", "b", "c"} {
		store.AddFile(id, id+".json", []byte(`{}`))
	}
	handler := NewFileHandler(store, nil)
	e := echo.New()

	tests := []struct {
		name      string
		target    string
		wantCount int
		wantErr   bool
	}{
		{name: "default limit", target: "/api/files", wantCount: 3},
		{name: "explicit limit", target: "/api/files?limit=2", wantCount: 2},
		{name: "zero limit", target: "/api/files?limit=0", wantErr: true},
		{name: "over max", target: "/api/files?limit=501", wantErr: true},
		{name: "not a number", target: "/api/files?limit=x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := runContext(e, http.MethodGet, tt.target, "")
			err := handler.HandleListFiles(c)
			if tt.wantErr {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusBadRequest, apiErr.Status)
				return
			}
			require.NoError(t, err)
			var files []models.FileInfo
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
			assert.Len(t, files, tt.wantCount)
		})
	}
}

func TestFileHandler_HandleDownloadFile(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	info, err := store.Save("people.json", strings.NewReader(`{"name": "Ada"}`))
	require.NoError(t, err)
	handler := NewFileHandler(store, nil)
	e := echo.New()

	c, rec := runContext(e, http.MethodGet, "/api/files/"+info.ID+"/download", info.ID)
	require.NoError(t, handler.HandleDownloadFile(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"name": "Ada"}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `attachment; filename="people.json"`)

	c, _ = runContext(e, http.MethodGet, "/api/files/missing/download", "missing")
	err = handler.HandleDownloadFile(c)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestFileHandler_HandleDeleteFile(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	info, err := store.Save("gone.json", strings.NewReader(`{}`))
	require.NoError(t, err)
	handler := NewFileHandler(store, nil)
	e := echo.New()

	c, rec := runContext(e, http.MethodDelete, "/api/files/"+info.ID, info.ID)
	require.NoError(t, handler.HandleDeleteFile(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err = os.Stat(filepath.Join(dir, info.ID))
	assert.True(t, os.IsNotExist(err), "file should be removed from disk")

	c, _ = runContext(e, http.MethodDelete, "/api/files/"+info.ID, info.ID)
	err = handler.HandleDeleteFile(c)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
