// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// UploadHandler serves the single-file synthesis endpoint
type UploadHandler interface {
	HandleUpload(c echo.Context) error
}

// GenerateHandler handles profile-driven generation and anonymization
type GenerateHandler interface {
	HandleGenerate(c echo.Context) error
	HandleAnonymize(c echo.Context) error
	HandleListProfiles(c echo.Context) error
}

// RunHandler handles access to recorded generation runs
type RunHandler interface {
	HandleListRuns(c echo.Context) error
	HandleGetRun(c echo.Context) error
	HandleDownloadRun(c echo.Context) error
	HandleDeleteRun(c echo.Context) error
}

// FileHandler manages uploaded source files
type FileHandler interface {
	HandleListFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDownloadFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
