// handlers_generate.go - Profile-driven generation and anonymization
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/synthgen/backend/internal/generator"
	"github.com/synthgen/backend/internal/history"
	"github.com/synthgen/backend/internal/models"
	"go.uber.org/zap"
)

const (
	msgInvalidJSONFile = "Invalid JSON file"
	msgNoJSONData      = "Upload Error: No JSON data provided"
)

// GenerateHandlerImpl implements the GenerateHandler interface
type GenerateHandlerImpl struct {
	gen            *generator.Generator
	history        history.Store
	defaultRecords int
	maxRecords     int
	logger         *zap.Logger
}

// NewGenerateHandler creates a new generate handler instance
func NewGenerateHandler(gen *generator.Generator, hist history.Store, defaultRecords, maxRecords int, logger *zap.Logger) GenerateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRecords < 1 {
		maxRecords = 1
	}
	if defaultRecords < 1 || defaultRecords > maxRecords {
		defaultRecords = 1
	}
	return &GenerateHandlerImpl{
		gen:            gen,
		history:        hist,
		defaultRecords: defaultRecords,
		maxRecords:     maxRecords,
		logger:         logger,
	}
}

// HandleGenerate creates numRecords records for jsonType, or shaped after an
// uploaded example when no jsonType is given.
func (h *GenerateHandlerImpl) HandleGenerate(c echo.Context) error {
	profile := strings.TrimSpace(c.FormValue("jsonType"))
	attributes, err := formAttributes(c)
	if err != nil {
		return err
	}

	count, err := h.parseCount(c.FormValue("numRecords"))
	if err != nil {
		return err
	}

	req := generator.Request{
		Profile:    profile,
		Attributes: attributes,
		Count:      count,
	}

	upload, err := optionalUpload(c, "file")
	if err != nil {
		return err
	}
	if upload != nil {
		example, err := generator.DecodeJSON(upload.Data)
		if err != nil {
			return NewBadRequestError(msgInvalidJSONFile, err)
		}
		req.Example = example
	}
	if req.Profile == "" && req.Example == nil {
		return NewValidationError("jsonType")
	}

	result, err := h.gen.Generate(c.Request().Context(), req)
	if err != nil {
		return generationError(err)
	}

	run := models.NewRun(uuid.New().String(), models.RunKindGenerate)
	run.Profile = profile
	if upload != nil {
		run.SourceName = upload.Name
	}
	run.Records = len(result.Records)
	run.GenerationTime = seconds(result.Elapsed)
	run.AvgTimePerRecord = seconds(result.AvgPerRecord())
	run.ResultsTimes = append(run.ResultsTimes, 0)
	for _, d := range result.RecordTimes {
		run.ResultsTimes = append(run.ResultsTimes, seconds(d))
	}
	saveRun(c, h.history, h.logger, run, result.Records)

	h.logger.Info("records generated",
		zap.String("profile", run.Label()),
		zap.Int("records", run.Records),
		zap.Duration("elapsed", result.Elapsed))

	return c.JSON(http.StatusOK, models.GenerateResponse{
		SyntheticData: result.Records,
		Run:           run,
	})
}

// HandleAnonymize replaces the selected attributes of an uploaded record set.
func (h *GenerateHandlerImpl) HandleAnonymize(c echo.Context) error {
	upload, err := optionalUpload(c, "file")
	if err != nil {
		return err
	}
	if upload == nil {
		return NewBadRequestError(msgNoJSONData, nil)
	}
	data, err := generator.DecodeJSON(upload.Data)
	if err != nil {
		return NewBadRequestError(msgInvalidJSONFile, err)
	}

	attributes, err := formAttributes(c)
	if err != nil {
		return err
	}

	var profile *generator.Profile
	if name := strings.TrimSpace(c.FormValue("jsonType")); name != "" {
		profile, err = h.gen.Profiles().Get(name)
		if err != nil {
			return generationError(err)
		}
	}

	anonymized, err := h.gen.Anonymize(data, attributes, profile)
	if err != nil {
		return NewBadRequestError(err.Error(), nil)
	}

	run := models.NewRun(uuid.New().String(), models.RunKindAnonymize)
	if profile != nil {
		run.Profile = profile.Name
	}
	run.SourceName = upload.Name
	run.Records = recordCount(anonymized)
	saveRun(c, h.history, h.logger, run, anonymized)

	return c.JSON(http.StatusOK, models.AnonymizeResponse{
		Original:   data,
		Anonymized: anonymized,
		Run:        run,
	})
}

// HandleListProfiles returns the available profiles
func (h *GenerateHandlerImpl) HandleListProfiles(c echo.Context) error {
	profiles := h.gen.Profiles().List()
	out := make([]models.ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, models.ProfileSummary{
			Name:        p.Name,
			Description: p.Description,
			Attributes:  p.Attributes(),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *GenerateHandlerImpl) parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.defaultRecords, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > h.maxRecords {
		return 0, NewBadRequestError(fmt.Sprintf("numRecords must be between 1 and %d", h.maxRecords), err)
	}
	return n, nil
}

// formAttributes returns the repeated "attribute" form values, dropping blanks.
func formAttributes(c echo.Context) ([]string, error) {
	params, err := c.FormParams()
	if err != nil {
		return nil, NewBadRequestError("invalid form body", err)
	}
	var attrs []string
	for _, a := range params["attribute"] {
		if a = strings.TrimSpace(a); a != "" {
			attrs = append(attrs, a)
		}
	}
	return attrs, nil
}

func generationError(err error) error {
	switch {
	case errors.Is(err, generator.ErrUnknownProfile), errors.Is(err, generator.ErrUnknownAttribute):
		return NewBadRequestError(err.Error(), nil)
	default:
		return NewInternalError("generation failed", err)
	}
}
