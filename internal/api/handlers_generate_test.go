package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthgen/backend/internal/models"
	"github.com/synthgen/backend/internal/testutil"
)

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestGenerateHandler_FromProfile(t *testing.T) {
	hist := testutil.NewMockHistory()
	handler := NewGenerateHandler(newTestGenerator(t), hist, 1, 50, nil)

	e := echo.New()
	form := url.Values{
		"jsonType":   {"persons"},
		"attribute":  {"firstName", "email", " "},
		"numRecords": {"3"},
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("/api/generate", form), rec)

	require.NoError(t, handler.HandleGenerate(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		SyntheticData []map[string]any `json:"synthetic_data"`
		Run           models.Run       `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.SyntheticData, 3)
	for _, r := range response.SyntheticData {
		assert.Len(t, r, 2)
		assert.Contains(t, r, "firstName")
		assert.Contains(t, r["email"], "@")
	}

	assert.Equal(t, models.RunKindGenerate, response.Run.Kind)
	assert.Equal(t, "persons", response.Run.Profile)
	assert.Equal(t, 3, response.Run.Records)
	assert.Len(t, response.Run.ResultsTimes, 4)
	assert.Equal(t, 0.0, response.Run.ResultsTimes[0])
	assert.Empty(t, response.Run.Data)
	assert.Equal(t, 1, hist.Count())
}

func TestGenerateHandler_DefaultCount(t *testing.T) {
	handler := NewGenerateHandler(newTestGenerator(t), nil, 2, 10, nil)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("/api/generate", url.Values{"jsonType": {"goals"}}), rec)

	require.NoError(t, handler.HandleGenerate(c))
	var response models.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.SyntheticData, 2)
}

func TestGenerateHandler_FromExampleFile(t *testing.T) {
	handler := NewGenerateHandler(newTestGenerator(t), testutil.NewMockHistory(), 1, 10, nil)

	e := echo.New()
	req := multipartRequest(t, "/api/generate",
		map[string][]string{"numRecords": {"4"}},
		formFile{"file", "example.json", `{"title": "x", "pages": 120}`})
	rec := httptest.NewRecorder()

	require.NoError(t, handler.HandleGenerate(e.NewContext(req, rec)))

	var response struct {
		SyntheticData []map[string]any `json:"synthetic_data"`
		Run           models.Run       `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.SyntheticData, 4)
	assert.Contains(t, response.SyntheticData[0], "pages")
	assert.Equal(t, "example.json", response.Run.SourceName)
	assert.Equal(t, "generate", response.Run.Label())
}

func TestGenerateHandler_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		errCode string
		errMsg  string
	}{
		{
			name:    "no profile and no file",
			req:     func(*testing.T) *http.Request { return formRequest("/api/generate", url.Values{}) },
			errCode: "VALIDATION_ERROR",
		},
		{
			name: "unknown profile",
			req: func(*testing.T) *http.Request {
				return formRequest("/api/generate", url.Values{"jsonType": {"spaceships"}})
			},
			errCode: "BAD_REQUEST",
		},
		{
			name: "unknown attribute",
			req: func(*testing.T) *http.Request {
				return formRequest("/api/generate", url.Values{"jsonType": {"persons"}, "attribute": {"shoeSize"}})
			},
			errCode: "BAD_REQUEST",
		},
		{
			name: "count out of range",
			req: func(*testing.T) *http.Request {
				return formRequest("/api/generate", url.Values{"jsonType": {"persons"}, "numRecords": {"11"}})
			},
			errCode: "BAD_REQUEST",
			errMsg:  "numRecords must be between 1 and 10",
		},
		{
			name: "count not a number",
			req: func(*testing.T) *http.Request {
				return formRequest("/api/generate", url.Values{"jsonType": {"persons"}, "numRecords": {"many"}})
			},
			errCode: "BAD_REQUEST",
			errMsg:  "numRecords must be between 1 and 10",
		},
		{
			name: "invalid example file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/generate", nil, formFile{"file", "x.json", "{oops"})
			},
			errCode: "BAD_REQUEST",
			errMsg:  "Invalid JSON file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := testutil.NewMockHistory()
			handler := NewGenerateHandler(newTestGenerator(t), hist, 1, 10, nil)

			e := echo.New()
			err := handler.HandleGenerate(e.NewContext(tt.req(t), httptest.NewRecorder()))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tt.errCode, apiErr.Code)
			if tt.errMsg != "" {
				assert.Equal(t, tt.errMsg, apiErr.Message)
			}
			assert.Equal(t, 0, hist.Count())
		})
	}
}

func TestGenerateHandler_HandleAnonymize(t *testing.T) {
	hist := testutil.NewMockHistory()
	handler := NewGenerateHandler(newTestGenerator(t), hist, 1, 10, nil)

	e := echo.New()
	req := multipartRequest(t, "/api/anonymize",
		map[string][]string{"jsonType": {"persons"}, "attribute": {"email"}},
		formFile{"file", "people.json", `[{"firstName": "Anna", "email": "anna@example.org"}]`})
	rec := httptest.NewRecorder()

	require.NoError(t, handler.HandleAnonymize(e.NewContext(req, rec)))

	var response struct {
		Original   []map[string]any `json:"original"`
		Anonymized []map[string]any `json:"anonymized"`
		Run        models.Run       `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Anonymized, 1)
	assert.Equal(t, "anna@example.org", response.Original[0]["email"])
	assert.Equal(t, "Anna", response.Anonymized[0]["firstName"])
	assert.NotEqual(t, "anna@example.org", response.Anonymized[0]["email"])
	assert.Equal(t, models.RunKindAnonymize, response.Run.Kind)
	assert.Equal(t, 1, hist.Count())
}

func TestGenerateHandler_HandleAnonymizeErrors(t *testing.T) {
	handler := NewGenerateHandler(newTestGenerator(t), nil, 1, 10, nil)
	e := echo.New()

	tests := []struct {
		name   string
		req    *http.Request
		errMsg string
	}{
		{
			name:   "no file",
			req:    formRequest("/api/anonymize", url.Values{}),
			errMsg: "Upload Error: No JSON data provided",
		},
		{
			name:   "invalid JSON",
			req:    multipartRequest(t, "/api/anonymize", nil, formFile{"file", "a.json", "nope"}),
			errMsg: "Invalid JSON file",
		},
		{
			name:   "not records",
			req:    multipartRequest(t, "/api/anonymize", nil, formFile{"file", "a.json", `"just a string"`}),
			errMsg: "expected a JSON object or an array of objects",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler.HandleAnonymize(e.NewContext(tt.req, httptest.NewRecorder()))
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tt.errMsg, apiErr.Message)
		})
	}
}

func TestGenerateHandler_HandleListProfiles(t *testing.T) {
	handler := NewGenerateHandler(newTestGenerator(t), nil, 1, 10, nil)

	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)

	require.NoError(t, handler.HandleListProfiles(e.NewContext(req, rec)))

	var profiles []models.ProfileSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profiles))
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
		assert.NotEmpty(t, p.Attributes, p.Name)
	}
	assert.Equal(t, []string{"activities", "badges", "goals", "organisations", "persons"}, names)
}
