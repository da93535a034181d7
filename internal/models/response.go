package models

// UploadResponse is the body returned by POST /upload.
// Exactly one of Error or SyntheticData is set.
type UploadResponse struct {
	Error         string `json:"error,omitempty"`
	SyntheticData any    `json:"synthetic_data,omitempty"`
	RunID         string `json:"run_id,omitempty"`
}

// GenerateResponse is the body returned by POST /api/generate.
type GenerateResponse struct {
	SyntheticData []any `json:"synthetic_data"`
	Run           *Run  `json:"run"`
}

// AnonymizeResponse is the body returned by POST /api/anonymize.
type AnonymizeResponse struct {
	Original   any  `json:"original"`
	Anonymized any  `json:"anonymized"`
	Run        *Run `json:"run"`
}

// ProfileSummary describes a generator profile to API clients.
type ProfileSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Attributes  []string `json:"attributes"`
}
