package models

import (
	"encoding/json"
	"time"
)

// RunKind identifies which operation produced a run.
type RunKind string

const (
	RunKindUpload    RunKind = "upload"
	RunKindGenerate  RunKind = "generate"
	RunKindAnonymize RunKind = "anonymize"
)

// Run is one generation or anonymization pass and the data it produced.
type Run struct {
	ID               string          `json:"id"`
	Kind             RunKind         `json:"kind"`
	Profile          string          `json:"profile,omitempty"`
	SourceFileID     string          `json:"sourceFileId,omitempty"`
	SourceName       string          `json:"sourceName,omitempty"`
	Records          int             `json:"records"`
	GenerationTime   float64         `json:"generation_time"`     // seconds
	AvgTimePerRecord float64         `json:"avg_time_per_record"` // seconds
	ResultsTimes     []float64       `json:"results_times,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	Data             json.RawMessage `json:"data,omitempty"`
}

// NewRun creates a Run of the given kind stamped with the current time.
func NewRun(id string, kind RunKind) *Run {
	return &Run{
		ID:           id,
		Kind:         kind,
		CreatedAt:    time.Now().UTC(),
		ResultsTimes: make([]float64, 0),
	}
}

// Label names the run for download filenames: the profile if set, else the kind.
func (r *Run) Label() string {
	if r.Profile != "" {
		return r.Profile
	}
	return string(r.Kind)
}
