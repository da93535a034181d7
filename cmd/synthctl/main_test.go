package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthgen/backend/internal/client"
)

func TestAlerted(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no file", client.ErrNoFile, true},
		{"server error", &client.ServerError{Message: "Invalid JSON format"}, true},
		{"transport error", &client.TransportError{Err: errors.New("connection refused")}, true},
		{"wrapped server error", fmt.Errorf("upload: %w", &client.ServerError{Message: "x"}), true},
		{"missing input file", errors.New("opening in.json: no such file or directory"), false},
		{"bad flag", errors.New("unknown flag: --nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alerted(tt.err))
		})
	}
}

func TestRunUpload_AlertedErrorsPrintOnce(t *testing.T) {
	withServer(t, `{"error": "Invalid JSON format"}`)
	var stdout, stderr bytes.Buffer

	err := runUpload(context.Background(), &stdout, &stderr, writeInput(t), &uploadOptions{})
	require.Error(t, err)
	assert.True(t, alerted(err), "main must not print %v a second time", err)
	assert.Equal(t, "Error: Invalid JSON format\n", stderr.String())
}
