package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthgen/backend/internal/client"
)

func withServer(t *testing.T, body string) *atomic.Int32 {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	prev := serverURL
	serverURL = srv.URL
	t.Cleanup(func() { serverURL = prev })
	return hits
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": "b"}`), 0644))
	return path
}

func TestRunUpload_PrintsResult(t *testing.T) {
	withServer(t, `{"synthetic_data": {"a": "x"}}`)
	var stdout, stderr bytes.Buffer

	err := runUpload(context.Background(), &stdout, &stderr, writeInput(t), &uploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"x\"\n}\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunUpload_NoFile(t *testing.T) {
	hits := withServer(t, `{"synthetic_data": 1}`)
	var stdout, stderr bytes.Buffer

	err := runUpload(context.Background(), &stdout, &stderr, "", &uploadOptions{})
	assert.ErrorIs(t, err, client.ErrNoFile)
	assert.Equal(t, "Please select a file.\n", stderr.String())
	assert.Equal(t, int32(0), hits.Load())
}

func TestRunUpload_ServerError(t *testing.T) {
	withServer(t, `{"error": "Invalid JSON format"}`)
	var stdout, stderr bytes.Buffer

	err := runUpload(context.Background(), &stdout, &stderr, writeInput(t), &uploadOptions{})
	assert.Error(t, err)
	assert.Equal(t, "Error: Invalid JSON format\n", stderr.String())
	assert.Empty(t, stdout.String())
}

func TestRunUpload_HTMLFile(t *testing.T) {
	withServer(t, `{"synthetic_data": "<i>"}`)
	out := filepath.Join(t.TempDir(), "result.html")

	err := runUpload(context.Background(), io.Discard, io.Discard, writeInput(t), &uploadOptions{out: out, html: true})
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<pre>&#34;&lt;i&gt;&#34;</pre>\n", string(got))
}

func TestUploadCmd_RejectsExtraArgs(t *testing.T) {
	cmd := newUploadCmd()
	cmd.SetArgs([]string{"a.json", "b.json"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}
