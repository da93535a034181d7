package client

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"object", map[string]any{"b": 2, "a": 1}, "{\n  \"a\": 1,\n  \"b\": 2\n}"},
		{"raw keeps order", json.RawMessage(`{"b":2,"a":1}`), "{\n  \"b\": 2,\n  \"a\": 1\n}"},
		{"nested", []any{map[string]any{"x": []any{}}}, "[\n  {\n    \"x\": []\n  }\n]"},
		{"string", "a&b", `"a&b"`},
		{"null", nil, "null"},
		{"empty object", map[string]any{}, "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Render(func() {})
	assert.Error(t, err)
}

func TestRender_SameValueSameOutput(t *testing.T) {
	v := map[string]any{"k": []any{1, "two", 3.5, nil, map[string]any{"z": true, "y": false}}}
	first, err := Render(v)
	require.NoError(t, err)
	second, err := Render(v)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()

	plain := &FileOutput{Path: filepath.Join(dir, "out", "data.json")}
	require.NoError(t, plain.Show(`{"a": "<x>"}`))
	require.NoError(t, plain.Show(`{"b": 2}`))
	got, err := os.ReadFile(plain.Path)
	require.NoError(t, err)
	assert.Equal(t, "{\"b\": 2}\n", string(got), "each Show replaces the file")

	page := &FileOutput{Path: filepath.Join(dir, "data.html"), HTML: true}
	require.NoError(t, page.Show(`{"a": "<x> & y"}`))
	got, err = os.ReadFile(page.Path)
	require.NoError(t, err)
	assert.Equal(t, "<pre>{&#34;a&#34;: &#34;&lt;x&gt; &amp; y&#34;}</pre>\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".synth-", "temp files are cleaned up")
	}
}

func TestWriterOutputAndNotifier(t *testing.T) {
	var out, alerts bytes.Buffer

	o := &WriterOutput{W: &out}
	require.NoError(t, o.Show("{}"))
	assert.Equal(t, "{}\n", out.String())

	n := &WriterNotifier{W: &alerts}
	n.Alert(MsgNoFile)
	assert.Equal(t, "Please select a file.\n", alerts.String())
}
