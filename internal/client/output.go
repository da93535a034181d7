package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Render serializes data as JSON indented by two spaces. HTML characters are
// not escaped and map keys of a json.RawMessage keep their order.
func Render(data any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("rendering data: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Output is the container rendered data is written to. Show replaces the
// previous content.
type Output interface {
	Show(content string) error
}

// Notifier shows alerts to the user.
type Notifier interface {
	Alert(message string)
}

// WriterOutput prints rendered data to a stream, one block per Show.
type WriterOutput struct {
	mu sync.Mutex
	W  io.Writer
}

func (o *WriterOutput) Show(content string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := fmt.Fprintln(o.W, content)
	return err
}

// FileOutput overwrites a file with each rendering. With HTML set the content
// is wrapped in an escaped <pre> element.
type FileOutput struct {
	Path string
	HTML bool
}

func (o *FileOutput) Show(content string) error {
	if o.HTML {
		content = "<pre>" + html.EscapeString(content) + "</pre>"
	}
	dir := filepath.Dir(o.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".synth-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content + "\n"); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), o.Path)
}

// WriterNotifier prints alerts to a stream.
type WriterNotifier struct {
	mu sync.Mutex
	W  io.Writer
}

func (n *WriterNotifier) Alert(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.W, message)
}
