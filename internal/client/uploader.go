// Package client posts a selected file to a synthetic data server and shows
// the reply, either as rendered output or as an alert.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Alert texts shown to the user.
const (
	MsgNoFile  = "Please select a file."
	MsgGeneric = "An error occurred. Please try again."
)

// DefaultPath is the upload endpoint on the server.
const DefaultPath = "/upload"

// ErrNoFile is returned when Upload is called without a file.
var ErrNoFile = errors.New("no file selected")

// ServerError is a truthy "error" field in the server reply.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "server error: " + e.Message
}

// TransportError wraps a failed request or an unparseable reply.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "upload failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPDoer sends HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// File is the file picked for upload.
type File struct {
	Name    string
	Content io.Reader
}

// Uploader runs the upload workflow against one server.
type Uploader struct {
	endpoint string
	client   HTTPDoer
	output   Output
	notifier Notifier
	logger   *zap.Logger
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c HTTPDoer) Option {
	return func(u *Uploader) { u.client = c }
}

// WithLogger sets the logger that receives transport failures.
func WithLogger(l *zap.Logger) Option {
	return func(u *Uploader) { u.logger = l }
}

// New creates an Uploader posting to baseURL + DefaultPath.
func New(baseURL string, out Output, notifier Notifier, opts ...Option) (*Uploader, error) {
	if baseURL == "" {
		return nil, errors.New("server URL is required")
	}
	if out == nil || notifier == nil {
		return nil, errors.New("output and notifier are required")
	}
	u := &Uploader{
		endpoint: strings.TrimRight(baseURL, "/") + DefaultPath,
		client:   http.DefaultClient,
		output:   out,
		notifier: notifier,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Endpoint returns the URL files are posted to.
func (u *Uploader) Endpoint() string {
	return u.endpoint
}

// Upload posts f as the multipart field "file" and shows the result. A nil
// file alerts MsgNoFile without touching the network. The returned error is
// ErrNoFile, a *ServerError or a *TransportError; the user has already been
// alerted in each case.
func (u *Uploader) Upload(ctx context.Context, f *File) error {
	if f == nil || f.Content == nil {
		u.notifier.Alert(MsgNoFile)
		return ErrNoFile
	}

	reply, err := u.post(ctx, f)
	if err != nil {
		return u.transportFailure(err)
	}

	if msg, failed := reply.errorMessage(); failed {
		u.logger.Debug("server rejected upload", zap.String("file", f.Name), zap.String("error", msg))
		u.notifier.Alert("Error: " + msg)
		return &ServerError{Message: msg}
	}

	content, err := Render(reply.syntheticData())
	if err != nil {
		return u.transportFailure(err)
	}
	if err := u.output.Show(content); err != nil {
		return u.transportFailure(fmt.Errorf("writing output: %w", err))
	}
	u.logger.Debug("upload rendered", zap.String("file", f.Name), zap.Int("bytes", len(content)))
	return nil
}

func (u *Uploader) transportFailure(err error) error {
	u.logger.Error("upload failed", zap.String("endpoint", u.endpoint), zap.Error(err))
	u.notifier.Alert(MsgGeneric)
	return &TransportError{Err: err}
}

func (u *Uploader) post(ctx context.Context, f *File) (*reply, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", f.Name)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f.Content); err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Status codes are not inspected: error replies carry an "error" field.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return parseReply(raw)
}

// reply is a parsed server response. Only object replies have fields.
type reply struct {
	fields map[string]json.RawMessage
}

func parseReply(raw []byte) (*reply, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if dec.More() {
		return nil, errors.New("failed to decode response: trailing data")
	}
	// A null body has no fields to read "error" from; the page fails on it too.
	if v == nil {
		return nil, errors.New("failed to decode response: null reply")
	}

	r := &reply{}
	if _, ok := v.(map[string]any); ok {
		if err := json.Unmarshal(raw, &r.fields); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return r, nil
}

// errorMessage reports whether the reply carries a truthy "error" and the
// text to show for it. Strings are shown as is, other values as JSON.
func (r *reply) errorMessage() (string, bool) {
	raw, ok := r.fields["error"]
	if !ok {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || !truthy(v) {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return string(compact(raw)), true
}

// syntheticData returns the raw "synthetic_data" value, or JSON null when the
// reply has none.
func (r *reply) syntheticData() json.RawMessage {
	if raw, ok := r.fields["synthetic_data"]; ok {
		return raw
	}
	return json.RawMessage("null")
}

// truthy applies JavaScript truthiness to a decoded JSON value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

func compact(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
