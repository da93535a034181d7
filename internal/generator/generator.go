// Package generator produces synthetic JSON values, either shaped after an
// uploaded example or from a named profile.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// ErrInvalidJSON is returned when an uploaded document cannot be decoded.
var ErrInvalidJSON = errors.New("invalid JSON format")

// Generator creates fake values. It is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	faker    *gofakeit.Faker
	profiles *Registry
}

// New creates a Generator. A zero seed picks a random one.
func New(seed uint64, profiles *Registry) *Generator {
	return &Generator{
		faker:    gofakeit.New(seed),
		profiles: profiles,
	}
}

// Profiles returns the registry backing profile generation.
func (g *Generator) Profiles() *Registry {
	return g.profiles
}

// DecodeJSON parses a document keeping integers and floats apart.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	return v, nil
}

// SynthesizeJSON decodes data and returns a value of the same shape with every
// leaf replaced by a fake.
func (g *Generator) SynthesizeJSON(data []byte) (any, error) {
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return g.Synthesize(v), nil
}

// Synthesize returns a value shaped like v. Objects keep their keys; strings
// become text (or a fake matching the key, such as an email); integers,
// floats and booleans become random values of the same type; null becomes a
// random word.
func (g *Generator) Synthesize(v any) any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.synthesize("", v)
}

func (g *Generator) synthesize(key string, v any) any {
	switch val := v.(type) {
	case map[string]any:
		// sorted so a seeded generator is reproducible
		out := make(map[string]any, len(val))
		for _, k := range sortedKeys(val) {
			out[k] = g.synthesize(k, val[k])
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = g.synthesize(key, child)
		}
		return out
	case string:
		if kind, ok := hintFor(key); ok {
			return fake(g.faker, Field{Name: key, Kind: kind})
		}
		return text(g.faker, defaultTextChars)
	case json.Number:
		if isFloatLiteral(val.String()) {
			return fake(g.faker, Field{Kind: KindFloat})
		}
		return fake(g.faker, Field{Kind: KindInt})
	case float64:
		return fake(g.faker, Field{Kind: KindFloat})
	case int, int64:
		return fake(g.faker, Field{Kind: KindInt})
	case bool:
		return g.faker.Bool()
	default:
		return g.faker.Word()
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isFloatLiteral(s string) bool {
	return strings.ContainsAny(s, ".eE")
}

// Request describes a batch generation.
type Request struct {
	Profile    string
	Attributes []string
	Count      int
	Example    any // used when Profile is empty
}

// Result is the output of Generate with its timing.
type Result struct {
	Records     []any
	Elapsed     time.Duration
	RecordTimes []time.Duration // elapsed since start after each record
}

// AvgPerRecord returns the mean generation time per record.
func (r *Result) AvgPerRecord() time.Duration {
	if len(r.Records) == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(len(r.Records))
}

// Generate produces req.Count records from a profile, or shaped after
// req.Example when no profile is named. Example arrays are cycled through.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Count < 1 {
		return nil, fmt.Errorf("record count must be positive, got %d", req.Count)
	}

	var next func(i int) any
	switch {
	case req.Profile != "":
		if g.profiles == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, req.Profile)
		}
		profile, err := g.profiles.Get(req.Profile)
		if err != nil {
			return nil, err
		}
		fields, err := profile.Select(req.Attributes)
		if err != nil {
			return nil, err
		}
		next = func(int) any { return g.record(fields) }
	case req.Example != nil:
		shapes := exampleShapes(req.Example, req.Attributes)
		next = func(i int) any { return g.Synthesize(shapes[i%len(shapes)]) }
	default:
		return nil, errors.New("a profile or an example document is required")
	}

	res := &Result{
		Records:     make([]any, 0, req.Count),
		RecordTimes: make([]time.Duration, 0, req.Count),
	}
	start := time.Now()
	for i := 0; i < req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Records = append(res.Records, next(i))
		res.RecordTimes = append(res.RecordTimes, time.Since(start))
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func (g *Generator) record(fields []Field) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec := make(map[string]any, len(fields))
	for _, f := range fields {
		rec[f.Name] = fake(g.faker, f)
	}
	return rec
}

// exampleShapes flattens an example into the list of record shapes to cycle,
// keeping only the selected attributes of object shapes.
func exampleShapes(example any, attributes []string) []any {
	shapes := []any{example}
	if arr, ok := example.([]any); ok && len(arr) > 0 {
		shapes = arr
	}
	if len(attributes) == 0 {
		return shapes
	}

	out := make([]any, len(shapes))
	for i, s := range shapes {
		obj, ok := s.(map[string]any)
		if !ok {
			out[i] = s
			continue
		}
		filtered := make(map[string]any, len(attributes))
		for _, a := range attributes {
			if v, ok := obj[a]; ok {
				filtered[a] = v
			}
		}
		out[i] = filtered
	}
	return out
}
