package generator

import (
	"errors"
)

// ErrNotRecords is returned when anonymization input is not an object or a list of objects.
var ErrNotRecords = errors.New("expected a JSON object or an array of objects")

// Anonymize returns a copy of data where the named attributes of every record
// are replaced. A profile field of the same name decides the fake kind;
// otherwise the kind follows the original value and its key. An empty
// attribute list anonymizes every attribute. The input is not modified.
func (g *Generator) Anonymize(data any, attributes []string, profile *Profile) (any, error) {
	switch val := data.(type) {
	case map[string]any:
		return g.anonymizeRecord(val, attributes, profile), nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, ErrNotRecords
			}
			out[i] = g.anonymizeRecord(rec, attributes, profile)
		}
		return out, nil
	default:
		return nil, ErrNotRecords
	}
}

func (g *Generator) anonymizeRecord(rec map[string]any, attributes []string, profile *Profile) map[string]any {
	out := deepCopy(rec).(map[string]any)

	selected := attributes
	if len(selected) == 0 {
		selected = sortedKeys(rec)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, attr := range selected {
		orig, ok := rec[attr]
		if !ok {
			continue
		}
		if profile != nil {
			if f, ok := profile.Field(attr); ok {
				out[attr] = fake(g.faker, f)
				continue
			}
		}
		out[attr] = g.synthesize(attr, orig)
	}
	return out
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return val
	}
}
