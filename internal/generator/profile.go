package generator

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var builtinProfiles embed.FS

// ErrUnknownProfile is returned when a profile name is not registered.
var ErrUnknownProfile = errors.New("unknown profile")

// ErrUnknownAttribute is returned when an attribute is not a field of the profile.
var ErrUnknownAttribute = errors.New("unknown attribute")

// Field is one attribute of a generated record.
type Field struct {
	Name   string   `yaml:"name"`
	Kind   Kind     `yaml:"kind"`
	Min    float64  `yaml:"min,omitempty"`
	Max    float64  `yaml:"max,omitempty"`
	Values []string `yaml:"values,omitempty"`
}

// Profile describes the record shape of one JSON type (persons, badges, ...).
type Profile struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Fields      []Field `yaml:"fields"`
	Source      string  `yaml:"-"` // "builtin" or the file it was loaded from
}

// Attributes returns the field names in declaration order.
func (p *Profile) Attributes() []string {
	names := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (p *Profile) Field(name string) (Field, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Select returns the fields named in attributes, or every field when attributes is empty.
func (p *Profile) Select(attributes []string) ([]Field, error) {
	if len(attributes) == 0 {
		return p.Fields, nil
	}
	fields := make([]Field, 0, len(attributes))
	for _, name := range attributes {
		f, ok := p.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w %q for profile %s", ErrUnknownAttribute, name, p.Name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Validate checks that the profile can be generated from.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name is required")
	}
	if len(p.Fields) == 0 {
		return fmt.Errorf("profile %s has no fields", p.Name)
	}
	seen := make(map[string]struct{}, len(p.Fields))
	for _, f := range p.Fields {
		if f.Name == "" {
			return fmt.Errorf("profile %s has a field without a name", p.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("profile %s declares field %s twice", p.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !f.Kind.Valid() {
			return fmt.Errorf("profile %s field %s: unknown kind %q", p.Name, f.Name, f.Kind)
		}
		if f.Kind == KindEnum && len(f.Values) == 0 {
			return fmt.Errorf("profile %s field %s: enum needs values", p.Name, f.Name)
		}
		if f.Max != 0 && f.Min > f.Max {
			return fmt.Errorf("profile %s field %s: min %v above max %v", p.Name, f.Name, f.Min, f.Max)
		}
	}
	return nil
}

// ParseProfile decodes and validates a YAML profile document.
func ParseProfile(data []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Registry holds the profiles available for generation.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewRegistry creates a registry holding the built-in profiles.
func NewRegistry() (*Registry, error) {
	builtins, err := loadBuiltins()
	if err != nil {
		return nil, err
	}
	return &Registry{profiles: builtins}, nil
}

// Get returns a profile by name.
func (r *Registry) Get(name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return p, nil
}

// List returns all profiles sorted by name.
func (r *Registry) List() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// LoadDir rebuilds the registry from the built-ins plus every *.yaml / *.yml
// file in dir. A file profile replaces a built-in of the same name. Invalid
// files are skipped and reported in the returned error; the valid ones still
// take effect.
func (r *Registry) LoadDir(dir string) (int, error) {
	profiles, err := loadBuiltins()
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.swap(profiles)
			return 0, nil
		}
		return 0, fmt.Errorf("reading profiles directory: %w", err)
	}

	var errs []error
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !isProfileFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		p, err := ParseProfile(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		p.Source = path
		profiles[p.Name] = p
		loaded++
	}

	r.swap(profiles)
	return loaded, errors.Join(errs...)
}

func (r *Registry) swap(profiles map[string]*Profile) {
	r.mu.Lock()
	r.profiles = profiles
	r.mu.Unlock()
}

func loadBuiltins() (map[string]*Profile, error) {
	profiles := make(map[string]*Profile)
	err := fs.WalkDir(builtinProfiles, "profiles", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := builtinProfiles.ReadFile(path)
		if err != nil {
			return err
		}
		p, err := ParseProfile(data)
		if err != nil {
			return fmt.Errorf("builtin %s: %w", path, err)
		}
		p.Source = "builtin"
		profiles[p.Name] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func isProfileFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
