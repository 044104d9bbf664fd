package fixtures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/hairyhenderson/toml"
)

// Format decodes one kind of fixture file.
// Implementations are selected by the last extension of the file name.
type Format interface {
	// Name returns the format identifier (e.g., "json", "yaml")
	Name() string

	// Extensions returns the file extensions handled, including the dot
	Extensions() []string

	// Decode parses the file content into plain Go values
	Decode(content []byte) (any, error)
}

// Registry manages the registration and retrieval of fixture formats.
// It provides thread-safe access to registered formats.
type Registry struct {
	mu       sync.RWMutex
	formats  map[string]Format
	fallback Format
}

// NewRegistry creates a new format registry that falls back to raw text
func NewRegistry() *Registry {
	return &Registry{
		formats:  make(map[string]Format),
		fallback: TextFormat{},
	}
}

// Register adds a format for each of its extensions
func (r *Registry) Register(format Format) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range format.Extensions() {
		ext = strings.ToLower(ext)
		if existing, exists := r.formats[ext]; exists {
			return fmt.Errorf("extension '%s' already registered by format '%s'", ext, existing.Name())
		}
		r.formats[ext] = format
	}
	return nil
}

// Get retrieves the format for an extension
func (r *Registry) Get(ext string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formats[strings.ToLower(ext)]
	return f, ok
}

// GetForFile determines the format from the last extension of a file name,
// falling back to raw text for unknown extensions
func (r *Registry) GetForFile(name string) Format {
	ext := ""
	if i := strings.LastIndex(name, "."); i > 0 {
		ext = name[i:]
	}
	if f, ok := r.Get(ext); ok {
		return f
	}
	return r.fallback
}

// List returns all registered extensions, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.formats))
	for ext := range r.formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DefaultRegistry is the global fixture format registry
var DefaultRegistry = newDefaultRegistry()

// Register adds a format to the default registry
func Register(format Format) error {
	return DefaultRegistry.Register(format)
}

// Get retrieves a format from the default registry
func Get(ext string) (Format, bool) {
	return DefaultRegistry.Get(ext)
}

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(JSONFormat{})
	_ = r.Register(YAMLFormat{})
	_ = r.Register(TOMLFormat{})
	_ = r.Register(TextFormat{})
	return r
}

// JSONFormat decodes .json files, keeping integers as int64
type JSONFormat struct{}

func (JSONFormat) Name() string         { return "json" }
func (JSONFormat) Extensions() []string { return []string{".json"} }

func (JSONFormat) Decode(content []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// YAMLFormat decodes .yaml and .yml files
type YAMLFormat struct{}

func (YAMLFormat) Name() string         { return "yaml" }
func (YAMLFormat) Extensions() []string { return []string{".yaml", ".yml"} }

func (YAMLFormat) Decode(content []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(content, &v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// TOMLFormat decodes .toml files
type TOMLFormat struct{}

func (TOMLFormat) Name() string         { return "toml" }
func (TOMLFormat) Extensions() []string { return []string{".toml"} }

func (TOMLFormat) Decode(content []byte) (any, error) {
	v := map[string]any{}
	if err := toml.Unmarshal(content, &v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// TextFormat keeps the file content as a string
type TextFormat struct{}

func (TextFormat) Name() string         { return "text" }
func (TextFormat) Extensions() []string { return []string{".txt", ".sql", ".md"} }

func (TextFormat) Decode(content []byte) (any, error) {
	return string(content), nil
}
