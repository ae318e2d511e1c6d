package pattern

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Pattern is one reusable prompt template from the catalog. Patterns are
// immutable once loaded.
type Pattern struct {
	Name     string
	Category string
	Slots    []string
	Template string
	Source   string
}

// CatalogError reports a malformed pattern catalog. It is fatal at startup.
type CatalogError struct {
	Source string
	Line   int
	Reason string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("pattern catalog %s:%d: %s", e.Source, e.Line, e.Reason)
}

// UnknownPatternError reports a pattern name that does not resolve in the
// registry.
type UnknownPatternError struct {
	Name string
}

func (e *UnknownPatternError) Error() string {
	return fmt.Sprintf("unknown pattern %q", e.Name)
}

//go:embed data/*.csv
var defaultCatalog embed.FS

// catalogFiles are loaded in this order; List follows it.
var catalogFiles = []string{
	"prompt_patterns_detailed.csv",
	"react_prompt_patterns.csv",
}

// Registry indexes the pattern catalog. It is read-only after load and
// safe for unsynchronized concurrent reads.
type Registry struct {
	byName map[string]Pattern
	order  []string
}

// LoadDefault builds a registry from the embedded catalog files.
func LoadDefault() (*Registry, error) {
	reg := newRegistry()
	for _, name := range catalogFiles {
		f, err := defaultCatalog.Open("data/" + name)
		if err != nil {
			return nil, fmt.Errorf("open embedded catalog %s: %w", name, err)
		}
		err = reg.readCatalog(f, name)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadDir builds a registry from catalog CSV files in dir. The same file
// names as the embedded catalog are expected.
func LoadDir(dir string) (*Registry, error) {
	reg := newRegistry()
	for _, name := range catalogFiles {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open catalog %s: %w", path, err)
		}
		err = reg.readCatalog(f, name)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func newRegistry() *Registry {
	return &Registry{byName: make(map[string]Pattern)}
}

// readCatalog parses one catalog CSV. Required columns: pattern_name,
// pattern_family, required_slots, template. Slots are semicolon separated.
func (r *Registry) readCatalog(src io.Reader, source string) error {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return &CatalogError{Source: source, Line: 1, Reason: "missing header"}
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"pattern_name", "pattern_family", "required_slots", "template"} {
		if _, ok := col[required]; !ok {
			return &CatalogError{Source: source, Line: 1, Reason: fmt.Sprintf("missing column %q", required)}
		}
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return &CatalogError{Source: source, Line: line, Reason: err.Error()}
		}
		field := func(name string) string {
			idx := col[name]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		name := field("pattern_name")
		if name == "" {
			return &CatalogError{Source: source, Line: line, Reason: "empty pattern_name"}
		}
		if _, exists := r.byName[name]; exists {
			return &CatalogError{Source: source, Line: line, Reason: fmt.Sprintf("duplicate pattern %q", name)}
		}
		template := field("template")
		if template == "" {
			return &CatalogError{Source: source, Line: line, Reason: fmt.Sprintf("pattern %q has no template", name)}
		}

		p := Pattern{
			Name:     name,
			Category: field("pattern_family"),
			Slots:    splitSlots(field("required_slots")),
			Template: template,
			Source:   source,
		}
		r.byName[name] = p
		r.order = append(r.order, name)
	}
}

func splitSlots(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	slots := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			slots = append(slots, s)
		}
	}
	return slots
}

// Get returns the pattern for name.
func (r *Registry) Get(name string) (Pattern, error) {
	p, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return Pattern{}, &UnknownPatternError{Name: name}
	}
	return p, nil
}

// List returns all patterns in catalog order. The order is stable so UI
// palettes render deterministically.
func (r *Registry) List() []Pattern {
	out := make([]Pattern, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
