package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/datumkit/datum"
	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/validation"
)

// Definition is a YAML pipeline description. Steps name registered
// transformations; Includes name other definitions whose steps run first,
// in the listed order.
//
//	name: cleanup
//	includes: [normalize]
//	steps: [detrend, clip]
type Definition struct {
	// Name is the pipeline identifier.
	Name string `yaml:"name"`
	// Description is free text.
	Description string `yaml:"description,omitempty"`
	// Includes lists sub-pipeline names to prepend (recursive).
	Includes []string `yaml:"includes,omitempty"`
	// Steps lists transformation names in execution order.
	Steps []string `yaml:"steps"`
}

// Validate checks names and requires at least one step or include.
func (d *Definition) Validate() error {
	v := validation.New()
	v.Required("name", d.Name).Identifier("name", d.Name).MaxLength("name", d.Name, 128)
	v.Custom(len(d.Steps)+len(d.Includes) > 0, "steps", "at least one step or include is required")
	for i, s := range d.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		v.Required(field, s).Identifier(field, s)
	}
	for i, inc := range d.Includes {
		field := fmt.Sprintf("includes[%d]", i)
		v.Required(field, inc).Identifier(field, inc)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ParseDefinition decodes and validates a YAML definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.InvalidInput("definition", err.Error()).WithCause(err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDefinition reads a definition from a YAML file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NotFound("pipeline definition", path).WithCause(err)
	}
	d, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parsing %s: %w", path, err)
	}
	return d, nil
}

// Loader loads definitions by name to resolve includes.
type Loader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from {name}.yaml or {name}.yml files.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches the given directories.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load searches every directory, then its direct subdirectories, for the
// definition file.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			candidates := []string{filepath.Join(dir, name+ext)}
			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			candidates = append(candidates, matches...)
			for _, path := range candidates {
				if _, err := os.Stat(path); err != nil {
					continue
				}
				return LoadDefinition(path)
			}
		}
	}
	return nil, errors.NotFound("pipeline definition", name).WithDetail("dirs", l.dirs)
}

// MapLoader serves definitions from memory.
type MapLoader map[string]*Definition

// Load returns the definition stored under name.
func (m MapLoader) Load(name string) (*Definition, error) {
	d, ok := m[name]
	if !ok {
		return nil, errors.NotFound("pipeline definition", name)
	}
	return d, nil
}

// Build resolves a definition into a named Pipeline. Included definitions are
// loaded through loader (which may be nil when there are none) and their
// steps placed before the definition's own, recursively. A definition that
// includes itself, directly or not, fails with INVALID_INPUT; a missing
// transformation or include fails with NOT_FOUND.
func Build[T datum.Sample](def *Definition, reg *Registry[T], loader Loader) (Pipeline[T], error) {
	p, err := build(def, reg, loader, make(map[string]bool))
	if err != nil {
		return Pipeline[T]{}, err
	}
	return p.Named(def.Name), nil
}

func build[T datum.Sample](def *Definition, reg *Registry[T], loader Loader, stack map[string]bool) (Pipeline[T], error) {
	if stack[def.Name] {
		return Pipeline[T]{}, errors.InvalidInput("includes", fmt.Sprintf("circular include of pipeline %q", def.Name))
	}
	stack[def.Name] = true
	defer delete(stack, def.Name)

	var parts []Pipeline[T]
	for _, name := range def.Includes {
		if loader == nil {
			return Pipeline[T]{}, errors.NotFound("pipeline definition", name)
		}
		sub, err := loader.Load(name)
		if err != nil {
			return Pipeline[T]{}, fmt.Errorf("pipeline: loading include %q: %w", name, err)
		}
		p, err := build(sub, reg, loader, stack)
		if err != nil {
			return Pipeline[T]{}, err
		}
		parts = append(parts, p)
	}

	own := Pipeline[T]{}
	for _, name := range def.Steps {
		t, err := reg.Lookup(name)
		if err != nil {
			return Pipeline[T]{}, fmt.Errorf("pipeline %q: %w", def.Name, err)
		}
		own = own.Then(t)
	}
	return Concat(append(parts, own)...), nil
}
