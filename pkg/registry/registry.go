// Package registry holds form schemas keyed by module and form type. A
// Registry is an explicit value handed to whatever composes forms; any number
// of them can coexist.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// ErrNotFound is returned by Lookup for an unknown module or form type.
var ErrNotFound = errors.New("registry: schema not found")

// Option configures a Registry.
type Option func(*Registry)

// WithValidators makes named custom validators available to schemas that
// reference them through Validation.CustomRef.
func WithValidators(validators map[string]schema.CustomFunc) Option {
	return func(r *Registry) {
		for name, fn := range validators {
			if fn != nil {
				r.validators[name] = fn
			}
		}
	}
}

// WithLenientRefs accepts schemas whose CustomRef has no registered
// validator. The reference is left unbound.
func WithLenientRefs() Option {
	return func(r *Registry) {
		r.lenient = true
	}
}

// Registry stores schemas by module then form type.
type Registry struct {
	mu         sync.RWMutex
	modules    map[string]map[string]*schema.Schema
	validators map[string]schema.CustomFunc
	lenient    bool
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		modules:    make(map[string]map[string]*schema.Schema),
		validators: make(map[string]schema.CustomFunc),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register stores a copy of s under module/form and binds its custom
// validator references. Duplicates are rejected.
func (r *Registry) Register(module, form string, s *schema.Schema) error {
	module = strings.TrimSpace(module)
	form = strings.TrimSpace(form)
	if module == "" || form == "" {
		return errors.New("registry: module and form are required")
	}
	if s == nil {
		return fmt.Errorf("registry: schema for %s/%s is nil", module, form)
	}

	stored := s.Clone()
	if stored.ID == "" {
		stored.ID = module + "." + form
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range stored.CustomRefs() {
		fn, ok := r.validators[ref]
		if !ok {
			if r.lenient {
				continue
			}
			return fmt.Errorf("registry: %s/%s references unknown validator %q", module, form, ref)
		}
		stored.Bind(ref, fn)
	}

	forms, ok := r.modules[module]
	if !ok {
		forms = make(map[string]*schema.Schema)
		r.modules[module] = forms
	}
	if _, exists := forms[form]; exists {
		return fmt.Errorf("registry: %s/%s already registered", module, form)
	}
	forms[form] = stored
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(module, form string, s *schema.Schema) {
	if err := r.Register(module, form, s); err != nil {
		panic(err)
	}
}

// Lookup returns a copy of the schema registered under module/form.
func (r *Registry) Lookup(module, form string) (*schema.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.modules[module][form]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, module, form)
	}
	return s.Clone(), nil
}

// MustLookup panics if the schema is missing.
func (r *Registry) MustLookup(module, form string) *schema.Schema {
	s, err := r.Lookup(module, form)
	if err != nil {
		panic(err)
	}
	return s
}

// Modules returns the sorted module names.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Forms returns the sorted form types of module.
func (r *Registry) Forms(module string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	forms := r.modules[module]
	names := make([]string, 0, len(forms))
	for name := range forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validators returns the sorted names of the registered validators.
func (r *Registry) Validators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, forms := range r.modules {
		n += len(forms)
	}
	return n
}
