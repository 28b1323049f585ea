package weld

import (
	"reflect"
	"slices"
)

// ModuleMetadata is the declarative record of one module: the providers it
// contributes, the components it imports from other modules, and the
// components it exports for others to import. A module compiles into exactly
// one Context during building.
//
// Metadata is produced once by the declaration layer via NewModule and is
// treated as immutable afterwards; a module is replaced by registering new
// metadata under the same name.
type ModuleMetadata struct {
	// Name identifies the module and names the Context built from it.
	Name string

	// Providers are the component registrations this module contributes.
	Providers *ProviderCollection

	// Imports are the cross-module component requests.
	Imports *ImportCollection

	// Exports are the component types other modules may import.
	Exports []reflect.Type

	// Description documents the module for diagnostics.
	Description string

	// Version documents the module revision for diagnostics.
	Version string

	// Tags carry free-form module metadata.
	Tags map[string]string
}

// ModuleOption customizes metadata created by NewModule.
type ModuleOption func(*ModuleMetadata)

// WithProviders adds component registrations to the module.
func WithProviders(providers ...*ProviderConfig) ModuleOption {
	return func(m *ModuleMetadata) {
		for _, p := range providers {
			m.Providers.Add(p)
		}
	}
}

// WithImports adds cross-module component requests to the module.
func WithImports(imports ...*ContextImport) ModuleOption {
	return func(m *ModuleMetadata) {
		for _, imp := range imports {
			m.Imports.Add(imp)
		}
	}
}

// WithExports marks component types as importable by other modules.
func WithExports(exports ...reflect.Type) ModuleOption {
	return func(m *ModuleMetadata) {
		m.Exports = append(m.Exports, exports...)
	}
}

// WithDescription documents the module.
func WithDescription(description string) ModuleOption {
	return func(m *ModuleMetadata) { m.Description = description }
}

// WithVersion records the module revision.
func WithVersion(version string) ModuleOption {
	return func(m *ModuleMetadata) { m.Version = version }
}

// WithModuleTags attaches free-form metadata to the module.
func WithModuleTags(tags map[string]string) ModuleOption {
	return func(m *ModuleMetadata) { m.Tags = tags }
}

// NewModule declares a module. The returned metadata value is the module's
// identity: registries key it both by name and by the metadata value itself,
// and the builder accepts only metadata that has been declared through this
// constructor and registered.
func NewModule(name string, opts ...ModuleOption) *ModuleMetadata {
	m := &ModuleMetadata{
		Name:      name,
		Providers: NewProviderCollection(),
		Imports:   NewImportCollection(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ExportsType reports whether the module exports the component type.
func (m *ModuleMetadata) ExportsType(componentType reflect.Type) bool {
	return slices.Contains(m.Exports, componentType)
}

// ProvidesType reports whether any provider in the module is registered for
// the component type.
func (m *ModuleMetadata) ProvidesType(componentType reflect.Type) bool {
	_, ok := m.Providers.GetByInterface(componentType)
	return ok
}

// ImportsType reports whether any import in the module requests the
// component type.
func (m *ModuleMetadata) ImportsType(componentType reflect.Type) bool {
	for _, imp := range m.Imports.Imports() {
		if imp.ComponentType == componentType {
			return true
		}
	}
	return false
}

// DependsOn returns the names of the modules this module imports from,
// excluding itself, in first-seen order.
func (m *ModuleMetadata) DependsOn() []string {
	var deps []string
	for _, source := range m.Imports.SourceContexts() {
		if source != m.Name {
			deps = append(deps, source)
		}
	}
	return deps
}

// Validate checks the module's name, collections, and exports.
func (m *ModuleMetadata) Validate() error {
	if err := ValidateContextName(m.Name); err != nil {
		return ModuleError{Module: m.Name, Cause: err}
	}
	if err := m.Providers.Validate(); err != nil {
		return ModuleError{Module: m.Name, Cause: err}
	}
	if err := m.Imports.Validate(); err != nil {
		return ModuleError{Module: m.Name, Cause: err}
	}
	if err := ValidateExports(m.Exports); err != nil {
		return ModuleError{Module: m.Name, Cause: err}
	}
	if err := ValidateTags(m.Tags); err != nil {
		return ModuleError{Module: m.Name, Cause: err}
	}
	return nil
}

// Summary returns a diagnostic snapshot of the module.
func (m *ModuleMetadata) Summary() map[string]any {
	exports := make([]string, len(m.Exports))
	for i, t := range m.Exports {
		exports[i] = typeName(t)
	}

	return map[string]any{
		"name":        m.Name,
		"description": m.Description,
		"version":     m.Version,
		"providers":   m.Providers.Len(),
		"imports":     m.Imports.Len(),
		"exports":     exports,
		"depends_on":  m.DependsOn(),
	}
}
