package weld

import (
	"fmt"
	"reflect"
)

// ContextImport declares a module's request to reuse a component exported by
// another named module. Imports are wired at build time: the builder installs
// a local provider in the importing context that delegates to the source
// context's resolution.
type ContextImport struct {
	// ComponentType is the exported type being imported.
	ComponentType reflect.Type

	// FromContext names the module that exports the component.
	FromContext string

	// Name optionally selects a named registration in the source context.
	Name string

	// Alias optionally renames the component in the importing context.
	Alias string

	// Required marks an import whose absence fails the build. Optional
	// imports whose source is unavailable are skipped with a warning.
	Required bool
}

// ImportOption customizes a ContextImport created by NewImport.
type ImportOption func(*ContextImport)

// WithImportName selects a named registration in the source context.
func WithImportName(name string) ImportOption {
	return func(ci *ContextImport) { ci.Name = name }
}

// WithAlias renames the component in the importing context.
func WithAlias(alias string) ImportOption {
	return func(ci *ContextImport) { ci.Alias = alias }
}

// AsOptional marks the import as non-fatal when unsatisfiable.
func AsOptional() ImportOption {
	return func(ci *ContextImport) { ci.Required = false }
}

// NewImport declares an import of componentType from the module named
// fromContext. Imports are required unless AsOptional is given.
func NewImport(componentType reflect.Type, fromContext string, opts ...ImportOption) *ContextImport {
	ci := &ContextImport{
		ComponentType: componentType,
		FromContext:   fromContext,
		Required:      true,
	}
	for _, opt := range opts {
		opt(ci)
	}
	return ci
}

// ProviderName returns the name the component is registered under in the
// source context: Name when set, otherwise the short type name.
func (ci *ContextImport) ProviderName() string {
	if ci.Name != "" {
		return ci.Name
	}
	return typeName(ci.ComponentType)
}

// ImportKey returns the uniqueness key of the import within a collection:
// "fromContext:providerName".
func (ci *ContextImport) ImportKey() string {
	return ci.FromContext + ":" + ci.ProviderName()
}

// LocalName returns the name the component is registered under in the
// importing context: Alias when set, otherwise the provider name.
func (ci *ContextImport) LocalName() string {
	if ci.Alias != "" {
		return ci.Alias
	}
	return ci.ProviderName()
}

// Validate checks the structural shape of the import.
func (ci *ContextImport) Validate() error {
	if ci.ComponentType == nil {
		return ValidationError{Subject: "import", Cause: ErrComponentTypeNil}
	}
	return ValidateContextName(ci.FromContext)
}

// ImportCollection is an ordered set of imports deduplicated by import key.
// The first import under a key wins; later imports with the same key are
// silently ignored.
type ImportCollection struct {
	imports []*ContextImport
	byKey   map[string]int
}

// NewImportCollection creates a collection from the given imports.
func NewImportCollection(imports ...*ContextImport) *ImportCollection {
	ic := &ImportCollection{byKey: make(map[string]int)}
	for _, imp := range imports {
		ic.Add(imp)
	}
	return ic
}

// Add appends an import unless its key is already taken. It reports whether
// the import was added.
func (ic *ImportCollection) Add(imp *ContextImport) bool {
	if imp == nil {
		return false
	}

	key := imp.ImportKey()
	if _, exists := ic.byKey[key]; exists {
		return false
	}

	ic.byKey[key] = len(ic.imports)
	ic.imports = append(ic.imports, imp)
	return true
}

// ImportsFrom returns the imports sourced from the named context, in
// declaration order.
func (ic *ImportCollection) ImportsFrom(fromContext string) []*ContextImport {
	var matched []*ContextImport
	for _, imp := range ic.imports {
		if imp.FromContext == fromContext {
			matched = append(matched, imp)
		}
	}
	return matched
}

// RequiredImports returns the imports whose absence fails a build.
func (ic *ImportCollection) RequiredImports() []*ContextImport {
	var matched []*ContextImport
	for _, imp := range ic.imports {
		if imp.Required {
			matched = append(matched, imp)
		}
	}
	return matched
}

// OptionalImports returns the imports that are skipped with a warning when
// unsatisfiable.
func (ic *ImportCollection) OptionalImports() []*ContextImport {
	var matched []*ContextImport
	for _, imp := range ic.imports {
		if !imp.Required {
			matched = append(matched, imp)
		}
	}
	return matched
}

// SourceContexts returns the distinct source context names, in first-seen
// order.
func (ic *ImportCollection) SourceContexts() []string {
	seen := make(map[string]bool)
	var sources []string
	for _, imp := range ic.imports {
		if !seen[imp.FromContext] {
			seen[imp.FromContext] = true
			sources = append(sources, imp.FromContext)
		}
	}
	return sources
}

// Imports returns a copy of the collection in declaration order.
func (ic *ImportCollection) Imports() []*ContextImport {
	out := make([]*ContextImport, len(ic.imports))
	copy(out, ic.imports)
	return out
}

// Len returns the number of imports in the collection.
func (ic *ImportCollection) Len() int {
	return len(ic.imports)
}

// Validate checks every import and rejects collections that import the same
// component type from two different source contexts: within one collection a
// component must have a single unambiguous origin.
func (ic *ImportCollection) Validate() error {
	sourceByType := make(map[reflect.Type]string, len(ic.imports))
	for _, imp := range ic.imports {
		if err := imp.Validate(); err != nil {
			return err
		}

		if prev, exists := sourceByType[imp.ComponentType]; exists && prev != imp.FromContext {
			return ValidationError{
				Subject: "imports",
				Cause: fmt.Errorf("component %s imported from two contexts: %q and %q",
					formatType(imp.ComponentType), prev, imp.FromContext),
			}
		}
		sourceByType[imp.ComponentType] = imp.FromContext
	}
	return nil
}
