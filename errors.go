package weld

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/weldlabs/weld/internal/graph"
)

// Sentinel errors. These are base errors that are wrapped in typed errors
// when returned; match them with errors.Is.
var (
	// Resolution errors.
	ErrProviderNotFound   = errors.New("no provider registered")
	ErrAutoWiringDisabled = errors.New("auto-wiring is disabled")
	ErrComponentTypeNil   = errors.New("component type cannot be nil")

	// Registration errors.
	ErrFactoryAndConstructor = errors.New("cannot register both a factory and a constructor")
	ErrNotInstantiable       = errors.New("implementation is not instantiable")
	ErrInvalidScope          = errors.New("invalid scope")

	// Module and registry errors.
	ErrModuleNotDeclared  = errors.New("not a declared module")
	ErrModuleMetadataNil  = errors.New("module metadata cannot be nil")
	ErrImportUnresolvable = errors.New("required import cannot be resolved")
)

var (
	_ error = ScopeValueError{}
	_ error = ResolutionError{}
	_ error = CircularDependencyError{}
	_ error = RegistrationError{}
	_ error = ValidationError{}
	_ error = ModuleError{}
	_ error = BuildError{}
	_ error = DisposalError{}
)

// ModuleCycleError is the error type reported when the module-level
// dependency graph contains a cycle.
type ModuleCycleError = graph.CircularDependencyError

// ScopeValueError indicates an unrecognized scope value.
type ScopeValueError struct {
	Value any
}

func (e ScopeValueError) Error() string {
	return fmt.Sprintf("invalid scope: %v", e.Value)
}

// ResolutionError wraps errors that occur while resolving a component from a
// Context. It carries enough context to diagnose the failure without tracing:
// the owning context, the requested type, and the registration name if one
// was used.
type ResolutionError struct {
	Context       string
	ComponentType reflect.Type
	Name          string
	Cause         error
}

func (e ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("context %q: failed to resolve %s", e.Context, formatType(e.ComponentType)))
	if e.Name != "" {
		b.WriteString(fmt.Sprintf(" (name: %q)", e.Name))
	}
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	return b.String()
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// CircularDependencyError indicates that an in-flight resolution re-entered a
// component that is still being constructed. Chain holds the full resolution
// chain, ending with the re-entered component.
type CircularDependencyError struct {
	Context string
	Chain   []string
}

func (e CircularDependencyError) Error() string {
	return fmt.Sprintf("context %q: circular dependency detected: %s",
		e.Context, strings.Join(e.Chain, " -> "))
}

// RegistrationError wraps errors during component registration. Operation
// identifies the failing step ("register", "validate", "import").
type RegistrationError struct {
	ComponentType reflect.Type
	Operation     string
	Cause         error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, formatType(e.ComponentType), e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ValidationError indicates malformed registration input.
type ValidationError struct {
	Subject string
	Cause   error
}

func (e ValidationError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %v", e.Subject, e.Cause)
	}
	return e.Cause.Error()
}

func (e ValidationError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps errors tied to a specific declared module.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// BuildError aggregates the failure of a whole BuildContexts call.
// Nothing partially built is committed when a BuildError is returned.
type BuildError struct {
	Phase    string // "validate", "order", "construct", "register", "wire"
	Module   string // offending module, if one is identifiable
	Problems []string
	Cause    error
}

func (e BuildError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("build failed during %s phase", e.Phase))
	if e.Module != "" {
		b.WriteString(fmt.Sprintf(" (module %q)", e.Module))
	}
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

func (e BuildError) Unwrap() error {
	return e.Cause
}

// DisposalError aggregates errors raised while disposing instances. Each
// instance's failure is isolated; disposal of the remaining instances
// continues regardless.
type DisposalError struct {
	Source string // "scope-frame", "scope-manager", "context"
	Errors []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s disposal failed: %v", e.Source, e.Errors[0])
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s disposal failed with %d errors:", e.Source, len(e.Errors)))
	for i, err := range e.Errors {
		b.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return b.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

// formatType formats a reflect.Type for error messages, preferring short
// names for named types.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Interface, reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}

// typeName returns the default provider name for a component type: the short
// name of the named type, dereferencing one pointer level.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
