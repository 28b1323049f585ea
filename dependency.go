package weld

import (
	"reflect"
)

// Dependency declares one constructor dependency of an injectable component.
// Components do not have their constructors introspected at runtime; the
// declaration layer states each parameter explicitly so the auto-wiring
// engine only ever works from declared descriptors.
type Dependency struct {
	// Name is the constructor parameter name and the key under which the
	// resolved instance is delivered in Deps.
	Name string

	// Type is the component type to resolve from the owning Context.
	Type reflect.Type

	// Optional marks a dependency that may be absent. Unresolved optional
	// dependencies are delivered as nil instead of failing the resolution.
	Optional bool
}

// Deps carries the resolved dependencies of a component, keyed by the
// declared parameter name. Optional dependencies that could not be resolved
// are present with a nil value.
type Deps map[string]any

// Get returns the resolved instance for a declared parameter name, or nil if
// it was not resolved.
func (d Deps) Get(name string) any {
	return d[name]
}

// Has reports whether a parameter was resolved to a non-nil instance.
func (d Deps) Has(name string) bool {
	return d[name] != nil
}

// DepOf returns the resolved dependency under name asserted to T. The zero
// value of T is returned when the dependency is absent or of a different
// type, which keeps optional-dependency handling free of nil checks at call
// sites.
func DepOf[T any](d Deps, name string) T {
	v, _ := d[name].(T)
	return v
}

// TypeOf returns the reflect.Type of T. It is the standard way to name a
// component type at registration and resolution call sites:
//
//	weld.TypeOf[ArticleStore]()
//	weld.TypeOf[*PaymentGateway]()
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
