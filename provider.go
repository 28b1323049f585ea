package weld

import (
	"fmt"
	"reflect"
)

// Resolver resolves component instances. It is implemented by *Context and by
// the per-resolution view handed to factories, so a factory that resolves
// further components participates in the caller's in-flight cycle detection.
type Resolver interface {
	// Resolve returns an instance of the component registered for the type.
	Resolve(componentType reflect.Type) (any, error)

	// ResolveNamed returns an instance of the component registered under an
	// explicit name.
	ResolveNamed(componentType reflect.Type, name string) (any, error)
}

// Factory produces a component instance. The supplied Resolver is bound to
// the resolution chain that invoked the factory.
type Factory func(r Resolver) (any, error)

// Constructor produces a component instance from its declared, already
// resolved dependencies. Constructors are invoked by the auto-wiring engine;
// they never resolve components themselves.
type Constructor func(deps Deps) (any, error)

// Condition gates a provider's activation. A nil Condition means the
// provider is always active.
type Condition func() bool

// ConditionBool adapts a fixed boolean into a Condition.
func ConditionBool(active bool) Condition {
	return func() bool { return active }
}

// ProviderConfig describes one component registration: the interface it is
// registered under, the concrete implementation, its lifetime, and how
// instances are produced.
type ProviderConfig struct {
	// Interface is the type the component is registered and resolved under.
	Interface reflect.Type

	// Implementation is the concrete type constructed for the interface.
	// When nil, the interface type itself is treated as the implementation.
	Implementation reflect.Type

	// Scope is the lifetime policy. The zero value is Singleton.
	Scope Scope

	// Name optionally distinguishes multiple registrations. When empty, the
	// short name of the interface type is used.
	Name string

	// Factory, when set, produces instances directly and bypasses
	// auto-wiring. Mutually exclusive with Constructor.
	Factory Factory

	// Constructor, when set, produces instances from the declared
	// Dependencies once the auto-wiring engine has resolved them.
	Constructor Constructor

	// Dependencies declares the constructor parameters to auto-wire.
	Dependencies []Dependency

	// Tags carry free-form registration metadata.
	Tags map[string]string

	// Condition gates activation. Inactive providers are skipped by module
	// building and excluded from ActiveProviders.
	Condition Condition
}

// GetImplementation returns the concrete type to construct: Implementation
// when set, otherwise the Interface type itself.
func (pc *ProviderConfig) GetImplementation() reflect.Type {
	if pc.Implementation != nil {
		return pc.Implementation
	}
	return pc.Interface
}

// ProviderName returns the registration key: Name when set, otherwise the
// short name of the interface type.
func (pc *ProviderConfig) ProviderName() string {
	if pc.Name != "" {
		return pc.Name
	}
	return typeName(pc.Interface)
}

// EvaluateCondition reports whether the provider is active. A nil Condition
// means active. A Condition that panics is treated as inactive; internal
// failures never escape condition evaluation.
func (pc *ProviderConfig) EvaluateCondition() (active bool) {
	if pc.Condition == nil {
		return true
	}

	defer func() {
		if recover() != nil {
			active = false
		}
	}()

	return pc.Condition()
}

// Validate checks the structural shape of the registration.
func (pc *ProviderConfig) Validate() error {
	if pc.Interface == nil {
		return ValidationError{Subject: "provider", Cause: ErrComponentTypeNil}
	}
	if !pc.Scope.IsValid() {
		return ValidationError{Subject: "provider", Cause: ScopeValueError{Value: pc.Scope}}
	}
	if pc.Factory != nil && pc.Constructor != nil {
		return ValidationError{Subject: "provider", Cause: ErrFactoryAndConstructor}
	}
	if err := ValidateDependencies(pc.Dependencies); err != nil {
		return err
	}
	return ValidateTags(pc.Tags)
}

// ProviderCollection is an ordered set of provider configurations keyed by
// provider name. The first registration under a name wins; later
// registrations with the same name are silently ignored.
type ProviderCollection struct {
	providers []*ProviderConfig
	byName    map[string]int
}

// NewProviderCollection creates an empty collection.
func NewProviderCollection(providers ...*ProviderConfig) *ProviderCollection {
	pc := &ProviderCollection{byName: make(map[string]int)}
	for _, p := range providers {
		pc.Add(p)
	}
	return pc
}

// Add appends a provider unless its name is already taken. It reports
// whether the provider was added.
func (pc *ProviderCollection) Add(provider *ProviderConfig) bool {
	if provider == nil {
		return false
	}

	name := provider.ProviderName()
	if _, exists := pc.byName[name]; exists {
		return false
	}

	pc.byName[name] = len(pc.providers)
	pc.providers = append(pc.providers, provider)
	return true
}

// GetByName returns the provider registered under name.
func (pc *ProviderCollection) GetByName(name string) (*ProviderConfig, bool) {
	idx, exists := pc.byName[name]
	if !exists {
		return nil, false
	}
	return pc.providers[idx], true
}

// GetByInterface returns the first provider registered for the interface
// type.
func (pc *ProviderCollection) GetByInterface(componentType reflect.Type) (*ProviderConfig, bool) {
	for _, p := range pc.providers {
		if p.Interface == componentType {
			return p, true
		}
	}
	return nil, false
}

// ByScope returns the providers registered with the given scope, in
// registration order.
func (pc *ProviderCollection) ByScope(scope Scope) []*ProviderConfig {
	var matched []*ProviderConfig
	for _, p := range pc.providers {
		if p.Scope == scope {
			matched = append(matched, p)
		}
	}
	return matched
}

// ActiveProviders returns the providers whose condition currently evaluates
// true, in registration order.
func (pc *ProviderCollection) ActiveProviders() []*ProviderConfig {
	var active []*ProviderConfig
	for _, p := range pc.providers {
		if p.EvaluateCondition() {
			active = append(active, p)
		}
	}
	return active
}

// Providers returns a copy of the collection in registration order.
func (pc *ProviderCollection) Providers() []*ProviderConfig {
	out := make([]*ProviderConfig, len(pc.providers))
	copy(out, pc.providers)
	return out
}

// Len returns the number of providers in the collection.
func (pc *ProviderCollection) Len() int {
	return len(pc.providers)
}

// Validate checks every provider and rejects collections in which one
// interface type is provided under two different names: each interface must
// have a single unambiguous provider within a collection.
func (pc *ProviderCollection) Validate() error {
	namesByInterface := make(map[reflect.Type]string, len(pc.providers))
	for _, p := range pc.providers {
		if err := p.Validate(); err != nil {
			return err
		}

		name := p.ProviderName()
		if prev, exists := namesByInterface[p.Interface]; exists && prev != name {
			return ValidationError{
				Subject: "providers",
				Cause: fmt.Errorf("interface %s provided under two names: %q and %q",
					formatType(p.Interface), prev, name),
			}
		}
		namesByInterface[p.Interface] = name
	}
	return nil
}
