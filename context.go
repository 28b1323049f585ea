package weld

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context is a named, isolated provider registry wrapping one ScopeManager.
// Components are registered against interface types and resolved with their
// declared lifetime; when auto-wiring is enabled, declared constructor
// dependencies are resolved recursively from the same Context.
//
// A Context owns its ScopeManager exclusively. Instances created through it
// belong to the Context until disposal. Contexts never share mutable state;
// cross-context access happens only through import providers installed at
// build time.
type Context struct {
	mu     sync.RWMutex
	name   string
	id     string
	logger *zap.Logger
	hooks  []EventHook

	providers map[string]*ProviderConfig
	byType    map[reflect.Type]string
	scopes    *ScopeManager
	autoWire  bool
}

// ContextOption customizes a Context.
type ContextOption func(*Context)

// WithLogger installs a logger for non-fatal resolution and disposal events.
func WithLogger(logger *zap.Logger) ContextOption {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks installs event hooks notified of registrations, resolutions, and
// lifecycle changes.
func WithHooks(hooks ...EventHook) ContextOption {
	return func(c *Context) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// WithLifecycle installs a lifecycle callback on the owned ScopeManager.
func WithLifecycle(callback LifecycleCallback) ContextOption {
	return func(c *Context) {
		c.scopes.callback = callback
	}
}

// NewContext creates an empty Context. Auto-wiring is disabled until
// EnableAutoWiring is called.
func NewContext(name string, opts ...ContextOption) (*Context, error) {
	if err := ValidateContextName(name); err != nil {
		return nil, err
	}

	c := &Context{
		name:      name,
		id:        uuid.NewString(),
		logger:    zap.NewNop(),
		providers: make(map[string]*ProviderConfig),
		byType:    make(map[reflect.Type]string),
	}
	c.scopes = NewScopeManager()
	for _, opt := range opts {
		opt(c)
	}
	c.scopes.logger = c.logger
	return c, nil
}

// Name returns the context name.
func (c *Context) Name() string {
	return c.name
}

// ID returns the unique instance ID of the context.
func (c *Context) ID() string {
	return c.id
}

// ScopeManager returns the lifetime engine owned by this context, for
// opening scope frames:
//
//	frame := ctx.ScopeManager().CreateScope()
//	defer frame.Close()
func (c *Context) ScopeManager() *ScopeManager {
	return c.scopes
}

// RegisterOption customizes one component registration.
type RegisterOption func(*ProviderConfig)

// WithName registers the component under an explicit name instead of its
// type name.
func WithName(name string) RegisterOption {
	return func(pc *ProviderConfig) { pc.Name = name }
}

// WithScope sets the component's lifetime policy. The default is Singleton.
func WithScope(scope Scope) RegisterOption {
	return func(pc *ProviderConfig) { pc.Scope = scope }
}

// WithImplementation sets the concrete type constructed for the interface.
func WithImplementation(impl reflect.Type) RegisterOption {
	return func(pc *ProviderConfig) { pc.Implementation = impl }
}

// WithFactory supplies an explicit factory, bypassing auto-wiring.
func WithFactory(factory Factory) RegisterOption {
	return func(pc *ProviderConfig) { pc.Factory = factory }
}

// WithConstructor supplies a constructor together with its declared
// dependency descriptors for auto-wiring.
func WithConstructor(constructor Constructor, deps ...Dependency) RegisterOption {
	return func(pc *ProviderConfig) {
		pc.Constructor = constructor
		pc.Dependencies = deps
	}
}

// WithProviderTags attaches free-form metadata to the registration.
func WithProviderTags(tags map[string]string) RegisterOption {
	return func(pc *ProviderConfig) { pc.Tags = tags }
}

// WithCondition gates the registration's activation in module building.
func WithCondition(cond Condition) RegisterOption {
	return func(pc *ProviderConfig) { pc.Condition = cond }
}

// RegisterComponent installs a provider for componentType, keyed by the
// registration name or the type name.
//
// Registration overwrites by default: registering the same key again
// silently replaces the previous provider. This is deliberate, to support
// hot-swapping providers; already-created singleton instances are not
// invalidated by a re-registration.
func (c *Context) RegisterComponent(componentType reflect.Type, opts ...RegisterOption) error {
	pc := &ProviderConfig{Interface: componentType, Scope: Singleton}
	for _, opt := range opts {
		opt(pc)
	}
	return c.RegisterProvider(pc)
}

// RegisterProvider installs a fully described provider configuration. Same
// overwrite-by-default semantics as RegisterComponent.
func (c *Context) RegisterProvider(pc *ProviderConfig) error {
	if pc == nil {
		return RegistrationError{Operation: "register", Cause: ErrComponentTypeNil}
	}
	if err := pc.Validate(); err != nil {
		return RegistrationError{ComponentType: pc.Interface, Operation: "validate", Cause: err}
	}
	if err := ValidateComponentRegistration(pc.Interface, pc.Implementation, pc.Name); err != nil {
		return RegistrationError{ComponentType: pc.Interface, Operation: "validate", Cause: err}
	}
	if len(pc.Dependencies) > 0 && pc.Constructor == nil {
		return RegistrationError{
			ComponentType: pc.Interface,
			Operation:     "validate",
			Cause:         ValidationError{Subject: "provider", Cause: errors.New("dependencies declared without a constructor")},
		}
	}
	if pc.Factory == nil && pc.Constructor == nil && !isInstantiable(pc.GetImplementation()) {
		return RegistrationError{ComponentType: pc.Interface, Operation: "register", Cause: ErrNotInstantiable}
	}

	key := pc.ProviderName()

	c.mu.Lock()
	c.providers[key] = pc
	c.byType[pc.Interface] = key
	c.mu.Unlock()

	c.logger.Debug("component registered",
		zap.String("context", c.name),
		zap.String("component", key),
		zap.Stringer("scope", pc.Scope))
	emitEvent(c.hooks, c.logger, EventComponentRegistered, map[string]any{
		"context":   c.name,
		"component": key,
		"scope":     pc.Scope.String(),
	})

	return nil
}

// IsRegistered reports whether a provider exists for the type, or for the
// explicit name if one is given.
func (c *Context) IsRegistered(componentType reflect.Type, name ...string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(name) > 0 && name[0] != "" {
		_, exists := c.providers[name[0]]
		return exists
	}

	if key, ok := c.byType[componentType]; ok {
		_, exists := c.providers[key]
		return exists
	}
	_, exists := c.providers[typeName(componentType)]
	return exists
}

// EnableAutoWiring turns on recursive resolution of declared constructor
// dependencies. It is idempotent and does not re-resolve singletons that
// were already created.
func (c *Context) EnableAutoWiring() {
	c.mu.Lock()
	c.autoWire = true
	c.mu.Unlock()
}

// Resolve returns an instance of the component registered for the type,
// constructing it (and, with auto-wiring enabled, its declared dependencies)
// as dictated by the provider's scope.
func (c *Context) Resolve(componentType reflect.Type) (any, error) {
	r := newResolution(c)
	return r.Resolve(componentType)
}

// ResolveNamed returns an instance of the component registered under name.
func (c *Context) ResolveNamed(componentType reflect.Type, name string) (any, error) {
	r := newResolution(c)
	return r.ResolveNamed(componentType, name)
}

// ResolveContext is Resolve with caller cancellation honored before work
// begins. Resolution itself is synchronous; the only suspension points are
// inside user-supplied factories.
func (c *Context) ResolveContext(ctx context.Context, componentType reflect.Type) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, ResolutionError{Context: c.name, ComponentType: componentType, Cause: err}
	}
	return c.Resolve(componentType)
}

// Unregister removes the provider for the type (or explicit name) and
// reports whether one was removed. Existing instances are not disposed.
func (c *Context) Unregister(componentType reflect.Type, name ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := ""
	if len(name) > 0 && name[0] != "" {
		key = name[0]
	} else if mapped, ok := c.byType[componentType]; ok {
		key = mapped
	} else {
		key = typeName(componentType)
	}

	pc, exists := c.providers[key]
	if !exists {
		return false
	}

	delete(c.providers, key)
	if c.byType[pc.Interface] == key {
		delete(c.byType, pc.Interface)
	}
	return true
}

// Clear removes every registration and disposes all instance state held by
// the ScopeManager.
func (c *Context) Clear() error {
	c.mu.Lock()
	c.providers = make(map[string]*ProviderConfig)
	c.byType = make(map[reflect.Type]string)
	c.mu.Unlock()

	return c.scopes.Dispose()
}

// Shutdown releases disposable resources held by created instances. Unlike
// Clear, registrations and already-created singleton instances survive: the
// context remains resolvable after a shutdown that merely released
// resources.
func (c *Context) Shutdown() error {
	return c.ShutdownContext(context.Background())
}

// ShutdownContext is Shutdown with a caller-supplied context passed through
// to context-aware cleanup hooks.
func (c *Context) ShutdownContext(ctx context.Context) error {
	emitEvent(c.hooks, c.logger, EventLifecycleChanged, map[string]any{
		"context": c.name,
		"stage":   "shutdown",
	})
	return c.scopes.ReleaseResources(ctx)
}

// GetRegistrationCount returns the number of installed providers.
func (c *Context) GetRegistrationCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.providers)
}

// GetRegisteredTypes returns the interface types with installed providers.
func (c *Context) GetRegisteredTypes() []reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	types := make([]reflect.Type, 0, len(c.providers))
	for _, pc := range c.providers {
		types = append(types, pc.Interface)
	}
	return types
}

// GetSummary returns a diagnostic snapshot of the context.
func (c *Context) GetSummary() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.providers))
	for key := range c.providers {
		names = append(names, key)
	}

	return map[string]any{
		"name":            c.name,
		"component_count": len(c.providers),
		"components":      names,
		"auto_wiring":     c.autoWire,
	}
}

// resolution tracks one in-flight resolution chain. The chain is call-local
// state, not context-global: concurrent resolutions never observe each
// other's chains. Factories receive the resolution as their Resolver, so a
// factory that resolves further components extends the same chain and
// re-entry is detected the moment it happens.
type resolution struct {
	owner    *Context
	chain    []string
	inFlight map[string]bool
}

var _ Resolver = (*resolution)(nil)

func newResolution(c *Context) *resolution {
	return &resolution{owner: c, inFlight: make(map[string]bool)}
}

// Resolve implements Resolver.
func (r *resolution) Resolve(componentType reflect.Type) (any, error) {
	return r.resolve(componentType, "")
}

// ResolveNamed implements Resolver.
func (r *resolution) ResolveNamed(componentType reflect.Type, name string) (any, error) {
	return r.resolve(componentType, name)
}

func (r *resolution) resolve(componentType reflect.Type, name string) (any, error) {
	c := r.owner

	if componentType == nil {
		return nil, ResolutionError{Context: c.name, Name: name, Cause: ErrComponentTypeNil}
	}

	c.mu.RLock()
	key := name
	if key == "" {
		if mapped, ok := c.byType[componentType]; ok {
			key = mapped
		} else {
			key = typeName(componentType)
		}
	}
	pc, exists := c.providers[key]
	autoWire := c.autoWire
	c.mu.RUnlock()

	if !exists || !providerSatisfies(pc, componentType) {
		err := ResolutionError{Context: c.name, ComponentType: componentType, Name: name, Cause: ErrProviderNotFound}
		r.failed(componentType, name, err)
		return nil, err
	}

	if r.inFlight[key] {
		err := CircularDependencyError{Context: c.name, Chain: append(append([]string{}, r.chain...), key)}
		r.failed(componentType, name, err)
		return nil, err
	}

	r.inFlight[key] = true
	r.chain = append(r.chain, key)
	defer func() {
		delete(r.inFlight, key)
		r.chain = r.chain[:len(r.chain)-1]
	}()

	instance, err := c.scopes.CreateOrGetNamedInstance(pc.Interface, key, pc.Scope, func() (any, error) {
		return r.construct(pc, autoWire)
	})
	if err != nil {
		var resErr ResolutionError
		var circErr CircularDependencyError
		if !errors.As(err, &resErr) && !errors.As(err, &circErr) {
			err = ResolutionError{Context: c.name, ComponentType: componentType, Name: name, Cause: err}
		}
		r.failed(componentType, name, err)
		return nil, err
	}

	emitEvent(c.hooks, c.logger, EventComponentResolved, map[string]any{
		"context":   c.name,
		"component": key,
	})
	return instance, nil
}

// construct produces one instance for a provider, honoring factory,
// constructor, or zero-value construction in that order.
func (r *resolution) construct(pc *ProviderConfig, autoWire bool) (any, error) {
	if pc.Factory != nil {
		return pc.Factory(r)
	}

	if pc.Constructor != nil {
		if len(pc.Dependencies) > 0 && !autoWire {
			return nil, ErrAutoWiringDisabled
		}

		deps := make(Deps, len(pc.Dependencies))
		for _, dep := range pc.Dependencies {
			instance, err := r.resolve(dep.Type, "")
			if err != nil {
				if dep.Optional && errors.Is(err, ErrProviderNotFound) {
					deps[dep.Name] = nil
					continue
				}
				return nil, err
			}
			deps[dep.Name] = instance
		}
		return pc.Constructor(deps)
	}

	return newZeroInstance(pc.GetImplementation())
}

func (r *resolution) failed(componentType reflect.Type, name string, err error) {
	c := r.owner
	c.logger.Debug("resolution failed",
		zap.String("context", c.name),
		zap.String("component", typeName(componentType)),
		zap.Error(err))
	emitEvent(c.hooks, c.logger, EventResolutionFailed, map[string]any{
		"context":   c.name,
		"component": typeName(componentType),
		"name":      name,
		"error":     err.Error(),
	})
}

// providerSatisfies reports whether a provider found by key can serve a
// request for componentType.
func providerSatisfies(pc *ProviderConfig, componentType reflect.Type) bool {
	if pc.Interface == componentType {
		return true
	}
	return pc.Interface.AssignableTo(componentType)
}

// isInstantiable reports whether a type can be constructed without a factory
// or constructor: struct types and pointers to struct types get zero values.
func isInstantiable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct
	default:
		return false
	}
}

func newZeroInstance(t reflect.Type) (any, error) {
	switch t.Kind() {
	case reflect.Pointer:
		return reflect.New(t.Elem()).Interface(), nil
	case reflect.Struct:
		return reflect.New(t).Elem().Interface(), nil
	default:
		return nil, RegistrationError{ComponentType: t, Operation: "construct", Cause: ErrNotInstantiable}
	}
}
