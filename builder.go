package weld

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ContextModuleBuilder turns declared modules from a GlobalRegistry into
// wired Context instances. Contexts are built in dependency order so that
// every import can be satisfied from a context constructed earlier in the
// same call, and construction is all-or-nothing: any failure aborts the
// whole build and no partial context map is returned.
type ContextModuleBuilder struct {
	registry *GlobalRegistry
	logger   *zap.Logger
	hooks    []EventHook
}

// BuilderOption customizes a ContextModuleBuilder.
type BuilderOption func(*ContextModuleBuilder)

// WithBuilderLogger installs a logger for build diagnostics. The logger is
// also handed to every context the builder constructs.
func WithBuilderLogger(logger *zap.Logger) BuilderOption {
	return func(b *ContextModuleBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBuilderHooks installs event hooks propagated to every built context.
func WithBuilderHooks(hooks ...EventHook) BuilderOption {
	return func(b *ContextModuleBuilder) {
		b.hooks = append(b.hooks, hooks...)
	}
}

// NewContextModuleBuilder creates a builder over the given registry.
func NewContextModuleBuilder(registry *GlobalRegistry, opts ...BuilderOption) *ContextModuleBuilder {
	b := &ContextModuleBuilder{
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildContexts constructs one context per given module, wires imports
// between them, and enables auto-wiring on each. The returned map is keyed
// by module name.
//
// Every argument must be module metadata currently registered in the
// registry; metadata that was never registered, or that was displaced by a
// later registration under the same name, is rejected. Imports must be
// satisfiable from modules given in the same call; a required import from an
// absent module fails the build.
func (b *ContextModuleBuilder) BuildContexts(defs ...*ModuleMetadata) (map[string]*Context, error) {
	modules, requested, err := b.declaredModules(defs)
	if err != nil {
		return nil, err
	}

	if problems := b.validateAmong(modules, requested); len(problems) > 0 {
		return nil, BuildError{Phase: "validate", Problems: problems}
	}

	order, err := b.registry.GetBuildOrder()
	if err != nil {
		return nil, BuildError{Phase: "order", Cause: err}
	}

	contexts := make(map[string]*Context, len(modules))
	for _, name := range order {
		module, wanted := modules[name]
		if !wanted {
			continue
		}
		c, err := b.buildContext(module, contexts)
		if err != nil {
			return nil, err
		}
		contexts[name] = c
	}

	b.logger.Info("contexts built", zap.Int("count", len(contexts)))
	return contexts, nil
}

// BuildContextsContext is BuildContexts with cancellation support. The
// context is checked before the build starts; construction itself is
// synchronous.
func (b *ContextModuleBuilder) BuildContextsContext(ctx context.Context, defs ...*ModuleMetadata) (map[string]*Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.BuildContexts(defs...)
}

// ValidateModules dry-runs the validation phase of a build over the given
// modules and returns every problem found as a human-readable string. An
// empty result means BuildContexts with the same arguments would pass
// validation.
func (b *ContextModuleBuilder) ValidateModules(defs ...*ModuleMetadata) []string {
	var problems []string

	modules := make(map[string]*ModuleMetadata, len(defs))
	var requested []string
	for _, def := range defs {
		module, name, ok := b.lookupDeclared(def)
		if !ok {
			problems = append(problems, fmt.Sprintf("module %q is not a declared module", name))
			continue
		}
		modules[name] = module
		requested = append(requested, name)
	}

	problems = append(problems, b.validateAmong(modules, requested)...)

	for _, cycle := range b.registry.DetectCircularDependencies() {
		problems = append(problems, fmt.Sprintf("circular module dependency: %v", cycle))
	}
	return problems
}

// GetModuleSummary returns a diagnostic snapshot of the registry: module
// count, the dependency graph, and the build order when one exists.
func (b *ContextModuleBuilder) GetModuleSummary() map[string]any {
	summary := map[string]any{
		"module_count":     b.registry.ModuleCount(),
		"modules":          b.registry.GetModuleNames(),
		"dependency_graph": b.registry.GetDependencyGraph(),
	}
	if order, err := b.registry.GetBuildOrder(); err != nil {
		summary["build_order_error"] = err.Error()
	} else {
		summary["build_order"] = order
	}
	return summary
}

// lookupDeclared resolves metadata to its registered entry. Membership is a
// registry check on the metadata value itself, so stale metadata displaced
// by a re-registration under the same name does not pass.
func (b *ContextModuleBuilder) lookupDeclared(def *ModuleMetadata) (*ModuleMetadata, string, bool) {
	if def == nil {
		return nil, "<nil>", false
	}
	module, ok := b.registry.GetModuleByDefinition(def)
	if !ok {
		return nil, def.Name, false
	}
	return module, module.Name, true
}

func (b *ContextModuleBuilder) declaredModules(defs []*ModuleMetadata) (map[string]*ModuleMetadata, []string, error) {
	modules := make(map[string]*ModuleMetadata, len(defs))
	var requested []string
	for _, def := range defs {
		module, name, ok := b.lookupDeclared(def)
		if !ok {
			return nil, nil, BuildError{
				Phase:  "validate",
				Module: name,
				Cause:  ErrModuleNotDeclared,
			}
		}
		if _, dup := modules[name]; dup {
			continue
		}
		modules[name] = module
		requested = append(requested, name)
	}
	return modules, requested, nil
}

// validateAmong checks that every required import of the requested modules
// is exported by another module in the same requested set.
func (b *ContextModuleBuilder) validateAmong(modules map[string]*ModuleMetadata, requested []string) []string {
	var problems []string
	for _, name := range requested {
		module := modules[name]
		for _, imp := range module.Imports.RequiredImports() {
			source, inSet := modules[imp.FromContext]
			if !inSet {
				problems = append(problems, fmt.Sprintf(
					"module %q requires %s from module %q, which is not part of this build",
					module.Name, typeName(imp.ComponentType), imp.FromContext))
				continue
			}
			if !source.ExportsType(imp.ComponentType) {
				problems = append(problems, fmt.Sprintf(
					"module %q requires %s from module %q, which does not export it",
					module.Name, typeName(imp.ComponentType), imp.FromContext))
			}
		}
	}
	return problems
}

// buildContext constructs the context for one module: providers first, then
// import delegates against the contexts already built in this pass, then
// auto-wiring.
func (b *ContextModuleBuilder) buildContext(module *ModuleMetadata, built map[string]*Context) (*Context, error) {
	opts := []ContextOption{WithLogger(b.logger)}
	if len(b.hooks) > 0 {
		opts = append(opts, WithHooks(b.hooks...))
	}
	c, err := NewContext(module.Name, opts...)
	if err != nil {
		return nil, BuildError{Phase: "construct", Module: module.Name, Cause: err}
	}

	for _, provider := range module.Providers.ActiveProviders() {
		if err := c.RegisterProvider(provider); err != nil {
			return nil, BuildError{Phase: "register", Module: module.Name, Cause: err}
		}
	}

	for _, imp := range module.Imports.Imports() {
		if err := b.wireImport(c, module, imp, built); err != nil {
			return nil, err
		}
	}

	c.EnableAutoWiring()
	return c, nil
}

// wireImport registers a delegate provider in the importing context that
// forwards resolution to the source context. The delegate is transient so it
// caches nothing locally; singleton sharing is the source context's job, and
// the importer observes the exact same instance.
func (b *ContextModuleBuilder) wireImport(c *Context, module *ModuleMetadata, imp *ContextImport, built map[string]*Context) error {
	source, ok := built[imp.FromContext]
	if !ok || !source.IsRegistered(imp.ComponentType, imp.ProviderName()) {
		if imp.Required {
			return BuildError{
				Phase:  "wire",
				Module: module.Name,
				Cause: fmt.Errorf("required import %s from context %q: %w",
					typeName(imp.ComponentType), imp.FromContext, ErrImportUnresolvable),
			}
		}
		b.logger.Warn("optional import unavailable, skipping",
			zap.String("module", module.Name),
			zap.String("component", typeName(imp.ComponentType)),
			zap.String("from", imp.FromContext))
		return nil
	}

	componentType := imp.ComponentType
	providerName := imp.ProviderName()
	delegate := &ProviderConfig{
		Interface: componentType,
		Scope:     Transient,
		Name:      imp.LocalName(),
		Factory: func(Resolver) (any, error) {
			return source.ResolveNamed(componentType, providerName)
		},
	}
	if err := c.RegisterProvider(delegate); err != nil {
		return BuildError{Phase: "wire", Module: module.Name, Cause: err}
	}
	return nil
}
