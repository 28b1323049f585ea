package weld

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/weldlabs/weld/internal/graph"
)

// GlobalRegistry is the single source of truth for declared modules and the
// dependency graph between them. It is safe for concurrent registration from
// multiple goroutines.
//
// A registry is constructed explicitly and passed to the builder; tests
// create a fresh instance instead of resetting hidden process state.
type GlobalRegistry struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	hooks   []EventHook
	modules map[string]*ModuleMetadata
	byDef   map[*ModuleMetadata]string
	order   []string
	graph   *graph.DependencyGraph
}

// RegistryOption customizes a GlobalRegistry.
type RegistryOption func(*GlobalRegistry)

// WithRegistryLogger installs a logger for registration events.
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *GlobalRegistry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryHooks installs event hooks notified of module registrations.
func WithRegistryHooks(hooks ...EventHook) RegistryOption {
	return func(r *GlobalRegistry) {
		r.hooks = append(r.hooks, hooks...)
	}
}

// NewGlobalRegistry creates an empty module registry.
func NewGlobalRegistry(opts ...RegistryOption) *GlobalRegistry {
	r := &GlobalRegistry{
		logger:  zap.NewNop(),
		modules: make(map[string]*ModuleMetadata),
		byDef:   make(map[*ModuleMetadata]string),
		graph:   graph.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterModule inserts module metadata, overwriting any module previously
// registered under the same name. Overwriting removes the old definition
// mapping and installs the new one, and the module's edge set in the
// dependency graph is recomputed from its imports.
func (r *GlobalRegistry) RegisterModule(metadata *ModuleMetadata) error {
	if metadata == nil {
		return ErrModuleMetadataNil
	}
	if err := metadata.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if old, exists := r.modules[metadata.Name]; exists {
		delete(r.byDef, old)
	} else {
		r.order = append(r.order, metadata.Name)
	}
	r.modules[metadata.Name] = metadata
	r.byDef[metadata] = metadata.Name
	r.graph.SetDependencies(metadata.Name, metadata.DependsOn())
	r.mu.Unlock()

	r.logger.Debug("module registered",
		zap.String("module", metadata.Name),
		zap.Strings("depends_on", metadata.DependsOn()))
	emitEvent(r.hooks, r.logger, EventModuleRegistered, map[string]any{
		"module":     metadata.Name,
		"depends_on": metadata.DependsOn(),
	})

	return nil
}

// UnregisterModule removes the named module and purges it from every other
// module's edge set. It reports whether a module was removed.
func (r *GlobalRegistry) UnregisterModule(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	metadata, exists := r.modules[name]
	if !exists {
		return false
	}

	delete(r.modules, name)
	delete(r.byDef, metadata)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.graph.RemoveNode(name)
	return true
}

// GetModule returns the module registered under name.
func (r *GlobalRegistry) GetModule(name string) (*ModuleMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metadata, exists := r.modules[name]
	return metadata, exists
}

// GetModuleByDefinition returns the registered module for the given declared
// metadata value. Registration by the same name with different metadata
// removes the old definition's mapping.
func (r *GlobalRegistry) GetModuleByDefinition(def *ModuleMetadata) (*ModuleMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, exists := r.byDef[def]
	if !exists {
		return nil, false
	}
	return r.modules[name], true
}

// IsModuleRegistered reports whether a module is registered under name.
func (r *GlobalRegistry) IsModuleRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.modules[name]
	return exists
}

// GetAllModules returns every registered module in registration order.
func (r *GlobalRegistry) GetAllModules() []*ModuleMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make([]*ModuleMetadata, 0, len(r.order))
	for _, name := range r.order {
		modules = append(modules, r.modules[name])
	}
	return modules
}

// GetModuleNames returns every registered module name in registration order.
func (r *GlobalRegistry) GetModuleNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// ModuleCount returns the number of registered modules.
func (r *GlobalRegistry) ModuleCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.modules)
}

// FindModulesProviding returns all modules with a provider for the component
// type, in registration order.
func (r *GlobalRegistry) FindModulesProviding(componentType reflect.Type) []*ModuleMetadata {
	return r.findModules(func(m *ModuleMetadata) bool { return m.ProvidesType(componentType) })
}

// FindModulesExporting returns all modules exporting the component type, in
// registration order.
func (r *GlobalRegistry) FindModulesExporting(componentType reflect.Type) []*ModuleMetadata {
	return r.findModules(func(m *ModuleMetadata) bool { return m.ExportsType(componentType) })
}

// FindModulesImporting returns all modules importing the component type, in
// registration order.
func (r *GlobalRegistry) FindModulesImporting(componentType reflect.Type) []*ModuleMetadata {
	return r.findModules(func(m *ModuleMetadata) bool { return m.ImportsType(componentType) })
}

func (r *GlobalRegistry) findModules(match func(*ModuleMetadata) bool) []*ModuleMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*ModuleMetadata
	for _, name := range r.order {
		if m := r.modules[name]; match(m) {
			matched = append(matched, m)
		}
	}
	return matched
}

// GetDependencyGraph returns the adjacency map of registered modules: module
// name to the names of the modules it depends on.
func (r *GlobalRegistry) GetDependencyGraph() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adj := r.graph.Adjacency()
	result := make(map[string][]string, len(r.modules))
	for _, name := range r.order {
		result[name] = adj[name]
	}
	return result
}

// GetModuleDependencies returns the names of the modules the named module
// depends on, or nil if the module is unknown.
func (r *GlobalRegistry) GetModuleDependencies(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.modules[name]; !exists {
		return nil
	}
	return r.graph.Dependencies(name)
}

// GetModulesDependingOn returns the names of the registered modules that
// import from the named module.
func (r *GlobalRegistry) GetModulesDependingOn(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dependents []string
	for _, dependent := range r.graph.Dependents(name) {
		if _, exists := r.modules[dependent]; exists {
			dependents = append(dependents, dependent)
		}
	}
	return dependents
}

// GetBuildOrder returns a deterministic topological ordering of every
// registered module: each module appears after all modules it imports from,
// and modules with no dependency relationships keep their registration
// order. A ModuleCycleError is returned when the graph contains a cycle.
func (r *GlobalRegistry) GetBuildOrder() ([]string, error) {
	sorted, err := r.graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// The graph may hold implicit nodes for imports from modules that were
	// never registered; the build order covers registered modules only, each
	// exactly once.
	order := make([]string, 0, len(r.modules))
	inOrder := make(map[string]bool, len(r.modules))
	for _, name := range sorted {
		if _, exists := r.modules[name]; exists {
			order = append(order, name)
			inOrder[name] = true
		}
	}
	for _, name := range r.order {
		if !inOrder[name] {
			order = append(order, name)
		}
	}
	return order, nil
}

// DetectCircularDependencies enumerates every distinct cycle in the module
// graph. It is independent of GetBuildOrder so it can be used for
// diagnostics without attempting a build; an empty result means the graph is
// acyclic.
func (r *GlobalRegistry) DetectCircularDependencies() [][]string {
	return r.graph.FindCycles()
}

// ValidateModuleDependencies verifies, for every module, that each required
// import names a registered module which exports the requested component
// type. All violations are collected and returned as human-readable strings;
// nothing is raised.
func (r *GlobalRegistry) ValidateModuleDependencies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var problems []string
	for _, name := range r.order {
		module := r.modules[name]
		for _, imp := range module.Imports.RequiredImports() {
			source, exists := r.modules[imp.FromContext]
			if !exists {
				problems = append(problems, fmt.Sprintf(
					"module %q requires %s from unknown module %q",
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

// Clear removes every registered module and resets the dependency graph.
func (r *GlobalRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules = make(map[string]*ModuleMetadata)
	r.byDef = make(map[*ModuleMetadata]string)
	r.order = nil
	r.graph.Clear()
}
