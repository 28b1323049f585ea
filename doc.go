// Package weld provides a modular dependency injection runtime for Go
// applications. Components are declared with explicit dependency
// descriptors, grouped into modules, and materialized into isolated
// contexts wired together through typed imports.
//
// # Overview
//
// weld is built from a small set of cooperating pieces:
//   - Context: an isolated component registry with its own lifetime engine
//   - ScopeManager: singleton, transient, and scoped instance management
//   - ModuleMetadata: a declared module with providers, imports, and exports
//   - GlobalRegistry: the module graph, build ordering, and validation
//   - ContextModuleBuilder: turns declared modules into wired contexts
//
// # Basic Usage
//
// Create a context, register components, and resolve:
//
//	ctx, err := weld.NewContext("app")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Shutdown()
//
//	err = ctx.RegisterComponent(weld.TypeOf[*Database]())
//	err = ctx.RegisterComponent(weld.TypeOf[*UserService](),
//	    weld.WithConstructor(newUserService,
//	        weld.Dependency{Name: "db", Type: weld.TypeOf[*Database]()}))
//	ctx.EnableAutoWiring()
//
//	svc, err := weld.ResolveAs[*UserService](ctx)
//
// # Component Lifetimes
//
// weld supports three lifetimes:
//
//   - Singleton: one instance created and shared for the context's lifetime
//   - Scoped: one instance per open scope frame, transient when none is open
//   - Transient: a new instance on every resolution
//
// Scope frames nest; closing a frame disposes the instances it created in
// reverse creation order.
//
// # Dependency Injection
//
// Components declare their dependencies as explicit descriptors alongside a
// constructor. The auto-wiring engine resolves each declared dependency from
// the same context and hands them to the constructor by parameter name:
//
//	func newUserService(deps weld.Deps) (any, error) {
//	    return &UserService{DB: weld.DepOf[*Database](deps, "db")}, nil
//	}
//
// Circular dependencies are detected at resolution time and reported with
// the full chain that closed the cycle.
//
// # Modules and Contexts
//
// Modules declare providers, imports from other modules, and exported types.
// The builder constructs one context per module in dependency order and
// wires imports so that resolving an imported singleton yields the exact
// instance owned by the source context:
//
//	registry := weld.NewGlobalRegistry()
//	registry.RegisterModule(infraModule)
//	registry.RegisterModule(appModule)
//
//	builder := weld.NewContextModuleBuilder(registry)
//	contexts, err := builder.BuildContexts(infraModule, appModule)
//
// Building is all-or-nothing: an unsatisfiable required import or a module
// cycle aborts the whole build.
//
// # Resource Cleanup
//
// Instances implementing Disposable or DisposableWithContext are closed when
// their owning scope frame closes, or in reverse creation order when the
// context's state is disposed. Shutdown releases resources but keeps
// registrations and singleton caches; Clear removes everything.
package weld
