package weld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalRegistry_RegisterModule(t *testing.T) {
	t.Run("registers and looks up by name", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		infra := newInfraModule()
		require.NoError(t, r.RegisterModule(infra))

		got, ok := r.GetModule("infra")
		require.True(t, ok)
		assert.Same(t, infra, got)
		assert.True(t, r.IsModuleRegistered("infra"))
		assert.Equal(t, 1, r.ModuleCount())
	})

	t.Run("rejects nil metadata", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		assert.ErrorIs(t, r.RegisterModule(nil), ErrModuleMetadataNil)
	})

	t.Run("rejects invalid metadata", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		assert.Error(t, r.RegisterModule(NewModule("")))
	})

	t.Run("overwrites by name and remaps the definition", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		first := NewModule("infra")
		second := newInfraModule()

		require.NoError(t, r.RegisterModule(first))
		require.NoError(t, r.RegisterModule(second))
		assert.Equal(t, 1, r.ModuleCount())

		got, ok := r.GetModule("infra")
		require.True(t, ok)
		assert.Same(t, second, got)

		_, ok = r.GetModuleByDefinition(first)
		assert.False(t, ok)

		byDef, ok := r.GetModuleByDefinition(second)
		require.True(t, ok)
		assert.Same(t, second, byDef)
	})

	t.Run("keeps registration order across overwrites", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(NewModule("a")))
		require.NoError(t, r.RegisterModule(NewModule("b")))
		require.NoError(t, r.RegisterModule(NewModule("a")))

		assert.Equal(t, []string{"a", "b"}, r.GetModuleNames())
	})
}

func TestGlobalRegistry_UnregisterModule(t *testing.T) {
	t.Parallel()

	r := NewGlobalRegistry()
	infra := newInfraModule()
	app := newAppModule()
	require.NoError(t, r.RegisterModule(infra))
	require.NoError(t, r.RegisterModule(app))

	assert.True(t, r.UnregisterModule("infra"))
	assert.False(t, r.UnregisterModule("infra"))
	assert.False(t, r.IsModuleRegistered("infra"))

	_, ok := r.GetModuleByDefinition(infra)
	assert.False(t, ok)

	assert.Empty(t, r.GetModulesDependingOn("infra"))
}

func TestGlobalRegistry_Finders(t *testing.T) {
	t.Parallel()

	r := NewGlobalRegistry()
	infra := newInfraModule()
	app := newAppModule()
	require.NoError(t, r.RegisterModule(infra))
	require.NoError(t, r.RegisterModule(app))

	providing := r.FindModulesProviding(TypeOf[*TDatabase]())
	require.Len(t, providing, 1)
	assert.Same(t, infra, providing[0])

	exporting := r.FindModulesExporting(TypeOf[*TUserService]())
	require.Len(t, exporting, 1)
	assert.Same(t, app, exporting[0])

	importing := r.FindModulesImporting(TypeOf[*TDatabase]())
	require.Len(t, importing, 1)
	assert.Same(t, app, importing[0])

	assert.Empty(t, r.FindModulesProviding(TypeOf[*TTransientJob]()))
}

func TestGlobalRegistry_DependencyGraph(t *testing.T) {
	t.Parallel()

	r := NewGlobalRegistry()
	require.NoError(t, r.RegisterModule(newInfraModule()))
	require.NoError(t, r.RegisterModule(newAppModule()))

	graph := r.GetDependencyGraph()
	assert.Equal(t, []string{"infra"}, graph["app"])
	assert.Empty(t, graph["infra"])

	assert.Equal(t, []string{"infra"}, r.GetModuleDependencies("app"))
	assert.Nil(t, r.GetModuleDependencies("unknown"))
	assert.Equal(t, []string{"app"}, r.GetModulesDependingOn("infra"))
}

func TestGlobalRegistry_GetBuildOrder(t *testing.T) {
	t.Run("orders modules after their dependencies", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		web := NewModule("web",
			WithImports(NewImport(TypeOf[*TUserService](), "app")))
		// Register in reverse dependency order on purpose.
		require.NoError(t, r.RegisterModule(web))
		require.NoError(t, r.RegisterModule(newAppModule()))
		require.NoError(t, r.RegisterModule(newInfraModule()))

		order, err := r.GetBuildOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"infra", "app", "web"}, order)
	})

	t.Run("isolated modules keep registration order", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(NewModule("zeta")))
		require.NoError(t, r.RegisterModule(NewModule("alpha")))

		order, err := r.GetBuildOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha"}, order)
	})

	t.Run("imports from unregistered modules do not appear in the order", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(newAppModule()))

		order, err := r.GetBuildOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"app"}, order)
	})

	t.Run("reports a cycle", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(NewModule("a",
			WithImports(NewImport(TypeOf[*TDatabase](), "b")))))
		require.NoError(t, r.RegisterModule(NewModule("b",
			WithImports(NewImport(TypeOf[*TCache](), "a")))))

		_, err := r.GetBuildOrder()
		require.Error(t, err)

		var cycleErr *ModuleCycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Contains(t, err.Error(), "circular dependency detected")
		assert.Contains(t, cycleErr.Cycle, "a")
		assert.Contains(t, cycleErr.Cycle, "b")
	})
}

func TestGlobalRegistry_DetectCircularDependencies(t *testing.T) {
	t.Run("empty for acyclic graphs", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(newInfraModule()))
		require.NoError(t, r.RegisterModule(newAppModule()))

		assert.Empty(t, r.DetectCircularDependencies())
	})

	t.Run("enumerates distinct cycles", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(NewModule("a",
			WithImports(NewImport(TypeOf[*TDatabase](), "b")))))
		require.NoError(t, r.RegisterModule(NewModule("b",
			WithImports(
				NewImport(TypeOf[*TCache](), "a"),
				NewImport(TypeOf[*TUserService](), "c"),
			))))
		require.NoError(t, r.RegisterModule(NewModule("c",
			WithImports(NewImport(TypeOf[*TScopedSession](), "b")))))

		cycles := r.DetectCircularDependencies()
		assert.Len(t, cycles, 2)
	})
}

func TestGlobalRegistry_ValidateModuleDependencies(t *testing.T) {
	t.Run("valid graph has no problems", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(newInfraModule()))
		require.NoError(t, r.RegisterModule(newAppModule()))

		assert.Empty(t, r.ValidateModuleDependencies())
	})

	t.Run("reports unknown source modules", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(newAppModule()))

		problems := r.ValidateModuleDependencies()
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], `module "app"`)
		assert.Contains(t, problems[0], `unknown module "infra"`)
	})

	t.Run("reports non-exported types", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(NewModule("infra",
			WithProviders(&ProviderConfig{
				Interface: TypeOf[*TDatabase](),
				Factory:   newTDatabaseFactory("x"),
			}))))
		require.NoError(t, r.RegisterModule(newAppModule()))

		problems := r.ValidateModuleDependencies()
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], "does not export")
	})

	t.Run("optional imports are not validated", func(t *testing.T) {
		t.Parallel()

		r := NewGlobalRegistry()
		require.NoError(t, r.RegisterModule(NewModule("app",
			WithImports(NewImport(TypeOf[*TDatabase](), "missing", AsOptional())))))

		assert.Empty(t, r.ValidateModuleDependencies())
	})
}

func TestGlobalRegistry_Clear(t *testing.T) {
	t.Parallel()

	r := NewGlobalRegistry()
	require.NoError(t, r.RegisterModule(newInfraModule()))
	require.NoError(t, r.RegisterModule(newAppModule()))

	r.Clear()
	assert.Equal(t, 0, r.ModuleCount())
	assert.Empty(t, r.GetModuleNames())
	assert.Empty(t, r.GetDependencyGraph())

	order, err := r.GetBuildOrder()
	require.NoError(t, err)
	assert.Empty(t, order)
}
