package weld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderConfig_GetImplementation(t *testing.T) {
	t.Parallel()

	pc := &ProviderConfig{Interface: TypeOf[TLogger]()}
	assert.Equal(t, TypeOf[TLogger](), pc.GetImplementation())

	pc.Implementation = TypeOf[*TConsoleLogger]()
	assert.Equal(t, TypeOf[*TConsoleLogger](), pc.GetImplementation())
}

func TestProviderConfig_ProviderName(t *testing.T) {
	t.Parallel()

	pc := &ProviderConfig{Interface: TypeOf[*TDatabase]()}
	assert.Equal(t, "TDatabase", pc.ProviderName())

	pc.Name = "primary"
	assert.Equal(t, "primary", pc.ProviderName())
}

func TestProviderConfig_EvaluateCondition(t *testing.T) {
	t.Run("nil condition is active", func(t *testing.T) {
		t.Parallel()

		pc := &ProviderConfig{Interface: TypeOf[*TDatabase]()}
		assert.True(t, pc.EvaluateCondition())
	})

	t.Run("condition result is honored", func(t *testing.T) {
		t.Parallel()

		pc := &ProviderConfig{Interface: TypeOf[*TDatabase](), Condition: ConditionBool(false)}
		assert.False(t, pc.EvaluateCondition())

		pc.Condition = ConditionBool(true)
		assert.True(t, pc.EvaluateCondition())
	})

	t.Run("panicking condition is inactive", func(t *testing.T) {
		t.Parallel()

		pc := &ProviderConfig{
			Interface: TypeOf[*TDatabase](),
			Condition: func() bool { panic("boom") },
		}
		assert.False(t, pc.EvaluateCondition())
	})
}

func TestProviderConfig_Validate(t *testing.T) {
	t.Run("accepts a minimal registration", func(t *testing.T) {
		t.Parallel()

		pc := &ProviderConfig{Interface: TypeOf[*TDatabase]()}
		assert.NoError(t, pc.Validate())
	})

	t.Run("rejects nil interface", func(t *testing.T) {
		t.Parallel()

		pc := &ProviderConfig{}
		assert.ErrorIs(t, pc.Validate(), ErrComponentTypeNil)
	})

	t.Run("rejects invalid scope", func(t *testing.T) {
		t.Parallel()

		pc := &ProviderConfig{Interface: TypeOf[*TDatabase](), Scope: Scope(9)}
		err := pc.Validate()
		require.Error(t, err)

		var sve ScopeValueError
		assert.ErrorAs(t, err, &sve)
	})

	t.Run("rejects factory and constructor together", func(t *testing.T) {
		t.Parallel()

		pc := &ProviderConfig{
			Interface:   TypeOf[*TDatabase](),
			Factory:     newTDatabaseFactory("x"),
			Constructor: func(Deps) (any, error) { return nil, nil },
		}
		assert.ErrorIs(t, pc.Validate(), ErrFactoryAndConstructor)
	})

	t.Run("rejects malformed dependencies", func(t *testing.T) {
		t.Parallel()

		pc := &ProviderConfig{
			Interface:    TypeOf[*TUserService](),
			Dependencies: []Dependency{{Name: "", Type: TypeOf[*TDatabase]()}},
		}
		assert.Error(t, pc.Validate())
	})
}

func TestProviderCollection_Add(t *testing.T) {
	t.Run("first registration under a name wins", func(t *testing.T) {
		t.Parallel()

		col := NewProviderCollection()
		first := &ProviderConfig{Interface: TypeOf[*TDatabase]()}
		second := &ProviderConfig{Interface: TypeOf[*TDatabase]()}

		assert.True(t, col.Add(first))
		assert.False(t, col.Add(second))
		assert.Equal(t, 1, col.Len())

		got, ok := col.GetByName("TDatabase")
		require.True(t, ok)
		assert.Same(t, first, got)
	})

	t.Run("distinct names coexist", func(t *testing.T) {
		t.Parallel()

		col := NewProviderCollection(
			&ProviderConfig{Interface: TypeOf[*TDatabase](), Name: "primary"},
			&ProviderConfig{Interface: TypeOf[*TCache]()},
		)
		assert.Equal(t, 2, col.Len())
	})

	t.Run("ignores nil", func(t *testing.T) {
		t.Parallel()

		col := NewProviderCollection()
		assert.False(t, col.Add(nil))
		assert.Equal(t, 0, col.Len())
	})
}

func TestProviderCollection_Lookups(t *testing.T) {
	t.Parallel()

	db := &ProviderConfig{Interface: TypeOf[*TDatabase](), Scope: Singleton}
	cache := &ProviderConfig{Interface: TypeOf[*TCache](), Scope: Transient}
	inactive := &ProviderConfig{
		Interface: TypeOf[*TConsoleLogger](),
		Condition: ConditionBool(false),
	}
	col := NewProviderCollection(db, cache, inactive)

	got, ok := col.GetByInterface(TypeOf[*TCache]())
	require.True(t, ok)
	assert.Same(t, cache, got)

	_, ok = col.GetByInterface(TypeOf[*TUserService]())
	assert.False(t, ok)

	singletons := col.ByScope(Singleton)
	require.Len(t, singletons, 2)
	assert.Same(t, db, singletons[0])

	active := col.ActiveProviders()
	require.Len(t, active, 2)
	assert.Same(t, db, active[0])
	assert.Same(t, cache, active[1])

	all := col.Providers()
	assert.Len(t, all, 3)
}

func TestProviderCollection_Validate(t *testing.T) {
	t.Run("accepts unambiguous providers", func(t *testing.T) {
		t.Parallel()

		col := NewProviderCollection(
			&ProviderConfig{Interface: TypeOf[*TDatabase]()},
			&ProviderConfig{Interface: TypeOf[*TCache]()},
		)
		assert.NoError(t, col.Validate())
	})

	t.Run("rejects one interface under two names", func(t *testing.T) {
		t.Parallel()

		col := NewProviderCollection(
			&ProviderConfig{Interface: TypeOf[*TDatabase](), Name: "primary"},
			&ProviderConfig{Interface: TypeOf[*TDatabase](), Name: "replica"},
		)
		err := col.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "primary")
		assert.Contains(t, err.Error(), "replica")
	})

	t.Run("propagates provider validation failures", func(t *testing.T) {
		t.Parallel()

		col := NewProviderCollection(&ProviderConfig{Interface: TypeOf[*TDatabase](), Name: "bad", Scope: Scope(9)})
		assert.Error(t, col.Validate())
	})
}
