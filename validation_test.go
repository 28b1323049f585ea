package weld

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateContextName(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateContextName("app"))
	assert.NoError(t, ValidateContextName("user-service.v2_beta"))
	assert.Error(t, ValidateContextName(""))
	assert.Error(t, ValidateContextName("has space"))
	assert.Error(t, ValidateContextName("bad/name"))
}

func TestValidateComponentRegistration(t *testing.T) {
	t.Run("accepts concrete types", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, ValidateComponentRegistration(TypeOf[*TDatabase](), nil, ""))
	})

	t.Run("rejects nil interface", func(t *testing.T) {
		t.Parallel()

		assert.ErrorIs(t, ValidateComponentRegistration(nil, nil, ""), ErrComponentTypeNil)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		t.Parallel()

		assert.Error(t, ValidateComponentRegistration(TypeOf[*TDatabase](), nil, "   "))
	})

	t.Run("accepts implementation satisfying interface via pointer receiver", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, ValidateComponentRegistration(
			TypeOf[TLogger](), TypeOf[TConsoleLogger](), ""))
		assert.NoError(t, ValidateComponentRegistration(
			TypeOf[TLogger](), TypeOf[*TConsoleLogger](), ""))
	})

	t.Run("rejects implementation that does not satisfy interface", func(t *testing.T) {
		t.Parallel()

		assert.Error(t, ValidateComponentRegistration(
			TypeOf[TLogger](), TypeOf[*TDatabase](), ""))
	})
}

func TestValidateTags(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateTags(nil))
	assert.NoError(t, ValidateTags(map[string]string{"env": "prod"}))
	assert.Error(t, ValidateTags(map[string]string{" ": "x"}))
}

func TestValidateExports(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateExports(nil))
	assert.NoError(t, ValidateExports([]reflect.Type{TypeOf[*TDatabase]()}))
	assert.Error(t, ValidateExports([]reflect.Type{TypeOf[*TDatabase](), nil}))
}

func TestValidateDependencies(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateDependencies(nil))
	assert.NoError(t, ValidateDependencies([]Dependency{
		{Name: "db", Type: TypeOf[*TDatabase]()},
		{Name: "cache", Type: TypeOf[*TCache](), Optional: true},
	}))
	assert.Error(t, ValidateDependencies([]Dependency{
		{Name: "", Type: TypeOf[*TDatabase]()},
	}))
	assert.Error(t, ValidateDependencies([]Dependency{
		{Name: "db", Type: nil},
	}))
	assert.Error(t, ValidateDependencies([]Dependency{
		{Name: "db", Type: TypeOf[*TDatabase]()},
		{Name: "db", Type: TypeOf[*TCache]()},
	}))
}
