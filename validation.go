package weld

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Validation helpers are pure functions: they either return nil or a
// ValidationError describing the malformed input. Callers propagate failures
// as fatal registration errors.

// ValidateContextName checks that a context or module name is non-empty and
// made of letters, digits, '_', '-', or '.'.
func ValidateContextName(name string) error {
	if name == "" {
		return ValidationError{Subject: "context name", Cause: errors.New("must not be empty")}
	}

	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			continue
		}
		return ValidationError{
			Subject: "context name",
			Cause:   fmt.Errorf("invalid character %q in %q", r, name),
		}
	}

	return nil
}

// ValidateComponentRegistration checks the structural shape of one
// registration: a usable interface type, an implementation assignable to it,
// and a well-formed name.
func ValidateComponentRegistration(iface, impl reflect.Type, name string) error {
	if iface == nil {
		return ValidationError{Subject: "registration", Cause: ErrComponentTypeNil}
	}

	if name != "" && strings.TrimSpace(name) == "" {
		return ValidationError{Subject: "registration name", Cause: errors.New("must not be blank")}
	}

	if impl != nil && iface.Kind() == reflect.Interface && !impl.Implements(iface) {
		ptr := reflect.PointerTo(impl)
		if !ptr.Implements(iface) {
			return ValidationError{
				Subject: "registration",
				Cause:   fmt.Errorf("%s does not implement %s", formatType(impl), formatType(iface)),
			}
		}
	}

	return nil
}

// ValidateTags checks that tag keys are non-empty.
func ValidateTags(tags map[string]string) error {
	for key := range tags {
		if strings.TrimSpace(key) == "" {
			return ValidationError{Subject: "tags", Cause: errors.New("tag keys must not be empty")}
		}
	}
	return nil
}

// ValidateExports checks that every exported entry is a usable type.
func ValidateExports(exports []reflect.Type) error {
	for i, t := range exports {
		if t == nil {
			return ValidationError{
				Subject: "exports",
				Cause:   fmt.Errorf("export at index %d is nil", i),
			}
		}
	}
	return nil
}

// ValidateDependencies checks that declared dependency descriptors carry a
// parameter name and a type, and that no parameter name repeats.
func ValidateDependencies(deps []Dependency) error {
	seen := make(map[string]bool, len(deps))
	for i, dep := range deps {
		if dep.Name == "" {
			return ValidationError{
				Subject: "dependencies",
				Cause:   fmt.Errorf("dependency at index %d has no parameter name", i),
			}
		}
		if dep.Type == nil {
			return ValidationError{
				Subject: "dependencies",
				Cause:   fmt.Errorf("dependency %q has no type", dep.Name),
			}
		}
		if seen[dep.Name] {
			return ValidationError{
				Subject: "dependencies",
				Cause:   fmt.Errorf("dependency %q declared twice", dep.Name),
			}
		}
		seen[dep.Name] = true
	}
	return nil
}
