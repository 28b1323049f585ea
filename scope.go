package weld

import (
	"encoding/json"
	"fmt"
)

// Scope specifies the lifetime policy of a component registered in a Context.
// The scope determines when instances are created, how they are cached, and
// when they are disposed.
type Scope int

const (
	// Singleton specifies that a single instance of the component is created.
	// The instance is created on first resolution and cached for the lifetime
	// of the owning Context.
	Singleton Scope = iota

	// Transient specifies that a new instance is created on every resolution.
	// Transient instances are never cached and their lifetime is not tracked
	// beyond the call that created them.
	Transient

	// Scoped specifies that one instance is created per open scope frame.
	// Resolving a scoped component with no open frame behaves like Transient.
	// Scoped instances are disposed when their frame is closed.
	Scoped
)

// String returns the string representation of the Scope.
func (s Scope) String() string {
	switch s {
	case Singleton:
		return "Singleton"
	case Transient:
		return "Transient"
	case Scoped:
		return "Scoped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// IsValid checks if the scope is a known lifetime policy.
func (s Scope) IsValid() bool {
	return s >= Singleton && s <= Scoped
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Singleton", "singleton":
		*s = Singleton
	case "Transient", "transient":
		*s = Transient
	case "Scoped", "scoped":
		*s = Scoped
	default:
		return ScopeValueError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	return s.UnmarshalText([]byte(str))
}
