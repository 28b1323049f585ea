package weld

// ResolveAs resolves a component from the context and asserts it to T:
//
//	store, err := weld.ResolveAs[*ArticleStore](ctx)
func ResolveAs[T any](c *Context) (T, error) {
	var zero T

	instance, err := c.Resolve(TypeOf[T]())
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, ResolutionError{
			Context:       c.name,
			ComponentType: TypeOf[T](),
			Cause:         ErrProviderNotFound,
		}
	}
	return typed, nil
}

// ResolveNamedAs resolves a named component from the context and asserts it
// to T.
func ResolveNamedAs[T any](c *Context, name string) (T, error) {
	var zero T

	instance, err := c.ResolveNamed(TypeOf[T](), name)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, ResolutionError{
			Context:       c.name,
			ComponentType: TypeOf[T](),
			Name:          name,
			Cause:         ErrProviderNotFound,
		}
	}
	return typed, nil
}

// MustResolveAs is ResolveAs that panics on failure. Intended for wiring at
// startup where a missing provider is a programming error.
func MustResolveAs[T any](c *Context) T {
	instance, err := ResolveAs[T](c)
	if err != nil {
		panic(err)
	}
	return instance
}
