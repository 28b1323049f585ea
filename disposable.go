package weld

import "context"

// Disposable is implemented by component instances that hold resources
// needing synchronous cleanup. The scope manager calls Close when the
// instance's lifetime ends: at frame exit for scoped instances, at manager
// disposal for singletons.
type Disposable interface {
	Close() error
}

// DisposableWithContext is implemented by component instances whose cleanup
// can block. The scope manager passes a context so implementations can honor
// cancellation during graceful shutdown.
//
//	func (c *Conn) Close(ctx context.Context) error {
//	    done := make(chan error, 1)
//	    go func() { done <- c.raw.Close() }()
//	    select {
//	    case err := <-done:
//	        return err
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	}
type DisposableWithContext interface {
	Close(ctx context.Context) error
}

// disposeInstance runs the cleanup hook of an instance if it exposes one.
// Instances without a cleanup hook are ignored.
func disposeInstance(ctx context.Context, instance any) error {
	switch v := instance.(type) {
	case DisposableWithContext:
		return v.Close(ctx)
	case Disposable:
		return v.Close()
	default:
		return nil
	}
}
