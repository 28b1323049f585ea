package weld

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// Shared Test Types
// ============================================================================

// TDatabase is a basic disposable component.
type TDatabase struct {
	DSN        string
	closed     atomic.Bool
	closeErr   error
	closeOrder *closeRecorder
	name       string
}

func (d *TDatabase) Close() error {
	if d.closed.Swap(true) {
		return errors.New("already closed")
	}
	if d.closeOrder != nil {
		d.closeOrder.record(d.name)
	}
	return d.closeErr
}

func (d *TDatabase) IsClosed() bool {
	return d.closed.Load()
}

// TConn is a disposable with context-aware cleanup.
type TConn struct {
	closed   atomic.Bool
	closeCtx context.Context
}

func (c *TConn) Close(ctx context.Context) error {
	c.closeCtx = ctx
	if c.closed.Swap(true) {
		return errors.New("already closed")
	}
	return nil
}

// TUserService depends on a database.
type TUserService struct {
	DB *TDatabase
}

// TOrderService depends on the same database as TUserService.
type TOrderService struct {
	DB *TDatabase
}

// TLogger is a basic interface component.
type TLogger interface {
	Log(msg string)
}

// TConsoleLogger implements TLogger.
type TConsoleLogger struct {
	Messages []string
}

func (l *TConsoleLogger) Log(msg string) {
	l.Messages = append(l.Messages, msg)
}

// TScopedSession tracks per-frame instances.
type TScopedSession struct {
	ID int64
}

// TTransientJob tracks per-call instances.
type TTransientJob struct {
	Instance int64
}

// TCircularA and TCircularB depend on each other.
type TCircularA struct{ B *TCircularB }
type TCircularB struct{ A *TCircularA }

// TCache is a distinct exportable component for cross-context tests.
type TCache struct {
	Entries map[string]string
}

// closeRecorder collects disposal order across goroutines.
type closeRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *closeRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *closeRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ============================================================================
// Shared Constructors and Helpers
// ============================================================================

var instanceCounter atomic.Int64

func newTDatabaseFactory(dsn string) Factory {
	return func(Resolver) (any, error) {
		return &TDatabase{DSN: dsn}, nil
	}
}

func newTUserServiceConstructor() (Constructor, []Dependency) {
	deps := []Dependency{{Name: "db", Type: TypeOf[*TDatabase]()}}
	ctor := func(deps Deps) (any, error) {
		return &TUserService{DB: DepOf[*TDatabase](deps, "db")}, nil
	}
	return ctor, deps
}

func newTOrderServiceConstructor() (Constructor, []Dependency) {
	deps := []Dependency{{Name: "db", Type: TypeOf[*TDatabase]()}}
	ctor := func(deps Deps) (any, error) {
		return &TOrderService{DB: DepOf[*TDatabase](deps, "db")}, nil
	}
	return ctor, deps
}

// newTestContext creates a context with a singleton database registered and
// auto-wiring enabled.
func newTestContext(t *testing.T) *Context {
	t.Helper()

	c, err := NewContext("test")
	require.NoError(t, err)

	err = c.RegisterComponent(TypeOf[*TDatabase](),
		WithFactory(newTDatabaseFactory("postgres://test")))
	require.NoError(t, err)

	c.EnableAutoWiring()

	t.Cleanup(func() {
		_ = c.Clear()
	})
	return c
}

// newInfraModule declares a module exporting a singleton database and cache.
func newInfraModule() *ModuleMetadata {
	return NewModule("infra",
		WithProviders(
			&ProviderConfig{
				Interface: TypeOf[*TDatabase](),
				Scope:     Singleton,
				Factory:   newTDatabaseFactory("postgres://infra"),
			},
			&ProviderConfig{
				Interface: TypeOf[*TCache](),
				Scope:     Singleton,
				Factory: func(Resolver) (any, error) {
					return &TCache{Entries: make(map[string]string)}, nil
				},
			},
		),
		WithExports(TypeOf[*TDatabase](), TypeOf[*TCache]()),
	)
}

// newAppModule declares a module importing the infra database.
func newAppModule() *ModuleMetadata {
	ctor, deps := newTUserServiceConstructor()
	return NewModule("app",
		WithProviders(&ProviderConfig{
			Interface:    TypeOf[*TUserService](),
			Scope:        Singleton,
			Constructor:  ctor,
			Dependencies: deps,
		}),
		WithImports(NewImport(TypeOf[*TDatabase](), "infra")),
		WithExports(TypeOf[*TUserService]()),
	)
}
