package weld

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lifecycle callback events.
const (
	LifecycleInstanceCreated  = "instance.created"
	LifecycleInstanceDisposed = "instance.disposed"
)

// LifecycleCallback observes instance creation and disposal. Callbacks are
// invoked synchronously; a callback that panics is recovered and logged and
// never aborts the operation that triggered it.
type LifecycleCallback func(event string, componentType reflect.Type, scope Scope)

// ScopeManager is the lifetime policy engine. It is independent of what a
// component is: it accepts an opaque type key and a zero-argument factory and
// applies singleton, transient, or scoped caching semantics.
//
// Scoped semantics use a stack of frames. CreateScope pushes a fresh, empty
// frame; within the innermost open frame a scoped key behaves like a
// singleton, and closing the frame disposes its instances. With no open
// frame, scoped behaves exactly like transient.
type ScopeManager struct {
	mu       sync.Mutex
	logger   *zap.Logger
	callback LifecycleCallback

	singletons     map[instanceKey]*instanceEntry
	singletonOrder []*instanceEntry
	frames         []*ScopeFrame
}

// instanceKey identifies one cache slot. Named registrations of the same
// component type cache independently.
type instanceKey struct {
	componentType reflect.Type
	name          string
}

// instanceEntry guards exactly-once construction of one cached instance.
// The manager lock is released while the factory runs so a factory may
// resolve further components through the same manager; per-key entries keep
// concurrent first-access calls from double-constructing.
type instanceEntry struct {
	key      reflect.Type
	scope    Scope
	once     sync.Once
	value    any
	err      error
	released bool
}

// ScopeFrame is one open scoped-lifetime frame. Frames are closed in LIFO
// order:
//
//	frame := manager.CreateScope()
//	defer frame.Close()
type ScopeFrame struct {
	id      string
	manager *ScopeManager
	closed  bool

	instances map[instanceKey]*instanceEntry
	created   []*instanceEntry
}

// ScopeManagerOption customizes a ScopeManager.
type ScopeManagerOption func(*ScopeManager)

// WithLifecycleCallback installs an observer for instance creation and
// disposal events.
func WithLifecycleCallback(callback LifecycleCallback) ScopeManagerOption {
	return func(m *ScopeManager) { m.callback = callback }
}

// WithScopeLogger installs a logger for disposal and callback failures.
func WithScopeLogger(logger *zap.Logger) ScopeManagerOption {
	return func(m *ScopeManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewScopeManager creates a lifetime engine with empty caches.
func NewScopeManager(opts ...ScopeManagerOption) *ScopeManager {
	m := &ScopeManager{
		logger:     zap.NewNop(),
		singletons: make(map[instanceKey]*instanceEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateOrGetInstance returns the instance for key under the given lifetime
// policy, invoking factory when a new instance is needed.
//
// Singleton: the factory runs at most once per key; later calls return the
// cached instance. A factory error is not cached, so a later call retries.
//
// Transient: the factory runs on every call.
//
// Scoped: like Singleton within the innermost open frame; like Transient
// when no frame is open.
func (m *ScopeManager) CreateOrGetInstance(key reflect.Type, scope Scope, factory func() (any, error)) (any, error) {
	return m.CreateOrGetNamedInstance(key, "", scope, factory)
}

// CreateOrGetNamedInstance is CreateOrGetInstance with an additional name
// discriminator: entries under the same type but different names cache
// independently.
func (m *ScopeManager) CreateOrGetNamedInstance(componentType reflect.Type, name string, scope Scope, factory func() (any, error)) (any, error) {
	if componentType == nil {
		return nil, ErrComponentTypeNil
	}
	if !scope.IsValid() {
		return nil, ScopeValueError{Value: scope}
	}

	key := instanceKey{componentType: componentType, name: name}

	switch scope {
	case Singleton:
		return m.singletonInstance(key, factory)
	case Scoped:
		m.mu.Lock()
		frame := m.innermostLocked()
		m.mu.Unlock()
		if frame == nil {
			return m.transientInstance(key, factory)
		}
		return m.scopedInstance(frame, key, factory)
	default:
		return m.transientInstance(key, factory)
	}
}

func (m *ScopeManager) singletonInstance(key instanceKey, factory func() (any, error)) (any, error) {
	m.mu.Lock()
	entry, exists := m.singletons[key]
	if !exists {
		entry = &instanceEntry{key: key.componentType, scope: Singleton}
		m.singletons[key] = entry
	}
	m.mu.Unlock()

	entry.once.Do(func() {
		entry.value, entry.err = factory()

		m.mu.Lock()
		if entry.err != nil {
			// Do not cache failures; the next call constructs anew.
			if m.singletons[key] == entry {
				delete(m.singletons, key)
			}
		} else {
			m.singletonOrder = append(m.singletonOrder, entry)
		}
		m.mu.Unlock()

		if entry.err == nil {
			m.notify(LifecycleInstanceCreated, key.componentType, Singleton)
		}
	})

	return entry.value, entry.err
}

func (m *ScopeManager) transientInstance(key instanceKey, factory func() (any, error)) (any, error) {
	instance, err := factory()
	if err != nil {
		return nil, err
	}

	m.notify(LifecycleInstanceCreated, key.componentType, Transient)
	return instance, nil
}

func (m *ScopeManager) scopedInstance(frame *ScopeFrame, key instanceKey, factory func() (any, error)) (any, error) {
	m.mu.Lock()
	if frame.closed {
		m.mu.Unlock()
		return m.transientInstance(key, factory)
	}
	entry, exists := frame.instances[key]
	if !exists {
		entry = &instanceEntry{key: key.componentType, scope: Scoped}
		frame.instances[key] = entry
	}
	m.mu.Unlock()

	entry.once.Do(func() {
		entry.value, entry.err = factory()

		m.mu.Lock()
		if entry.err != nil {
			if frame.instances[key] == entry {
				delete(frame.instances, key)
			}
		} else {
			frame.created = append(frame.created, entry)
		}
		m.mu.Unlock()

		if entry.err == nil {
			m.notify(LifecycleInstanceCreated, key.componentType, Scoped)
		}
	})

	return entry.value, entry.err
}

// CreateScope pushes a new, empty scope frame. The returned frame must be
// closed to pop it and dispose its instances; Close is safe on every exit
// path and is idempotent.
func (m *ScopeManager) CreateScope() *ScopeFrame {
	frame := &ScopeFrame{
		id:        uuid.NewString(),
		manager:   m,
		instances: make(map[instanceKey]*instanceEntry),
	}

	m.mu.Lock()
	m.frames = append(m.frames, frame)
	m.mu.Unlock()

	return frame
}

// HasActiveScope reports whether any scope frame is open.
func (m *ScopeManager) HasActiveScope() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.frames) > 0
}

// GetInstanceCount returns the number of tracked instances, optionally
// filtered by scope kind. The singleton count covers only the singleton
// table; the scoped count covers all open frames. Transient instances are
// never tracked.
func (m *ScopeManager) GetInstanceCount(scope ...Scope) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	scopedCount := 0
	for _, frame := range m.frames {
		scopedCount += len(frame.created)
	}

	if len(scope) == 0 {
		return len(m.singletonOrder) + scopedCount
	}

	switch scope[0] {
	case Singleton:
		return len(m.singletonOrder)
	case Scoped:
		return scopedCount
	default:
		return 0
	}
}

// Dispose disposes every tracked singleton instance in reverse creation
// order, closes any open frames, and clears all state. The manager remains
// usable: subsequent calls behave as if it were newly constructed.
func (m *ScopeManager) Dispose() error {
	return m.DisposeContext(context.Background())
}

// DisposeContext is Dispose with a caller-supplied context passed through to
// context-aware cleanup hooks.
func (m *ScopeManager) DisposeContext(ctx context.Context) error {
	m.mu.Lock()
	frames := m.frames
	order := m.singletonOrder
	m.frames = nil
	m.singletons = make(map[instanceKey]*instanceEntry)
	m.singletonOrder = nil
	for _, frame := range frames {
		frame.closed = true
	}
	m.mu.Unlock()

	var errs []error

	// Open frames close innermost first.
	for i := len(frames) - 1; i >= 0; i-- {
		errs = append(errs, m.disposeEntries(ctx, frames[i].created)...)
	}
	errs = append(errs, m.disposeEntries(ctx, order)...)

	if len(errs) > 0 {
		return DisposalError{Source: "scope-manager", Errors: errs}
	}
	return nil
}

// ReleaseResources runs the cleanup hooks of every tracked instance in
// reverse creation order but keeps all caches intact: registrations made
// through the manager keep returning the same instances afterwards. This is
// the engine behind Context.Shutdown, which releases resources without
// clearing the context.
func (m *ScopeManager) ReleaseResources(ctx context.Context) error {
	m.mu.Lock()
	entries := make([]*instanceEntry, 0, len(m.singletonOrder))
	for _, frame := range m.frames {
		entries = append(entries, frame.created...)
	}
	entries = append(entries, m.singletonOrder...)
	m.mu.Unlock()

	if errs := m.disposeEntries(ctx, entries); len(errs) > 0 {
		return DisposalError{Source: "scope-manager", Errors: errs}
	}
	return nil
}

// disposeEntries disposes instances in reverse creation order, isolating
// each instance's failure. Entries already released keep their cached value
// but are not closed twice.
func (m *ScopeManager) disposeEntries(ctx context.Context, entries []*instanceEntry) []error {
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.released {
			continue
		}
		entry.released = true
		if err := disposeInstance(ctx, entry.value); err != nil {
			m.logger.Error("instance disposal failed",
				zap.String("component", typeName(entry.key)),
				zap.Stringer("scope", entry.scope),
				zap.Error(err))
			errs = append(errs, err)
		}
		m.notify(LifecycleInstanceDisposed, entry.key, entry.scope)
	}
	return errs
}

// notify invokes the lifecycle callback, isolating panics.
func (m *ScopeManager) notify(event string, key reflect.Type, scope Scope) {
	if m.callback == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("lifecycle callback panicked",
				zap.String("event", event),
				zap.String("component", typeName(key)),
				zap.Any("panic", r))
		}
	}()

	m.callback(event, key, scope)
}

// ID returns the unique ID of the frame.
func (f *ScopeFrame) ID() string {
	return f.id
}

// Close pops the frame and disposes the instances created within it in
// reverse creation order. Closing an already-closed frame is a no-op.
func (f *ScopeFrame) Close() error {
	return f.CloseContext(context.Background())
}

// CloseContext is Close with a caller-supplied context passed through to
// context-aware cleanup hooks.
func (f *ScopeFrame) CloseContext(ctx context.Context) error {
	m := f.manager

	m.mu.Lock()
	if f.closed {
		m.mu.Unlock()
		return nil
	}
	f.closed = true
	for i := len(m.frames) - 1; i >= 0; i-- {
		if m.frames[i] == f {
			m.frames = append(m.frames[:i], m.frames[i+1:]...)
			break
		}
	}
	created := f.created
	f.created = nil
	m.mu.Unlock()

	if errs := m.disposeEntries(ctx, created); len(errs) > 0 {
		return DisposalError{Source: "scope-frame", Errors: errs}
	}
	return nil
}

func (m *ScopeManager) innermostLocked() *ScopeFrame {
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}
