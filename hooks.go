package weld

import (
	"go.uber.org/zap"
)

// EventKind identifies a notification emitted by the runtime.
type EventKind string

const (
	EventModuleRegistered    EventKind = "module.registered"
	EventComponentRegistered EventKind = "component.registered"
	EventComponentResolved   EventKind = "component.resolved"
	EventResolutionFailed    EventKind = "resolution.failed"
	EventLifecycleChanged    EventKind = "lifecycle.changed"
)

// Event is a fire-and-forget notification delivered to registered hooks.
type Event struct {
	Kind    EventKind
	Payload map[string]any
}

// EventHook receives runtime events. Hooks are an observation channel only:
// a hook that panics is recovered and logged, and never aborts the operation
// that emitted the event.
type EventHook func(event Event)

// emitEvent delivers an event to each hook in order, isolating panics.
func emitEvent(hooks []EventHook, logger *zap.Logger, kind EventKind, payload map[string]any) {
	if len(hooks) == 0 {
		return
	}

	event := Event{Kind: kind, Payload: payload}
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil && logger != nil {
					logger.Error("event hook panicked",
						zap.String("event", string(kind)),
						zap.Any("panic", r))
				}
			}()
			hook(event)
		}()
	}
}
