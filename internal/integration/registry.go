package integration

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType marks an outbox type tag with no registered decoder. The
// dispatcher treats it as terminal for the row.
var ErrUnknownType = errors.New("unknown integration event type")

// DecodeFunc turns a stored outbox payload back into a typed event.
type DecodeFunc func(data []byte) (Event, error)

// Registry maps outbox type tags to decoders. Populated once at startup;
// read-only afterwards.
type Registry struct {
	decoders map[string]DecodeFunc
}

func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]DecodeFunc)}
}

func (r *Registry) Register(name string, fn DecodeFunc) {
	r.decoders[name] = fn
}

// Decode resolves the type tag and unmarshals the payload.
func (r *Registry) Decode(name string, data []byte) (Event, error) {
	fn, ok := r.decoders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	ev, err := fn(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return ev, nil
}

// DefaultRegistry registers every event type this service publishes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeEmailCreated, func(data []byte) (Event, error) {
		var ev EmailCreated
		err := json.Unmarshal(data, &ev)
		return ev, err
	})
	r.Register(TypeMemberJoined, func(data []byte) (Event, error) {
		var ev MemberJoined
		err := json.Unmarshal(data, &ev)
		return ev, err
	})
	return r
}
