package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Key addresses a value of type T in a Context.
type Key[T any] struct {
	name    string
	durable bool
}

// NewKey returns a key whose value is kept in memory only.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// NewDurableKey returns a key whose value is persisted by Store. T must
// round-trip through encoding/json.
func NewDurableKey[T any](name string) Key[T] {
	return Key[T]{name: name, durable: true}
}

// Context is a set of values shared by the lifecycle phases of one session.
// It is safe for concurrent use.
type Context struct {
	id string

	mu     sync.Mutex
	values map[string]any
	// raw holds the encoded form of every durable value.
	raw map[string]json.RawMessage
}

// New creates an empty context with a fresh ID.
func New() *Context {
	return newContext(uuid.NewString(), nil)
}

func newContext(id string, raw map[string]json.RawMessage) *Context {
	if raw == nil {
		raw = make(map[string]json.RawMessage)
	}
	return &Context{
		id:     id,
		values: make(map[string]any),
		raw:    raw,
	}
}

// ID identifies the session across invocations.
func (c *Context) ID() string {
	return c.id
}

// Put stores v under k, replacing any previous value.
func Put[T any](c *Context, k Key[T], v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if k.durable {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode session value %q: %w", k.name, err)
		}
		c.raw[k.name] = data
	}
	c.values[k.name] = v
	return nil
}

// Get returns the value stored under k. Durable values loaded from disk are
// decoded on first access.
func Get[T any](c *Context, k Key[T]) (T, bool) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.values[k.name]; ok {
		t, ok := v.(T)
		return t, ok
	}
	if !k.durable {
		return zero, false
	}
	data, ok := c.raw[k.name]
	if !ok {
		return zero, false
	}

	var t T
	if err := json.Unmarshal(data, &t); err != nil {
		return zero, false
	}
	c.values[k.name] = t
	return t, true
}

// Delete removes the value stored under k.
func Delete[T any](c *Context, k Key[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, k.name)
	delete(c.raw, k.name)
}

// Empty reports whether the context holds no durable values.
func (c *Context) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.raw) == 0
}

// snapshot copies the durable values for persisting.
func (c *Context) snapshot() map[string]json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]json.RawMessage, len(c.raw))
	for k, v := range c.raw {
		out[k] = v
	}
	return out
}
