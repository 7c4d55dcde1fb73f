package types

import "encoding/json"

// RefState describes the outcome of resolving a foreign-key-like id.
type RefState int

const (
	// RefUnset means the referencing record carries no id.
	RefUnset RefState = iota

	// RefFound means the id matched an existing record.
	RefFound

	// RefDangling means the id is set but no record matches it.
	RefDangling
)

func (s RefState) String() string {
	switch s {
	case RefUnset:
		return "unset"
	case RefFound:
		return "found"
	case RefDangling:
		return "dangling"
	default:
		return "unknown"
	}
}

// Ref is the resolved form of an id reference to another record.
// Only a found reference is encoded; unset and dangling references are
// omitted from JSON output when tagged with omitzero.
type Ref[T any] struct {
	id    string
	state RefState
	value T
}

// Found returns a reference that resolved to value.
func Found[T any](id string, value T) Ref[T] {
	return Ref[T]{id: id, state: RefFound, value: value}
}

// Dangling returns a reference whose id matched nothing.
func Dangling[T any](id string) Ref[T] {
	return Ref[T]{id: id, state: RefDangling}
}

// ID returns the referenced id, empty when unset.
func (r Ref[T]) ID() string { return r.id }

// State reports how the reference resolved.
func (r Ref[T]) State() RefState { return r.state }

// Get returns the referenced value and whether it was found.
func (r Ref[T]) Get() (T, bool) {
	return r.value, r.state == RefFound
}

// IsZero reports whether there is nothing to encode.
func (r Ref[T]) IsZero() bool { return r.state != RefFound }

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.state != RefFound {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}
