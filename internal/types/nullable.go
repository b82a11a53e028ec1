package types

import (
	"bytes"
	"encoding/json"
)

// Nullable distinguishes an absent JSON field from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// Null returns a present-but-null value.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Some returns a present value.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// ApplyTo overwrites *dst when the field was present.
func (n Nullable[T]) ApplyTo(dst **T) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
