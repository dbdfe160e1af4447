package library

import (
	"bytes"
	"encoding/json"
)

// Optional is one field of a partial update. The zero value is absent; a
// present field is either null or carries a value. Decoding JSON only calls
// UnmarshalJSON for keys that appear in the document, which is what makes
// "absent" distinguishable from "null".
type Optional[T any] struct {
	present bool
	null    bool
	value   T
}

// Set returns a present field holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{present: true, value: v}
}

// Null returns a present field explicitly set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{present: true, null: true}
}

// Present reports whether the field was supplied at all.
func (o Optional[T]) Present() bool { return o.present }

// IsNull reports whether the field was supplied as null.
func (o Optional[T]) IsNull() bool { return o.present && o.null }

// Get returns the value and whether the field is present and non-null.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present && !o.null
}

// Ptr returns nil for null or absent fields, a pointer to a copy otherwise.
func (o Optional[T]) Ptr() *T {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if v, ok := o.Get(); ok {
		return json.Marshal(v)
	}
	return []byte("null"), nil
}
