package model

import "encoding/json"

// Optional records whether a JSON field was absent, explicitly null, or
// carried a value. PATCH bodies need all three: absent means "leave it",
// null means "clear it" (or is rejected for required fields).
//
// It relies on encoding/json calling UnmarshalJSON only for keys that are
// present in the document, including for a literal null.
type Optional[T any] struct {
	Set   bool // key was present
	Null  bool // key was present with a null value
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// IsNull reports whether the field was present and null.
func (o Optional[T]) IsNull() bool {
	return o.Set && o.Null
}

// Ptr returns the carried value, or nil when absent or null.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}
