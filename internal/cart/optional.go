package cart

import "encoding/json"

// Field distinguishes an absent JSON key from an explicit null in partial
// update payloads. An absent key leaves Set false and the stored value is
// kept; an explicit null sets Set with the zero value, clearing the field.
type Field[T any] struct {
	Set   bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		var zero T
		f.Value = zero
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}
