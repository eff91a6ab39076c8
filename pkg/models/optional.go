package models

import "encoding/json"

// Optional distinguishes an absent JSON field (Set == false) from an explicit null (Set, Value == nil).
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ApplyPtr overwrites a nullable field when the option was set.
func (o Optional[T]) ApplyPtr(dst **T) {
	if o.Set {
		*dst = o.Value
	}
}

// ApplyValue overwrites a non-nullable field when the option was set; null becomes the zero value
// so validation can reject it.
func (o Optional[T]) ApplyValue(dst *T) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		var zero T
		*dst = zero
		return
	}
	*dst = *o.Value
}
