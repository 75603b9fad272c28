package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// Nullable distinguishes an absent JSON field from an explicit null. Valid is set whenever the
// key was present; Value is nil for null.
type Nullable[T any] struct {
	Valid bool
	Value *T
}

// NullableUUID is the PATCH shape for optional foreign keys such as color_id.
type NullableUUID = Nullable[uuid.UUID]

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	n.Valid = true
	if bytes.Equal(data, []byte("null")) {
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

// IsNull reports an explicit null.
func (n Nullable[T]) IsNull() bool {
	return n.Valid && n.Value == nil
}

// Apply writes the patch into dst when the field was present, copying the value so dst
// never aliases the request.
func (n Nullable[T]) Apply(dst **T) {
	if !n.Valid {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}
