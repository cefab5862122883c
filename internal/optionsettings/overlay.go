// Package optionsettings resolves and coerces option setting values.
//
// Schema nodes are never written to. Explicit values live in an Overlay owned
// by one recommendation, keyed by fully qualified id.
package optionsettings

import (
	"maps"
	"slices"
)

// Overlay maps fully qualified ids to explicit, already coerced values.
// It is not safe for concurrent use; owners serialise access.
type Overlay struct {
	values map[string]any
}

// NewOverlay returns an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{values: make(map[string]any)}
}

// Get returns the explicit value for a fully qualified id.
func (o *Overlay) Get(fullyQualifiedID string) (any, bool) {
	v, ok := o.values[fullyQualifiedID]
	return v, ok
}

// Set stores an explicit value.
func (o *Overlay) Set(fullyQualifiedID string, value any) {
	o.values[fullyQualifiedID] = value
}

// Delete removes an explicit value so the default applies again.
func (o *Overlay) Delete(fullyQualifiedID string) {
	delete(o.values, fullyQualifiedID)
}

// Len returns the number of explicit values.
func (o *Overlay) Len() int {
	return len(o.values)
}

// Keys returns the overridden ids in sorted order.
func (o *Overlay) Keys() []string {
	return slices.Sorted(maps.Keys(o.values))
}

// Clone returns an independent copy. List and map values are copied too.
func (o *Overlay) Clone() *Overlay {
	c := &Overlay{values: make(map[string]any, len(o.values))}
	for k, v := range o.values {
		c.values[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}
