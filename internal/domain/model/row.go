// Package model contains domain models passed between layers.
package model

import "time"

// EntityIDColumn is the canonical grouping column for per-entity features.
const EntityIDColumn = "entity_id"

// Row is one source event as the aggregator consumes it.
//
// KnowledgeDate is when the fact became observable, which may be later
// than when the underlying event occurred; it is the only date the
// leakage rules look at.
type Row struct {
	EntityID      string             // subject identifier
	KnowledgeDate time.Time          // when this row became knowable
	Quantities    map[string]float64 // numeric fields usable as aggregate quantities
	Attributes    map[string]string  // categorical fields and grouping columns
}

// Attribute returns the named attribute, treating "entity_id" as an alias
// for the entity identifier so it can serve as a grouping column.
func (r Row) Attribute(name string) (string, bool) {
	if name == EntityIDColumn {
		return r.EntityID, r.EntityID != ""
	}
	v, ok := r.Attributes[name]
	return v, ok
}
