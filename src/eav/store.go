// Package eav implements an entity-attribute-value store. It is the substrate
// reserved for link indexing, where the entity is a base address, the
// attribute is a link tag, and the value is a target address.
package eav

// Triple is a single entity-attribute-value assertion.
type Triple struct {
	Entity    string
	Attribute string
	Value     string
}

// Filter selects triples by exact field values. A nil field matches anything,
// so the zero Filter selects every triple.
type Filter struct {
	Entity    *string
	Attribute *string
	Value     *string
}

// Match reports whether a triple passes the filter.
func (f Filter) Match(t Triple) bool {
	if f.Entity != nil && *f.Entity != t.Entity {
		return false
	}
	if f.Attribute != nil && *f.Attribute != t.Attribute {
		return false
	}
	if f.Value != nil && *f.Value != t.Value {
		return false
	}
	return true
}

// Store is the interface for entity-attribute-value storage. Assertions are
// add only; there is no update or delete.
type Store interface {
	//Add records an assertion. Adding the same triple twice is a no-op.
	Add(t Triple) error

	//Fetch returns the triples selected by the filter, in a deterministic
	//order.
	Fetch(f Filter) ([]Triple, error)

	//Close closes the underlying storage.
	Close() error
}
