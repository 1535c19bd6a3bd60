package entry

// Link describes a directed, tagged relationship between two entries. Links
// are what the attribute store indexes: the base entry is the entity, the tag
// is the attribute, and the target entry is the value.
type Link struct {
	Base   string
	Target string
	Tag    string
}

// NewLink instantiates a Link between two entry addresses.
func NewLink(base, target, tag string) *Link {
	return &Link{
		Base:   base,
		Target: target,
		Tag:    tag,
	}
}
