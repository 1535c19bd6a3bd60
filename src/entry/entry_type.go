package entry

import "strings"

// Type is an entry-type tag. It distinguishes system-reserved types from
// application-defined types, which are declared in the application schema.
type Type string

// System types carry the sysPrefix, which application-defined type names are
// not allowed to start with.
const sysPrefix = "%"

const (
	// TypeAppDefinition is the entry holding the application definition
	// itself. It is node-local bookkeeping and never publishable.
	TypeAppDefinition Type = "%app_definition"

	// TypeAgentID is the entry holding an agent's public identity. It is
	// committed at genesis and published so that peers can resolve agents.
	TypeAgentID Type = "%agent_id"

	// TypeDeletion marks an entry as deleted. Deletions replicate like the
	// data they tombstone.
	TypeDeletion Type = "%deletion"
)

// IsSys returns true for system-reserved types.
func (t Type) IsSys() bool {
	return strings.HasPrefix(string(t), sysPrefix)
}

// CanPublish returns the fixed publishing rule for system types. It is not
// consulted for application types, whose sharing policy comes from the
// schema. Unrecognised system types do not publish.
func (t Type) CanPublish() bool {
	switch t {
	case TypeAgentID, TypeDeletion:
		return true
	}
	return false
}
