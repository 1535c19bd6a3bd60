package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/ugorji/go/codec"

	"github.com/waggleworks/waggle/src/entry"
)

// Sharing is the replication policy of an application entry type. It decides
// whether entries of that type may leave the node.
type Sharing string

const (
	// SharingPublic entries are committed locally and published to peers.
	SharingPublic Sharing = "public"
	// SharingPrivate entries never leave the node.
	SharingPrivate Sharing = "private"
	// SharingEncrypted entries would replicate in encrypted form. Reserved;
	// treated as non-publishable until entry encryption lands.
	SharingEncrypted Sharing = "encrypted"
)

// CanPublish collapses the sharing classification into the yes/no question
// the commit path asks.
func (s Sharing) CanPublish() bool {
	return s == SharingPublic
}

// EntryTypeDef is the definition of an application entry type.
type EntryTypeDef struct {
	Description string  `json:"description,omitempty"`
	Sharing     Sharing `json:"sharing"`
}

// Definition is an application definition: the set of entry types an
// application declares, with their sharing policies. It is loaded once when
// an application instance starts and is read-only from then on.
type Definition struct {
	Name       string                   `json:"name"`
	UUID       string                   `json:"uuid,omitempty"`
	EntryTypes map[string]*EntryTypeDef `json:"entry_types"`
}

// Lookup is the read-only capability through which the reducers consult the
// currently loaded application definition.
type Lookup interface {
	// GetEntryTypeDef returns the definition of an application entry type,
	// or false when the type is not declared.
	GetEntryTypeDef(name string) (*EntryTypeDef, bool)
}

// GetEntryTypeDef implements Lookup.
func (d *Definition) GetEntryTypeDef(name string) (*EntryTypeDef, bool) {
	def, ok := d.EntryTypes[name]
	return def, ok
}

// Validate checks that the definition is usable: it must be named, and
// application entry types cannot squat the system prefix.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("application definition has no name")
	}

	for name := range d.EntryTypes {
		if strings.HasPrefix(name, "%") {
			return fmt.Errorf("entry type %q uses the reserved system prefix", name)
		}
	}

	return nil
}

// Marshal returns the canonical JSON encoding of the definition. These bytes
// are the content of the application's identity entry, so they must be
// canonical (sorted map keys) for the application's address to be stable.
func (d *Definition) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(d); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Entry wraps the definition in its system entry. Committing this entry is
// rejected by the DHT layer, on purpose: the definition stays node-local.
func (d *Definition) Entry() (*entry.Entry, error) {
	data, err := d.Marshal()
	if err != nil {
		return nil, err
	}
	return entry.New(entry.TypeAppDefinition, string(data)), nil
}

// Load reads and validates an application definition from a JSON file.
func Load(file string) (*Definition, error) {
	raw, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	def := new(Definition)
	if err := json.Unmarshal(raw, def); err != nil {
		return nil, err
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return def, nil
}
