package entry

import (
	"bytes"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/ugorji/go/codec"
)

// Entry is an immutable unit of content-addressed data. Its address is a pure
// function of its type and content, so two entries with identical type and
// content are the same entry. System entries (state the node keeps about
// itself) and application entries (user data governed by the application
// schema) share this representation and differ only by their Type.
type Entry struct {
	Type    Type
	Content string
}

// New instantiates an Entry.
func New(entryType Type, content string) *Entry {
	return &Entry{
		Type:    entryType,
		Content: content,
	}
}

// Marshal returns the canonical JSON encoding of an Entry. The encoding is
// canonical (sorted map keys) because the entry's address is derived from
// these bytes.
func (e *Entry) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(e); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal converts the canonical JSON encoding of an Entry back to an Entry.
func (e *Entry) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	if err := dec.Decode(e); err != nil {
		return err
	}

	return nil
}

// FromBytes parses the canonical JSON encoding of an Entry, as produced by
// Marshal.
func FromBytes(data []byte) (*Entry, error) {
	e := new(Entry)
	if err := e.Unmarshal(data); err != nil {
		return nil, err
	}
	return e, nil
}

// Address returns the entry's content address: a CIDv1 string using the raw
// multicodec and a sha2-256 multihash of the canonical encoding. The address
// is always derived, never stored, so it cannot go stale or be tampered with.
func (e *Entry) Address() string {
	data, err := e.Marshal()
	if err != nil {
		return ""
	}

	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and
		// default length this is unreachable.
		return ""
	}

	return cid.NewCidV1(cid.Raw, sum).String()
}
