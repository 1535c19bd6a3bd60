package peers

import (
	"bytes"
	"encoding/json"

	"github.com/waggleworks/waggle/src/common"
)

// Peer is a participant in a Waggle network. It is identified by its public
// key, and carries an optional network address and moniker.
type Peer struct {
	NetAddr   string `json:"NetAddr"`
	PubKeyHex string `json:"PubKeyHex"`
	Moniker   string `json:"Moniker"`

	id uint32
}

// NewPeer instantiates a new Peer.
func NewPeer(pubKeyHex, netAddr, moniker string) *Peer {
	peer := &Peer{
		PubKeyHex: pubKeyHex,
		NetAddr:   netAddr,
		Moniker:   moniker,
	}

	return peer
}

// ID returns a 32 bit identifier derived from the peer's public key.
func (p *Peer) ID() uint32 {
	if p.id == 0 {
		p.id = common.Hash32(p.PubKeyBytes())
	}

	return p.id
}

// PubKeyString returns the hexadecimal representation of the peer's public
// key.
func (p *Peer) PubKeyString() string {
	return p.PubKeyHex
}

// PubKeyBytes returns the byte representation of the peer's public key.
func (p *Peer) PubKeyBytes() []byte {
	res, _ := common.DecodeFromString(p.PubKeyHex)
	return res
}

// Marshal marshals the peer to JSON.
func (p *Peer) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal unmarshals a peer from JSON.
func (p *Peer) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)

	dec := json.NewDecoder(b)
	if err := dec.Decode(p); err != nil {
		return err
	}

	return nil
}
