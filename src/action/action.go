// Package action defines the state-transition requests consumed by the DHT
// reducers.
//
// Actions form an open set: the DHT layer reduces the variants it knows about
// and passes everything else through untouched, because in a larger system
// other state slices react to actions this one ignores.
package action

import (
	"crypto/rand"
	"fmt"

	"github.com/waggleworks/waggle/src/entry"
)

// Action describes a requested state transition. Each variant carries the
// data needed to compute the next state.
type Action interface {
	// Name returns the variant's name, for logging and correlation.
	Name() string
}

// Commit requests that an entry be added to the local store and, depending on
// its type and sharing policy, published to the network.
type Commit struct {
	Entry *entry.Entry
}

// Name implements Action.
func (*Commit) Name() string { return "commit" }

// GetEntry requests that the content at an address be fetched from the
// network and cached locally. It is only meaningful for addresses not already
// held locally.
type GetEntry struct {
	Address string
}

// Name implements Action.
func (*GetEntry) Name() string { return "get-entry" }

// AddLink requests that a link between two entries be added to the link
// index.
type AddLink struct {
	Link *entry.Link
}

// Name implements Action.
func (*AddLink) Name() string { return "add-link" }

// GetLinks requests the targets linked from a base entry under a tag.
type GetLinks struct {
	Base string
	Tag  string
}

// Name implements Action.
func (*GetLinks) Name() string { return "get-links" }

// Wrapper carries an Action together with a unique ID. The reducers only
// inspect the inner Action; the ID is what upstream components correlate
// results and detect redeliveries with.
type Wrapper struct {
	ID     string
	Action Action
}

// Wrap wraps an Action with a fresh unique ID.
func Wrap(a Action) *Wrapper {
	return &Wrapper{
		ID:     generateUUID(),
		Action: a,
	}
}

// generateUUID is used to generate a random UUID.
func generateUUID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%12x",
		buf[0:4],
		buf[4:6],
		buf[6:8],
		buf[8:10],
		buf[10:16])
}
