package net

// PublishRequest pushes a committed entry to another node. The entry is
// encoded in its canonical wire format, from which the receiver re-derives
// the address.
type PublishRequest struct {
	FromID uint32
	Entry  []byte
}

// PublishResponse indicates the success or failure of a PublishRequest.
type PublishResponse struct {
	FromID  uint32
	Success bool
}

// GetRequest asks another node for the entry stored at an address.
type GetRequest struct {
	FromID  uint32
	Address string
}

// GetResponse returns the canonical bytes of the requested entry, if the
// responder holds it.
type GetResponse struct {
	FromID uint32
	Found  bool
	Entry  []byte
}
