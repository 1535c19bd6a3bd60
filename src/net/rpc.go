package net

// RPCResponse carries a command response together with an optional error.
type RPCResponse struct {
	Response interface{}
	Error    error
}

// RPC wraps an inbound command with the channel on which to send the outcome
// back to the transport.
type RPC struct {
	Command  interface{}
	RespChan chan<- RPCResponse
}

// Respond sends resp and err back to the originator of the request.
func (r *RPC) Respond(resp interface{}, err error) {
	r.RespChan <- RPCResponse{resp, err}
}
