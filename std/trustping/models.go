// Package trustping implements the messages of the Aries trust ping
// protocol (RFC 0048).
package trustping

import (
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

type Ping struct {
	didcomm.Header
	Comment           string `json:"comment,omitempty"`
	ResponseRequested bool   `json:"response_requested"`
}

type PingResponse struct {
	didcomm.Header
	Comment string `json:"comment,omitempty"`
}

// NewPing returns a ping which starts its own thread unless th is given.
func NewPing(comment string, responseRequested bool, th *decorator.Thread) *Ping {
	p := &Ping{
		Header:            didcomm.NewHeader(pltype.TrustPingPing),
		Comment:           comment,
		ResponseRequested: responseRequested,
	}
	if th == nil {
		th = &decorator.Thread{ID: p.ID()}
	}
	p.SetThread(th)
	return p
}

// NewResponse returns the response to the ping. The thread is the ping's
// thread or the ping itself.
func NewResponse(ping *Ping) *PingResponse {
	r := &PingResponse{Header: didcomm.NewHeader(pltype.TrustPingResponse)}
	r.SetThread(&decorator.Thread{ID: didcomm.ThreadID(ping)})
	return r
}
