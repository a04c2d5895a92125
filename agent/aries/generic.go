package aries

import (
	"github.com/findy-network/findy-didcomm/agent/didcomm"
)

// Generic is a message which type we don't know. It keeps the original JSON
// which is also its JSON encoding.
type Generic struct {
	didcomm.Header
	Raw []byte `json:"-"`
}

func newGeneric(hdr didcomm.Header, data []byte) *Generic {
	raw := make([]byte, len(data))
	copy(raw, data)
	return &Generic{Header: hdr, Raw: raw}
}

// NewGeneric returns a generic message of the JSON. It's used to send
// messages of the protocols we don't implement.
func NewGeneric(data []byte) (g *Generic, err error) {
	msg, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if g, ok := msg.(*Generic); ok {
		return g, nil
	}
	return newGeneric(didcomm.Header{
		AType:   msg.Type(),
		AID:     msg.ID(),
		AThread: msg.Thread(),
	}, data), nil
}

func (g *Generic) MarshalJSON() ([]byte, error) {
	return g.Raw, nil
}
