package common

import (
	"encoding/json"

	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
)

// Forward route forward message.
// nolint:lll // url in the next line is long
// https://github.com/hyperledger/aries-rfcs/blob/main/concepts/0094-cross-domain-messaging/README.md#corerouting10forward
type Forward struct {
	didcomm.Header
	To  string          `json:"to"`
	Msg json.RawMessage `json:"msg"`
}

// NewForward wraps the packed message to the next hop.
func NewForward(to string, packed []byte) *Forward {
	return &Forward{
		Header: didcomm.NewHeader(pltype.RoutingForward),
		To:     to,
		Msg:    packed,
	}
}
