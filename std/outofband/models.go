// Package outofband implements the messages of the Aries out-of-band
// protocol (RFC 0434).
package outofband

import (
	"errors"
	"fmt"
	"strings"

	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/sov/did"
)

var ErrInvalidInvitation = errors.New("invalid out-of-band invitation")

// Invitation is the out-of-band invitation. Service holds inline DID
// documents services.
type Invitation struct {
	didcomm.Header
	Label              string                 `json:"label,omitempty"`
	GoalCode           string                 `json:"goal_code,omitempty"`
	Goal               string                 `json:"goal,omitempty"`
	HandshakeProtocols []string               `json:"handshake_protocols,omitempty"`
	RequestsAttach     []decorator.Attachment `json:"request~attach,omitempty"`
	Service            []did.Service          `json:"service"`
	ProfileURL         string                 `json:"profileUrl,omitempty"`
}

// HandshakeReuse is sent instead of a new connection request when the
// invitee already has a connection with the inviter.
type HandshakeReuse struct {
	didcomm.Header
}

// HandshakeReuseAccepted answers HandshakeReuse.
type HandshakeReuseAccepted struct {
	didcomm.Header
}

func NewInvitation(label string, service did.Service, requests []decorator.Attachment) *Invitation {
	inv := &Invitation{
		Header:         didcomm.NewHeader(pltype.OutOfBandInvitation),
		Label:          label,
		RequestsAttach: requests,
		Service:        []did.Service{service},
	}
	if len(requests) == 0 {
		inv.HandshakeProtocols = []string{pltype.Connection}
	}
	return inv
}

// Validate checks the invitation before anything is sent to the inviter.
func (i *Invitation) Validate() error {
	if len(i.Service) == 0 {
		return fmt.Errorf("%w: service is empty", ErrInvalidInvitation)
	}
	if len(i.HandshakeProtocols) == 0 && len(i.RequestsAttach) == 0 {
		return fmt.Errorf("%w: both handshake_protocols and request~attach are empty",
			ErrInvalidInvitation)
	}
	if len(i.HandshakeProtocols) > 0 && !i.SupportsConnections() {
		return fmt.Errorf("%w: no supported handshake protocol in %v",
			ErrInvalidInvitation, i.HandshakeProtocols)
	}
	return nil
}

// SupportsConnections tells if the connection protocol is one of the
// handshake protocols.
func (i *Invitation) SupportsConnections() bool {
	for _, p := range i.HandshakeProtocols {
		if strings.Contains(p, pltype.ConnectionProtocolReference) {
			return true
		}
	}
	return false
}

// DIDDoc returns the DID document built from the first service entry.
func (i *Invitation) DIDDoc() *did.Doc {
	if len(i.Service) == 0 {
		return nil
	}
	s := i.Service[0]
	return &did.Doc{
		Context: did.Context,
		ID:      i.ID(),
		Service: []did.Service{s},
	}
}

func NewHandshakeReuse(pthid string) *HandshakeReuse {
	m := &HandshakeReuse{Header: didcomm.NewHeader(pltype.OutOfBandHandshakeReuse)}
	m.SetThread(&decorator.Thread{ID: m.ID(), PID: pthid})
	return m
}

func NewHandshakeReuseAccepted(th *decorator.Thread) *HandshakeReuseAccepted {
	m := &HandshakeReuseAccepted{Header: didcomm.NewHeader(pltype.OutOfBandHandshakeReuseAccepted)}
	m.SetThread(th)
	return m
}
