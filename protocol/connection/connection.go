/*
Package connection implements the Aries connection protocol (RFC 0160) state
machine for both ends of the connection, the inviter and the invitee. The
invitation can be a connection invitation or an out-of-band invitation.

Connection is a value. Every transition takes the old value and returns the
new one, and a failing transition returns the old value unchanged together
with the error. The fields valid in each state are:

	Null       Label, Outofband (inviter), Invitation or OOBInvitation (invitee)
	Invited    Agent (inviter), Invitation or OOBInvitation
	Requested  Agent, TheirDoc of the invitation, Thread
	Responded  Agent, PrevAgent, TheirDoc, Thread
	Completed  Agent, PrevAgent (inviter), TheirDoc, Thread, TheirProtocols
	Failed     ProblemReport and what was valid when it failed

The other protocols use the CompletedConnection of a completed machine.
*/
package connection

import (
	"errors"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/aries"
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/didexchange"
	"github.com/findy-network/findy-didcomm/std/discover"
	"github.com/findy-network/findy-didcomm/std/outofband"
	"github.com/findy-network/findy-didcomm/std/sov/did"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var (
	ErrState        = errors.New("not allowed in the connection state")
	ErrNotCompleted = errors.New("connection is not completed")
	ErrNoHandshake  = errors.New("no supported handshake protocol")
	ErrInvitation   = errors.New("invalid invitation")
)

type Role string

const (
	Inviter Role = "inviter"
	Invitee Role = "invitee"
)

type State string

const (
	Null      State = "Null"
	Invited   State = "Invited"
	Requested State = "Requested"
	Responded State = "Responded"
	Completed State = "Completed"
	Failed    State = "Failed"
)

// OutofbandMeta is what the inviter puts to its out-of-band invitation.
// RequestAttach is a message JSON the invitee should handle.
type OutofbandMeta struct {
	GoalCode      string `json:"goal_code,omitempty"`
	Goal          string `json:"goal,omitempty"`
	Handshake     bool   `json:"handshake"`
	RequestAttach []byte `json:"request_attach,omitempty"`
}

type Connection struct {
	Role  Role   `json:"role"`
	State State  `json:"state"`
	Label string `json:"label"`

	Agent *pairwise.AgentInfo `json:"agent,omitempty"`
	// PrevAgent is the inviter's invitation agent. It signs the response.
	PrevAgent *pairwise.AgentInfo `json:"prev_agent,omitempty"`

	Outofband     *OutofbandMeta          `json:"outofband,omitempty"`
	Invitation    *didexchange.Invitation `json:"invitation,omitempty"`
	OOBInvitation *outofband.Invitation   `json:"outofband_invitation,omitempty"`

	TheirDoc       *did.Doc                      `json:"their_did_doc,omitempty"`
	Thread         *decorator.Thread             `json:"thread,omitempty"`
	TheirProtocols []discover.ProtocolDescriptor `json:"their_protocols,omitempty"`

	ProblemReport *didexchange.ProblemReport `json:"problem_report,omitempty"`
}

// CompletedConnection is what the other protocols need from a completed
// connection.
type CompletedConnection struct {
	Agent  pairwise.AgentInfo `json:"agent"`
	DIDDoc *did.Doc           `json:"did_doc"`
	Thread *decorator.Thread  `json:"thread"`
}

// Peer returns the DID of the other end.
func (c CompletedConnection) Peer() string {
	return c.DIDDoc.ID
}

// Send sends the message to the other end from our pairwise agent.
func (c CompletedConnection) Send(b *pairwise.Binder, msg didcomm.MessageHdr) error {
	return b.Agent(c.Agent).SendMessage(msg, c.DIDDoc)
}

// SideInfo describes one end of the connection.
type SideInfo struct {
	DID             string                        `json:"did"`
	RecipientKeys   []string                      `json:"recipientKeys"`
	RoutingKeys     []string                      `json:"routingKeys"`
	ServiceEndpoint string                        `json:"serviceEndpoint"`
	Protocols       []discover.ProtocolDescriptor `json:"protocols,omitempty"`
}

// Info is the connection info of both ends.
type Info struct {
	My    SideInfo  `json:"my"`
	Their *SideInfo `json:"their,omitempty"`
}

// CreateInviter returns the inviter's machine. Connect creates the
// invitation.
func CreateInviter(label string) Connection {
	return Connection{Role: Inviter, State: Null, Label: label}
}

// CreateOutofbandInviter returns the inviter's machine which creates an
// out-of-band invitation.
func CreateOutofbandInviter(label string, meta OutofbandMeta) Connection {
	c := CreateInviter(label)
	c.Outofband = &meta
	return c
}

// CreateWithInvite returns the invitee's machine for the invitation.
func CreateWithInvite(label string, inv *didexchange.Invitation) (Connection, error) {
	return Connection{Role: Invitee, State: Null, Label: label}.ProcessInvite(inv)
}

// CreateWithOutofbandInvite returns the invitee's machine for the
// out-of-band invitation. Invalid invitations are rejected before anything
// is sent.
func CreateWithOutofbandInvite(label string, inv *outofband.Invitation) (Connection, error) {
	return Connection{Role: Invitee, State: Null, Label: label}.ProcessOutofbandInvite(inv)
}

func (c Connection) ProcessInvite(inv *didexchange.Invitation) (next Connection, err error) {
	defer err2.Handle(&err, c.onError(&next, "process invite"))

	if c.Role != Invitee || c.State != Null {
		return c, fmt.Errorf("%w: %s %s", ErrState, c.Role, c.State)
	}
	if inv == nil {
		return c, fmt.Errorf("%w: missing", ErrInvitation)
	}
	if err := inv.DIDDoc().Validate(); err != nil {
		return c, fmt.Errorf("%w: %w", ErrInvitation, err)
	}
	c.Invitation = inv
	c.State = Invited
	return c, nil
}

func (c Connection) ProcessOutofbandInvite(inv *outofband.Invitation) (next Connection, err error) {
	defer err2.Handle(&err, c.onError(&next, "process out-of-band invite"))

	if c.Role != Invitee || c.State != Null {
		return c, fmt.Errorf("%w: %s %s", ErrState, c.Role, c.State)
	}
	if inv == nil {
		return c, fmt.Errorf("%w: missing", ErrInvitation)
	}
	try.To(inv.Validate())
	c.OOBInvitation = inv
	c.State = Invited
	return c, nil
}

func (c Connection) IsCompleted() bool {
	return c.State == Completed
}

// GetInviteDetails returns the invitation JSON. After the invitation phase
// it's built from the other end's DIDDoc.
func (c Connection) GetInviteDetails() (data []byte, err error) {
	defer err2.Handle(&err, "invite details")

	switch {
	case c.Invitation != nil && c.State == Invited:
		return aries.Encode(c.Invitation)
	case c.OOBInvitation != nil && c.State == Invited:
		return aries.Encode(c.OOBInvitation)
	case c.TheirDoc != nil:
		return aries.Encode(didexchange.NewInvitation(c.Label,
			c.TheirDoc.Endpoint(), c.TheirDoc.RecipientKeys(), c.TheirDoc.RoutingKeys()))
	}
	return []byte("{}"), nil
}

// GetConnectionInfo returns both ends of the connection. The other end is
// known after the invitation.
func (c Connection) GetConnectionInfo() (info Info, err error) {
	if c.Agent == nil {
		return info, fmt.Errorf("connection info: %w: no agent in %s", ErrState, c.State)
	}
	info.My = SideInfo{
		DID:             c.Agent.PwDID,
		RecipientKeys:   []string{c.Agent.PwVerKey},
		RoutingKeys:     []string{c.Agent.AgentVerKey, c.Agent.AgencyVerKey},
		ServiceEndpoint: c.Agent.Endpoint,
		Protocols:       discover.Protocols("*"),
	}
	if doc := c.theirDoc(); doc != nil {
		info.Their = &SideInfo{
			DID:             doc.ID,
			RecipientKeys:   doc.RecipientKeys(),
			RoutingKeys:     doc.RoutingKeys(),
			ServiceEndpoint: doc.Endpoint(),
			Protocols:       c.TheirProtocols,
		}
	}
	return info, nil
}

func (c Connection) GetCompletedConnection() (CompletedConnection, error) {
	if c.State != Completed {
		return CompletedConnection{}, fmt.Errorf("%w: %s", ErrNotCompleted, c.State)
	}
	return CompletedConnection{
		Agent:  *c.Agent,
		DIDDoc: c.TheirDoc,
		Thread: c.Thread.Copy(),
	}, nil
}

// GetProblemReport returns the problem report of a failed connection.
func (c Connection) GetProblemReport() *didexchange.ProblemReport {
	return c.ProblemReport
}

// Delete removes the mailbox agents of the connection from the agency.
func (c Connection) Delete(b *pairwise.Binder) (err error) {
	defer err2.Handle(&err, "delete connection")

	if c.Agent == nil {
		return fmt.Errorf("%w: no agent in %s", ErrState, c.State)
	}
	if c.PrevAgent != nil {
		try.To(b.Agent(*c.PrevAgent).Delete())
	}
	return b.Agent(*c.Agent).Delete()
}

// theirDoc returns the DIDDoc we send to in the current state.
func (c Connection) theirDoc() *did.Doc {
	switch {
	case c.TheirDoc != nil:
		return c.TheirDoc
	case c.Role == Invitee && c.Invitation != nil:
		return c.Invitation.DIDDoc()
	case c.Role == Invitee && c.OOBInvitation != nil:
		return c.OOBInvitation.DIDDoc()
	}
	return nil
}

func (c Connection) peer() string {
	if c.TheirDoc == nil {
		return ""
	}
	return c.TheirDoc.ID
}

// onError keeps the machine as it was when the transition fails.
func (c Connection) onError(next *Connection, op string) func(error) error {
	return func(err error) error {
		*next = c
		return fmt.Errorf("%s: %w", op, err)
	}
}
