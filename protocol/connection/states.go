package connection

import (
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/aries"
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/protocol"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/didexchange"
	"github.com/findy-network/findy-didcomm/std/discover"
	"github.com/findy-network/findy-didcomm/std/outofband"
	"github.com/findy-network/findy-didcomm/std/sov/did"
	"github.com/findy-network/findy-didcomm/std/trustping"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Connect starts the protocol. The inviter creates its agent and the
// invitation, the invitee creates its agent and sends the request.
func (c Connection) Connect(b *pairwise.Binder) (next Connection, err error) {
	defer err2.Handle(&err, c.onError(&next, "connect"))

	switch {
	case c.Role == Inviter && c.State == Null:
		return c.invite(b)
	case c.Role == Invitee && c.State == Invited:
		return c.request(b)
	}
	return c, fmt.Errorf("%w: %s %s", ErrState, c.Role, c.State)
}

func (c Connection) invite(b *pairwise.Binder) (Connection, error) {
	agent := try.To1(b.CreateAgent(b.Wait))
	info := agent.Info()
	c.Agent = &info

	if c.Outofband != nil {
		c.OOBInvitation = c.newOutofbandInvitation(agent)
		glog.V(1).Infoln("out-of-band invitation created:", c.OOBInvitation.ID())
	} else {
		c.Invitation = didexchange.NewInvitation(c.Label, agent.AgencyEndpoint(),
			agent.RecipientKeys(), agent.RoutingKeys())
		glog.V(1).Infoln("invitation created:", c.Invitation.ID())
	}
	c.State = Invited
	return c, nil
}

func (c Connection) newOutofbandInvitation(agent *pairwise.Agent) *outofband.Invitation {
	service := did.Service{
		ID:              did.MethodPrefixSov + agent.PwDID + ";indy",
		Type:            did.ServiceTypeDIDComm,
		RecipientKeys:   agent.RecipientKeys(),
		RoutingKeys:     agent.RoutingKeys(),
		ServiceEndpoint: agent.AgencyEndpoint(),
	}
	var requests []decorator.Attachment
	if len(c.Outofband.RequestAttach) > 0 {
		requests = decorator.NewAttachment(pltype.OutOfBandRequestID, c.Outofband.RequestAttach)
	}
	inv := outofband.NewInvitation(c.Label, service, requests)
	if c.Outofband.Handshake {
		inv.HandshakeProtocols = []string{pltype.Connection}
	}
	inv.GoalCode = c.Outofband.GoalCode
	inv.Goal = c.Outofband.Goal
	return inv
}

func (c Connection) request(b *pairwise.Binder) (Connection, error) {
	doc := c.theirDoc()
	pthid := ""
	if c.OOBInvitation != nil {
		if !c.OOBInvitation.SupportsConnections() {
			return c, fmt.Errorf("%w: %v", ErrNoHandshake, c.OOBInvitation.HandshakeProtocols)
		}
		pthid = c.OOBInvitation.ID()
	} else {
		pthid = c.Invitation.ID()
	}

	agent := try.To1(b.CreateAgent(b.Wait))
	req := didexchange.NewRequest(c.Label, &didexchange.Connection{
		DID:    agent.PwDID,
		DIDDoc: agent.DIDDoc(),
	})
	req.SetThread(decorator.NewThread(req.ID(), pthid))
	try.To(agent.SendMessage(req, doc))
	glog.V(1).Infoln("connection request sent:", req.ID())

	info := agent.Info()
	c.Agent = &info
	c.TheirDoc = doc
	c.Thread = req.Thread().Copy()
	c.State = Requested
	return c, nil
}

// UpdateState reads the next message for the state from the mailbox and
// handles it. A message given as JSON is handled without the mailbox.
func (c Connection) UpdateState(b *pairwise.Binder, raw []byte) (next Connection, err error) {
	defer err2.Handle(&err, c.onError(&next, "update connection state"))

	if raw != nil {
		return c.HandleMessage(b, try.To1(aries.Decode(raw)))
	}
	if c.Agent == nil {
		return c, nil
	}
	next = try.To1(c.handleNext(b, b.Agent(*c.Agent)))
	if next.State == Responded && next.PrevAgent != nil {
		next = try.To1(next.handleNext(b, b.Agent(*next.PrevAgent)))
	}
	return next, nil
}

// handleNext handles the first eligible message of the agent's mailbox and
// marks it reviewed. Other messages are left for the other protocols.
func (c Connection) handleNext(b *pairwise.Binder, agent *pairwise.Agent) (Connection, error) {
	return protocol.Receive(c, agent, c.eligible, func(msg didcomm.MessageHdr) (Connection, error) {
		return c.HandleMessage(b, msg)
	})
}

// eligible tells if the message is legal in the state and belongs to the
// connection.
func (c Connection) eligible(msg didcomm.MessageHdr) bool {
	inThread := func() bool {
		return c.Thread != nil && didcomm.FromThread(msg, c.Thread.ID)
	}
	switch c.State {
	case Invited:
		if c.Role != Inviter {
			return false
		}
		switch msg.(type) {
		case *didexchange.Request, *didexchange.ProblemReport:
			return true
		}
	case Requested:
		switch msg.(type) {
		case *didexchange.Response, *didexchange.ProblemReport:
			return inThread()
		}
	case Responded:
		switch msg.(type) {
		case *common.Ack, *trustping.Ping, *trustping.PingResponse, *didexchange.ProblemReport:
			return inThread()
		}
	case Completed:
		switch msg.(type) {
		case *trustping.Ping, *trustping.PingResponse, *discover.Query, *discover.Disclose,
			*outofband.HandshakeReuse, *outofband.HandshakeReuseAccepted:
			return true
		}
	}
	return false
}

// HandleMessage runs the transition of the received message. Messages which
// are not legal in the state are ignored.
func (c Connection) HandleMessage(b *pairwise.Binder, msg didcomm.MessageHdr) (next Connection, err error) {
	defer err2.Handle(&err, c.onError(&next, "handle "+msg.Type()))

	if !c.eligible(msg) {
		glog.V(3).Infof("connection %s: ignoring %s", c.State, msg.Type())
		return c, nil
	}
	glog.V(1).Infof("connection %s %s: %s", c.Role, c.State, msg.Type())
	c.Thread = c.Thread.Copy()

	switch m := msg.(type) {
	case *didexchange.ProblemReport:
		glog.Warningln("connection problem report:", m.ProblemCode, m.Explain)
		if c.Thread != nil {
			c.Thread.UpdateReceivedOrder(c.peer())
		}
		c.ProblemReport = m
		c.State = Failed
		return c, nil
	case *didexchange.Request:
		return c.handleRequest(b, m)
	case *didexchange.Response:
		return c.handleResponse(b, m)
	case *common.Ack:
		return c.handleAck(b, m)
	case *trustping.Ping:
		return c.handlePing(b, m)
	case *trustping.PingResponse:
		if c.State == Responded {
			c.Thread.UpdateReceivedOrder(c.peer())
			c.State = Completed
		}
		return c, nil
	case *discover.Query:
		try.To(c.agent(b).SendMessage(discover.NewDisclose(m), c.TheirDoc))
		return c, nil
	case *discover.Disclose:
		c.TheirProtocols = m.Protocols
		return c, nil
	case *outofband.HandshakeReuse:
		th := &decorator.Thread{ID: didcomm.ThreadID(m)}
		if m.Thread() != nil {
			th.SetPthid(m.Thread().PID)
		}
		try.To(c.agent(b).SendMessage(outofband.NewHandshakeReuseAccepted(th), c.TheirDoc))
		return c, nil
	case *outofband.HandshakeReuseAccepted:
		glog.V(1).Infoln("handshake reuse accepted:", didcomm.ThreadID(m))
		return c, nil
	}
	return c, nil
}

// handleRequest is the inviter's transition: a new pairwise agent is created
// for the connection and the response is signed with the invitation key.
func (c Connection) handleRequest(b *pairwise.Binder, req *didexchange.Request) (Connection, error) {
	prev := b.Agent(*c.Agent)
	th := decorator.NewThread(req.ID(), "")
	if req.Thread() != nil {
		th.SetPthid(req.Thread().PID)
	}
	if req.Connection == nil || req.Connection.DIDDoc == nil {
		return c.fail(prev, nil, th, didexchange.RequestNotAccepted,
			"connection request has no DIDDoc"), nil
	}
	theirDoc := req.Connection.DIDDoc
	th.UpdateReceivedOrder(theirDoc.ID)
	if err := theirDoc.Validate(); err != nil {
		return c.fail(prev, theirDoc, th, didexchange.RequestNotAccepted, err.Error()), nil
	}

	agent := try.To1(b.CreateAgent(b.Wait))
	res := didexchange.NewResponse(&didexchange.Connection{
		DID:    agent.PwDID,
		DIDDoc: agent.DIDDoc(),
	}, th.Copy(), true)
	try.To(res.Sign(prev.PwVerKey, b.Envelope))
	try.To(agent.SendMessage(res, theirDoc))
	glog.V(1).Infoln("connection response sent to:", theirDoc.ID)

	info := agent.Info()
	c.PrevAgent = c.Agent
	c.Agent = &info
	c.TheirDoc = theirDoc
	c.Thread = th
	c.State = Responded
	return c, nil
}

// handleResponse is the invitee's transition. The response must be signed
// with the key of the invitation and carry a valid DIDDoc.
func (c Connection) handleResponse(b *pairwise.Binder, res *didexchange.Response) (Connection, error) {
	agent := c.agent(b)
	invKeys, err := b.Envelope.RecipientKeys(c.TheirDoc)
	if err == nil {
		err = res.Verify(invKeys[0], b.Envelope)
	}
	if err == nil {
		err = res.Connection.DIDDoc.Validate()
	}
	if err != nil {
		glog.Errorln("connection response not accepted:", err)
		th := c.Thread.Copy()
		th.IncrementSenderOrder()
		return c.fail(agent, c.TheirDoc, th, didexchange.ResponseNotAccepted, err.Error()), nil
	}

	theirDoc := res.Connection.DIDDoc
	try.To(c.Thread.CheckMessageOrder(theirDoc.ID, res.Thread()))
	c.Thread.UpdateReceivedOrder(theirDoc.ID)
	c.Thread.IncrementSenderOrder()

	var reply didcomm.MessageHdr = common.NewAck(c.Thread.Copy())
	if res.PleaseAck == nil {
		reply = trustping.NewPing("", false, c.Thread.Copy())
	}
	try.To(agent.SendMessage(reply, theirDoc))

	c.TheirDoc = theirDoc
	c.State = Completed
	glog.V(1).Infoln("connection completed with:", theirDoc.ID)
	return c, nil
}

// handleAck completes the inviter's connection.
func (c Connection) handleAck(b *pairwise.Binder, ack *common.Ack) (Connection, error) {
	if err := c.Thread.CheckMessageOrder(c.peer(), ack.Thread()); err != nil {
		th := c.Thread.Copy()
		th.IncrementSenderOrder()
		return c.fail(c.agent(b), c.TheirDoc, th, didexchange.RequestProcessingError, err.Error()), nil
	}
	c.Thread.UpdateReceivedOrder(c.peer())
	c.State = Completed
	glog.V(1).Infoln("connection completed with:", c.peer())
	return c, nil
}

// handlePing completes the inviter's connection like the ack does. Pings are
// answered when the sender asks it.
func (c Connection) handlePing(b *pairwise.Binder, ping *trustping.Ping) (Connection, error) {
	if c.State == Responded {
		if err := c.Thread.CheckMessageOrder(c.peer(), ping.Thread()); err != nil {
			th := c.Thread.Copy()
			th.IncrementSenderOrder()
			return c.fail(c.agent(b), c.TheirDoc, th, didexchange.RequestProcessingError, err.Error()), nil
		}
		c.Thread.UpdateReceivedOrder(c.peer())
		c.State = Completed
	}
	if ping.ResponseRequested {
		try.To(c.agent(b).SendMessage(trustping.NewResponse(ping), c.TheirDoc))
	}
	return c, nil
}

// fail sends the problem report when it's possible and moves to Failed.
func (c Connection) fail(agent *pairwise.Agent, doc *did.Doc, th *decorator.Thread,
	code didexchange.ProblemCode, explain string) Connection {

	pr := didexchange.NewProblemReport(code, explain, th.Copy())
	if doc != nil {
		if err := agent.SendMessage(pr, doc); err != nil {
			glog.Warningln("cannot send connection problem report:", err)
		}
	}
	c.Thread = th
	c.ProblemReport = pr
	c.State = Failed
	return c
}

func (c Connection) agent(b *pairwise.Binder) *pairwise.Agent {
	return b.Agent(*c.Agent)
}
