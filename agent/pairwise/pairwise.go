/*
Package pairwise binds a pairwise DID of ours to its mailbox agent at the
agency and to the transport. The protocol state machines keep the AgentInfo
as part of their state and use the Agent to read their inbound messages from
the mailbox and to send the outbound ones.
*/
package pairwise

import (
	"errors"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/agency"
	"github.com/findy-network/findy-didcomm/agent/comm"
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/sec"
	"github.com/findy-network/findy-didcomm/std/sov/did"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrNoEndpoint = errors.New("no service endpoint")

// AgentInfo is our side of one pairwise connection: the pairwise DID and
// the mailbox agent registered for it at the agency.
type AgentInfo struct {
	PwDID       string `json:"pairwise_did"`
	PwVerKey    string `json:"pairwise_verkey"`
	AgentDID    string `json:"remote_agent_did"`
	AgentVerKey string `json:"remote_agent_verkey"`

	// Wait makes the sends synchronous. Without it they are fire and forget.
	Wait bool `json:"wait_flag,omitempty"`

	Endpoint     string `json:"agency_endpoint"`
	AgencyVerKey string `json:"agency_verkey"`
}

// Inbound is a decoded mailbox message and the uid of its mailbox entry.
type Inbound struct {
	UID string
	Msg didcomm.MessageHdr
}

// Binder has the services the agents need. One binder serves all the
// agents of the same wallet.
type Binder struct {
	Agency    agency.Client
	Envelope  *sec.Envelope
	Transport comm.Transport

	// Wait is the wait flag of the agents the protocols create.
	Wait bool
}

func NewBinder(c agency.Client, env *sec.Envelope, t comm.Transport) *Binder {
	return &Binder{Agency: c, Envelope: env, Transport: t}
}

// CreateAgent creates a new pairwise DID and registers a mailbox agent for
// it.
func (b *Binder) CreateAgent(wait bool) (a *Agent, err error) {
	defer err2.Handle(&err, "create agent")

	info := try.To1(b.Agency.Info())
	pw := try.To1(b.Envelope.Storage().CreateDID())
	ag, err := b.Agency.Register(pw.DID, pw.VerKey)
	if err != nil {
		if !errors.Is(err, agency.ErrAgency) {
			err = fmt.Errorf("%w: %w", agency.ErrAgency, err)
		}
		return nil, err
	}
	glog.V(1).Infoln("pairwise agent created:", pw.DID, "agent:", ag.AgentVerKey)
	return b.Agent(AgentInfo{
		PwDID:        pw.DID,
		PwVerKey:     pw.VerKey,
		AgentDID:     ag.AgentDID,
		AgentVerKey:  ag.AgentVerKey,
		Wait:         wait,
		Endpoint:     info.Endpoint,
		AgencyVerKey: info.VerKey,
	}), nil
}

// Agent returns the agent of the persisted AgentInfo.
func (b *Binder) Agent(info AgentInfo) *Agent {
	return &Agent{AgentInfo: info, b: b}
}

type Agent struct {
	AgentInfo
	b *Binder
}

func (a *Agent) Info() AgentInfo {
	return a.AgentInfo
}

func (a *Agent) Envelope() *sec.Envelope {
	return a.b.Envelope
}

func (a *Agent) AgencyEndpoint() string {
	return a.Endpoint
}

func (a *Agent) RecipientKeys() []string {
	return []string{a.PwVerKey}
}

// RoutingKeys are the keys the senders wrap their forwards with, innermost
// first.
func (a *Agent) RoutingKeys() []string {
	return []string{a.AgentVerKey, a.AgencyVerKey}
}

// DIDDoc returns our DIDDoc for the other end of the connection.
func (a *Agent) DIDDoc() *did.Doc {
	return did.NewDoc(a.PwDID, a.PwVerKey, a.Endpoint, a.RoutingKeys())
}

// GetMessages returns the Received messages of the mailbox in arrival order.
// Entries which cannot be opened are skipped.
func (a *Agent) GetMessages() (msgs []Inbound, err error) {
	defer err2.Handle(&err, "get messages")

	entries := try.To1(a.b.Agency.Messages(a.PwVerKey, agency.StatusReceived))
	msgs = make([]Inbound, 0, len(entries))
	for _, e := range entries {
		msg, err := a.b.Envelope.Open(e.Payload)
		if err != nil {
			glog.Warningln("skipping mailbox message", e.UID, ":", err)
			continue
		}
		msgs = append(msgs, Inbound{UID: e.UID, Msg: msg})
	}
	glog.V(3).Infof("%s: %d message(s)", a.PwDID, len(msgs))
	return msgs, nil
}

func (a *Agent) GetMessageByID(uid string) (msg didcomm.MessageHdr, err error) {
	defer err2.Handle(&err, "get message %s", uid)

	e := try.To1(a.b.Agency.Message(a.PwVerKey, uid))
	return a.b.Envelope.Open(e.Payload)
}

// UpdateMessageStatus marks the message Reviewed.
func (a *Agent) UpdateMessageStatus(uid string) error {
	return a.b.Agency.UpdateStatus(a.PwVerKey, uid, agency.StatusReviewed)
}

// SendMessage packs the message from our pairwise key to the DIDDoc and
// posts it to the doc's endpoint.
func (a *Agent) SendMessage(msg didcomm.MessageHdr, doc *did.Doc) (err error) {
	defer err2.Handle(&err, "send %s", msg.Type())

	return a.send(msg, a.PwVerKey, doc, a.Wait)
}

// SendMessageAnonymously is SendMessage without the sender key. It never
// waits.
func (a *Agent) SendMessageAnonymously(msg didcomm.MessageHdr, doc *did.Doc) (err error) {
	defer err2.Handle(&err, "send anonymously %s", msg.Type())

	return a.send(msg, "", doc, false)
}

// Delete removes the mailbox agent from the agency.
func (a *Agent) Delete() (err error) {
	defer err2.Handle(&err, "delete agent")

	try.To(a.b.Agency.Unregister(a.PwVerKey))
	glog.V(1).Infoln("pairwise agent deleted:", a.PwDID)
	return nil
}

func (a *Agent) send(msg didcomm.MessageHdr, sender string, doc *did.Doc, wait bool) error {
	endpoint := doc.Endpoint()
	if endpoint == "" {
		return ErrNoEndpoint
	}
	data, err := a.b.Envelope.Create(msg, sender, doc)
	if err != nil {
		return err
	}
	glog.V(1).Infoln("sending", msg.Type(), "to", endpoint)
	if wait {
		_, err = a.b.Transport.PostBytes(endpoint, data)
		return err
	}
	go func() {
		defer err2.Catch(func(err error) error {
			glog.Errorln("fire and forget post:", err)
			return nil
		})
		try.To1(a.b.Transport.PostBytes(endpoint, data))
	}()
	return nil
}
