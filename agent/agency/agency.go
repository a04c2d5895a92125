/*
Package agency implements the store-and-forward mailbox agency. Agents
register their pairwise verkeys to it and get a routing agent key in return.
Incoming envelopes are routing forwards which the agency opens hop by hop until
the forward is addressed to a registered pairwise verkey, and then the inner
envelope is stored to that agent's mailbox as a Received message. Agents poll
their mailboxes and mark the messages Reviewed, and the sweeper removes the
reviewed ones.
*/
package agency

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-didcomm/agent/sec"
	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/findy-network/findy-didcomm/agent/storage/wrapper"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// maxHops limits the forward unwrapping.
const maxHops = 5

const agencyKey = "agency"

// TransportPath is the path of the DIDComm endpoint under the agency URL.
const TransportPath = "/didcomm"

var (
	ErrAgency                = errors.New("agency")
	ErrInvalidAgencyResponse = errors.New("invalid agency response")
	ErrUnknownRecipient      = errors.New("unknown recipient")
	ErrNotRegistered         = errors.New("agent not registered")
)

type MessageStatus string

const (
	StatusReceived MessageStatus = "MS-103"
	StatusReviewed MessageStatus = "MS-106"
)

// Message is a mailbox entry. Payload is the envelope addressed to the
// pairwise verkey.
type Message struct {
	UID      string        `json:"uid"`
	PwVerKey string        `json:"pw_verkey"`
	Status   MessageStatus `json:"status"`
	Payload  []byte        `json:"payload"`
	Created  time.Time     `json:"created"`
}

// Agent is a registered mailbox agent.
type Agent struct {
	PwDID       string    `json:"pw_did"`
	PwVerKey    string    `json:"pw_verkey"`
	AgentDID    string    `json:"agent_did"`
	AgentVerKey string    `json:"agent_verkey"`
	Created     time.Time `json:"created"`
}

// Info tells what the agents put to their DIDDocs.
type Info struct {
	VerKey   string `json:"verkey"`
	Endpoint string `json:"endpoint"`
}

// Client is the mailbox API the agents use. The Agency implements it
// in-process and the HTTPClient over HTTP.
type Client interface {
	Info() (Info, error)
	Register(pwDID, pwVerKey string) (*Agent, error)
	Unregister(pwVerKey string) error
	Messages(pwVerKey string, status MessageStatus) ([]Message, error)
	Message(pwVerKey, uid string) (*Message, error)
	UpdateStatus(pwVerKey, uid string, status MessageStatus) error
}

type Agency struct {
	l sync.Mutex

	env      *sec.Envelope
	agents   wrapper.Store
	mailbox  wrapper.Store
	verkey   string
	endpoint string
}

// New opens the agency on the storage. The agency verkey is created at the
// first start. The endpoint is the public base URL of the agency.
func New(s *mgddb.Storage, endpoint, mediaType string) (a *Agency, err error) {
	defer err2.Handle(&err, "new agency")

	a = &Agency{
		env:      try.To1(sec.New(s, mediaType)),
		agents:   try.To1(s.Store(mgddb.NameAgent)),
		mailbox:  try.To1(s.Store(mgddb.NameMailbox)),
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}

	vk, err := a.agents.Get(agencyKey)
	switch {
	case errors.Is(err, storage.ErrDataNotFound):
		d := try.To1(s.CreateDID())
		try.To(a.agents.Put(agencyKey, []byte(d.VerKey)))
		a.verkey = d.VerKey
		glog.V(1).Infoln("agency key created:", d.VerKey)
	case err != nil:
		return nil, err
	default:
		a.verkey = string(vk)
	}
	return a, nil
}

func (a *Agency) Info() (Info, error) {
	return Info{VerKey: a.verkey, Endpoint: a.endpoint + TransportPath}, nil
}

// Register creates a routing agent for the pairwise verkey. Registering the
// same verkey again returns the existing agent.
func (a *Agency) Register(pwDID, pwVerKey string) (ag *Agent, err error) {
	defer err2.Handle(&err, func(err error) error {
		return fmt.Errorf("%w: register: %w", ErrAgency, err)
	})

	if pwVerKey == "" {
		return nil, fmt.Errorf("pairwise verkey is empty")
	}

	a.l.Lock()
	defer a.l.Unlock()

	if ag, err = a.agent(pwVerKey); err == nil {
		return ag, nil
	}
	d := try.To1(a.env.Storage().CreateDID())
	ag = &Agent{
		PwDID:       pwDID,
		PwVerKey:    pwVerKey,
		AgentDID:    d.DID,
		AgentVerKey: d.VerKey,
		Created:     time.Now(),
	}
	try.To(a.agents.Put(agentKey(pwVerKey), dto.ToJSONBytes(ag)))
	glog.V(1).Infoln("agent registered:", pwVerKey, "->", d.VerKey)
	return ag, nil
}

// Unregister removes the agent and its mailbox.
func (a *Agency) Unregister(pwVerKey string) (err error) {
	defer err2.Handle(&err, "unregister")

	a.l.Lock()
	defer a.l.Unlock()

	try.To1(a.agent(pwVerKey))
	for _, m := range try.To1(a.messages(pwVerKey, "")) {
		try.To(a.mailbox.Delete(m.UID))
	}
	try.To(a.agents.Delete(agentKey(pwVerKey)))
	glog.V(1).Infoln("agent unregistered:", pwVerKey)
	return nil
}

// Messages returns the agent's mailbox entries in arrival order. Empty
// status returns all of them.
func (a *Agency) Messages(pwVerKey string, status MessageStatus) (msgs []Message, err error) {
	defer err2.Handle(&err, "messages")

	a.l.Lock()
	defer a.l.Unlock()

	try.To1(a.agent(pwVerKey))
	return a.messages(pwVerKey, status)
}

func (a *Agency) Message(pwVerKey, uid string) (m *Message, err error) {
	defer err2.Handle(&err, "message")

	a.l.Lock()
	defer a.l.Unlock()

	return a.message(pwVerKey, uid)
}

// UpdateStatus sets the status of the message. Setting the same status
// again is fine.
func (a *Agency) UpdateStatus(pwVerKey, uid string, status MessageStatus) (err error) {
	defer err2.Handle(&err, "update status")

	a.l.Lock()
	defer a.l.Unlock()

	m := try.To1(a.message(pwVerKey, uid))
	if m.Status == status {
		return nil
	}
	m.Status = status
	return a.mailbox.Put(m.UID, dto.ToJSONBytes(m))
}

// Receive handles the envelope posted to the agency endpoint.
func (a *Agency) Receive(data []byte) (err error) {
	defer err2.Handle(&err, "agency receive")

	for hop := 0; hop < maxHops; hop++ {
		msg := try.To1(a.env.Open(data))
		fwd, ok := msg.(*common.Forward)
		if !ok {
			return fmt.Errorf("%w: expected forward, got %s", ErrUnknownRecipient, msg.Type())
		}
		glog.V(3).Infoln("forward to:", fwd.To)

		a.l.Lock()
		_, agentErr := a.agent(fwd.To)
		if agentErr == nil {
			a.l.Unlock()
			return a.store(fwd.To, fwd.Msg)
		}
		a.l.Unlock()

		if _, err := a.env.Storage().GetDID(fwd.To); err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownRecipient, fwd.To)
		}
		data = fwd.Msg
	}
	return fmt.Errorf("%w: too many hops", ErrUnknownRecipient)
}

// Sweep removes the reviewed messages and returns their count.
func (a *Agency) Sweep() (count int, err error) {
	defer err2.Handle(&err, "sweep")

	a.l.Lock()
	defer a.l.Unlock()

	for _, m := range try.To1(a.all()) {
		if m.Status == StatusReviewed {
			try.To(a.mailbox.Delete(m.UID))
			count++
		}
	}
	if count > 0 {
		glog.V(2).Infoln("swept reviewed messages:", count)
	}
	return count, nil
}

func (a *Agency) store(pwVerKey string, payload []byte) (err error) {
	defer err2.Handle(&err, "store message")

	m := &Message{
		UID:      utils.UUID(),
		PwVerKey: pwVerKey,
		Status:   StatusReceived,
		Payload:  payload,
		Created:  time.Now(),
	}
	try.To(a.mailbox.Put(m.UID, dto.ToJSONBytes(m)))
	glog.V(2).Infoln("message", m.UID, "stored for", pwVerKey)
	return nil
}

func (a *Agency) agent(pwVerKey string) (ag *Agent, err error) {
	data, err := a.agents.Get(agentKey(pwVerKey))
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, pwVerKey)
	} else if err != nil {
		return nil, err
	}
	ag = new(Agent)
	dto.FromJSON(data, ag)
	return ag, nil
}

func (a *Agency) message(pwVerKey, uid string) (m *Message, err error) {
	data, err := a.mailbox.Get(uid)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: message %s not found", ErrInvalidAgencyResponse, uid)
	} else if err != nil {
		return nil, err
	}
	m = new(Message)
	dto.FromJSON(data, m)
	if m.PwVerKey != pwVerKey {
		return nil, fmt.Errorf("%w: message %s not found", ErrInvalidAgencyResponse, uid)
	}
	return m, nil
}

func (a *Agency) messages(pwVerKey string, status MessageStatus) ([]Message, error) {
	all, err := a.all()
	if err != nil {
		return nil, err
	}
	msgs := make([]Message, 0, len(all))
	for _, m := range all {
		if m.PwVerKey == pwVerKey && (status == "" || m.Status == status) {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

func (a *Agency) all() (msgs []Message, err error) {
	_, err = a.mailbox.GetAll(func(d []byte) []byte {
		var m Message
		dto.FromJSON(d, &m)
		msgs = append(msgs, m)
		return d
	})
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Created.Before(msgs[j].Created)
	})
	return msgs, err
}

func agentKey(pwVerKey string) string {
	return "agent/" + pwVerKey
}

// PostBytes delivers the envelope to the agency in-process. It lets the
// agents of the same process use the agency as their transport.
func (a *Agency) PostBytes(endpoint string, data []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "local post")

	if endpoint != a.endpoint+TransportPath {
		return nil, fmt.Errorf("%w: endpoint %s", ErrUnknownRecipient, endpoint)
	}
	try.To(a.Receive(data))
	return nil, nil
}
