/*
Package didcomm offers the interfaces and helpers shared by all DIDComm
messages: the message header with @type, @id and ~thread, and parsing of the
message type URIs. The closed set of known messages lives in package aries.
*/
package didcomm

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/google/uuid"
)

// MessageHdr is the base interface for all protocol messages. It has the
// minimum needed to handle and process inbound and outbound protocol
// messages.
type MessageHdr interface {
	ID() string
	Type() string
	SetID(id string)
	SetType(t string)

	Thread() *decorator.Thread
	SetThread(t *decorator.Thread)
}

// Header is embedded to every message struct. Its fields are flattened to
// the message JSON.
type Header struct {
	AType   string            `json:"@type"`
	AID     string            `json:"@id"`
	AThread *decorator.Thread `json:"~thread,omitempty"`
}

// NewHeader returns a header with a fresh message ID.
func NewHeader(t string) Header {
	return Header{AType: t, AID: uuid.New().String()}
}

func (h *Header) ID() string {
	return h.AID
}

func (h *Header) Type() string {
	return h.AType
}

func (h *Header) SetID(id string) {
	h.AID = id
}

func (h *Header) SetType(t string) {
	h.AType = t
}

func (h *Header) Thread() *decorator.Thread {
	return h.AThread
}

func (h *Header) SetThread(t *decorator.Thread) {
	h.AThread = t
}

// ThreadID returns the thread ID of the message. Messages without the thread
// decorator start their own thread.
func ThreadID(m MessageHdr) string {
	if th := m.Thread(); th != nil && th.ID != "" {
		return th.ID
	}
	return m.ID()
}

// FromThread tells if the message belongs to the thread.
func FromThread(m MessageHdr, thid string) bool {
	return m.Thread().IsReply(thid)
}

var ErrMessageType = errors.New("invalid message type")

var typeRegexp = regexp.MustCompile(`^(did:\w+:\w+;spec|https://didcomm\.org)/([\w\-_]+)/(\d+\.\d+)/([\w\-_]+)$`)

// MsgType is a parsed @type URI: <prefix>/<family>/<version>/<name>
type MsgType struct {
	Prefix  string
	Family  string
	Version string
	Name    string
}

// ParseType parses the @type value.
func ParseType(t string) (mt MsgType, err error) {
	m := typeRegexp.FindStringSubmatch(t)
	if m == nil {
		return mt, fmt.Errorf("%w: %q", ErrMessageType, t)
	}
	return MsgType{Prefix: m[1], Family: m[2], Version: m[3], Name: m[4]}, nil
}

// NewType builds the @type value. Out-of-band and invite-action are only
// known by the newer prefix.
func NewType(family, version, name string) string {
	return MsgType{
		Prefix:  prefixFor(family),
		Family:  family,
		Version: version,
		Name:    name,
	}.String()
}

func (t MsgType) String() string {
	return t.Prefix + "/" + t.Family + "/" + t.Version + "/" + t.Name
}

func prefixFor(family string) string {
	switch family {
	case pltype.ProtocolOutOfBand, pltype.ProtocolInviteAction:
		return pltype.DIDOrgAries
	default:
		return pltype.Aries
	}
}
