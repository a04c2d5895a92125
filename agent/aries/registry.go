/*
Package aries is the closed registry of the DIDComm messages we know. Decode
maps the @type of the incoming JSON to the statically typed Go struct of the
message. Types we don't know are decoded to Generic which keeps the raw JSON,
so they can be passed thru or ignored by the protocol handlers.
*/
package aries

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/basicmessage"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/didexchange"
	"github.com/findy-network/findy-didcomm/std/discover"
	"github.com/findy-network/findy-didcomm/std/inviteaction"
	"github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/findy-network/findy-didcomm/std/outofband"
	"github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/findy-network/findy-didcomm/std/questionanswer"
	"github.com/findy-network/findy-didcomm/std/trustping"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnknownMessage = errors.New("unknown message type")
)

// key is the message tag without the prefix and the version
type key struct {
	family, name string
}

type factory struct {
	typ reflect.Type
	tag string
}

type registry struct {
	byKey  map[key]factory
	byType map[reflect.Type]string
}

var creator = &registry{
	byKey:  make(map[key]factory),
	byType: make(map[reflect.Type]string),
}

// add registers the message struct for the tag. The first tag registered for
// the struct is the one used for encoding.
func (r *registry) add(tag string, msg didcomm.MessageHdr) {
	mt, err := didcomm.ParseType(tag)
	if err != nil {
		panic(err)
	}
	t := reflect.TypeOf(msg).Elem()
	r.byKey[key{mt.Family, mt.Name}] = factory{typ: t, tag: tag}
	if _, ok := r.byType[t]; !ok {
		r.byType[t] = tag
	}
}

func init() {
	creator.add(pltype.RoutingForward, &common.Forward{})

	creator.add(pltype.ConnectionInvitation, &didexchange.Invitation{})
	creator.add(pltype.ConnectionRequest, &didexchange.Request{})
	creator.add(pltype.ConnectionResponse, &didexchange.Response{})
	creator.add(pltype.ConnectionProblemReport, &didexchange.ProblemReport{})

	creator.add(pltype.NotificationAck, &common.Ack{})
	creator.add(pltype.ReportProblemReport, &common.ProblemReport{})
	creator.add(pltype.NotificationProblemReport, &common.ProblemReport{})

	creator.add(pltype.TrustPingPing, &trustping.Ping{})
	creator.add(pltype.TrustPingResponse, &trustping.PingResponse{})

	creator.add(pltype.IssueCredentialPropose, &issuecredential.Propose{})
	creator.add(pltype.IssueCredentialOffer, &issuecredential.Offer{})
	creator.add(pltype.IssueCredentialRequest, &issuecredential.Request{})
	creator.add(pltype.IssueCredentialIssue, &issuecredential.Issue{})
	creator.add(pltype.IssueCredentialACK, &issuecredential.Ack{})
	creator.add(pltype.IssueCredentialProblemReport, &issuecredential.Reject{})

	creator.add(pltype.PresentProofPropose, &presentproof.Propose{})
	creator.add(pltype.PresentProofRequest, &presentproof.Request{})
	creator.add(pltype.PresentProofPresentation, &presentproof.Presentation{})
	creator.add(pltype.PresentProofACK, &presentproof.Ack{})
	creator.add(pltype.PresentProofProblemReport, &presentproof.Reject{})

	creator.add(pltype.DiscoverFeaturesQuery, &discover.Query{})
	creator.add(pltype.DiscoverFeaturesDisclose, &discover.Disclose{})

	creator.add(pltype.BasicMessageSend, &basicmessage.Basicmessage{})

	creator.add(pltype.QuestionAnswerQuestion, &questionanswer.Question{})
	creator.add(pltype.QuestionAnswerAnswer, &questionanswer.Answer{})
	creator.add(pltype.CommittedAnswerQuestion, &questionanswer.CommittedQuestion{})
	creator.add(pltype.CommittedAnswerAnswer, &questionanswer.CommittedAnswer{})

	creator.add(pltype.OutOfBandInvitation, &outofband.Invitation{})
	creator.add(pltype.OutOfBandHandshakeReuse, &outofband.HandshakeReuse{})
	creator.add(pltype.OutOfBandHandshakeReuseAccepted, &outofband.HandshakeReuseAccepted{})

	creator.add(pltype.InviteActionInvite, &inviteaction.Invite{})
	creator.add(pltype.InviteActionAck, &inviteaction.Ack{})
	creator.add(pltype.InviteActionProblemReport, &inviteaction.ProblemReport{})
}

// Decode returns the message of the JSON. Unknown and unparsable @type
// values are decoded to Generic. A known message which doesn't parse as its
// struct is an error.
func Decode(data []byte) (msg didcomm.MessageHdr, err error) {
	defer err2.Handle(&err, "decode message")

	var hdr didcomm.Header
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	mt, err := didcomm.ParseType(hdr.Type())
	if err != nil {
		glog.V(3).Infoln("generic message, type:", hdr.Type())
		return newGeneric(hdr, data), nil
	}
	f, ok := creator.byKey[key{mt.Family, mt.Name}]
	if !ok {
		glog.V(3).Infoln("generic message, unknown type:", hdr.Type())
		return newGeneric(hdr, data), nil
	}
	msg = reflect.New(f.typ).Interface().(didcomm.MessageHdr)
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, hdr.Type(), err)
	}
	return msg, nil
}

// Encode returns the JSON of the message. The @type of the message is set to
// the first registered tag of its struct unless the current @type is already
// registered for the struct.
// Generic messages are encoded as they were received.
func Encode(msg didcomm.MessageHdr) (data []byte, err error) {
	defer err2.Handle(&err, "encode message")

	if g, ok := msg.(*Generic); ok {
		return g.Raw, nil
	}
	tag, err := Tag(msg)
	try.To(err)
	if !registeredFor(msg.Type(), msg) {
		msg.SetType(tag)
	}
	return json.Marshal(msg)
}

// Tag returns the registered @type of the message struct.
func Tag(msg didcomm.MessageHdr) (string, error) {
	t := reflect.TypeOf(msg)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	tag, ok := creator.byType[t]
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnknownMessage, t)
	}
	return tag, nil
}

// registeredFor tells if the family and name of the @type are registered for
// the struct of the message.
func registeredFor(t string, msg didcomm.MessageHdr) bool {
	mt, err := didcomm.ParseType(t)
	if err != nil {
		return false
	}
	f, ok := creator.byKey[key{mt.Family, mt.Name}]
	if !ok {
		return false
	}
	typ := reflect.TypeOf(msg)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return f.typ == typ
}
