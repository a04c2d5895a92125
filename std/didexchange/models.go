// Package didexchange implements the messages of the Aries connection
// protocol (RFC 0160) which is the DID exchange this agent uses.
package didexchange

import (
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/sov/did"
)

// Invitation defines DID exchange invitation message
// https://github.com/hyperledger/aries-rfcs/tree/master/features/0160-connection-protocol#0-invitation-to-connect
type Invitation struct {
	didcomm.Header
	Label           string   `json:"label,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	DID             string   `json:"did,omitempty"`
}

// Request defines a2a DID exchange request
type Request struct {
	didcomm.Header
	Label      string      `json:"label,omitempty"`
	Connection *Connection `json:"connection"`
}

// Response defines a2a DID exchange response. The connection data is signed
// and travels only inside the signature.
type Response struct {
	didcomm.Header
	ConnectionSignature *ConnectionSignature `json:"connection~sig"`
	PleaseAck           *decorator.PleaseAck `json:"~please_ack,omitempty"`

	Connection *Connection `json:"-"` // Actual data, to be signed or verified
}

// ConnectionSignature connection signature
type ConnectionSignature struct {
	Type       string `json:"@type,omitempty"`
	Signature  string `json:"signature,omitempty"`
	SignedData string `json:"sig_data,omitempty"`
	SignVerKey string `json:"signer,omitempty"`
}

// Connection is a connection definition
type Connection struct {
	DID    string   `json:"DID"`
	DIDDoc *did.Doc `json:"DIDDoc"`
}

// ProblemCode of the connection protocol problem report
type ProblemCode string

const (
	RequestNotAccepted      ProblemCode = "request_not_accepted"
	RequestProcessingError  ProblemCode = "request_processing_error"
	ResponseNotAccepted     ProblemCode = "response_not_accepted"
	ResponseProcessingError ProblemCode = "response_processing_error"
)

// ProblemReport is the connection protocol's own problem report.
type ProblemReport struct {
	didcomm.Header
	ProblemCode ProblemCode `json:"problem-code"`
	Explain     string      `json:"explain"`
}

func NewInvitation(label, endpoint string, recipientKeys, routingKeys []string) *Invitation {
	return &Invitation{
		Header:          didcomm.NewHeader(pltype.ConnectionInvitation),
		Label:           label,
		RecipientKeys:   recipientKeys,
		RoutingKeys:     routingKeys,
		ServiceEndpoint: endpoint,
	}
}

// DIDDoc returns a DID document built from the invitation. It is used to
// deliver the connection request.
func (i *Invitation) DIDDoc() *did.Doc {
	return &did.Doc{
		Context: did.Context,
		ID:      i.ID(),
		Service: []did.Service{{
			ID:              i.ID(),
			Type:            did.ServiceTypeIndyAgent,
			RecipientKeys:   i.RecipientKeys,
			RoutingKeys:     i.RoutingKeys,
			ServiceEndpoint: i.ServiceEndpoint,
		}},
	}
}

func NewRequest(label string, conn *Connection) *Request {
	r := &Request{
		Header:     didcomm.NewHeader(pltype.ConnectionRequest),
		Label:      label,
		Connection: conn,
	}
	r.SetThread(decorator.NewThread(r.ID(), ""))
	return r
}

// NewResponse returns a response for the connection. It must be signed
// before sending.
func NewResponse(conn *Connection, th *decorator.Thread, askForAck bool) *Response {
	r := &Response{
		Header:     didcomm.NewHeader(pltype.ConnectionResponse),
		Connection: conn,
	}
	r.SetThread(th)
	if askForAck {
		r.PleaseAck = &decorator.PleaseAck{}
	}
	return r
}

func NewProblemReport(code ProblemCode, explain string, th *decorator.Thread) *ProblemReport {
	pr := &ProblemReport{
		Header:      didcomm.NewHeader(pltype.ConnectionProblemReport),
		ProblemCode: code,
		Explain:     explain,
	}
	pr.SetThread(th)
	return pr
}
