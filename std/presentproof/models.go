/*
Package presentproof implements the messages of the Aries present proof
protocol (RFC 0037) for Indy anoncreds proofs, and the Indy proof request and
proof models the protocol handlers need.
*/
package presentproof

import (
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// MARK: Propose

type Propose struct {
	didcomm.Header
	Comment              string   `json:"comment,omitempty"`
	PresentationProposal *Preview `json:"presentation_proposal"`
}

// MARK: Request

type Request struct {
	didcomm.Header
	Comment              string                 `json:"comment,omitempty"`
	RequestPresentations []decorator.Attachment `json:"request_presentations~attach"`
}

// MARK: Presentation

type Presentation struct {
	didcomm.Header
	Comment              string                 `json:"comment,omitempty"`
	PresentationAttaches []decorator.Attachment `json:"presentations~attach"`
	PleaseAck            *decorator.PleaseAck   `json:"~please_ack,omitempty"`
}

// Ack is the present proof protocol's own ack type.
type Ack struct {
	common.Ack
}

// Reject is the problem report of the protocol.
type Reject struct {
	common.ProblemReport
}

// MARK: Preview

type Preview struct {
	Type       string      `json:"@type,omitempty"`
	Attributes []Attribute `json:"attributes"`
	Predicates []Predicate `json:"predicates"`
}

type Attribute struct {
	Name      string `json:"name"`
	CredDefID string `json:"cred_def_id,omitempty"`

	// https://github.com/hyperledger/aries-rfcs/blob/master/features/0037-present-proof/README.md#mime-type-and-value
	MimeType string `json:"mime-type,omitempty"`
	Value    string `json:"value,omitempty"`

	// https://github.com/hyperledger/aries-rfcs/blob/master/features/0037-present-proof/README.md#referent
	Referent string `json:"referent,omitempty"`
}

// Predicate is definition type of Preview struct.
//
//	https://github.com/hyperledger/aries-rfcs/blob/master/features/0037-present-proof/README.md#predicates
type Predicate struct {
	Name      string `json:"name"`
	CredDefID string `json:"cred_def_id,omitempty"`
	Predicate string `json:"predicate"` // "<", "<=", ">=", ">"
	Threshold int64  `json:"threshold"`
}

func NewPreview(attrs []Attribute, predicates []Predicate) *Preview {
	if predicates == nil {
		predicates = []Predicate{}
	}
	return &Preview{
		Type:       pltype.PresentationPreviewObj,
		Attributes: attrs,
		Predicates: predicates,
	}
}

func NewPropose(comment string, preview *Preview, th *decorator.Thread) *Propose {
	p := &Propose{
		Header:               didcomm.NewHeader(pltype.PresentProofPropose),
		Comment:              comment,
		PresentationProposal: preview,
	}
	if th == nil {
		th = &decorator.Thread{ID: p.ID()}
	}
	p.SetThread(th)
	return p
}

// NewRequest returns a request of the Indy proof request JSON. Without a
// thread the request starts its own.
func NewRequest(comment string, proofReq []byte, th *decorator.Thread) *Request {
	r := &Request{
		Header:  didcomm.NewHeader(pltype.PresentProofRequest),
		Comment: comment,
		RequestPresentations: decorator.NewAttachment(
			pltype.LibindyRequestPresentationID, proofReq),
	}
	if th == nil {
		th = &decorator.Thread{ID: r.ID()}
	}
	r.SetThread(th)
	return r
}

func NewPresentation(proof []byte, th *decorator.Thread) *Presentation {
	p := &Presentation{
		Header: didcomm.NewHeader(pltype.PresentProofPresentation),
		PresentationAttaches: decorator.NewAttachment(
			pltype.LibindyPresentationID, proof),
		PleaseAck: &decorator.PleaseAck{},
	}
	p.SetThread(th)
	return p
}

func NewAck(th *decorator.Thread) *Ack {
	a := &Ack{Ack: *common.NewAck(th)}
	a.SetType(pltype.PresentProofACK)
	return a
}

func NewReject(code common.ProblemCode, comment string, th *decorator.Thread) *Reject {
	r := &Reject{ProblemReport: *common.NewProblemReport(code, comment, th)}
	r.SetType(pltype.PresentProofProblemReport)
	if code == common.PresentationRejected {
		r.Description.En = common.RejectionText(pltype.ProtocolPresentProof)
	}
	return r
}

// ProofReqData returns the Indy proof request JSON of the attachment.
func (r *Request) ProofReqData() (data []byte, err error) {
	defer err2.Handle(&err, "request attachment")
	return try.To1(decorator.AttachmentBytes(r.RequestPresentations)), nil
}

// ProofReq returns the parsed Indy proof request.
func (r *Request) ProofReq() (pr *ProofRequest, err error) {
	defer err2.Handle(&err, "proof request")
	return ParseProofRequest(try.To1(r.ProofReqData()))
}

// ProofData returns the Indy proof JSON of the attachment.
func (p *Presentation) ProofData() (data []byte, err error) {
	defer err2.Handle(&err, "presentation attachment")
	return try.To1(decorator.AttachmentBytes(p.PresentationAttaches)), nil
}
