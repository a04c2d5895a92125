/*
Package issuecredential implements the messages of the Aries issue credential
protocol (RFC 0036) for Indy anoncreds. The Indy payloads travel base64
encoded in the attachments.
*/
package issuecredential

import (
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Propose is an optional message sent by the potential Holder to the Issuer
// to initiate the protocol or in response to a offer-credential message.
type Propose struct {
	didcomm.Header
	Comment            string             `json:"comment,omitempty"`
	CredentialProposal *PreviewCredential `json:"credential_proposal,omitempty"`
	SchemaIssuerDid    string             `json:"schema_issuer_did,omitempty"`
	SchemaID           string             `json:"schema_id,omitempty"`
	SchemaName         string             `json:"schema_name,omitempty"`
	SchemaVersion      string             `json:"schema_version,omitempty"`
	CredDefID          string             `json:"cred_def_id,omitempty"`
	IssuerDid          string             `json:"issuer_did,omitempty"`
}

// Offer is sent by the Issuer to the potential Holder, describing the
// credential they intend to offer.
type Offer struct {
	didcomm.Header
	Comment           string                 `json:"comment,omitempty"`
	CredentialPreview PreviewCredential      `json:"credential_preview"`
	OffersAttach      []decorator.Attachment `json:"offers~attach"`
}

// Request is sent by the potential Holder to the Issuer to request the
// issuance of the offered credential.
type Request struct {
	didcomm.Header
	Comment        string                 `json:"comment,omitempty"`
	RequestsAttach []decorator.Attachment `json:"requests~attach"`
}

// Issue contains as attached payload the credential being issued.
type Issue struct {
	didcomm.Header
	Comment           string                 `json:"comment,omitempty"`
	CredentialsAttach []decorator.Attachment `json:"credentials~attach"`
	PleaseAck         *decorator.PleaseAck   `json:"~please_ack,omitempty"`
}

// Ack is the issue credential protocol's own ack type.
type Ack struct {
	common.Ack
}

// Reject is the problem report of the protocol. It's sent both when the
// holder rejects the offer and when either side fails.
type Reject struct {
	common.ProblemReport
}

// PreviewCredential is used to construct a preview of the data for the
// credential that is to be issued.
type PreviewCredential struct {
	Type       string      `json:"@type,omitempty"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute describes an attribute for a Preview Credential
type Attribute struct {
	Name     string `json:"name"`
	MimeType string `json:"mime-type,omitempty"`
	Value    string `json:"value"`
}

func NewOffer(comment string, preview PreviewCredential, credOffer []byte) *Offer {
	o := &Offer{
		Header:            didcomm.NewHeader(pltype.IssueCredentialOffer),
		Comment:           comment,
		CredentialPreview: preview,
		OffersAttach:      decorator.NewAttachment(pltype.LibindyCredOfferID, credOffer),
	}
	return o
}

func NewRequest(credReq []byte, th *decorator.Thread) *Request {
	r := &Request{
		Header:         didcomm.NewHeader(pltype.IssueCredentialRequest),
		RequestsAttach: decorator.NewAttachment(pltype.LibindyCredRequestID, credReq),
	}
	r.SetThread(th)
	return r
}

func NewIssue(cred []byte, th *decorator.Thread) *Issue {
	i := &Issue{
		Header:            didcomm.NewHeader(pltype.IssueCredentialIssue),
		CredentialsAttach: decorator.NewAttachment(pltype.LibindyCredID, cred),
		PleaseAck:         &decorator.PleaseAck{},
	}
	i.SetThread(th)
	return i
}

func NewAck(th *decorator.Thread) *Ack {
	a := &Ack{Ack: *common.NewAck(th)}
	a.SetType(pltype.IssueCredentialACK)
	return a
}

// NewReject returns the protocol problem report. The rejection code has its
// own default text.
func NewReject(code common.ProblemCode, comment string, th *decorator.Thread) *Reject {
	r := &Reject{ProblemReport: *common.NewProblemReport(code, comment, th)}
	r.SetType(pltype.IssueCredentialProblemReport)
	if code == common.CredentialRejected {
		r.Description.En = common.RejectionText(pltype.ProtocolIssueCredential)
	}
	return r
}

// NewPreviewCredential returns the preview of the name value pairs.
func NewPreviewCredential(attrs []Attribute) PreviewCredential {
	return PreviewCredential{
		Type:       pltype.IssueCredentialCredentialPreview,
		Attributes: attrs,
	}
}

// CredOffer returns the Indy credential offer JSON of the attachment.
func (o *Offer) CredOffer() (data []byte, err error) {
	defer err2.Handle(&err, "offer attachment")
	return try.To1(decorator.AttachmentBytes(o.OffersAttach)), nil
}

// CredRequest returns the Indy credential request JSON of the attachment.
func (r *Request) CredRequest() (data []byte, err error) {
	defer err2.Handle(&err, "request attachment")
	return try.To1(decorator.AttachmentBytes(r.RequestsAttach)), nil
}

// Credential returns the Indy credential JSON of the attachment.
func (i *Issue) Credential() (data []byte, err error) {
	defer err2.Handle(&err, "credential attachment")
	return try.To1(decorator.AttachmentBytes(i.CredentialsAttach)), nil
}
