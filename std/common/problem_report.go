package common

import (
	"time"

	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

// ProblemCode is the description code of a problem report.
type ProblemCode string

const (
	Unimplemented              ProblemCode = "unimplemented"
	InvalidCredentialOffer     ProblemCode = "invalid-credential-offer"
	InvalidCredentialRequest   ProblemCode = "invalid-credential-request"
	InvalidCredential          ProblemCode = "invalid-credential"
	CredentialRejected         ProblemCode = "rejection"
	InvalidPresentationRequest ProblemCode = "invalid-request"
	InvalidPresentation        ProblemCode = "invalid-presentation"
	PresentationRejected       ProblemCode = "rejection"
)

// Text returns the default English description. Codes given by others have
// none.
func (c ProblemCode) Text() string {
	switch c {
	case Unimplemented:
		return "The protocol for received message is not implemented."
	case InvalidCredentialOffer:
		return "Couldn't create credential-request for received credential-offer."
	case InvalidCredentialRequest:
		return "Couldn't create credential for received credential-request."
	case InvalidCredential:
		return "Couldn't store received credential."
	case InvalidPresentationRequest:
		return "Couldn't create presentation for received presentation-request."
	case InvalidPresentation:
		return "Couldn't verify presentation."
	}
	return ""
}

// RejectionText returns the default text for the rejection code, which is
// shared by both protocols.
func RejectionText(protocol string) string {
	if protocol == pltype.ProtocolPresentProof {
		return "presentation-request was rejected."
	}
	return "credential-offer was rejected."
}

// ProblemReport is the Aries RFC 0035 problem report.
type ProblemReport struct {
	didcomm.Header
	Description    Description         `json:"description"`
	Comment        string              `json:"comment,omitempty"`
	WhoRetries     string              `json:"who_retries,omitempty"`
	FixHint        *FixHint            `json:"fix-hint,omitempty"`
	Impact         string              `json:"impact,omitempty"`
	Where          string              `json:"where,omitempty"`
	NoticedTime    string              `json:"noticed_time,omitempty"`
	TrackingURI    string              `json:"tracking-uri,omitempty"`
	EscalationURI  string              `json:"escalation-uri,omitempty"`
	ProblemItems   []map[string]string `json:"problem_items,omitempty"`
	ExplainLongTxt string              `json:"explain-ltxt,omitempty"` // ACApy
}

// Description represents a problem report code
type Description struct {
	En   string `json:"en,omitempty"`
	Code string `json:"code"`
}

type FixHint struct {
	En string `json:"en"`
}

// NewProblemReport returns a report of the code with its default text.
func NewProblemReport(code ProblemCode, comment string, th *decorator.Thread) *ProblemReport {
	pr := &ProblemReport{
		Header: didcomm.NewHeader(pltype.ReportProblemReport),
		Description: Description{
			Code: string(code),
			En:   code.Text(),
		},
		Comment:     comment,
		NoticedTime: time.Now().UTC().Format(time.RFC3339),
	}
	pr.SetThread(th)
	return pr
}

// Code returns the description code.
func (p *ProblemReport) Code() ProblemCode {
	return ProblemCode(p.Description.Code)
}

func (p *ProblemReport) String() string {
	if p.Comment != "" {
		return p.Description.Code + ": " + p.Comment
	}
	return p.Description.Code
}
