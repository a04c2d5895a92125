package common

import (
	"testing"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/stretchr/testify/assert"
)

var problemReportJSON = `
{
  "@type": "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/notification/1.0/problem-report",
  "@id": "8e59230b-47e4-4abb-a5cc-28d1b09f0e96",
  "~thread": {
    "thid": "8225993b-73f9-404c-804b-139bd03893dc"
  },
  "description": {"code": "invalid-credential"},
  "explain-ltxt": "Error deserializing message: CredentialAck schema validation failed"
}`

func TestProblemReport_ReadJSON(t *testing.T) {
	var pr ProblemReport
	dto.FromJSONStr(problemReportJSON, &pr)

	assert.Equal(t, "8e59230b-47e4-4abb-a5cc-28d1b09f0e96", pr.ID())
	assert.Equal(t, "8225993b-73f9-404c-804b-139bd03893dc", pr.Thread().ID)
	assert.Equal(t, InvalidCredential, pr.Code())
	assert.NotEmpty(t, pr.ExplainLongTxt)
}

func TestNewProblemReport(t *testing.T) {
	th := decorator.NewThread("thid", "")
	pr := NewProblemReport(InvalidPresentation, "bad proof", th)

	assert.Equal(t, pltype.ReportProblemReport, pr.Type())
	assert.Equal(t, "invalid-presentation", pr.Description.Code)
	assert.Equal(t, "Couldn't verify presentation.", pr.Description.En)
	assert.Equal(t, "thid", pr.Thread().ID)
	assert.Equal(t, "invalid-presentation: bad proof", pr.String())
	assert.NotEmpty(t, pr.NoticedTime)
}

func TestProblemCode_Text(t *testing.T) {
	tests := []struct {
		code ProblemCode
		wire string
		text string
	}{
		{Unimplemented, "unimplemented", "The protocol for received message is not implemented."},
		{InvalidCredentialOffer, "invalid-credential-offer", "Couldn't create credential-request for received credential-offer."},
		{InvalidCredentialRequest, "invalid-credential-request", "Couldn't create credential for received credential-request."},
		{InvalidCredential, "invalid-credential", "Couldn't store received credential."},
		{InvalidPresentationRequest, "invalid-request", "Couldn't create presentation for received presentation-request."},
		{InvalidPresentation, "invalid-presentation", "Couldn't verify presentation."},
		{CredentialRejected, "rejection", ""},
		{ProblemCode("custom"), "custom", ""},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			assert.Equal(t, tt.wire, string(tt.code))
			assert.Equal(t, tt.text, tt.code.Text())
		})
	}
	assert.Equal(t, "presentation-request was rejected.", RejectionText(pltype.ProtocolPresentProof))
	assert.Equal(t, "credential-offer was rejected.", RejectionText(pltype.ProtocolIssueCredential))
}

func TestStatus(t *testing.T) {
	pr := NewProblemReport(CredentialRejected, "no thanks", nil)
	st := Rejected(pr)
	assert.Equal(t, StatusRejected, st.Code)
	assert.Equal(t, "Rejected", st.Code.String())
	assert.Same(t, pr, st.ProblemReport)
	assert.Equal(t, "Undefined", Status{}.Code.String())
	assert.Nil(t, Success().ProblemReport)
}
