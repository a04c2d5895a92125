package questionanswer

import (
	"github.com/findy-network/findy-didcomm/agent/didcomm"
)

// CommittedQuestion is the question of the committed answer protocol.
type CommittedQuestion struct {
	didcomm.Header
	QuestionText   string              `json:"question_text"`
	QuestionDetail string              `json:"question_detail,omitempty"`
	ExternalLinks  []string            `json:"external_links,omitempty"`
	ValidResponses []CommittedResponse `json:"valid_responses"`
}

type CommittedResponse struct {
	Text  string `json:"text"`
	Nonce string `json:"nonce"`
}

// CommittedAnswer carries only the signature over the chosen response nonce.
type CommittedAnswer struct {
	didcomm.Header
	Signature CommittedSignature `json:"response.@sig"`
}

type CommittedSignature struct {
	Signature string `json:"signature"`
	SigData   string `json:"sig_data"`
	Timestamp string `json:"timestamp"`
}
