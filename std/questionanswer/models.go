// Package questionanswer implements the Aries question/answer protocol (RFC
// 0113) and the committed answer variant.
package questionanswer

import (
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const signatureType = pltype.Aries + "/" + pltype.ProtocolQuestionAnswer + "/" +
	pltype.V1 + "/" + pltype.HandlerSignatureEd25519

var ErrInvalidResponse = errors.New("invalid question response")

type Question struct {
	didcomm.Header
	QuestionText      string     `json:"question_text"`
	QuestionDetail    string     `json:"question_detail,omitempty"`
	Nonce             string     `json:"nonce"`
	SignatureRequired bool       `json:"signature_required"`
	ValidResponses    []Response `json:"valid_responses"`
	Timing            *Timing    `json:"~timing,omitempty"`
}

type Response struct {
	Text string `json:"text"`
}

type Timing struct {
	ExpiresTime string `json:"expires_time,omitempty"`
	OutTime     string `json:"out_time,omitempty"`
}

type Answer struct {
	didcomm.Header
	Response    string             `json:"response"`
	Timing      Timing             `json:"~timing"`
	ResponseSig *ResponseSignature `json:"response~sig,omitempty"`
}

type ResponseSignature struct {
	Type      string   `json:"@type"`
	Signature string   `json:"signature"`
	SigData   string   `json:"sig_data"`
	Signers   []string `json:"signers"`
}

// Signer signs with the private key of the verkey.
type Signer interface {
	Sign(verkey string, data []byte) ([]byte, error)
}

// Verifier verifies the signature of the verkey.
type Verifier interface {
	Verify(verkey string, data, signature []byte) error
}

// CheckResponse returns an error if the response is not one of the valid
// responses of the question.
func (q *Question) CheckResponse(r Response) error {
	for _, valid := range q.ValidResponses {
		if valid.Text == r.Text {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidResponse, r.Text)
}

// NewAnswer builds the answer to the question and signs it with the verkey
// when the question requires it.
func NewAnswer(q *Question, r Response, verkey string, s Signer) (a *Answer, err error) {
	defer err2.Handle(&err, "new answer")

	try.To(q.CheckResponse(r))

	a = &Answer{
		Header:   didcomm.NewHeader(pltype.QuestionAnswerAnswer),
		Response: r.Text,
		Timing:   Timing{OutTime: time.Now().UTC().Format(time.RFC3339)},
	}
	a.SetThread(&decorator.Thread{ID: didcomm.ThreadID(q)})

	if q.SignatureRequired {
		try.To(a.Sign(q, verkey, s))
	}
	return a, nil
}

// Sign signs the SHA-512 of the question text, response and nonce.
func (a *Answer) Sign(q *Question, verkey string, s Signer) (err error) {
	defer err2.Handle(&err, "sign answer")

	sigData := signatureData(q.QuestionText, a.Response, q.Nonce)
	signature := try.To1(s.Sign(verkey, sigData))

	a.ResponseSig = &ResponseSignature{
		Type:      signatureType,
		Signature: base64.URLEncoding.EncodeToString(signature),
		SigData:   base64.URLEncoding.EncodeToString(sigData),
		Signers:   []string{verkey},
	}
	return nil
}

// Verify verifies the response signature if there is one.
func (a *Answer) Verify(verkey string, v Verifier) (err error) {
	defer err2.Handle(&err, "verify answer")

	if a.ResponseSig == nil {
		return nil
	}
	signature := try.To1(base64.URLEncoding.DecodeString(a.ResponseSig.Signature))
	sigData := try.To1(base64.URLEncoding.DecodeString(a.ResponseSig.SigData))
	return v.Verify(verkey, sigData, signature)
}

func signatureData(question, response, nonce string) []byte {
	h := sha512.New()
	h.Write([]byte(question))
	h.Write([]byte(response))
	h.Write([]byte(nonce))
	return h.Sum(nil)
}
