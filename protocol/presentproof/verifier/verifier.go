/*
Package verifier implements the verifier's side of the Aries present proof
protocol (RFC 0037):

	Initial -> RequestSent -> Finished

The verifier starts with the proof request. Proposals from the prover are not
supported, they are answered with a problem report.
*/
package verifier

import (
	"errors"
	"fmt"
	"sort"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-didcomm/agent/aries"
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/ssi"
	"github.com/findy-network/findy-didcomm/protocol"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var (
	ErrState      = errors.New("not allowed in the verifier state")
	ErrNotSuccess = errors.New("presentation is not verified")
	ErrInvalid    = errors.New("presentation is not valid")
)

type State string

const (
	Initial     State = "Initial"
	RequestSent State = "RequestSent"
	Finished    State = "Finished"
)

type Verifier struct {
	Phase      State                          `json:"state"`
	Connection connection.CompletedConnection `json:"connection"`
	Thread     *decorator.Thread              `json:"thread,omitempty"`

	ProofRequest *presentproof.ProofRequest `json:"proof_request"`
	Comment      string                     `json:"comment,omitempty"`

	Presentation *presentproof.Presentation       `json:"presentation,omitempty"`
	Revealed     []presentproof.RevealedAttribute `json:"revealed,omitempty"`

	Status common.Status `json:"status"`
}

// Create returns the verifier of the proof request.
func Create(conn connection.CompletedConnection, pr *presentproof.ProofRequest, comment string) Verifier {
	return Verifier{
		Phase:        Initial,
		Connection:   conn,
		ProofRequest: pr,
		Comment:      comment,
	}
}

// CreateWithPreview returns the verifier of the proof request which the
// preview converts to.
func CreateWithPreview(conn connection.CompletedConnection, name string,
	preview *presentproof.Preview, comment string) Verifier {

	return Create(conn, preview.ProofRequest(name), comment)
}

// SendPresentationRequest sends the proof request. The request starts the
// thread of the protocol.
func (v Verifier) SendPresentationRequest(b *pairwise.Binder) (next Verifier, err error) {
	defer err2.Handle(&err, v.onError(&next, "send presentation request"))

	if v.Phase != Initial {
		return v, fmt.Errorf("%w: %s", ErrState, v.Phase)
	}
	req := presentproof.NewRequest(v.Comment, dto.ToJSONBytes(v.ProofRequest), nil)
	th := decorator.NewThread(req.ID(), "")
	req.SetThread(th.Copy())
	try.To(v.Connection.Send(b, req))
	glog.V(1).Infoln("presentation request sent, thread:", th.ID)

	v.Thread = th
	v.Phase = RequestSent
	return v, nil
}

// UpdateState handles the next message of the protocol from the mailbox. A
// received presentation is verified right away. A message given as JSON is
// handled without the mailbox.
func (v Verifier) UpdateState(b *pairwise.Binder, pv ssi.ProofVerifier, raw []byte) (next Verifier, err error) {
	defer err2.Handle(&err, v.onError(&next, "update verifier state"))

	handle := func(msg didcomm.MessageHdr) (Verifier, error) {
		return v.HandleMessage(b, pv, msg)
	}
	if raw != nil {
		return handle(try.To1(aries.Decode(raw)))
	}
	return protocol.Receive(v, b.Agent(v.Connection.Agent), v.eligible, handle)
}

func (v Verifier) eligible(msg didcomm.MessageHdr) bool {
	if v.Phase != RequestSent || !didcomm.FromThread(msg, v.Thread.ID) {
		return false
	}
	if _, ok := protocol.ProblemReport(msg); ok {
		return true
	}
	switch msg.(type) {
	case *presentproof.Presentation, *presentproof.Propose:
		return true
	}
	return false
}

// HandleMessage runs the transition of the received message. Messages of
// other threads and messages not legal in the state are ignored.
func (v Verifier) HandleMessage(b *pairwise.Binder, pv ssi.ProofVerifier,
	msg didcomm.MessageHdr) (next Verifier, err error) {

	defer err2.Handle(&err, v.onError(&next, "handle "+msg.Type()))

	if !v.eligible(msg) {
		glog.V(3).Infof("verifier %s: ignoring %s", v.Phase, msg.Type())
		return v, nil
	}
	glog.V(1).Infof("verifier %s: %s", v.Phase, msg.Type())

	if pr, ok := protocol.ProblemReport(msg); ok {
		glog.Warningln("verifier received problem report:", pr)
		v.Thread = v.Thread.Copy()
		v.Thread.UpdateReceivedOrder(v.Connection.Peer())
		v.Status = common.Failed(pr)
		v.Phase = Finished
		return v, nil
	}
	switch m := msg.(type) {
	case *presentproof.Propose:
		v.Thread = v.Thread.Copy()
		v.Thread.UpdateReceivedOrder(v.Connection.Peer())
		return v.fail(b, common.Unimplemented, "presentation proposal is not supported"), nil
	case *presentproof.Presentation:
		return v.VerifyPresentation(b, pv, m)
	}
	return v, nil
}

// VerifyPresentation verifies the presentation against the request. An
// invalid presentation is reported to the prover and the protocol fails.
func (v Verifier) VerifyPresentation(b *pairwise.Binder, pv ssi.ProofVerifier,
	p *presentproof.Presentation) (next Verifier, err error) {

	defer err2.Handle(&err, v.onError(&next, "verify presentation"))

	if v.Phase != RequestSent {
		return v, fmt.Errorf("%w: %s", ErrState, v.Phase)
	}
	if !didcomm.FromThread(p, v.Thread.ID) {
		return v, fmt.Errorf("%w: presentation of thread %s", ErrState, didcomm.ThreadID(p))
	}
	v.Thread = v.Thread.Copy()
	if err := v.Thread.CheckMessageOrder(v.Connection.Peer(), p.Thread()); err != nil {
		glog.Errorln("presentation:", err)
		return v.fail(b, common.InvalidPresentation, err.Error()), nil
	}
	v.Thread.UpdateReceivedOrder(v.Connection.Peer())

	revealed, err := v.verify(pv, p)
	if err != nil {
		glog.Errorln("presentation:", err)
		return v.fail(b, common.InvalidPresentation, err.Error()), nil
	}
	v.Presentation = p
	v.Revealed = revealed
	v.Status = common.Success()
	v.Phase = Finished
	glog.V(1).Infoln("presentation verified, thread:", v.Thread.ID)

	if p.PleaseAck != nil {
		th := v.nextThread()
		if err := v.Connection.Send(b, presentproof.NewAck(th.Copy())); err != nil {
			glog.Warningln("cannot send presentation ack:", err)
		}
		v.Thread = th
	}
	return v, nil
}

// verify returns the revealed attributes of the valid proof sorted by the
// referent.
func (v Verifier) verify(pv ssi.ProofVerifier, p *presentproof.Presentation) (
	revealed []presentproof.RevealedAttribute, err error) {

	defer err2.Handle(&err)

	data := try.To1(p.ProofData())
	proof := try.To1(presentproof.ParseProof(data))
	try.To(proof.EnsureNonRevoked(v.ProofRequest))
	if !try.To1(pv.VerifyProof(string(dto.ToJSONBytes(v.ProofRequest)), string(data))) {
		return nil, ErrInvalid
	}
	revealed = proof.RevealedAttributes(v.ProofRequest)
	sort.Slice(revealed, func(i, j int) bool {
		return revealed[i].Referent < revealed[j].Referent
	})
	return revealed, nil
}

// State returns the protocol state.
func (v Verifier) State() State {
	return v.Phase
}

func (v Verifier) ThreadID() string {
	if v.Thread == nil {
		return ""
	}
	return v.Thread.ID
}

// PresentationStatus returns the outcome of the finished protocol.
func (v Verifier) PresentationStatus() common.StatusCode {
	return v.Status.Code
}

// GetRevealedAttributes returns the attribute values of the verified
// presentation.
func (v Verifier) GetRevealedAttributes() ([]presentproof.RevealedAttribute, error) {
	if v.Status.Code != common.StatusSuccess {
		return nil, fmt.Errorf("revealed attributes: %w: %s", ErrNotSuccess, v.Status.Code)
	}
	return v.Revealed, nil
}

// GetProblemReport returns the problem report which ended the protocol.
func (v Verifier) GetProblemReport() *common.ProblemReport {
	return v.Status.ProblemReport
}

func (v Verifier) nextThread() *decorator.Thread {
	th := v.Thread.Copy()
	th.IncrementSenderOrder()
	return th
}

func (v Verifier) fail(b *pairwise.Binder, code common.ProblemCode, comment string) Verifier {
	th := v.nextThread()
	reject := presentproof.NewReject(code, comment, th.Copy())
	if err := v.Connection.Send(b, reject); err != nil {
		glog.Warningln("cannot send problem report:", err)
	}
	v.Thread = th
	v.Status = common.Failed(&reject.ProblemReport)
	v.Phase = Finished
	return v
}

func (v Verifier) onError(next *Verifier, op string) func(error) error {
	return func(err error) error {
		*next = v
		return fmt.Errorf("%s: %w", op, err)
	}
}
