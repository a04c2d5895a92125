/*
Package prover implements the prover's side of the Aries present proof
protocol (RFC 0037). The protocol starts from the verifier's request, or from
our proposal which the verifier answers with a request:

	ProposalPrepared -> ProposalSent -> RequestReceived
	RequestReceived -> PresentationPrepared -> PresentationSent -> Finished
	RequestReceived -> PresentationPreparationFailed -> Finished

Declining the request finishes the protocol as Rejected.
*/
package prover

import (
	"errors"
	"fmt"

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
	ErrState   = errors.New("not allowed in the prover state")
	ErrRequest = errors.New("invalid presentation request")
	ErrMissing = errors.New("missing credentials")
)

type State string

const (
	ProposalPrepared              State = "ProposalPrepared"
	ProposalSent                  State = "ProposalSent"
	RequestReceived               State = "RequestReceived"
	PresentationPrepared          State = "PresentationPrepared"
	PresentationPreparationFailed State = "PresentationPreparationFailed"
	PresentationSent              State = "PresentationSent"
	Finished                      State = "Finished"
)

type Prover struct {
	Phase      State                          `json:"state"`
	Connection connection.CompletedConnection `json:"connection"`
	Thread     *decorator.Thread              `json:"thread,omitempty"`
	// Sent tells if we have sent a message to the thread.
	Sent bool `json:"sent,omitempty"`

	Proposal *presentproof.Propose `json:"proposal,omitempty"`
	Request  *presentproof.Request `json:"request,omitempty"`

	Presentation string `json:"presentation,omitempty"`
	// PreparationError is reported to the verifier when the presentation
	// cannot be built.
	PreparationError string `json:"preparation_error,omitempty"`

	Status common.Status `json:"status"`
}

// CreateWithRequest returns the prover of the received request. The request
// starts the thread.
func CreateWithRequest(conn connection.CompletedConnection, req *presentproof.Request) (p Prover, err error) {
	defer err2.Handle(&err, "create prover")

	if req == nil {
		return p, fmt.Errorf("%w: missing", ErrRequest)
	}
	try.To1(req.ProofReq())
	th := decorator.NewThread(didcomm.ThreadID(req), "")
	if req.Thread() != nil {
		th.SetPthid(req.Thread().PID)
	}
	try.To(th.CheckMessageOrder(conn.Peer(), req.Thread()))
	th.UpdateReceivedOrder(conn.Peer())

	glog.V(1).Infoln("presentation request received, thread:", th.ID)
	return Prover{
		Phase:      RequestReceived,
		Connection: conn,
		Thread:     th,
		Request:    req,
	}, nil
}

// ReceiveRequest takes the oldest unread presentation request which doesn't
// belong to a proposal from the connection's mailbox.
func ReceiveRequest(b *pairwise.Binder, conn connection.CompletedConnection) (p Prover, found bool, err error) {
	defer err2.Handle(&err, "receive presentation request")

	agent := b.Agent(conn.Agent)
	in, found := try.To2(protocol.Next(agent, func(msg didcomm.MessageHdr) bool {
		req, ok := msg.(*presentproof.Request)
		return ok && didcomm.ThreadID(req) == req.ID()
	}))
	if !found {
		return p, false, nil
	}
	p = try.To1(CreateWithRequest(conn, in.Msg.(*presentproof.Request)))
	try.To(agent.UpdateMessageStatus(in.UID))
	return p, true, nil
}

// CreateProposal returns the prover which proposes the presentation of the
// preview. The proposal starts the thread.
func CreateProposal(conn connection.CompletedConnection, comment string, preview *presentproof.Preview) Prover {
	propose := presentproof.NewPropose(comment, preview, nil)
	return Prover{
		Phase:      ProposalPrepared,
		Connection: conn,
		Thread:     decorator.NewThread(propose.ID(), ""),
		Proposal:   propose,
	}
}

// SendProposal sends the prepared proposal.
func (p Prover) SendProposal(b *pairwise.Binder) (next Prover, err error) {
	defer err2.Handle(&err, p.onError(&next, "send proposal"))

	if p.Phase != ProposalPrepared {
		return p, fmt.Errorf("%w: %s", ErrState, p.Phase)
	}
	th := p.nextThread()
	p.Proposal.SetThread(th.Copy())
	try.To(p.Connection.Send(b, p.Proposal))
	glog.V(1).Infoln("presentation proposal sent, thread:", th.ID)

	p.Thread = th
	p.Sent = true
	p.Phase = ProposalSent
	return p, nil
}

// RetrieveCredentials returns the wallet's candidate credentials for the
// outstanding request.
func (p Prover) RetrieveCredentials(store ssi.CredentialStore) (c *ssi.Candidates, err error) {
	defer err2.Handle(&err, "retrieve credentials")

	if p.Request == nil || p.Phase == Finished {
		return nil, fmt.Errorf("%w: %s", ErrState, p.Phase)
	}
	return store.CredentialsForProofRequest(string(try.To1(p.Request.ProofReqData())))
}

// GeneratePresentation builds the presentation of the selected credentials
// and self attested values. When the presentation cannot be built the
// prover moves to PresentationPreparationFailed, and sending reports the
// failure to the verifier.
func (p Prover) GeneratePresentation(store ssi.CredentialStore, creds ssi.RequestedCredentials,
	selfAttested map[string]string) (next Prover, err error) {

	defer err2.Handle(&err, p.onError(&next, "generate presentation"))

	switch p.Phase {
	case RequestReceived, PresentationPrepared, PresentationPreparationFailed:
	default:
		return p, fmt.Errorf("%w: %s", ErrState, p.Phase)
	}
	data := try.To1(p.Request.ProofReqData())
	pr := try.To1(presentproof.ParseProofRequest(data))
	creds = withSelfAttested(creds, selfAttested)

	proof, err := p.build(store, string(data), pr, creds)
	if err != nil {
		glog.Errorln("presentation preparation:", err)
		p.Presentation = ""
		p.PreparationError = err.Error()
		p.Phase = PresentationPreparationFailed
		return p, nil
	}
	p.Presentation = proof
	p.PreparationError = ""
	p.Phase = PresentationPrepared
	return p, nil
}

func (p Prover) build(store ssi.CredentialStore, proofReq string, pr *presentproof.ProofRequest,
	creds ssi.RequestedCredentials) (proof string, err error) {

	defer err2.Handle(&err)

	attrRefs := make([]string, 0, len(pr.RequestedAttributes))
	for ref := range pr.RequestedAttributes {
		attrRefs = append(attrRefs, ref)
	}
	predicateRefs := make([]string, 0, len(pr.RequestedPredicates))
	for ref := range pr.RequestedPredicates {
		predicateRefs = append(predicateRefs, ref)
	}
	if missing := creds.Missing(attrRefs, predicateRefs); len(missing) > 0 {
		return "", fmt.Errorf("%w: %v", ErrMissing, missing)
	}
	return store.BuildPresentation(proofReq, creds)
}

func withSelfAttested(creds ssi.RequestedCredentials, selfAttested map[string]string) ssi.RequestedCredentials {
	if len(selfAttested) == 0 {
		return creds
	}
	attested := make(map[string]string, len(creds.SelfAttestedAttributes)+len(selfAttested))
	for ref, value := range creds.SelfAttestedAttributes {
		attested[ref] = value
	}
	for ref, value := range selfAttested {
		attested[ref] = value
	}
	creds.SelfAttestedAttributes = attested
	return creds
}

// SendPresentation sends the prepared presentation. From
// PresentationPreparationFailed it sends the problem report instead and
// finishes the protocol.
func (p Prover) SendPresentation(b *pairwise.Binder) (next Prover, err error) {
	defer err2.Handle(&err, p.onError(&next, "send presentation"))

	th := p.nextThread()
	switch p.Phase {
	case PresentationPrepared:
		try.To(p.Connection.Send(b, presentproof.NewPresentation([]byte(p.Presentation), th.Copy())))
		glog.V(1).Infoln("presentation sent, thread:", th.ID)
		p.Phase = PresentationSent
	case PresentationPreparationFailed:
		reject := presentproof.NewReject(common.InvalidPresentationRequest, p.PreparationError, th.Copy())
		try.To(p.Connection.Send(b, reject))
		glog.V(1).Infoln("presentation preparation failure sent, thread:", th.ID)
		p.Status = common.Failed(&reject.ProblemReport)
		p.Phase = Finished
	default:
		return p, fmt.Errorf("%w: %s", ErrState, p.Phase)
	}
	p.Thread = th
	p.Sent = true
	return p, nil
}

// DeclinePresentationRequest declines the request with the reason, or with
// a counter proposal of the preview. The protocol finishes as Rejected.
func (p Prover) DeclinePresentationRequest(b *pairwise.Binder, reason string,
	proposal *presentproof.Preview) (next Prover, err error) {

	defer err2.Handle(&err, p.onError(&next, "decline presentation request"))

	switch p.Phase {
	case RequestReceived, PresentationPrepared, PresentationPreparationFailed:
	default:
		return p, fmt.Errorf("%w: %s", ErrState, p.Phase)
	}
	th := p.nextThread()
	reject := presentproof.NewReject(common.PresentationRejected, reason, th.Copy())
	if proposal != nil {
		propose := presentproof.NewPropose(reason, proposal, th.Copy())
		try.To(p.Connection.Send(b, propose))
		p.Proposal = propose
		glog.V(1).Infoln("presentation request declined with proposal, thread:", th.ID)
	} else {
		try.To(p.Connection.Send(b, reject))
		glog.V(1).Infoln("presentation request declined, thread:", th.ID)
	}
	p.Thread = th
	p.Sent = true
	p.Status = common.Rejected(&reject.ProblemReport)
	p.Phase = Finished
	return p, nil
}

// UpdateState handles the next message of the protocol from the mailbox. A
// message given as JSON is handled without the mailbox.
func (p Prover) UpdateState(b *pairwise.Binder, raw []byte) (next Prover, err error) {
	defer err2.Handle(&err, p.onError(&next, "update prover state"))

	handle := func(msg didcomm.MessageHdr) (Prover, error) {
		return p.HandleMessage(b, msg)
	}
	if raw != nil {
		return handle(try.To1(aries.Decode(raw)))
	}
	return protocol.Receive(p, b.Agent(p.Connection.Agent), p.eligible, handle)
}

func (p Prover) eligible(msg didcomm.MessageHdr) bool {
	if p.Thread == nil || !didcomm.FromThread(msg, p.Thread.ID) {
		return false
	}
	if _, ok := protocol.ProblemReport(msg); ok {
		return p.Phase == ProposalSent || p.Phase == PresentationSent
	}
	switch msg.(type) {
	case *presentproof.Request:
		return p.Phase == ProposalSent
	}
	return protocol.IsAck(msg) && p.Phase == PresentationSent
}

// HandleMessage runs the transition of the received message. Messages of
// other threads and messages not legal in the state are ignored.
func (p Prover) HandleMessage(b *pairwise.Binder, msg didcomm.MessageHdr) (next Prover, err error) {
	defer err2.Handle(&err, p.onError(&next, "handle "+msg.Type()))

	if !p.eligible(msg) {
		glog.V(3).Infof("prover %s: ignoring %s", p.Phase, msg.Type())
		return p, nil
	}
	glog.V(1).Infof("prover %s: %s", p.Phase, msg.Type())
	p.Thread = p.Thread.Copy()

	if pr, ok := protocol.ProblemReport(msg); ok {
		glog.Warningln("prover received problem report:", pr)
		p.Thread.UpdateReceivedOrder(p.Connection.Peer())
		p.Status = common.Failed(pr)
		p.Phase = Finished
		return p, nil
	}
	if err := p.Thread.CheckMessageOrder(p.Connection.Peer(), msg.Thread()); err != nil {
		glog.Warningln("prover:", err)
	}
	p.Thread.UpdateReceivedOrder(p.Connection.Peer())

	if req, ok := msg.(*presentproof.Request); ok {
		try.To1(req.ProofReq())
		p.Request = req
		p.Phase = RequestReceived
		return p, nil
	}
	p.Status = common.Success()
	p.Phase = Finished
	glog.V(1).Infoln("presentation acked, thread:", p.Thread.ID)
	return p, nil
}

// State returns the protocol state.
func (p Prover) State() State {
	return p.Phase
}

func (p Prover) ThreadID() string {
	if p.Thread == nil {
		return ""
	}
	return p.Thread.ID
}

// GetProofRequest returns the Indy proof request of the outstanding request.
func (p Prover) GetProofRequest() (pr *presentproof.ProofRequest, err error) {
	defer err2.Handle(&err, "get proof request")

	if p.Request == nil {
		return nil, fmt.Errorf("%w: %s", ErrState, p.Phase)
	}
	return p.Request.ProofReq()
}

// PresentationStatus returns the outcome of the finished protocol.
func (p Prover) PresentationStatus() common.StatusCode {
	return p.Status.Code
}

// GetProblemReport returns the problem report which ended the protocol.
func (p Prover) GetProblemReport() *common.ProblemReport {
	return p.Status.ProblemReport
}

// nextThread returns a copy of the thread for our next outbound message. The
// first message is sent with sender_order 0.
func (p Prover) nextThread() *decorator.Thread {
	th := p.Thread.Copy()
	if p.Sent {
		th.IncrementSenderOrder()
	}
	return th
}

func (p Prover) onError(next *Prover, op string) func(error) error {
	return func(err error) error {
		*next = p
		return fmt.Errorf("%s: %w", op, err)
	}
}
