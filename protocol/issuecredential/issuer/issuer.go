/*
Package issuer implements the issuer's side of the Aries issue credential
protocol (RFC 0036). The issuer starts by offering the credential:

	Initial -> OfferSent -> RequestReceived -> CredentialSent -> Finished

The machine is a value. A transition returns the new value, and when it fails
it returns the old one together with the error, so the host can retry. The
problems of the other end finish the protocol with a problem report.
*/
package issuer

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
	"github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrState = errors.New("not allowed in the issuer state")

type State string

const (
	Initial         State = "Initial"
	OfferSent       State = "OfferSent"
	RequestReceived State = "RequestReceived"
	CredentialSent  State = "CredentialSent"
	Finished        State = "Finished"
)

type Issuer struct {
	Phase      State                          `json:"state"`
	Connection connection.CompletedConnection `json:"connection"`
	Thread     *decorator.Thread              `json:"thread,omitempty"`

	CredDefID string                            `json:"cred_def_id"`
	Preview   issuecredential.PreviewCredential `json:"preview"`
	Comment   string                            `json:"comment,omitempty"`

	Offer   *issuecredential.Offer   `json:"offer,omitempty"`
	Request *issuecredential.Request `json:"request,omitempty"`

	Status common.Status `json:"status"`
}

// Create returns the issuer of the credential with the values of the
// preview. SendOffer starts the protocol.
func Create(conn connection.CompletedConnection, credDefID string,
	preview issuecredential.PreviewCredential, comment string) Issuer {

	return Issuer{
		Phase:      Initial,
		Connection: conn,
		CredDefID:  credDefID,
		Preview:    preview,
		Comment:    comment,
	}
}

// SendOffer creates the Indy credential offer and sends it to the holder.
// The offer starts the thread of the protocol.
func (i Issuer) SendOffer(b *pairwise.Binder, iss ssi.Issuer) (next Issuer, err error) {
	defer err2.Handle(&err, i.onError(&next, "send offer"))

	if i.Phase != Initial {
		return i, fmt.Errorf("%w: %s", ErrState, i.Phase)
	}
	credOffer := try.To1(iss.CreateCredentialOffer(i.CredDefID))
	offer := issuecredential.NewOffer(i.Comment, i.Preview, []byte(credOffer))
	th := decorator.NewThread(offer.ID(), "")
	offer.SetThread(th.Copy())
	try.To(i.Connection.Send(b, offer))
	glog.V(1).Infoln("credential offer sent, thread:", th.ID)

	i.Thread = th
	i.Offer = offer
	i.Phase = OfferSent
	return i, nil
}

// SendCredential creates the credential for the received request and sends
// it. The holder is asked to ack the credential.
func (i Issuer) SendCredential(b *pairwise.Binder, iss ssi.Issuer) (next Issuer, err error) {
	defer err2.Handle(&err, i.onError(&next, "send credential"))

	if i.Phase != RequestReceived {
		return i, fmt.Errorf("%w: %s", ErrState, i.Phase)
	}
	credOffer := try.To1(i.Offer.CredOffer())
	credReq := try.To1(i.Request.CredRequest())
	cred, err := iss.CreateCredential(string(credOffer), string(credReq), i.Preview.CodedValues())
	if err != nil {
		glog.Errorln("cannot create credential:", err)
		return i.fail(b, common.InvalidCredentialRequest, err.Error()), nil
	}
	th := i.nextThread()
	try.To(i.Connection.Send(b, issuecredential.NewIssue([]byte(cred), th.Copy())))
	glog.V(1).Infoln("credential sent, thread:", th.ID)

	i.Thread = th
	i.Phase = CredentialSent
	return i, nil
}

// UpdateState handles the next message of the protocol from the mailbox. A
// message given as JSON is handled without the mailbox.
func (i Issuer) UpdateState(b *pairwise.Binder, raw []byte) (next Issuer, err error) {
	defer err2.Handle(&err, i.onError(&next, "update issuer state"))

	if raw != nil {
		return i.HandleMessage(b, try.To1(aries.Decode(raw)))
	}
	return protocol.Receive(i, b.Agent(i.Connection.Agent), i.eligible,
		func(msg didcomm.MessageHdr) (Issuer, error) {
			return i.HandleMessage(b, msg)
		})
}

func (i Issuer) eligible(msg didcomm.MessageHdr) bool {
	if i.Thread == nil || !didcomm.FromThread(msg, i.Thread.ID) {
		return false
	}
	if _, ok := protocol.ProblemReport(msg); ok {
		return i.Phase != Initial && i.Phase != Finished
	}
	switch i.Phase {
	case OfferSent:
		switch msg.(type) {
		case *issuecredential.Request, *issuecredential.Propose:
			return true
		}
	case CredentialSent:
		return protocol.IsAck(msg)
	}
	return false
}

// HandleMessage runs the transition of the received message. Messages of
// other threads and messages not legal in the state are ignored.
func (i Issuer) HandleMessage(b *pairwise.Binder, msg didcomm.MessageHdr) (next Issuer, err error) {
	defer err2.Handle(&err, i.onError(&next, "handle "+msg.Type()))

	if !i.eligible(msg) {
		glog.V(3).Infof("issuer %s: ignoring %s", i.Phase, msg.Type())
		return i, nil
	}
	glog.V(1).Infof("issuer %s: %s", i.Phase, msg.Type())
	i.Thread = i.Thread.Copy()

	if pr, ok := protocol.ProblemReport(msg); ok {
		glog.Warningln("issuer received problem report:", pr)
		i.Thread.UpdateReceivedOrder(i.Connection.Peer())
		i.Status = common.Failed(pr)
		i.Phase = Finished
		return i, nil
	}

	switch m := msg.(type) {
	case *issuecredential.Propose:
		return i.fail(b, common.Unimplemented, "credential proposal is not supported"), nil
	case *issuecredential.Request:
		if err := i.Thread.CheckMessageOrder(i.Connection.Peer(), m.Thread()); err != nil {
			glog.Errorln("credential request:", err)
			return i.fail(b, common.InvalidCredentialRequest, err.Error()), nil
		}
		i.Thread.UpdateReceivedOrder(i.Connection.Peer())
		i.Request = m
		i.Phase = RequestReceived
		return i, nil
	}

	// ack
	if err := i.Thread.CheckMessageOrder(i.Connection.Peer(), msg.Thread()); err != nil {
		glog.Warningln("credential ack:", err)
	}
	i.Thread.UpdateReceivedOrder(i.Connection.Peer())
	i.Status = common.Success()
	i.Phase = Finished
	glog.V(1).Infoln("credential issued, thread:", i.Thread.ID)
	return i, nil
}

// State returns the protocol state.
func (i Issuer) State() State {
	return i.Phase
}

func (i Issuer) ThreadID() string {
	if i.Thread == nil {
		return ""
	}
	return i.Thread.ID
}

// CredentialStatus returns the outcome of the finished protocol.
func (i Issuer) CredentialStatus() common.StatusCode {
	return i.Status.Code
}

// GetProblemReport returns the problem report which ended the protocol.
func (i Issuer) GetProblemReport() *common.ProblemReport {
	return i.Status.ProblemReport
}

// nextThread returns a copy of the thread for our next outbound message.
func (i Issuer) nextThread() *decorator.Thread {
	th := i.Thread.Copy()
	th.IncrementSenderOrder()
	return th
}

// fail sends the problem report and finishes the protocol. The report is
// sent once: a failing send is only logged.
func (i Issuer) fail(b *pairwise.Binder, code common.ProblemCode, comment string) Issuer {
	th := i.nextThread()
	reject := issuecredential.NewReject(code, comment, th.Copy())
	if err := i.Connection.Send(b, reject); err != nil {
		glog.Warningln("cannot send problem report:", err)
	}
	i.Thread = th
	i.Status = common.Failed(&reject.ProblemReport)
	i.Phase = Finished
	return i
}

func (i Issuer) onError(next *Issuer, op string) func(error) error {
	return func(err error) error {
		*next = i
		return fmt.Errorf("%s: %w", op, err)
	}
}
