/*
Package holder implements the holder's side of the Aries issue credential
protocol (RFC 0036). The protocol starts from the issuer's offer:

	OfferReceived -> RequestSent -> Finished

The holder can reject the offer in both states. Finished carries the status:
Success, Failed or Rejected.
*/
package holder

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

var (
	ErrState         = errors.New("not allowed in the holder state")
	ErrNoCredential  = errors.New("no credential")
	ErrOfferMismatch = errors.New("offer does not belong to the connection")
)

type State string

const (
	OfferReceived State = "OfferReceived"
	RequestSent   State = "RequestSent"
	Finished      State = "Finished"
)

type Holder struct {
	Phase      State                          `json:"state"`
	Connection connection.CompletedConnection `json:"connection"`
	Thread     *decorator.Thread              `json:"thread"`

	Offer   *issuecredential.Offer `json:"offer"`
	CredDef string                 `json:"cred_def,omitempty"`
	ReqMeta string                 `json:"req_meta,omitempty"`

	CredentialID string `json:"credential_id,omitempty"`
	Credential   string `json:"credential,omitempty"`

	Status common.Status `json:"status"`
}

// CreateWithOffer returns the holder of the received offer. The offer starts
// the thread.
func CreateWithOffer(conn connection.CompletedConnection, offer *issuecredential.Offer) (h Holder, err error) {
	defer err2.Handle(&err, "create holder")

	if offer == nil {
		return h, fmt.Errorf("%w: missing", ErrOfferMismatch)
	}
	th := decorator.NewThread(didcomm.ThreadID(offer), "")
	if offer.Thread() != nil {
		th.SetPthid(offer.Thread().PID)
	}
	try.To(th.CheckMessageOrder(conn.Peer(), offer.Thread()))
	th.UpdateReceivedOrder(conn.Peer())

	glog.V(1).Infoln("credential offer received, thread:", th.ID)
	return Holder{
		Phase:      OfferReceived,
		Connection: conn,
		Thread:     th,
		Offer:      offer,
	}, nil
}

// ReceiveOffer takes the oldest unread offer from the connection's mailbox
// and returns its holder. Found is false when there is no offer.
func ReceiveOffer(b *pairwise.Binder, conn connection.CompletedConnection) (h Holder, found bool, err error) {
	defer err2.Handle(&err, "receive offer")

	agent := b.Agent(conn.Agent)
	in, found := try.To2(protocol.Next(agent, func(msg didcomm.MessageHdr) bool {
		_, ok := msg.(*issuecredential.Offer)
		return ok
	}))
	if !found {
		return h, false, nil
	}
	h = try.To1(CreateWithOffer(conn, in.Msg.(*issuecredential.Offer)))
	try.To(agent.UpdateMessageStatus(in.UID))
	return h, true, nil
}

// CredentialRequestSend accepts the offer. The offer must match the
// credential definition on the ledger, otherwise the offer is reported
// invalid and the protocol fails.
func (h Holder) CredentialRequestSend(b *pairwise.Binder, store ssi.CredentialStore,
	ledger ssi.Ledger) (next Holder, err error) {

	defer err2.Handle(&err, h.onError(&next, "send credential request"))

	if h.Phase != OfferReceived {
		return h, fmt.Errorf("%w: %s", ErrState, h.Phase)
	}
	credOffer := try.To1(h.Offer.CredOffer())
	credDef, req, meta, err := h.createRequest(credOffer, store, ledger)
	if err != nil {
		glog.Errorln("credential offer:", err)
		return h.fail(b, common.InvalidCredentialOffer, err.Error()), nil
	}
	th := h.nextThread()
	try.To(h.Connection.Send(b, issuecredential.NewRequest([]byte(req), th.Copy())))
	glog.V(1).Infoln("credential request sent, thread:", th.ID)

	h.Thread = th
	h.CredDef = credDef
	h.ReqMeta = meta
	h.Phase = RequestSent
	return h, nil
}

func (h Holder) createRequest(credOffer []byte, store ssi.CredentialStore,
	ledger ssi.Ledger) (credDef, req, meta string, err error) {

	defer err2.Handle(&err)

	co := try.To1(issuecredential.ParseCredOffer(credOffer))
	credDef = try.To1(ledger.ResolveCredDef(co.CredDefID))
	try.To(h.Offer.EnsureMatchCredentialDefinition(credDef))
	req, meta = try.To2(store.CreateCredentialRequest(string(credOffer), credDef))
	return credDef, req, meta, nil
}

// CredentialRejectSend rejects the offer and finishes the protocol.
func (h Holder) CredentialRejectSend(b *pairwise.Binder, comment string) (next Holder, err error) {
	defer err2.Handle(&err, h.onError(&next, "send credential reject"))

	if h.Phase == Finished {
		return h, fmt.Errorf("%w: %s", ErrState, h.Phase)
	}
	th := h.nextThread()
	reject := issuecredential.NewReject(common.CredentialRejected, comment, th.Copy())
	try.To(h.Connection.Send(b, reject))
	glog.V(1).Infoln("credential offer rejected, thread:", th.ID)

	h.Thread = th
	h.Status = common.Rejected(&reject.ProblemReport)
	h.Phase = Finished
	return h, nil
}

// UpdateState handles the next message of the protocol from the mailbox. A
// message given as JSON is handled without the mailbox.
func (h Holder) UpdateState(b *pairwise.Binder, store ssi.CredentialStore, ledger ssi.Ledger,
	raw []byte) (next Holder, err error) {

	defer err2.Handle(&err, h.onError(&next, "update holder state"))

	handle := func(msg didcomm.MessageHdr) (Holder, error) {
		return h.HandleMessage(b, store, ledger, msg)
	}
	if raw != nil {
		return handle(try.To1(aries.Decode(raw)))
	}
	return protocol.Receive(h, b.Agent(h.Connection.Agent), h.eligible, handle)
}

func (h Holder) eligible(msg didcomm.MessageHdr) bool {
	if h.Thread == nil || !didcomm.FromThread(msg, h.Thread.ID) {
		return false
	}
	if _, ok := protocol.ProblemReport(msg); ok {
		return h.Phase != Finished
	}
	_, ok := msg.(*issuecredential.Issue)
	return ok && h.Phase == RequestSent
}

// HandleMessage runs the transition of the received message. Messages of
// other threads and messages not legal in the state are ignored.
func (h Holder) HandleMessage(b *pairwise.Binder, store ssi.CredentialStore, ledger ssi.Ledger,
	msg didcomm.MessageHdr) (next Holder, err error) {

	defer err2.Handle(&err, h.onError(&next, "handle "+msg.Type()))

	if !h.eligible(msg) {
		glog.V(3).Infof("holder %s: ignoring %s", h.Phase, msg.Type())
		return h, nil
	}
	glog.V(1).Infof("holder %s: %s", h.Phase, msg.Type())
	h.Thread = h.Thread.Copy()

	if pr, ok := protocol.ProblemReport(msg); ok {
		glog.Warningln("holder received problem report:", pr)
		h.Thread.UpdateReceivedOrder(h.Connection.Peer())
		h.Status = common.Failed(pr)
		h.Phase = Finished
		return h, nil
	}
	return h.handleCredential(b, store, ledger, msg.(*issuecredential.Issue)), nil
}

// handleCredential checks and stores the credential. Every failure is
// reported to the issuer as an invalid credential.
func (h Holder) handleCredential(b *pairwise.Binder, store ssi.CredentialStore, ledger ssi.Ledger,
	issue *issuecredential.Issue) Holder {

	if err := h.Thread.CheckMessageOrder(h.Connection.Peer(), issue.Thread()); err != nil {
		glog.Errorln("credential:", err)
		return h.fail(b, common.InvalidCredential, err.Error())
	}
	h.Thread.UpdateReceivedOrder(h.Connection.Peer())

	id, cred, err := h.storeCredential(issue, store, ledger)
	if err != nil {
		glog.Errorln("credential:", err)
		return h.fail(b, common.InvalidCredential, err.Error())
	}
	h.CredentialID = id
	h.Credential = cred
	h.Status = common.Success()
	h.Phase = Finished
	glog.V(1).Infoln("credential stored:", id)

	if issue.PleaseAck != nil {
		th := h.nextThread()
		if err := h.Connection.Send(b, issuecredential.NewAck(th.Copy())); err != nil {
			glog.Warningln("cannot send credential ack:", err)
		}
		h.Thread = th
	}
	return h
}

func (h Holder) storeCredential(issue *issuecredential.Issue, store ssi.CredentialStore,
	ledger ssi.Ledger) (id, cred string, err error) {

	defer err2.Handle(&err)

	try.To(issue.EnsureMatchOffer(h.Offer))
	data := try.To1(issue.Credential())
	c := try.To1(issuecredential.ParseCredential(data))
	revRegDef := ""
	if c.RevRegID != "" {
		revRegDef = try.To1(ledger.ResolveRevRegDef(c.RevRegID))
	}
	id = try.To1(store.StoreCredential(h.ReqMeta, string(data), h.CredDef, revRegDef))
	return id, string(data), nil
}

// State returns the protocol state.
func (h Holder) State() State {
	return h.Phase
}

func (h Holder) ThreadID() string {
	if h.Thread == nil {
		return ""
	}
	return h.Thread.ID
}

// GetCredentialOffer returns the offer the protocol started with.
func (h Holder) GetCredentialOffer() *issuecredential.Offer {
	return h.Offer
}

// GetCredential returns the wallet ID and the JSON of the stored credential.
func (h Holder) GetCredential() (id, cred string, err error) {
	if h.CredentialID == "" {
		return "", "", fmt.Errorf("get credential: %w in %s", ErrNoCredential, h.Phase)
	}
	return h.CredentialID, h.Credential, nil
}

// DeleteCredential removes the stored credential from the wallet.
func (h Holder) DeleteCredential(store ssi.CredentialStore) (err error) {
	defer err2.Handle(&err, "delete credential")

	if h.CredentialID == "" {
		return fmt.Errorf("%w in %s", ErrNoCredential, h.Phase)
	}
	return store.DeleteCredential(h.CredentialID)
}

// CredentialStatus returns the outcome of the finished protocol.
func (h Holder) CredentialStatus() common.StatusCode {
	return h.Status.Code
}

// GetProblemReport returns the problem report which ended the protocol.
func (h Holder) GetProblemReport() *common.ProblemReport {
	return h.Status.ProblemReport
}

// nextThread returns a copy of the thread for our next outbound message. The
// first message is sent with sender_order 0.
func (h Holder) nextThread() *decorator.Thread {
	th := h.Thread.Copy()
	if h.Phase != OfferReceived {
		th.IncrementSenderOrder()
	}
	return th
}

func (h Holder) fail(b *pairwise.Binder, code common.ProblemCode, comment string) Holder {
	th := h.nextThread()
	reject := issuecredential.NewReject(code, comment, th.Copy())
	if err := h.Connection.Send(b, reject); err != nil {
		glog.Warningln("cannot send problem report:", err)
	}
	h.Thread = th
	h.Status = common.Failed(&reject.ProblemReport)
	h.Phase = Finished
	return h
}

func (h Holder) onError(next *Holder, op string) func(error) error {
	return func(err error) error {
		*next = h
		return fmt.Errorf("%s: %w", op, err)
	}
}
