package issuer

import (
	"errors"
	"flag"
	"os"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/ssi/mock"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/protocol/prottest"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const (
	credDefID = "NcYxiDXkpYi6ov5FcYDi1e:3:CL:NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0:TAG1"
	credOffer = `{"schema_id":"NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0","cred_def_id":"` + credDefID + `"}`
)

var preview = issuecredential.NewPreviewCredential([]issuecredential.Attribute{
	{Name: "email", Value: "alex@example.com"},
})

func TestMain(m *testing.M) {
	try.To(flag.Set("logtostderr", "true"))
	try.To(flag.Set("stderrthreshold", "WARNING"))
	try.To(flag.Set("v", "3"))
	flag.Parse()

	os.Exit(m.Run())
}

type env struct {
	alice, bob         *pairwise.Binder
	aliceConn, bobConn connection.CompletedConnection
	iss                *mock.MockIssuer
}

func setup(t *testing.T) env {
	alice, bob := prottest.NewWallets(t)
	aliceConn, bobConn := prottest.Connect(alice.Binder, bob.Binder)
	return env{
		alice:     alice.Binder,
		bob:       bob.Binder,
		aliceConn: aliceConn,
		bobConn:   bobConn,
		iss:       mock.NewMockIssuer(gomock.NewController(t)),
	}
}

func (e env) offered() Issuer {
	e.iss.EXPECT().CreateCredentialOffer(credDefID).Return(credOffer, nil)
	i := try.To1(Create(e.aliceConn, credDefID, preview, "email").SendOffer(e.alice, e.iss))
	assert.Equal(OfferSent, i.State())
	return i
}

// bobReceived returns the messages bob has got and marks them read.
func (e env) bobReceived() []pairwise.Inbound {
	agent := e.bob.Agent(e.bobConn.Agent)
	msgs := try.To1(agent.GetMessages())
	for _, in := range msgs {
		try.To(agent.UpdateMessageStatus(in.UID))
	}
	return msgs
}

func (e env) request(i Issuer, order uint64) Issuer {
	req := issuecredential.NewRequest([]byte(`{"req":1}`),
		&decorator.Thread{ID: i.ThreadID(), SenderOrder: order})
	try.To(e.bobConn.Send(e.bob, req))
	return try.To1(i.UpdateState(e.alice, nil))
}

func TestIssuer_Issue(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	i := e.offered()
	msgs := e.bobReceived()
	assert.SLen(msgs, 1)
	offer, ok := msgs[0].Msg.(*issuecredential.Offer)
	assert.That(ok)
	assert.Equal(i.ThreadID(), offer.ID())
	assert.Equal(uint64(0), offer.Thread().SenderOrder)
	assert.DeepEqual(preview, offer.CredentialPreview)

	_, err := i.SendCredential(e.alice, e.iss)
	assert.That(errors.Is(err, ErrState))

	i = e.request(i, 0)
	assert.Equal(RequestReceived, i.State())

	e.iss.EXPECT().CreateCredential(credOffer, `{"req":1}`, preview.CodedValues()).Return(`{"cred":1}`, nil)
	i = try.To1(i.SendCredential(e.alice, e.iss))
	assert.Equal(CredentialSent, i.State())

	msgs = e.bobReceived()
	assert.SLen(msgs, 1)
	issue, ok := msgs[0].Msg.(*issuecredential.Issue)
	assert.That(ok)
	assert.NotNil(issue.PleaseAck)
	assert.Equal(uint64(1), issue.Thread().SenderOrder)
	assert.Equal(`{"cred":1}`, string(try.To1(issue.Credential())))

	try.To(e.bobConn.Send(e.bob, issuecredential.NewAck(
		&decorator.Thread{ID: i.ThreadID(), SenderOrder: 1})))
	i = try.To1(i.UpdateState(e.alice, nil))
	assert.Equal(Finished, i.State())
	assert.Equal(common.StatusSuccess, i.CredentialStatus())
	assert.Nil(i.GetProblemReport())
	assert.Equal(uint64(1), i.Thread.ReceivedOrders[e.aliceConn.Peer()])
}

func TestIssuer_Proposal(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	i := e.offered()
	e.bobReceived()

	prop := &issuecredential.Propose{
		Header:    didcomm.NewHeader(pltype.IssueCredentialPropose),
		CredDefID: credDefID,
	}
	prop.SetThread(&decorator.Thread{ID: i.ThreadID()})

	i = try.To1(i.HandleMessage(e.alice, prop))
	assert.Equal(Finished, i.State())
	assert.Equal(common.StatusFailed, i.CredentialStatus())
	assert.Equal(common.Unimplemented, i.GetProblemReport().Code())

	msgs := e.bobReceived()
	assert.SLen(msgs, 1)
	reject, ok := msgs[0].Msg.(*issuecredential.Reject)
	assert.That(ok)
	assert.Equal(common.Unimplemented, reject.Code())
}

func TestIssuer_ProblemReport(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	i := e.offered()
	reject := issuecredential.NewReject(common.CredentialRejected, "",
		&decorator.Thread{ID: i.ThreadID()})
	try.To(e.bobConn.Send(e.bob, reject))

	i = try.To1(i.UpdateState(e.alice, nil))
	assert.Equal(Finished, i.State())
	assert.Equal(common.StatusFailed, i.CredentialStatus())
	assert.Equal(common.CredentialRejected, i.GetProblemReport().Code())

	// terminal state absorbs the rest
	next := e.request(i, 0)
	assert.DeepEqual(i, next)
}

func TestIssuer_InvalidRequest(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	i := e.offered()
	e.bobReceived()
	i = e.request(i, 0)

	e.iss.EXPECT().CreateCredential(credOffer, `{"req":1}`, gomock.Any()).Return("", errors.New("bad request"))
	i = try.To1(i.SendCredential(e.alice, e.iss))
	assert.Equal(Finished, i.State())
	assert.Equal(common.InvalidCredentialRequest, i.GetProblemReport().Code())

	msgs := e.bobReceived()
	assert.SLen(msgs, 1)
	_, ok := msgs[0].Msg.(*issuecredential.Reject)
	assert.That(ok)
}

func TestIssuer_RequestOutOfOrder(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	i := e.offered()
	i = e.request(i, 3)
	assert.Equal(Finished, i.State())
	assert.Equal(common.InvalidCredentialRequest, i.GetProblemReport().Code())
}
