package prover

import (
	"encoding/json"
	"errors"
	"flag"
	"os"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/ssi"
	"github.com/findy-network/findy-didcomm/agent/ssi/mock"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/protocol/prottest"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const (
	credDefID = "NcYxiDXkpYi6ov5FcYDi1e:3:CL:NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0:TAG1"
	proof     = `{"proof":{}}`
)

var (
	preview = presentproof.NewPreview([]presentproof.Attribute{
		{Name: "name", CredDefID: credDefID},
		{Name: "color"},
	}, nil)
	proofReq = try.To1(json.Marshal(preview.ProofRequest("proof")))

	cred = ssi.CredInfo{
		Referent:  "cred-1",
		Attrs:     map[string]string{"name": "Alex"},
		CredDefID: credDefID,
	}
)

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
	store              *mock.MockCredentialStore
}

func setup(t *testing.T) env {
	alice, bob := prottest.NewWallets(t)
	aliceConn, bobConn := prottest.Connect(alice.Binder, bob.Binder)
	return env{
		alice:     alice.Binder,
		bob:       bob.Binder,
		aliceConn: aliceConn,
		bobConn:   bobConn,
		store:     mock.NewMockCredentialStore(gomock.NewController(t)),
	}
}

// requested sends the proof request from alice and returns bob's prover.
func (e env) requested() Prover {
	try.To(e.aliceConn.Send(e.alice, presentproof.NewRequest("please", proofReq, nil)))
	p, found := try.To2(ReceiveRequest(e.bob, e.bobConn))
	assert.That(found)
	assert.Equal(RequestReceived, p.State())
	return p
}

// aliceReceived returns the messages alice has got and marks them read.
func (e env) aliceReceived() []pairwise.Inbound {
	agent := e.alice.Agent(e.aliceConn.Agent)
	msgs := try.To1(agent.GetMessages())
	for _, in := range msgs {
		try.To(agent.UpdateMessageStatus(in.UID))
	}
	return msgs
}

func candidates(attrs ...string) *ssi.Candidates {
	c := &ssi.Candidates{
		Attributes: make(map[string][]ssi.CredInfo),
		Predicates: make(map[string][]ssi.CredInfo),
	}
	for _, ref := range attrs {
		c.Attributes[ref] = []ssi.CredInfo{cred}
	}
	return c
}

func TestProver_HappyPath(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	p := e.requested()
	pr := try.To1(p.GetProofRequest())
	assert.MLen(pr.RequestedAttributes, 2)

	e.store.EXPECT().CredentialsForProofRequest(string(proofReq)).
		Return(candidates("attribute_0", "attribute_1"), nil)
	c := try.To1(p.RetrieveCredentials(e.store))
	assert.MLen(c.Attributes, 2)

	creds := c.Select(nil)
	assert.SLen(creds.CredIDs(), 1)
	e.store.EXPECT().BuildPresentation(string(proofReq), creds).Return(proof, nil)
	p = try.To1(p.GeneratePresentation(e.store, creds, nil))
	assert.Equal(PresentationPrepared, p.State())

	p = try.To1(p.SendPresentation(e.bob))
	assert.Equal(PresentationSent, p.State())

	msgs := e.aliceReceived()
	assert.SLen(msgs, 1)
	pres, ok := msgs[0].Msg.(*presentproof.Presentation)
	assert.That(ok)
	assert.Equal(p.ThreadID(), pres.Thread().ID)
	assert.Equal(uint64(0), pres.Thread().SenderOrder)
	assert.NotNil(pres.PleaseAck)
	assert.Equal(proof, string(try.To1(pres.ProofData())))

	try.To(e.aliceConn.Send(e.alice, presentproof.NewAck(
		&decorator.Thread{ID: p.ThreadID(), SenderOrder: 1})))
	p = try.To1(p.UpdateState(e.bob, nil))
	assert.Equal(Finished, p.State())
	assert.Equal(common.StatusSuccess, p.PresentationStatus())

	_, err := p.SendPresentation(e.bob)
	assert.That(errors.Is(err, ErrState))
}

func TestProver_SelfAttested(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	p := e.requested()
	creds := candidates("attribute_0").Select(nil)

	want := candidates("attribute_0").Select(map[string]string{"attribute_1": "blue"})
	e.store.EXPECT().BuildPresentation(string(proofReq), want).Return(proof, nil)
	p = try.To1(p.GeneratePresentation(e.store, creds, map[string]string{"attribute_1": "blue"}))
	assert.Equal(PresentationPrepared, p.State())
}

func TestProver_PreparationFailed(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	p := e.requested()

	// BuildPresentation is not called for the missing credentials
	p = try.To1(p.GeneratePresentation(e.store, candidates("attribute_0").Select(nil), nil))
	assert.Equal(PresentationPreparationFailed, p.State())
	assert.NotEmpty(p.PreparationError)

	p = try.To1(p.SendPresentation(e.bob))
	assert.Equal(Finished, p.State())
	assert.Equal(common.StatusFailed, p.PresentationStatus())
	assert.Equal(common.InvalidPresentationRequest, p.GetProblemReport().Code())

	msgs := e.aliceReceived()
	assert.SLen(msgs, 1)
	reject, ok := msgs[0].Msg.(*presentproof.Reject)
	assert.That(ok)
	assert.Equal(common.InvalidPresentationRequest, reject.Code())
	assert.Equal(uint64(0), reject.Thread().SenderOrder)
}

func TestProver_BuildFails(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	p := e.requested()
	creds := candidates("attribute_0", "attribute_1").Select(nil)
	e.store.EXPECT().BuildPresentation(string(proofReq), creds).Return("", errors.New("wallet"))
	p = try.To1(p.GeneratePresentation(e.store, creds, nil))
	assert.Equal(PresentationPreparationFailed, p.State())
}

func TestProver_Decline(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	p := e.requested()
	p = try.To1(p.DeclinePresentationRequest(e.bob, "not now", nil))
	assert.Equal(Finished, p.State())
	assert.Equal(common.StatusRejected, p.PresentationStatus())

	msgs := e.aliceReceived()
	assert.SLen(msgs, 1)
	reject, ok := msgs[0].Msg.(*presentproof.Reject)
	assert.That(ok)
	assert.Equal(common.PresentationRejected, reject.Code())
	assert.Equal("not now", reject.Comment)

	_, err := p.DeclinePresentationRequest(e.bob, "again", nil)
	assert.That(errors.Is(err, ErrState))
}

func TestProver_DeclineWithProposal(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	p := e.requested()
	counter := presentproof.NewPreview([]presentproof.Attribute{{Name: "name"}}, nil)
	p = try.To1(p.DeclinePresentationRequest(e.bob, "only name", counter))
	assert.Equal(common.StatusRejected, p.PresentationStatus())

	msgs := e.aliceReceived()
	assert.SLen(msgs, 1)
	propose, ok := msgs[0].Msg.(*presentproof.Propose)
	assert.That(ok)
	assert.Equal(p.ThreadID(), propose.Thread().ID)
	assert.DeepEqual(counter, propose.PresentationProposal)
}

func TestProver_Proposal(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	p := CreateProposal(e.bobConn, "name", preview)
	assert.Equal(ProposalPrepared, p.State())
	p = try.To1(p.SendProposal(e.bob))
	assert.Equal(ProposalSent, p.State())

	msgs := e.aliceReceived()
	assert.SLen(msgs, 1)
	propose, ok := msgs[0].Msg.(*presentproof.Propose)
	assert.That(ok)
	assert.Equal(uint64(0), propose.Thread().SenderOrder)

	req := presentproof.NewRequest("", proofReq, &decorator.Thread{ID: p.ThreadID()})
	try.To(e.aliceConn.Send(e.alice, req))

	// the answer to the proposal isn't a new request
	_, found := try.To2(ReceiveRequest(e.bob, e.bobConn))
	assert.That(!found)

	p = try.To1(p.UpdateState(e.bob, nil))
	assert.Equal(RequestReceived, p.State())

	creds := candidates("attribute_0", "attribute_1").Select(nil)
	e.store.EXPECT().BuildPresentation(string(proofReq), creds).Return(proof, nil)
	p = try.To1(p.GeneratePresentation(e.store, creds, nil))
	p = try.To1(p.SendPresentation(e.bob))

	msgs = e.aliceReceived()
	assert.SLen(msgs, 1)
	pres, ok := msgs[0].Msg.(*presentproof.Presentation)
	assert.That(ok)
	assert.Equal(uint64(1), pres.Thread().SenderOrder)
}

func TestProver_ProblemReport(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	p := e.requested()
	creds := candidates("attribute_0", "attribute_1").Select(nil)
	e.store.EXPECT().BuildPresentation(string(proofReq), creds).Return(proof, nil)
	p = try.To1(p.GeneratePresentation(e.store, creds, nil))
	p = try.To1(p.SendPresentation(e.bob))

	reject := presentproof.NewReject(common.InvalidPresentation, "",
		&decorator.Thread{ID: p.ThreadID(), SenderOrder: 1})
	try.To(e.aliceConn.Send(e.alice, reject))
	p = try.To1(p.UpdateState(e.bob, nil))
	assert.Equal(Finished, p.State())
	assert.Equal(common.StatusFailed, p.PresentationStatus())
	assert.Equal(common.InvalidPresentation, p.GetProblemReport().Code())
}

func TestProver_InvalidRequest(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	e := setup(t)

	_, err := CreateWithRequest(e.bobConn, nil)
	assert.That(errors.Is(err, ErrRequest))

	_, err = CreateWithRequest(e.bobConn, presentproof.NewRequest("", []byte("{"), nil))
	assert.Error(err)
}
