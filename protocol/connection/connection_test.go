package connection

import (
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-didcomm/agent/agency"
	"github.com/findy-network/findy-didcomm/agent/aries"
	"github.com/findy-network/findy-didcomm/agent/comm"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/sec"
	"github.com/findy-network/findy-didcomm/agent/storage/api"
	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/findy-network/findy-didcomm/std/basicmessage"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/didexchange"
	"github.com/findy-network/findy-didcomm/std/outofband"
	"github.com/findy-network/findy-didcomm/std/questionanswer"
	"github.com/findy-network/findy-didcomm/std/sov/did"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

func TestMain(m *testing.M) {
	try.To(flag.Set("logtostderr", "true"))
	try.To(flag.Set("stderrthreshold", "WARNING"))
	try.To(flag.Set("v", "3"))
	flag.Parse()

	os.Exit(m.Run())
}

func newStorage(t *testing.T) *mgddb.Storage {
	dir := t.TempDir()
	s := try.To1(mgddb.New(api.AgentStorageConfig{
		AgentKey: mgddb.GenerateKey(),
		AgentID:  filepath.Base(dir),
		FilePath: dir,
	}))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newBinders returns two wallets served by the same in-process agency.
func newBinders(t *testing.T) (*agency.Agency, *pairwise.Binder, *pairwise.Binder) {
	a := try.To1(agency.New(newStorage(t), "http://localhost:8090", ""))
	alice := pairwise.NewBinder(a, try.To1(sec.New(newStorage(t), "")), a)
	alice.Wait = true
	bob := pairwise.NewBinder(a, try.To1(sec.New(newStorage(t), "")), a)
	bob.Wait = true
	return a, alice, bob
}

// stored returns the machine as it is after the host has persisted it.
func stored(c Connection) Connection {
	var res Connection
	try.To(json.Unmarshal(dto.ToJSONBytes(c), &res))
	return res
}

// connect runs the whole protocol and returns the completed machines.
func connect(t *testing.T, alice, bob *pairwise.Binder) (inviter, invitee Connection) {
	inviter = try.To1(CreateInviter("alice").Connect(alice))
	assert.Equal(Invited, inviter.State)
	assert.NotNil(inviter.Invitation)

	invitee = try.To1(CreateWithInvite("bob", stored(inviter).Invitation))
	invitee = try.To1(stored(invitee).Connect(bob))
	assert.Equal(Requested, invitee.State)

	inviter = try.To1(stored(inviter).UpdateState(alice, nil))
	assert.Equal(Responded, inviter.State)
	assert.NotNil(inviter.PrevAgent)

	invitee = try.To1(stored(invitee).UpdateState(bob, nil))
	assert.Equal(Completed, invitee.State)

	inviter = try.To1(stored(inviter).UpdateState(alice, nil))
	assert.Equal(Completed, inviter.State)
	return stored(inviter), stored(invitee)
}

func TestConnection_Connect(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	_, alice, bob := newBinders(t)

	inviter, invitee := connect(t, alice, bob)

	ic := try.To1(inviter.GetCompletedConnection())
	ec := try.To1(invitee.GetCompletedConnection())
	assert.Equal(invitee.Agent.PwDID, ic.DIDDoc.ID)
	assert.Equal(inviter.Agent.PwDID, ec.DIDDoc.ID)
	assert.Equal(ic.Thread.ID, ec.Thread.ID)

	// request 0 and ack 1 from the invitee, response 0 from the inviter
	assert.Equal(uint64(1), ec.Thread.SenderOrder)
	assert.Equal(uint64(0), ic.Thread.SenderOrder)
	assert.Equal(uint64(1), ic.Thread.ReceivedOrders[invitee.Agent.PwDID])
	assert.Equal(uint64(0), ec.Thread.ReceivedOrders[inviter.Agent.PwDID])

	// nothing left to handle
	again := try.To1(inviter.UpdateState(alice, nil))
	assert.DeepEqual(inviter, again)
	again = try.To1(invitee.UpdateState(bob, nil))
	assert.DeepEqual(invitee, again)

	_, err := inviter.Connect(alice)
	assert.That(errors.Is(err, ErrState))
}

func TestConnection_PingAndDiscover(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	_, alice, bob := newBinders(t)
	inviter, invitee := connect(t, alice, bob)

	invitee = try.To1(invitee.SendPing(bob, "are you there"))
	assert.NoError(invitee.SendDiscoveryFeatures(bob, "", "all"))

	// ping and query are answered one by one
	inviter = try.To1(inviter.UpdateState(alice, nil))
	inviter = try.To1(inviter.UpdateState(alice, nil))
	assert.Equal(Completed, inviter.State)

	invitee = try.To1(invitee.UpdateState(bob, nil))
	invitee = try.To1(invitee.UpdateState(bob, nil))
	assert.Equal(Completed, invitee.State)
	assert.SNotEmpty(invitee.TheirProtocols)

	info := try.To1(invitee.GetConnectionInfo())
	assert.Equal(invitee.Agent.PwDID, info.My.DID)
	assert.NotNil(info.Their)
	assert.Equal(inviter.Agent.PwDID, info.Their.DID)
	assert.DeepEqual(invitee.TheirProtocols, info.Their.Protocols)
	assert.Equal("http://localhost:8090/didcomm", info.Their.ServiceEndpoint)
}

func TestConnection_SendMessages(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	_, alice, bob := newBinders(t)
	inviter, invitee := connect(t, alice, bob)

	assert.NoError(inviter.SendGenericMessage(alice, "plain text"))
	assert.NoError(inviter.SendGenericMessage(alice,
		`{"@type":"https://example.org/custom/1.0/hello","@id":"42","x":1}`))

	agent := bob.Agent(*invitee.Agent)
	msgs := try.To1(agent.GetMessages())
	assert.SLen(msgs, 2)
	bm, ok := msgs[0].Msg.(*basicmessage.Basicmessage)
	assert.That(ok)
	assert.Equal("plain text", bm.Content)
	g, ok := msgs[1].Msg.(*aries.Generic)
	assert.That(ok)
	assert.Equal("42", g.ID())

	q := &questionanswer.Question{
		QuestionText:      "ok?",
		Nonce:             "123",
		SignatureRequired: true,
		ValidResponses:    []questionanswer.Response{{Text: "yes"}, {Text: "no"}},
	}
	assert.NoError(invitee.SendAnswer(bob, q, questionanswer.Response{Text: "yes"}))
	err := invitee.SendAnswer(bob, q, questionanswer.Response{Text: "maybe"})
	assert.That(errors.Is(err, questionanswer.ErrInvalidResponse))

	msgs = try.To1(alice.Agent(*inviter.Agent).GetMessages())
	assert.SLen(msgs, 1)
	answer, ok := msgs[0].Msg.(*questionanswer.Answer)
	assert.That(ok)
	assert.NoError(answer.Verify(invitee.Agent.PwVerKey, alice.Envelope))
}

func TestConnection_Outofband(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	_, alice, bob := newBinders(t)

	inviter := try.To1(CreateOutofbandInviter("alice", OutofbandMeta{
		Goal:      "connect",
		Handshake: true,
	}).Connect(alice))
	inv := inviter.OOBInvitation
	assert.NotNil(inv)
	assert.NoError(inv.Validate())
	details := try.To1(inviter.GetInviteDetails())
	parsed, ok := try.To1(aries.Decode(details)).(*outofband.Invitation)
	assert.That(ok)
	assert.Equal(inv.ID(), parsed.ID())

	invitee := try.To1(CreateWithOutofbandInvite("bob", parsed))
	invitee = try.To1(invitee.Connect(bob))
	inviter = try.To1(inviter.UpdateState(alice, nil))
	assert.Equal(Responded, inviter.State)
	assert.Equal(inv.ID(), inviter.Thread.PID)
	invitee = try.To1(invitee.UpdateState(bob, nil))
	inviter = try.To1(inviter.UpdateState(alice, nil))
	assert.Equal(Completed, invitee.State)
	assert.Equal(Completed, inviter.State)

	// the invitee reuses the connection for the same invitation
	assert.NoError(invitee.SendReuse(bob, inv))
	inviter = try.To1(inviter.UpdateState(alice, nil))
	msgs := try.To1(bob.Agent(*invitee.Agent).GetMessages())
	assert.SLen(msgs, 1)
	accepted, ok := msgs[0].Msg.(*outofband.HandshakeReuseAccepted)
	assert.That(ok)
	assert.Equal(inv.ID(), accepted.Thread().PID)
}

func TestConnection_OutofbandInvalid(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no calls are expected
	b := pairwise.NewBinder(nil, nil, comm.NewMockTransport(ctrl))

	noService := &outofband.Invitation{HandshakeProtocols: []string{"https://didcomm.org/connections/1.0"}}
	_, err := CreateWithOutofbandInvite("bob", noService)
	assert.That(errors.Is(err, outofband.ErrInvalidInvitation))

	service := did.Service{
		RecipientKeys:   []string{"8HH5gYEeNc3z7PYXmd54d4x6qAfCNrqQqEB3nS7Zfu7K"},
		ServiceEndpoint: "http://localhost:8090/didcomm",
	}
	unsupported := outofband.NewInvitation("x", service, nil)
	unsupported.HandshakeProtocols = []string{"https://didcomm.org/didexchange/1.0"}
	_, err = CreateWithOutofbandInvite("bob", unsupported)
	assert.That(errors.Is(err, outofband.ErrInvalidInvitation))

	// request attachment without handshake is valid but cannot connect
	attachOnly := outofband.NewInvitation("x", service, decorator.NewAttachment(
		pltype.OutOfBandRequestID, []byte(`{"@id":"1"}`)))
	c := try.To1(CreateWithOutofbandInvite("bob", attachOnly))
	next, err := c.Connect(b)
	assert.That(errors.Is(err, ErrNoHandshake))
	assert.DeepEqual(c, next)
}

func TestConnection_ResponseNotAccepted(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	_, alice, bob := newBinders(t)

	inviter := try.To1(CreateInviter("alice").Connect(alice))
	invitee := try.To1(CreateWithInvite("bob", inviter.Invitation))
	invitee = try.To1(invitee.Connect(bob))

	// response signed with some other key than the invitation's
	other := try.To1(sec.New(newStorage(t), ""))
	otherDID := try.To1(other.Storage().CreateDID())
	res := didexchange.NewResponse(&didexchange.Connection{
		DID:    otherDID.DID,
		DIDDoc: did.NewDoc(otherDID.DID, otherDID.VerKey, "http://localhost:8090/didcomm", nil),
	}, invitee.Thread.Copy(), true)
	assert.NoError(res.Sign(otherDID.VerKey, other))

	invitee = try.To1(invitee.UpdateState(bob, try.To1(aries.Encode(res))))
	assert.Equal(Failed, invitee.State)
	assert.Equal(didexchange.ResponseNotAccepted, invitee.GetProblemReport().ProblemCode)

	// the report goes to the invitation agent, the request is there too
	inviter = try.To1(inviter.HandleMessage(alice, invitee.GetProblemReport()))
	assert.Equal(Failed, inviter.State)

	// Failed is absorbing
	again := try.To1(invitee.UpdateState(bob, nil))
	assert.DeepEqual(invitee, again)
}

func TestConnection_SendBeforeCompleted(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	_, alice, bob := newBinders(t)

	inviter := try.To1(CreateInviter("alice").Connect(alice))
	invitee := try.To1(CreateWithInvite("bob", stored(inviter).Invitation))
	invitee = try.To1(stored(invitee).Connect(bob))
	assert.Equal(Requested, invitee.State)

	err := invitee.SendGenericMessage(bob, "too early")
	assert.That(errors.Is(err, ErrNotCompleted))
	err = invitee.SendMessage(bob, basicmessage.NewBasicmessage("too early", nil))
	assert.That(errors.Is(err, ErrNotCompleted))

	inviter = try.To1(stored(inviter).UpdateState(alice, nil))
	assert.Equal(Responded, inviter.State)
	err = inviter.SendGenericMessage(alice, "too early")
	assert.That(errors.Is(err, ErrNotCompleted))

	// nothing reached the pairwise mailbox of the inviter
	msgs := try.To1(alice.Agent(*inviter.Agent).GetMessages())
	assert.SLen(msgs, 0)
}

func TestConnection_RequestNotAccepted(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	_, alice, _ := newBinders(t)

	inviter := try.To1(CreateInviter("alice").Connect(alice))
	req := didexchange.NewRequest("bob", &didexchange.Connection{
		DID:    "did",
		DIDDoc: &did.Doc{ID: "did"},
	})
	inviter = try.To1(inviter.UpdateState(alice, try.To1(aries.Encode(req))))
	assert.Equal(Failed, inviter.State)
	assert.Equal(didexchange.RequestNotAccepted, inviter.GetProblemReport().ProblemCode)
	assert.Equal(req.ID(), inviter.GetProblemReport().Thread().ID)

	_, err := inviter.GetCompletedConnection()
	assert.That(errors.Is(err, ErrNotCompleted))
}

type failingAgency struct {
	agency.Client
}

func (failingAgency) Info() (agency.Info, error) {
	return agency.Info{}, agency.ErrAgency
}

func TestConnection_ConnectFailureKeepsState(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	_, alice, _ := newBinders(t)
	b := pairwise.NewBinder(failingAgency{}, alice.Envelope, alice.Transport)

	inviter := CreateInviter("alice")
	next, err := inviter.Connect(b)
	assert.That(errors.Is(err, agency.ErrAgency))
	assert.DeepEqual(inviter, next)

	_, err = inviter.GetConnectionInfo()
	assert.That(errors.Is(err, ErrState))
	assert.Equal("{}", string(try.To1(inviter.GetInviteDetails())))
}

func TestConnection_Delete(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	a, alice, bob := newBinders(t)
	inviter, _ := connect(t, alice, bob)

	assert.NoError(inviter.Delete(alice))
	_, err := a.Messages(inviter.Agent.PwVerKey, agency.StatusReceived)
	assert.Error(err)
	_, err = a.Messages(inviter.PrevAgent.PwVerKey, agency.StatusReceived)
	assert.Error(err)
}
