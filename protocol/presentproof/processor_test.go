package presentproof

import (
	"flag"
	"os"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/ssi"
	"github.com/findy-network/findy-didcomm/agent/ssi/mock"
	"github.com/findy-network/findy-didcomm/protocol/presentproof/prover"
	"github.com/findy-network/findy-didcomm/protocol/presentproof/verifier"
	"github.com/findy-network/findy-didcomm/protocol/prottest"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const (
	credDefID = "NcYxiDXkpYi6ov5FcYDi1e:3:CL:NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0:TAG1"
	proof     = `{"requested_proof":{"revealed_attrs":{` +
		`"attribute_0":{"sub_proof_index":0,"raw":"alex@example.com","encoded":"1"}}},` +
		`"identifiers":[{"schema_id":"NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0","cred_def_id":"` + credDefID + `"}]}`
)

var preview = presentproof.NewPreview([]presentproof.Attribute{
	{Name: "email", CredDefID: credDefID},
}, nil)

func TestMain(m *testing.M) {
	try.To(flag.Set("logtostderr", "true"))
	try.To(flag.Set("stderrthreshold", "WARNING"))
	try.To(flag.Set("v", "3"))
	flag.Parse()

	os.Exit(m.Run())
}

func candidates(found bool) *ssi.Candidates {
	c := &ssi.Candidates{
		Attributes: make(map[string][]ssi.CredInfo),
		Predicates: make(map[string][]ssi.CredInfo),
	}
	if found {
		c.Attributes["attribute_0"] = []ssi.CredInfo{{
			Referent:  "cred-1",
			Attrs:     map[string]string{"email": "alex@example.com"},
			CredDefID: credDefID,
		}}
	}
	return c
}

func TestProcessor_PresentProof(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	alice, bob := prottest.NewWallets(t)
	aliceConn, bobConn := prottest.Connect(alice.Binder, bob.Binder)

	ctrl := gomock.NewController(t)
	pv := mock.NewMockProofVerifier(ctrl)
	store := mock.NewMockCredentialStore(ctrl)

	verifiers := NewProcessor(alice.PSMStore(), nil, pv)
	provers := NewProcessor(bob.PSMStore(), store, nil)

	verifierID := try.To1(verifiers.Request(alice.Binder, aliceConn, "email", preview, ""))
	v := try.To1(verifiers.Verifiers.Get(verifierID))
	assert.Equal(verifier.RequestSent, v.State())

	ids := try.To1(provers.ReceiveRequests(bob.Binder, bobConn))
	assert.SLen(ids, 1)
	proverID := ids[0]

	store.EXPECT().CredentialsForProofRequest(gomock.Any()).Return(candidates(true), nil)
	store.EXPECT().BuildPresentation(gomock.Any(), candidates(true).Select(nil)).Return(proof, nil)
	p := try.To1(provers.Present(bob.Binder, proverID, nil))
	assert.Equal(prover.PresentationSent, p.State())

	pv.EXPECT().VerifyProof(gomock.Any(), proof).Return(true, nil)
	assert.NoError(verifiers.Update(alice.Binder))
	v = try.To1(verifiers.Verifiers.Get(verifierID))
	assert.Equal(verifier.Finished, v.State())
	attrs := try.To1(v.GetRevealedAttributes())
	assert.SLen(attrs, 1)
	assert.Equal("email", attrs[0].Name)
	assert.Equal("alex@example.com", attrs[0].Value)

	assert.NoError(provers.Update(bob.Binder))
	p = try.To1(provers.Provers.Get(proverID))
	assert.Equal(prover.Finished, p.State())
	assert.Equal(common.StatusSuccess, p.PresentationStatus())
}

func TestProcessor_MissingCredentials(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	alice, bob := prottest.NewWallets(t)
	aliceConn, bobConn := prottest.Connect(alice.Binder, bob.Binder)

	ctrl := gomock.NewController(t)
	store := mock.NewMockCredentialStore(ctrl)

	verifiers := NewProcessor(alice.PSMStore(), nil, mock.NewMockProofVerifier(ctrl))
	provers := NewProcessor(bob.PSMStore(), store, nil)

	verifierID := try.To1(verifiers.Request(alice.Binder, aliceConn, "email", preview, ""))
	proverID := try.To1(provers.ReceiveRequests(bob.Binder, bobConn))[0]

	store.EXPECT().CredentialsForProofRequest(gomock.Any()).Return(candidates(false), nil)
	p := try.To1(provers.Present(bob.Binder, proverID, nil))
	assert.Equal(prover.Finished, p.State())
	assert.Equal(common.StatusFailed, p.PresentationStatus())

	assert.NoError(verifiers.Update(alice.Binder))
	v := try.To1(verifiers.Verifiers.Get(verifierID))
	assert.Equal(verifier.Finished, v.State())
	assert.Equal(common.StatusFailed, v.PresentationStatus())
	assert.Equal(common.InvalidPresentationRequest, v.GetProblemReport().Code())
}

func TestProcessor_Decline(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	alice, bob := prottest.NewWallets(t)
	aliceConn, bobConn := prottest.Connect(alice.Binder, bob.Binder)

	verifiers := NewProcessor(alice.PSMStore(), nil, nil)
	provers := NewProcessor(bob.PSMStore(), nil, nil)

	verifierID := try.To1(verifiers.Request(alice.Binder, aliceConn, "email", preview, ""))
	proverID := try.To1(provers.ReceiveRequests(bob.Binder, bobConn))[0]

	p := try.To1(provers.Decline(bob.Binder, proverID, "no"))
	assert.Equal(common.StatusRejected, p.PresentationStatus())

	assert.NoError(verifiers.Update(alice.Binder))
	v := try.To1(verifiers.Verifiers.Get(verifierID))
	assert.Equal(common.StatusFailed, v.PresentationStatus())
	assert.Equal(common.PresentationRejected, v.GetProblemReport().Code())
}
