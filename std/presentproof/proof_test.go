package presentproof

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const credDefID = "NcYxiDXkpYi6ov5FcYDi1e:3:CL:NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0:TAG1"

var proofJSON = `{
  "proof": {"proofs": [], "aggregated_proof": {}},
  "requested_proof": {
    "revealed_attrs": {
      "attribute_0": {"sub_proof_index": 0, "raw": "Alex", "encoded": "1139481716457488690172217916278103335"}
    },
    "self_attested_attrs": {"attribute_1": "blue"},
    "unrevealed_attrs": {},
    "predicates": {"predicate_0": {"sub_proof_index": 0}}
  },
  "identifiers": [
    {"schema_id": "NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0", "cred_def_id": "` + credDefID + `"},
    {"schema_id": "NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0", "cred_def_id": "` + credDefID + `"}
  ]
}`

func TestPreview_ProofRequest(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	preview := NewPreview([]Attribute{
		{Name: "name", CredDefID: credDefID},
		{Name: "color"},
	}, []Predicate{
		{Name: "age", CredDefID: credDefID, Predicate: ">=", Threshold: 18},
	})

	pr := preview.ProofRequest("proof")
	assert.Equal(pr.Name, "proof")
	assert.NotEmpty(pr.Nonce)
	assert.MLen(pr.RequestedAttributes, 2)
	assert.MLen(pr.RequestedPredicates, 1)

	name := pr.RequestedAttributes["attribute_0"]
	assert.Equal(name.Name, "name")
	assert.DeepEqual(name.Restrictions, []Filter{{CredDefID: credDefID}})

	color := pr.RequestedAttributes["attribute_1"]
	assert.Equal(color.Name, "color")
	assert.SLen(color.Restrictions, 0)

	age := pr.RequestedPredicates["predicate_0"]
	assert.Equal(age.PType, ">=")
	assert.Equal(age.PValue, int64(18))
	assert.DeepEqual(age.Restrictions, []Filter{{CredDefID: credDefID}})

	// same preview gives the same request apart from the nonce
	pr2 := preview.ProofRequest("proof")
	assert.DeepEqual(pr2.RequestedAttributes, pr.RequestedAttributes)
	assert.DeepEqual(pr2.RequestedPredicates, pr.RequestedPredicates)
}

func TestRequest_ProofReq(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	pr := NewPreview([]Attribute{{Name: "email"}}, nil).ProofRequest("email")
	req := NewRequest("", try.To1(json.Marshal(pr)), nil)
	assert.Equal(req.Thread().ID, req.ID())

	got := try.To1(req.ProofReq())
	assert.DeepEqual(got, pr)
}

func TestProof_RevealedAttributes(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	pr := NewPreview([]Attribute{
		{Name: "name", CredDefID: credDefID},
		{Name: "color"},
	}, nil).ProofRequest("proof")

	presentation := NewPresentation([]byte(proofJSON), &decorator.Thread{ID: "thread"})
	proof := try.To1(ParseProof(try.To1(presentation.ProofData())))

	attrs := proof.RevealedAttributes(pr)
	assert.SLen(attrs, 2)
	for _, attr := range attrs {
		switch attr.Referent {
		case "attribute_0":
			assert.Equal(attr.Name, "name")
			assert.Equal(attr.Value, "Alex")
			assert.Equal(attr.CredDefID, credDefID)
		case "attribute_1":
			assert.Equal(attr.Name, "color")
			assert.Equal(attr.Value, "blue")
		default:
			t.Fatalf("unexpected referent %s", attr.Referent)
		}
	}
	assert.SLen(proof.CredDefIDs(), 1)
	assert.SLen(proof.SchemaIDs(), 1)
}

func TestProof_EnsureNonRevoked(t *testing.T) {
	u := func(v uint64) *uint64 { return &v }
	s := func(v string) *string { return &v }
	interval := &NonRevokedInterval{From: u(100), To: u(200)}

	tests := []struct {
		name     string
		request  *ProofRequest
		id       Identifier
		mismatch bool
	}{
		{"no interval asked", &ProofRequest{},
			Identifier{RevRegID: s("rev")}, false},
		{"not revocable", &ProofRequest{NonRevoked: interval},
			Identifier{}, false},
		{"in interval", &ProofRequest{NonRevoked: interval},
			Identifier{RevRegID: s("rev"), Timestamp: u(150)}, false},
		{"no timestamp", &ProofRequest{NonRevoked: interval},
			Identifier{RevRegID: s("rev")}, true},
		{"too late", &ProofRequest{NonRevoked: interval},
			Identifier{RevRegID: s("rev"), Timestamp: u(201)}, true},
		{"too early", &ProofRequest{NonRevoked: interval},
			Identifier{RevRegID: s("rev"), Timestamp: u(99)}, true},
		{"attribute interval needs timestamp", &ProofRequest{
			RequestedAttributes: map[string]AttrInfo{
				"attribute_0": {Name: "name", NonRevoked: &NonRevokedInterval{To: u(200)}},
			}},
			Identifier{RevRegID: s("rev")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			proof := &Proof{
				RequestedProof: RequestedProof{RevealedAttrs: map[string]RevealedAttr{
					"attribute_0": {SubProofIndex: 0},
				}},
				Identifiers: []Identifier{tt.id},
			}
			err := proof.EnsureNonRevoked(tt.request)
			if tt.mismatch {
				assert.That(errors.Is(err, ErrNonRevocation))
			} else {
				assert.NoError(err)
			}
		})
	}
}

func TestProof_EnsureNonRevokedByReferent(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	u := func(v uint64) *uint64 { return &v }
	rev := "rev"
	pr := &ProofRequest{
		RequestedAttributes: map[string]AttrInfo{
			"attribute_0": {Name: "name", NonRevoked: &NonRevokedInterval{From: u(300), To: u(400)}},
			"attribute_1": {Name: "color"},
		},
		RequestedPredicates: map[string]PredicateInfo{
			"predicate_0": {Name: "age", PType: ">=", PValue: 18,
				NonRevoked: &NonRevokedInterval{To: u(50)}},
		},
		NonRevoked: &NonRevokedInterval{From: u(100), To: u(200)},
	}
	var rp RequestedProof
	try.To(json.Unmarshal([]byte(`{
		"revealed_attrs": {"attribute_0": {"sub_proof_index": 0, "raw": "Alex", "encoded": "1"}},
		"unrevealed_attrs": {"attribute_1": {"sub_proof_index": 1}},
		"predicates": {"predicate_0": {"sub_proof_index": 2}}
	}`), &rp))
	proof := &Proof{
		RequestedProof: rp,
		Identifiers: []Identifier{
			{CredDefID: "attr", RevRegID: &rev, Timestamp: u(350)},
			{CredDefID: "request", RevRegID: &rev, Timestamp: u(150)},
			{CredDefID: "predicate", RevRegID: &rev, Timestamp: u(40)},
		},
	}
	// each credential meets the interval of its own referent only
	assert.NoError(proof.EnsureNonRevoked(pr))

	proof.Identifiers[0].Timestamp = u(150)
	assert.That(errors.Is(proof.EnsureNonRevoked(pr), ErrNonRevocation))

	proof.Identifiers[0].Timestamp = u(350)
	proof.Identifiers[2].Timestamp = u(150)
	assert.That(errors.Is(proof.EnsureNonRevoked(pr), ErrNonRevocation))

	proof.Identifiers[2].Timestamp = u(40)
	proof.Identifiers[1].Timestamp = u(350)
	assert.That(errors.Is(proof.EnsureNonRevoked(pr), ErrNonRevocation))
}
