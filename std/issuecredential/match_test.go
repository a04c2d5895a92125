package issuecredential

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const (
	schemaID  = "NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0"
	credDefID = "NcYxiDXkpYi6ov5FcYDi1e:3:CL:NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0:TAG1"

	credDefJSON = `{"ver":"1.0","id":"` + credDefID + `","schemaId":"1","type":"CL","tag":"TAG1",
"value":{"primary":{"n":"1","s":"2","r":{"age":"3","height":"4","master_secret":"5","name":"6","sex":"7"},"rctxt":"8","z":"9"}}}`
)

func newOffer(attrs ...Attribute) *Offer {
	credOffer := try.To1(json.Marshal(CredOffer{SchemaID: schemaID, CredDefID: credDefID}))
	return NewOffer("comment", NewPreviewCredential(attrs), credOffer)
}

func newIssue(c Credential) *Issue {
	return NewIssue(try.To1(json.Marshal(c)), &decorator.Thread{ID: "thread"})
}

func TestOffer_EnsureMatchCredentialDefinition(t *testing.T) {
	tests := []struct {
		name  string
		attrs []Attribute
		ok    bool
	}{
		{"subset", []Attribute{{Name: "name", Value: "Alex"}}, true},
		{"all", []Attribute{
			{Name: "name", Value: "Alex"},
			{Name: "height", Value: "175"},
			{Name: "sex", Value: "male"},
			{Name: "age", Value: "28"},
		}, true},
		{"case and spaces", []Attribute{
			{Name: "NAME", Value: "Alex"},
			{Name: "Hei ght", Value: "175"},
		}, true},
		{"extra", []Attribute{
			{Name: "name", Value: "Alex"},
			{Name: "additional", Value: "x"},
		}, false},
		{"master secret is not an attribute", []Attribute{
			{Name: "master_secret", Value: "x"},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			err := newOffer(tt.attrs...).EnsureMatchCredentialDefinition(credDefJSON)
			if tt.ok {
				assert.NoError(err)
			} else {
				assert.Error(err)
				assert.That(errors.Is(err, ErrCredDefMismatch))
			}
		})
	}
}

func TestOffer_EnsureMatchCredentialDefinition_InvalidJSON(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.Error(newOffer().EnsureMatchCredentialDefinition("{"))
}

func TestIssue_EnsureMatchOffer(t *testing.T) {
	offer := newOffer(Attribute{Name: "name", Value: "Alex"}, Attribute{Name: "age", Value: "28"})
	values := map[string]CredValue{
		"name": {Raw: "Alex", Encoded: "1139481716457488690172217916278103335"},
		"age":  {Raw: "28", Encoded: "28"},
	}
	tests := []struct {
		name string
		cred Credential
		ok   bool
	}{
		{"match", Credential{SchemaID: schemaID, CredDefID: credDefID, Values: values}, true},
		{"schema", Credential{SchemaID: "other", CredDefID: credDefID, Values: values}, false},
		{"cred def", Credential{SchemaID: schemaID, CredDefID: "other", Values: values}, false},
		{"value", Credential{SchemaID: schemaID, CredDefID: credDefID,
			Values: map[string]CredValue{
				"name": {Raw: "Alexander"},
				"age":  {Raw: "28"},
			}}, false},
		{"missing", Credential{SchemaID: schemaID, CredDefID: credDefID,
			Values: map[string]CredValue{"name": {Raw: "Alex"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			err := newIssue(tt.cred).EnsureMatchOffer(offer)
			if tt.ok {
				assert.NoError(err)
			} else {
				assert.That(errors.Is(err, ErrOfferMismatch))
			}
		})
	}
}

func TestNewReject(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	th := &decorator.Thread{ID: "thread"}
	r := NewReject(common.CredentialRejected, "no thanks", th)
	assert.Equal(r.Description.En, "credential-offer was rejected.")
	assert.Equal(r.Comment, "no thanks")
	assert.Equal(r.Thread().ID, "thread")

	data := try.To1(json.Marshal(r))
	var m map[string]any
	try.To(json.Unmarshal(data, &m))
	assert.Equal(m["@type"].(string), "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/issue-credential/1.0/problem-report")
}
