package ssi

import (
	"testing"

	"github.com/lainio/err2/assert"
)

func TestCandidates_Select(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	c := &Candidates{
		Attributes: map[string][]CredInfo{
			"attribute_0": {{Referent: "cred-1"}, {Referent: "cred-2"}},
			"attribute_1": {},
		},
		Predicates: map[string][]CredInfo{
			"predicate_0": {{Referent: "cred-3"}},
		},
	}
	rc := c.Select(map[string]string{
		"attribute_0": "ignored",
		"attribute_1": "self",
	})
	assert.Equal("cred-1", rc.RequestedAttributes["attribute_0"].CredID)
	assert.That(rc.RequestedAttributes["attribute_0"].Revealed)
	assert.Equal("self", rc.SelfAttestedAttributes["attribute_1"])
	_, ok := rc.SelfAttestedAttributes["attribute_0"]
	assert.ThatNot(ok)
	assert.Equal("cred-3", rc.RequestedPredicates["predicate_0"].CredID)

	assert.SLen(rc.Missing([]string{"attribute_0", "attribute_1"}, []string{"predicate_0"}), 0)
	assert.DeepEqual([]string{"attribute_2", "predicate_1"},
		rc.Missing([]string{"attribute_0", "attribute_2"}, []string{"predicate_1"}))
	assert.DeepEqual([]string{"cred-1", "cred-3"}, rc.CredIDs())
}

func TestCandidates_SelectEmpty(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	rc := (&Candidates{}).Select(nil)
	assert.MLen(rc.RequestedAttributes, 0)
	assert.MLen(rc.RequestedPredicates, 0)
	assert.MLen(rc.SelfAttestedAttributes, 0)
	assert.SLen(rc.CredIDs(), 0)
}
