package did

import (
	"bytes"
	"errors"
	"testing"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/lainio/err2/assert"
	"github.com/mr-tron/base58"
)

var (
	verkey        = base58.Encode(bytes.Repeat([]byte{1}, 32))
	routingVerkey = base58.Encode(bytes.Repeat([]byte{2}, 32))
)

func TestNewDoc(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	doc := NewDoc("VsKV7grR1BUE29mG2Fm2kX", verkey, "http://localhost:8090", []string{routingVerkey})
	assert.NoError(doc.Validate())
	assert.Equal(doc.Endpoint(), "http://localhost:8090")
	assert.DeepEqual(doc.RecipientKeys(), []string{verkey})
	assert.DeepEqual(doc.RoutingKeys(), []string{routingVerkey})
	assert.Equal(doc.PublicKey[0].ID, "did:sov:VsKV7grR1BUE29mG2Fm2kX#1")

	var doc2 Doc
	dto.FromJSON(dto.ToJSONBytes(doc), &doc2)
	assert.DeepEqual(&doc2, doc)
}

func TestDoc_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *Doc)
		ok     bool
	}{
		{"valid", func(d *Doc) {}, true},
		{"key reference", func(d *Doc) {
			d.Service[0].RecipientKeys = []string{d.PublicKey[0].ID}
		}, true},
		{"no id", func(d *Doc) { d.ID = "" }, false},
		{"no service", func(d *Doc) { d.Service = nil }, false},
		{"no endpoint", func(d *Doc) { d.Service[0].ServiceEndpoint = "" }, false},
		{"no recipient keys", func(d *Doc) { d.Service[0].RecipientKeys = nil }, false},
		{"bad verkey", func(d *Doc) { d.Service[0].RecipientKeys = []string{"0OIl"} }, false},
		{"short verkey", func(d *Doc) { d.Service[0].RoutingKeys = []string{"3yZe7d"} }, false},
		{"unknown reference", func(d *Doc) {
			d.Service[0].RecipientKeys = []string{"did:sov:other#1"}
		}, false},
		{"key type", func(d *Doc) { d.PublicKey[0].Type = "RsaVerificationKey2018" }, false},
		{"authentication", func(d *Doc) { d.Authentication[0].PublicKey = "#2" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			doc := NewDoc("VsKV7grR1BUE29mG2Fm2kX", verkey, "http://localhost:8090", nil)
			tt.modify(doc)
			err := doc.Validate()
			if tt.ok {
				assert.NoError(err)
				assert.DeepEqual(doc.RecipientKeys(), []string{verkey})
				return
			}
			assert.That(errors.Is(err, ErrInvalidDoc))
		})
	}

	var nilDoc *Doc
	assert.PushTester(t)
	defer assert.PopTester()
	assert.Error(nilDoc.Validate())
}
