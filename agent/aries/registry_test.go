package aries

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/didexchange"
	"github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/findy-network/findy-didcomm/std/outofband"
	"github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/findy-network/findy-didcomm/std/trustping"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const sov = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec"

var roundTrips = []struct {
	name string
	typ  any
	json string
}{
	{"forward", &common.Forward{}, `{"@type":"` + sov + `/routing/1.0/forward","@id":"1",
		"to":"GJ1SzoWzavQYfNL9XkaJdrQejfztN4XqdsiV4ct3LXKL","msg":{"protected":"eyJ"}}`},
	{"connection invitation", &didexchange.Invitation{}, `{"@type":"` + sov + `/connections/1.0/invitation",
		"@id":"2","label":"Alice","recipientKeys":["8HH5gYEeNc3z7PYXmd54d4x6qAfCNrqQqEB3nS7Zfu7K"],
		"serviceEndpoint":"http://localhost:8080/"}`},
	{"connection request", &didexchange.Request{}, `{"@type":"` + sov + `/connections/1.0/request",
		"@id":"3","~thread":{"thid":"3","sender_order":0},"label":"Bob",
		"connection":{"DID":"did","DIDDoc":{"@context":"https://w3id.org/did/v1","id":"did",
		"service":[{"id":"did;indy","type":"IndyAgent","recipientKeys":["vk"],"serviceEndpoint":"http://x"}]}}}`},
	{"connection response", &didexchange.Response{}, `{"@type":"` + sov + `/connections/1.0/response",
		"@id":"4","~thread":{"thid":"3","sender_order":0},"connection~sig":{"@type":"` + sov +
		`/signature/1.0/ed25519Sha512_single","signature":"c2ln","sig_data":"ZGF0YQ==","signer":"vk"},
		"~please_ack":{}}`},
	{"connection problem report", &didexchange.ProblemReport{}, `{"@type":"` + sov +
		`/connections/1.0/problem_report","@id":"5","~thread":{"thid":"3","sender_order":1},
		"problem-code":"request_processing_error","explain":"bad did doc"}`},
	{"ack", &common.Ack{}, `{"@type":"` + sov + `/notification/1.0/ack","@id":"6",
		"~thread":{"thid":"3","sender_order":1,"received_orders":{"did":0}},"status":"OK"}`},
	{"problem report", &common.ProblemReport{}, `{"@type":"` + sov + `/report-problem/1.0/problem-report",
		"@id":"7","~thread":{"thid":"3","sender_order":0},"description":{"en":"text","code":"unimplemented"},
		"comment":"c","who_retries":"none","impact":"thread","noticed_time":"2020-01-01T00:00:00Z"}`},
	{"notification problem report", &common.ProblemReport{}, `{"@type":"` + sov + `/notification/1.0/problem-report",
		"@id":"7b","~thread":{"thid":"3","sender_order":1},"description":{"code":"invalid-presentation"}}`},
	{"ping", &trustping.Ping{}, `{"@type":"` + sov + `/trust_ping/1.0/ping","@id":"8",
		"~thread":{"thid":"3","sender_order":2},"response_requested":true}`},
	{"ping response", &trustping.PingResponse{}, `{"@type":"` + sov + `/trust_ping/1.0/ping_response",
		"@id":"9","~thread":{"thid":"8","sender_order":0}}`},
	{"credential offer", &issuecredential.Offer{}, `{"@type":"` + sov + `/issue-credential/1.0/offer-credential",
		"@id":"10","credential_preview":{"@type":"` + sov + `/issue-credential/1.0/credential-preview",
		"attributes":[{"name":"email","value":"a@b.c"}]},
		"offers~attach":[{"@id":"libindy-cred-offer-0","mime-type":"application/json","data":{"base64":"e30="}}]}`},
	{"credential ack", &issuecredential.Ack{}, `{"@type":"` + sov + `/issue-credential/1.0/ack",
		"@id":"11","~thread":{"thid":"10","sender_order":1},"status":"OK"}`},
	{"credential reject", &issuecredential.Reject{}, `{"@type":"` + sov +
		`/issue-credential/1.0/problem-report","@id":"12","~thread":{"thid":"10","sender_order":0},
		"description":{"en":"credential-offer was rejected.","code":"rejection"}}`},
	{"presentation", &presentproof.Presentation{}, `{"@type":"` + sov + `/present-proof/1.0/presentation",
		"@id":"13","~thread":{"thid":"14","sender_order":0},
		"presentations~attach":[{"@id":"libindy-presentation-0","mime-type":"application/json","data":{"base64":"e30="}}],
		"~please_ack":{}}`},
	{"presentation reject", &presentproof.Reject{}, `{"@type":"` + sov +
		`/present-proof/1.0/problem-report","@id":"15","~thread":{"thid":"14","sender_order":1},
		"description":{"code":"invalid-presentation"}}`},
	{"out-of-band invitation", &outofband.Invitation{}, `{"@type":"https://didcomm.org/out-of-band/1.0/invitation",
		"@id":"16","label":"Faber","handshake_protocols":["https://didcomm.org/connections/1.0"],
		"service":[{"id":"#inline","type":"did-communication","recipientKeys":["vk"],"serviceEndpoint":"http://x"}]}`},
}

func jsonEqual(t *testing.T, a, b []byte) {
	t.Helper()
	var am, bm map[string]any
	try.To(json.Unmarshal(a, &am))
	try.To(json.Unmarshal(b, &bm))
	if !reflect.DeepEqual(am, bm) {
		t.Errorf("JSON differs:\n%s\n%s", a, b)
	}
}

func TestDecodeEncode_RoundTrip(t *testing.T) {
	for _, tt := range roundTrips {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			msg := try.To1(Decode([]byte(tt.json)))
			assert.Equal(reflect.TypeOf(msg), reflect.TypeOf(tt.typ))

			data := try.To1(Encode(msg))
			jsonEqual(t, data, []byte(tt.json))
		})
	}
}

func TestDecode_Generic(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown family", `{"@type":"` + sov + `/unknown/1.0/message","@id":"1","content":"x"}`},
		{"unknown name", `{"@type":"` + sov + `/trust_ping/1.0/pong","@id":"2"}`},
		{"unparsable type", `{"@type":"not a type","@id":"3","a":[1,2]}`},
		{"no type", `{"@id":"4"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			msg := try.To1(Decode([]byte(tt.json)))
			g, ok := msg.(*Generic)
			assert.That(ok)
			assert.Equal(string(g.Raw), tt.json)

			data := try.To1(Encode(msg))
			assert.Equal(string(data), tt.json)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not JSON", `{"@type":`},
		{"array", `[1,2]`},
		{"known type bad body", `{"@type":"` + sov + `/trust_ping/1.0/ping","@id":"1","response_requested":"yes"}`},
		{"bad thread", `{"@type":"` + sov + `/notification/1.0/ack","@id":"1","~thread":{"sender_order":-1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			_, err := Decode([]byte(tt.json))
			assert.Error(err)
			assert.That(errors.Is(err, ErrInvalidMessage))
		})
	}
}

func TestDecode_VersionAndPrefix(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	msg := try.To1(Decode([]byte(`{"@type":"https://didcomm.org/trust_ping/1.0/ping","@id":"1"}`)))
	_, ok := msg.(*trustping.Ping)
	assert.That(ok)

	// the received prefix is kept
	data := try.To1(Encode(msg))
	var m map[string]any
	try.To(json.Unmarshal(data, &m))
	assert.Equal(m["@type"].(string), "https://didcomm.org/trust_ping/1.0/ping")
}

func TestEncode_SetsTag(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ack := &issuecredential.Ack{Ack: common.Ack{Status: common.AckOK}}
	ack.SetID("1")
	ack.SetThread(&decorator.Thread{ID: "thread"})

	data := try.To1(Encode(ack))
	msg := try.To1(Decode(data))
	assert.Equal(msg.Type(), pltype.IssueCredentialACK)
	_, ok := msg.(*issuecredential.Ack)
	assert.That(ok)
}

func TestEncode_Unknown(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	type unknown struct {
		common.Ack
	}
	_, err := Encode(&unknown{})
	assert.That(errors.Is(err, ErrUnknownMessage))
}

func TestNewGeneric(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	data := []byte(`{"@type":"` + sov + `/trust_ping/1.0/ping","@id":"1","response_requested":false}`)
	g := try.To1(NewGeneric(data))
	assert.Equal(g.ID(), "1")
	assert.Equal(string(try.To1(Encode(g))), string(data))
}
