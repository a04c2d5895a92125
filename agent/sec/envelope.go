/*
Package sec implements the DIDComm encryption envelope. Messages are packed
with the Aries RFC 0019 authcrypt, or anoncrypt when there is no sender key,
and wrapped to routing forwards for each routing key of the receiver's
service. The same keys sign and verify connection responses and answers.
*/
package sec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/findy-network/findy-didcomm/agent/aries"
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/sov/did"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/transport"
	"github.com/hyperledger/aries-framework-go/pkg/doc/util/jwkkid"
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

var (
	ErrNoRecipient = errors.New("no recipient keys")
	ErrUnpack      = errors.New("cannot open envelope")
)

// Envelope packs and opens messages with the keys of one storage.
type Envelope struct {
	storage   *mgddb.Storage
	packager  *mgddb.Packager
	vdr       *vdr.VDR
	mediaType string
}

// New creates the envelope for the storage. Empty media type profile means
// DIDComm AIP1.
func New(storage *mgddb.Storage, mediaType string) (e *Envelope, err error) {
	defer err2.Handle(&err, "new envelope")

	if mediaType == "" {
		mediaType = transport.MediaTypeProfileDIDCommAIP1
	}
	v := try.To1(vdr.New(storage))
	return &Envelope{
		storage:   storage,
		packager:  try.To1(mgddb.NewPackager(storage, v.Registry())),
		vdr:       v,
		mediaType: mediaType,
	}, nil
}

// Storage returns the key storage of the envelope.
func (e *Envelope) Storage() *mgddb.Storage {
	return e.storage
}

// Create encodes the message and packs it to the receiver's DIDDoc.
// An empty sender key packs it anonymously.
func (e *Envelope) Create(msg didcomm.MessageHdr, senderKey string, doc *did.Doc) (data []byte, err error) {
	defer err2.Handle(&err, "create envelope")

	if len(doc.Service) == 0 {
		return nil, ErrNoRecipient
	}
	svc := doc.Service[0]
	recipients := try.To1(e.verkeys(doc, svc.RecipientKeys))
	routingKeys := try.To1(e.verkeys(doc, svc.RoutingKeys))
	if len(recipients) == 0 {
		return nil, ErrNoRecipient
	}
	payload := try.To1(aries.Encode(msg))
	if glog.V(5) {
		glog.Infof("packing %s to %v via %v", msg.Type(), recipients, routingKeys)
	}
	return e.Wrap(payload, senderKey, recipients, routingKeys)
}

// Wrap packs the payload to the recipients and then to a forward message
// for each routing key in order.
func (e *Envelope) Wrap(payload []byte, senderKey string, recipients, routingKeys []string) (data []byte, err error) {
	defer err2.Handle(&err, "wrap")

	data = try.To1(e.Pack(payload, senderKey, recipients))
	to := recipients[0]
	for _, rk := range routingKeys {
		fwd := try.To1(aries.Encode(common.NewForward(to, data)))
		data = try.To1(e.Pack(fwd, "", []string{rk}))
		to = rk
	}
	return data, nil
}

// Pack packs one hop. The keys are base58 verkeys.
func (e *Envelope) Pack(payload []byte, senderKey string, recipients []string) (data []byte, err error) {
	defer err2.Handle(&err, "pack")

	if len(recipients) == 0 {
		return nil, ErrNoRecipient
	}
	if senderKey == "" {
		raw := make([][]byte, 0, len(recipients))
		for _, r := range recipients {
			raw = append(raw, try.To1(base58.Decode(r)))
		}
		return e.packager.PackAnonymous(payload, raw)
	}

	toKeys := make([]string, 0, len(recipients))
	for _, r := range recipients {
		toKeys = append(toKeys, try.To1(vdr.DIDKey(r)))
	}
	return e.packager.PackMessage(&transport.Envelope{
		MediaTypeProfile: e.mediaType,
		Message:          payload,
		FromKey:          []byte(try.To1(vdr.DIDKey(senderKey))),
		ToKeys:           toKeys,
	})
}

// Unpack opens one layer of the envelope. Plain JSON messages are returned
// as is, they come from local agents which have already decrypted them.
func (e *Envelope) Unpack(data []byte) (payload []byte, err error) {
	defer err2.Handle(&err, "unpack")

	if isPlain(data) {
		return data, nil
	}
	env, authErr := e.packager.UnpackMessage(data)
	if authErr == nil {
		return env.Message, nil
	}
	env, anonErr := e.packager.UnpackAnonymous(data)
	if anonErr != nil {
		glog.V(3).Infoln("authcrypt:", authErr, "anoncrypt:", anonErr)
		return nil, fmt.Errorf("%w: %v", ErrUnpack, authErr)
	}
	return env.Message, nil
}

// Open unpacks and decodes the message. Unknown message types are returned
// as aries.Generic.
func (e *Envelope) Open(data []byte) (msg didcomm.MessageHdr, err error) {
	defer err2.Handle(&err, "open envelope")

	return aries.Decode(try.To1(e.Unpack(data)))
}

// Sign signs the data with the private key of our verkey.
func (e *Envelope) Sign(verkey string, data []byte) (sig []byte, err error) {
	defer err2.Handle(&err, "sign")

	kid := try.To1(jwkkid.CreateKID(try.To1(base58.Decode(verkey)), kms.ED25519Type))
	kh := try.To1(e.storage.KMS().Get(kid))
	return e.storage.Crypto().Sign(data, kh)
}

// Verify verifies the signature with the public key of the verkey.
func (e *Envelope) Verify(verkey string, data, signature []byte) (err error) {
	defer err2.Handle(&err, "verify")

	vk := try.To1(e.vdr.ResolveVerKey(verkey))
	kh := try.To1(e.storage.KMS().PubKeyBytesToHandle(try.To1(base58.Decode(vk)), kms.ED25519Type))
	return e.storage.Crypto().Verify(signature, data, kh)
}

// RecipientKeys returns the resolved recipient verkeys of the doc's first
// service.
func (e *Envelope) RecipientKeys(doc *did.Doc) (keys []string, err error) {
	defer err2.Handle(&err, "recipient keys")

	if doc == nil || len(doc.Service) == 0 {
		return nil, ErrNoRecipient
	}
	keys = try.To1(e.verkeys(doc, doc.Service[0].RecipientKeys))
	if len(keys) == 0 {
		return nil, ErrNoRecipient
	}
	return keys, nil
}

// verkeys resolves the DIDDoc keys which can be plain verkeys, references
// to the public key section or did:keys.
func (e *Envelope) verkeys(doc *did.Doc, keys []string) (res []string, err error) {
	defer err2.Handle(&err, "resolve keys")

	res = make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, "did:") {
			res = append(res, try.To1(e.vdr.ResolveVerKey(k)))
			continue
		}
		res = append(res, try.To1(doc.ResolveKey(k)))
	}
	return res, nil
}

func isPlain(data []byte) bool {
	var hdr struct {
		Type string `json:"@type"`
	}
	return json.Unmarshal(data, &hdr) == nil && hdr.Type != ""
}
