package mgddb

import (
	cryptoapi "github.com/hyperledger/aries-framework-go/pkg/crypto"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/packager"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/packer/anoncrypt"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/packer/authcrypt"
	legacyanon "github.com/hyperledger/aries-framework-go/pkg/didcomm/packer/legacy/anoncrypt"
	legacy "github.com/hyperledger/aries-framework-go/pkg/didcomm/packer/legacy/authcrypt"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/transport"
	"github.com/hyperledger/aries-framework-go/pkg/doc/jose"
	"github.com/hyperledger/aries-framework-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Packager packs and unpacks the DIDComm envelopes with the keys of the
// storage. The legacy authcrypt is the primary packer which gives the Aries
// RFC 0019 envelopes. The legacy anoncrypt is kept outside the afgo packager
// because it shares the encoding type with the authcrypt.
type Packager struct {
	packager *packager.Packager
	storage  *Storage
	registry vdr.Registry
	packers  []packer.Packer
	anon     *legacyanon.Packer
}

// NewPackager builds the packers on the keys of the storage. The registry
// resolves the DID keys of the afgo envelopes.
func NewPackager(s *Storage, registry vdr.Registry) (p *Packager, err error) {
	defer err2.Handle(&err, "new packager")

	p = &Packager{storage: s, registry: registry}
	p.anon = legacyanon.New(p)
	p.packers = []packer.Packer{
		legacy.New(p),
		try.To1(authcrypt.New(p, jose.A256CBCHS512)),
		try.To1(anoncrypt.New(p, jose.A256GCM)),
	}
	p.packager = try.To1(packager.New(p))
	return p, nil
}

func (p *Packager) PackMessage(messageEnvelope *transport.Envelope) ([]byte, error) {
	return p.packager.PackMessage(messageEnvelope)
}

func (p *Packager) UnpackMessage(encMessage []byte) (*transport.Envelope, error) {
	return p.packager.UnpackMessage(encMessage)
}

// PackAnonymous packs the payload without a sender key. The recipient keys
// are raw ed25519 public keys.
func (p *Packager) PackAnonymous(payload []byte, recipients [][]byte) ([]byte, error) {
	return p.anon.Pack(transport.MediaTypeRFC0019EncryptedEnvelope, payload, nil, recipients)
}

func (p *Packager) UnpackAnonymous(encMessage []byte) (*transport.Envelope, error) {
	return p.anon.Unpack(encMessage)
}

func (p *Packager) Packers() []packer.Packer {
	return p.packers
}

func (p *Packager) PrimaryPacker() packer.Packer {
	return p.packers[0]
}

func (p *Packager) VDRegistry() vdr.Registry {
	return p.registry
}

func (p *Packager) KMS() kms.KeyManager {
	return p.storage.KMS()
}

func (p *Packager) Crypto() cryptoapi.Crypto {
	return p.storage.Crypto()
}

func (p *Packager) StorageProvider() storage.Provider {
	return p.storage
}
