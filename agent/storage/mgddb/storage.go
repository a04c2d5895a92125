// Package mgddb is the agent storage on top of the encrypted bolt wrapper. It
// holds the local KMS, our pairwise DIDs, the did:peer VDR store and the
// state machine registry bucket. The agency keeps its agents and mailboxes in
// the same kind of storage.
package mgddb

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-didcomm/agent/storage/api"
	"github.com/findy-network/findy-didcomm/agent/storage/wrapper"
	"github.com/golang/glog"
	cryptoapi "github.com/hyperledger/aries-framework-go/pkg/crypto"
	"github.com/hyperledger/aries-framework-go/pkg/crypto/tinkcrypto"
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

const (
	NameKey     = "kmsdb" // afgo's kms wrapper uses this name
	NameDID     = "did"
	NameVDRPeer = "peer"
	NamePSM     = "psm"
	NameAgent   = "agent"
	NameMailbox = "mailbox"
)

var bucketIDs = []string{
	NameKey,
	NameDID,
	NameVDRPeer,
	NamePSM,
	NameAgent,
	NameMailbox,
}

type Storage struct {
	*wrapper.StorageProvider
	kms      kms.KeyManager
	crypto   cryptoapi.Crypto
	didStore wrapper.Store
}

func New(config api.AgentStorageConfig) (s *Storage, err error) {
	defer err2.Handle(&err, "agent storage new")

	s = &Storage{
		StorageProvider: wrapper.New(wrapper.Config{
			Key:       config.AgentKey,
			FileName:  config.AgentID,
			FilePath:  config.FilePath,
			BucketIDs: bucketIDs,
		}),
	}
	try.To(s.Init())

	s.kms = try.To1(newKMS(s))
	s.crypto = try.To1(tinkcrypto.New())
	s.didStore = try.To1(s.Store(NameDID))
	return s, nil
}

// GenerateKey returns a new random storage key in hex.
func GenerateKey() string {
	k := make([]byte, 32)
	try.To1(rand.Read(k))
	return hex.EncodeToString(k)
}

func (s *Storage) Open() error {
	return s.Init()
}

func (s *Storage) KMS() kms.KeyManager {
	return s.kms
}

func (s *Storage) Crypto() cryptoapi.Crypto {
	return s.crypto
}

func (s *Storage) DIDStorage() api.DIDStorage {
	return s
}

// CreateDID creates a new ed25519 key to the KMS and saves it as our
// pairwise DID. The DID is the Indy style base58 of the first 16 bytes.
func (s *Storage) CreateDID() (d *api.DID, err error) {
	defer err2.Handle(&err, "create did")

	kid, pub := try.To2(s.kms.CreateAndExportPubKeyBytes(kms.ED25519Type))
	d = &api.DID{
		VerKey: base58.Encode(pub),
		DID:    base58.Encode(pub[:16]),
		KID:    kid,
	}
	try.To(s.SaveDID(*d))
	glog.V(3).Infoln("created pairwise DID:", d.DID, d.VerKey)
	return d, nil
}

func (s *Storage) SaveDID(d api.DID) error {
	return s.didStore.Put(d.VerKey, dto.ToGOB(d))
}

func (s *Storage) GetDID(verkey string) (d *api.DID, err error) {
	defer err2.Handle(&err, "did storage get did")

	bytes := try.To1(s.didStore.Get(verkey))
	d = new(api.DID)
	dto.FromGOB(bytes, d)
	return d, nil
}

func (s *Storage) ListDIDs() (res []api.DID, err error) {
	defer err2.Handle(&err, "did storage list")

	res = make([]api.DID, 0)
	try.To1(s.didStore.GetAll(func(bytes []byte) []byte {
		var d api.DID
		dto.FromGOB(bytes, &d)
		res = append(res, d)
		return bytes
	}))
	return res, nil
}
