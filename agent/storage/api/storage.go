// Package api defines the agent storage interfaces shared by the storage
// implementations and their users.
package api

import (
	cryptoapi "github.com/hyperledger/aries-framework-go/pkg/crypto"
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

type AgentStorageConfig struct {
	AgentKey string // hex encoded AES key
	AgentID  string // name of the bolt file
	FilePath string
}

type AgentStorage interface {
	Open() error
	Close() error

	KMS() kms.KeyManager
	Crypto() cryptoapi.Crypto

	DIDStorage() DIDStorage

	OpenStore(name string) (storage.Store, error)
	SetStoreConfig(name string, config storage.StoreConfiguration) error
	GetStoreConfig(name string) (storage.StoreConfiguration, error)
	GetOpenStores() []storage.Store
}

// DID is a pairwise DID of ours. The verkey is the key of the record.
type DID struct {
	VerKey string
	DID    string
	KID    string // key id in the KMS
}

type DIDStorage interface {
	SaveDID(did DID) error
	GetDID(verkey string) (*DID, error)
	ListDIDs() ([]DID, error)
}
