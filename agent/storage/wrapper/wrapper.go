// Package wrapper implements an encrypted bolt storage provider. Each named
// store is a bucket of the same managed db file. The provider satisfies the
// aries-framework-go storage SPI which lets the local KMS and the VDRs use it,
// and our own mailbox and machine registries use the same stores directly.
package wrapper

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/findy-network/findy-common-go/crypto"
	"github.com/findy-network/findy-common-go/crypto/db"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const level7 = 7

var (
	ErrNotOpen        = errors.New("storage provider not open")
	ErrStoreNotFound  = errors.New("store not found")
	ErrNotImplemented = errors.New("not implemented")
)

// Store is the afgo store extended with a full bucket scan.
type Store interface {
	storage.Store
	GetAll(transform db.Filter) ([][]byte, error)
}

// Config of the provider. Key is a hex encoded AES key. An empty key turns
// the encryption off which is only meant for tests.
type Config struct {
	Key       string
	FileName  string
	FilePath  string
	BucketIDs []string
}

// Filename returns the full path of the bolt file.
func (c Config) Filename() string {
	path := "."
	if c.FilePath != "" {
		path = c.FilePath
	}
	return filepath.Join(path, c.FileName+".bolt")
}

type StorageProvider struct {
	l sync.RWMutex

	conf    Config
	db      db.Handle
	buckets map[string]*bucket
	configs map[string]storage.StoreConfiguration
	cipher  *crypto.Cipher
}

func New(config Config) *StorageProvider {
	s := &StorageProvider{
		conf:    config,
		buckets: make(map[string]*bucket, len(config.BucketIDs)),
		configs: make(map[string]storage.StoreConfiguration),
	}
	for i, name := range s.conf.BucketIDs {
		s.buckets[name] = &bucket{owner: s, name: name, bucketID: byte(i)}
	}
	return s
}

// Init prepares the db. It can be called again after Close.
func (s *StorageProvider) Init() (err error) {
	defer err2.Handle(&err, "storage provider init")

	s.l.Lock()
	defer s.l.Unlock()

	if s.db != nil {
		glog.V(3).Infoln("storage provider already open:", s.conf.FileName)
		return nil
	}
	if len(s.conf.BucketIDs) == 0 {
		return fmt.Errorf("no buckets specified")
	}
	if s.conf.Key != "" {
		s.cipher = crypto.NewCipher(try.To1(hex.DecodeString(s.conf.Key)))
	}

	mgdBuckets := make([][]byte, 0, len(s.conf.BucketIDs))
	for i := range s.conf.BucketIDs {
		mgdBuckets = append(mgdBuckets, []byte{byte(i)})
	}

	filename := s.conf.Filename()
	// opens the file lazily at the first access
	s.db = db.New(db.Cfg{
		Filename:   filename,
		Buckets:    mgdBuckets,
		BackupName: filename + "_backup",
	})
	return nil
}

func (s *StorageProvider) ID() string {
	return s.conf.FileName
}

// OpenStore returns the named bucket. Used by afgo through the SPI.
func (s *StorageProvider) OpenStore(name string) (storage.Store, error) {
	glog.V(level7).Infoln("StorageProvider::OpenStore", s.ID(), name)

	b, ok := s.buckets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, name)
	}
	return b, nil
}

// Store is OpenStore for our own code which needs the GetAll.
func (s *StorageProvider) Store(name string) (Store, error) {
	b, ok := s.buckets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, name)
	}
	return b, nil
}

func (s *StorageProvider) SetStoreConfig(name string, config storage.StoreConfiguration) error {
	glog.V(level7).Infoln("StorageProvider::SetStoreConfig", name)

	if _, ok := s.buckets[name]; !ok {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, name)
	}
	s.l.Lock()
	defer s.l.Unlock()
	s.configs[name] = config
	return nil
}

func (s *StorageProvider) GetStoreConfig(name string) (storage.StoreConfiguration, error) {
	glog.V(level7).Infoln("StorageProvider::GetStoreConfig", name)

	if _, ok := s.buckets[name]; !ok {
		return storage.StoreConfiguration{}, storage.ErrStoreNotFound
	}
	s.l.RLock()
	defer s.l.RUnlock()
	return s.configs[name], nil
}

func (s *StorageProvider) GetOpenStores() []storage.Store {
	stores := make([]storage.Store, 0, len(s.buckets))
	for _, name := range s.conf.BucketIDs {
		stores = append(stores, s.buckets[name])
	}
	return stores
}

func (s *StorageProvider) Close() (err error) {
	defer err2.Handle(&err, "storage provider close")

	s.l.Lock()
	defer s.l.Unlock()

	if s.db == nil {
		glog.V(3).Infoln("storage provider already closed:", s.conf.FileName)
		return nil
	}
	try.To(s.db.Close())
	s.db = nil
	return nil
}

// withDB runs f with the open db under the read lock. The db itself
// serializes the writes.
func (s *StorageProvider) withDB(f func(mgd db.Handle) error) error {
	s.l.RLock()
	defer s.l.RUnlock()

	if s.db == nil {
		return ErrNotOpen
	}
	return f(s.db)
}

func (s *StorageProvider) keyData(key []byte) *db.Data {
	return &db.Data{Data: key, Read: s.hash}
}

func (s *StorageProvider) put(bucketID byte, key, value []byte) error {
	return s.withDB(func(mgd db.Handle) error {
		return mgd.AddKeyValueToBucket([]byte{bucketID},
			&db.Data{Data: value, Read: s.encrypt}, s.keyData(key))
	})
}

func (s *StorageProvider) get(bucketID byte, key []byte) (value []byte, found bool, err error) {
	err = s.withDB(func(mgd db.Handle) (err error) {
		found, err = mgd.GetKeyValueFromBucket([]byte{bucketID}, s.keyData(key),
			&db.Data{
				Write: s.decrypt,
				Use: func(d []byte) interface{} {
					value = d
					return nil
				},
			})
		return err
	})
	return value, found, err
}

func (s *StorageProvider) del(bucketID byte, key []byte) error {
	return s.withDB(func(mgd db.Handle) error {
		return mgd.RmKeyValueFromBucket([]byte{bucketID}, s.keyData(key))
	})
}

func (s *StorageProvider) all(bucketID byte, transform db.Filter) (values [][]byte, err error) {
	err = s.withDB(func(mgd db.Handle) (err error) {
		values, err = mgd.GetAllValuesFromBucket([]byte{bucketID}, s.decrypt, transform)
		return err
	})
	return values, err
}

// hash keeps the plain keys out of the file when the encryption is on.
func (s *StorageProvider) hash(key []byte) []byte {
	if s.cipher == nil {
		return bytes.Clone(key)
	}
	h := sha256.Sum256(key)
	return h[:]
}

func (s *StorageProvider) encrypt(value []byte) []byte {
	if s.cipher == nil {
		return bytes.Clone(value)
	}
	return s.cipher.TryEncrypt(value)
}

func (s *StorageProvider) decrypt(value []byte) []byte {
	if s.cipher == nil {
		return bytes.Clone(value)
	}
	return s.cipher.TryDecrypt(value)
}
