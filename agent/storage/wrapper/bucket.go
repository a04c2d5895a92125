package wrapper

import (
	"errors"
	"fmt"

	"github.com/findy-network/findy-common-go/crypto/db"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var errEmptyKey = errors.New("key is mandatory")

type bucket struct {
	name     string
	bucketID byte
	owner    *StorageProvider
}

// Put stores the key value pair. Tags are not supported, they are needed
// only by the afgo stores we don't use.
func (b *bucket) Put(key string, value []byte, tags ...storage.Tag) error {
	glog.V(level7).Infoln("bucket::Put", b.name, key)

	switch {
	case key == "":
		return errEmptyKey
	case value == nil:
		return fmt.Errorf("value is mandatory")
	case len(tags) > 0:
		return fmt.Errorf("tags: %w", ErrNotImplemented)
	}
	return b.owner.put(b.bucketID, []byte(key), value)
}

// Get returns storage.ErrDataNotFound when the key is missing.
func (b *bucket) Get(key string) (data []byte, err error) {
	defer err2.Handle(&err, func(err error) error {
		if errors.Is(err, storage.ErrDataNotFound) {
			return err
		}
		return fmt.Errorf("bucket %s get: %w", b.name, err)
	})

	glog.V(level7).Infoln("bucket::Get", b.name, key)

	if key == "" {
		return nil, errEmptyKey
	}
	data, found := try.To2(b.owner.get(b.bucketID, []byte(key)))
	if !found || len(data) == 0 {
		return nil, storage.ErrDataNotFound
	}
	return data, nil
}

func (b *bucket) GetBulk(keys ...string) (values [][]byte, err error) {
	defer err2.Handle(&err, "bucket get bulk")

	values = make([][]byte, len(keys))
	for i, key := range keys {
		v, err := b.Get(key)
		if errors.Is(err, storage.ErrDataNotFound) {
			continue
		}
		values[i] = try.To1(v, err)
	}
	return values, nil
}

func (b *bucket) Delete(key string) error {
	glog.V(level7).Infoln("bucket::Delete", b.name, key)

	if key == "" {
		return errEmptyKey
	}
	return b.owner.del(b.bucketID, []byte(key))
}

// Batch executes the operations in order. A nil value deletes the key.
func (b *bucket) Batch(operations []storage.Operation) (err error) {
	defer err2.Handle(&err, "bucket batch")

	for _, op := range operations {
		if op.Value == nil {
			try.To(b.Delete(op.Key))
			continue
		}
		try.To(b.Put(op.Key, op.Value, op.Tags...))
	}
	return nil
}

// GetAll returns all values of the bucket. The transform is called for
// every decrypted value and its result is collected.
func (b *bucket) GetAll(transform db.Filter) ([][]byte, error) {
	glog.V(level7).Infoln("bucket::GetAll", b.name)

	return b.owner.all(b.bucketID, transform)
}

func (b *bucket) GetTags(key string) ([]storage.Tag, error) {
	glog.V(level7).Infoln("bucket::GetTags", b.name, key)
	return nil, fmt.Errorf("tags: %w", ErrNotImplemented)
}

func (b *bucket) Query(expression string, _ ...storage.QueryOption) (storage.Iterator, error) {
	glog.V(level7).Infoln("bucket::Query", b.name, expression)
	return nil, fmt.Errorf("query: %w", ErrNotImplemented)
}

// Flush is a no-op, every write is committed right away.
func (b *bucket) Flush() error {
	return nil
}

// Close is a no-op, the provider owns the db.
func (b *bucket) Close() error {
	return nil
}
