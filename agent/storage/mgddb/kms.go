package mgddb

import (
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/hyperledger/aries-framework-go/pkg/kms/localkms"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock/noop"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// primaryKeyURI is only a label with the noop lock, the bolt file is
// encrypted as a whole.
const primaryKeyURI = "local-lock://primary/findy-didcomm/"

// kmsProvider gives the localkms its store and lock.
type kmsProvider struct {
	store kms.Store
	lock  secretlock.Service
}

func newKMS(owner *Storage) (km kms.KeyManager, err error) {
	defer err2.Handle(&err, "new kms")

	p := &kmsProvider{
		store: try.To1(kms.NewAriesProviderWrapper(owner)),
		lock:  &noop.NoLock{},
	}
	return localkms.New(primaryKeyURI, p)
}

func (p *kmsProvider) StorageProvider() kms.Store {
	return p.store
}

func (p *kmsProvider) SecretLock() secretlock.Service {
	return p.lock
}
