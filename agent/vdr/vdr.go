// Package vdr wraps the afgo VDR registry with the did:key and did:peer
// methods. The packers use it, and we use it to convert between the Indy
// style base58 verkeys and did:key identifiers that some agents put to their
// DIDDoc recipient keys.
package vdr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/hyperledger/aries-framework-go/pkg/framework/aries/api/vdr"
	registry "github.com/hyperledger/aries-framework-go/pkg/vdr"
	"github.com/hyperledger/aries-framework-go/pkg/vdr/fingerprint"
	"github.com/hyperledger/aries-framework-go/pkg/vdr/key"
	"github.com/hyperledger/aries-framework-go/pkg/vdr/peer"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

const didKeyPrefix = "did:key:"

var ErrNoVerificationMethod = errors.New("no verification method")

type VDR struct {
	registry vdr.Registry

	keyVDR  vdr.VDR
	peerVDR vdr.VDR
}

func New(storage *mgddb.Storage) (v *VDR, err error) {
	defer err2.Handle(&err, "vdr new")

	v = &VDR{
		keyVDR:  &key.VDR{},
		peerVDR: try.To1(peer.New(storage)),
	}
	v.registry = registry.New(
		registry.WithVDR(v.keyVDR),
		registry.WithVDR(v.peerVDR),
	)
	return v, nil
}

func (v *VDR) Key() vdr.VDR {
	return v.keyVDR
}

func (v *VDR) Peer() vdr.VDR {
	return v.peerVDR
}

func (v *VDR) Registry() vdr.Registry {
	return v.registry
}

// ResolveVerKey returns the base58 verkey of the key. Plain verkeys are
// returned as is, DIDs are resolved and their first verification method is
// used.
func (v *VDR) ResolveVerKey(k string) (verkey string, err error) {
	defer err2.Handle(&err, "resolve verkey")

	if !strings.HasPrefix(k, "did:") {
		return k, nil
	}
	docRes := try.To1(v.registry.Resolve(k))
	vms := docRes.DIDDocument.VerificationMethod
	if len(vms) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoVerificationMethod, k)
	}
	return base58.Encode(vms[0].Value), nil
}

// DIDKey returns the did:key of the base58 verkey.
func DIDKey(verkey string) (didKey string, err error) {
	defer err2.Handle(&err, "did:key from verkey")

	if strings.HasPrefix(verkey, didKeyPrefix) {
		return verkey, nil
	}
	didKey, _ = fingerprint.CreateDIDKey(try.To1(base58.Decode(verkey)))
	return didKey, nil
}
