/*
Package did implements the Indy agent flavoured DID document used by the
Aries connection protocol. Keys are base58 encoded ed25519 verkeys.
*/
package did

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	Context               = "https://w3id.org/did/v1"
	KeyTypeEd25519        = "Ed25519VerificationKey2018"
	AuthenticationEd25519 = "Ed25519SignatureAuthentication2018"
	ServiceTypeIndyAgent  = "IndyAgent"
	ServiceTypeDIDComm    = "did-communication"
	MethodPrefixSov       = "did:sov:"
	verkeyLength          = 32
	keyReferenceSeparator = "#"
)

var ErrInvalidDoc = errors.New("invalid DID document")

// Doc DID Document definition
type Doc struct {
	Context        string               `json:"@context,omitempty"`
	ID             string               `json:"id,omitempty"`
	PublicKey      []PublicKey          `json:"publicKey,omitempty"`
	Service        []Service            `json:"service,omitempty"`
	Authentication []VerificationMethod `json:"authentication,omitempty"`
}

// PublicKey DID doc public key
type PublicKey struct {
	ID              string `json:"id,omitempty"`
	Type            string `json:"type,omitempty"`
	Controller      string `json:"controller,omitempty"`
	PublicKeyBase58 string `json:"publicKeyBase58,omitempty"`
}

// Service DID doc service
type Service struct {
	ID              string   `json:"id,omitempty"`
	Type            string   `json:"type,omitempty"`
	Priority        uint     `json:"priority,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

// VerificationMethod authentication verification method
type VerificationMethod struct {
	Type      string `json:"type,omitempty"`
	PublicKey string `json:"publicKey,omitempty"`
}

// NewDoc builds a document for the pairwise DID. The first key of routing
// keys is the one closest to the recipient.
func NewDoc(did, verkey, endpoint string, routingKeys []string) *Doc {
	didURI := did
	if !strings.HasPrefix(did, "did:") {
		didURI = MethodPrefixSov + did
	}
	didURIRef := didURI + keyReferenceSeparator + "1"
	return &Doc{
		Context: Context,
		ID:      did,
		PublicKey: []PublicKey{{
			ID:              didURIRef,
			Type:            KeyTypeEd25519,
			Controller:      didURI,
			PublicKeyBase58: verkey,
		}},
		Service: []Service{{
			ID:              didURI + ";indy",
			Type:            ServiceTypeIndyAgent,
			RecipientKeys:   []string{verkey},
			RoutingKeys:     routingKeys,
			ServiceEndpoint: endpoint,
		}},
		Authentication: []VerificationMethod{{
			Type:      AuthenticationEd25519,
			PublicKey: didURIRef,
		}},
	}
}

// Validate checks that the document can be used to deliver messages: it must
// have an ID and a service with an endpoint and recipient keys, and every key
// it refers to must resolve to an ed25519 verkey.
func (d *Doc) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: missing", ErrInvalidDoc)
	}
	if d.ID == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidDoc)
	}
	for _, pk := range d.PublicKey {
		if pk.Type != KeyTypeEd25519 {
			return fmt.Errorf("%w: unsupported key type %q", ErrInvalidDoc, pk.Type)
		}
		if err := checkVerkey(pk.PublicKeyBase58); err != nil {
			return fmt.Errorf("%w: public key %s: %v", ErrInvalidDoc, pk.ID, err)
		}
	}
	for _, auth := range d.Authentication {
		if _, err := d.ResolveKey(auth.PublicKey); err != nil {
			return fmt.Errorf("%w: authentication: %v", ErrInvalidDoc, err)
		}
	}
	if len(d.Service) == 0 {
		return fmt.Errorf("%w: no service", ErrInvalidDoc)
	}
	s := d.Service[0]
	if s.ServiceEndpoint == "" {
		return fmt.Errorf("%w: service endpoint is empty", ErrInvalidDoc)
	}
	if len(s.RecipientKeys) == 0 {
		return fmt.Errorf("%w: no recipient keys", ErrInvalidDoc)
	}
	for _, k := range append(append([]string{}, s.RecipientKeys...), s.RoutingKeys...) {
		if _, err := d.ResolveKey(k); err != nil {
			return fmt.Errorf("%w: service key: %v", ErrInvalidDoc, err)
		}
	}
	return nil
}

// RecipientKeys returns the resolved recipient verkeys of the first service.
func (d *Doc) RecipientKeys() []string {
	if len(d.Service) == 0 {
		return nil
	}
	return d.resolveKeys(d.Service[0].RecipientKeys)
}

// RoutingKeys returns the resolved routing verkeys of the first service.
func (d *Doc) RoutingKeys() []string {
	if len(d.Service) == 0 {
		return nil
	}
	return d.resolveKeys(d.Service[0].RoutingKeys)
}

// Endpoint returns the service endpoint of the first service.
func (d *Doc) Endpoint() string {
	if len(d.Service) == 0 {
		return ""
	}
	return d.Service[0].ServiceEndpoint
}

func (d *Doc) resolveKeys(keys []string) []string {
	res := make([]string, 0, len(keys))
	for _, k := range keys {
		if vk, err := d.ResolveKey(k); err == nil {
			res = append(res, vk)
		}
	}
	return res
}

// ResolveKey returns the verkey of the key which is either a plain verkey or
// a reference to the public key section.
func (d *Doc) ResolveKey(key string) (string, error) {
	if !strings.Contains(key, keyReferenceSeparator) {
		return key, checkVerkey(key)
	}
	for _, pk := range d.PublicKey {
		if pk.ID == key || (strings.HasPrefix(key, keyReferenceSeparator) &&
			strings.HasSuffix(pk.ID, key)) {
			return pk.PublicKeyBase58, nil
		}
	}
	return "", fmt.Errorf("key reference %s not found", key)
}

func checkVerkey(verkey string) error {
	b, err := base58.Decode(verkey)
	if err != nil {
		return fmt.Errorf("verkey %q: %w", verkey, err)
	}
	if len(b) != verkeyLength {
		return fmt.Errorf("verkey %q: length %d", verkey, len(b))
	}
	return nil
}
