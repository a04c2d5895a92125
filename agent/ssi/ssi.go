/*
Package ssi defines the collaborators the credential protocols need from the
self-sovereign identity stack: the holder's credential store, the issuer, the
ledger and the proof verifier. All the payloads are Indy anoncreds JSON. The
Indy type implements them with findy-wrapper-go.
*/
package ssi

import (
	"errors"
	"sort"
)

var ErrNotSupported = errors.New("not supported")

// CredentialStore is the holder's and prover's wallet.
type CredentialStore interface {
	// CreateCredentialRequest returns the credential request and its
	// metadata which is needed when the credential is stored.
	CreateCredentialRequest(offer, credDef string) (req, meta string, err error)

	// StoreCredential stores the credential and returns its ID. The
	// revRegDef is empty for non revocable credentials.
	StoreCredential(reqMeta, cred, credDef, revRegDef string) (id string, err error)
	DeleteCredential(id string) error

	CredentialsForProofRequest(proofReq string) (*Candidates, error)
	BuildPresentation(proofReq string, creds RequestedCredentials) (proof string, err error)
}

type Issuer interface {
	CreateCredentialOffer(credDefID string) (offer string, err error)
	CreateCredential(offer, req, values string) (cred string, err error)
}

type Ledger interface {
	ResolveCredDef(id string) (string, error)
	ResolveSchema(id string) (string, error)
	ResolveRevRegDef(id string) (string, error)
}

type ProofVerifier interface {
	VerifyProof(proofReq, proof string) (bool, error)
}

// CredInfo is a credential in the wallet as the proof request search
// returns it.
type CredInfo struct {
	Referent  string            `json:"referent"`
	Attrs     map[string]string `json:"attrs"`
	SchemaID  string            `json:"schema_id"`
	CredDefID string            `json:"cred_def_id"`
	RevRegID  *string           `json:"rev_reg_id,omitempty"`
	CredRevID *string           `json:"cred_rev_id,omitempty"`
}

// Candidates are the matching credentials per proof request referent.
type Candidates struct {
	Attributes map[string][]CredInfo `json:"attrs"`
	Predicates map[string][]CredInfo `json:"predicates"`
}

// RequestedCredentials is the Indy requested credentials JSON.
type RequestedCredentials struct {
	SelfAttestedAttributes map[string]string             `json:"self_attested_attributes"`
	RequestedAttributes    map[string]RequestedAttribute `json:"requested_attributes"`
	RequestedPredicates    map[string]RequestedPredicate `json:"requested_predicates"`
}

type RequestedAttribute struct {
	CredID    string  `json:"cred_id"`
	Revealed  bool    `json:"revealed"`
	Timestamp *uint64 `json:"timestamp,omitempty"`
}

type RequestedPredicate struct {
	CredID    string  `json:"cred_id"`
	Timestamp *uint64 `json:"timestamp,omitempty"`
}

// Select takes the first candidate for every referent. The self attested
// values are used for the attributes which have no candidates.
func (c *Candidates) Select(selfAttested map[string]string) RequestedCredentials {
	rc := RequestedCredentials{
		SelfAttestedAttributes: make(map[string]string),
		RequestedAttributes:    make(map[string]RequestedAttribute),
		RequestedPredicates:    make(map[string]RequestedPredicate),
	}
	for ref, infos := range c.Attributes {
		if len(infos) > 0 {
			rc.RequestedAttributes[ref] = RequestedAttribute{CredID: infos[0].Referent, Revealed: true}
		}
	}
	for ref, infos := range c.Predicates {
		if len(infos) > 0 {
			rc.RequestedPredicates[ref] = RequestedPredicate{CredID: infos[0].Referent}
		}
	}
	for ref, value := range selfAttested {
		if _, ok := rc.RequestedAttributes[ref]; !ok {
			rc.SelfAttestedAttributes[ref] = value
		}
	}
	return rc
}

// Missing returns the referents of the request which have no credential and
// no self attested value.
func (rc RequestedCredentials) Missing(attrRefs, predicateRefs []string) []string {
	var missing []string
	for _, ref := range attrRefs {
		_, found := rc.RequestedAttributes[ref]
		_, attested := rc.SelfAttestedAttributes[ref]
		if !found && !attested {
			missing = append(missing, ref)
		}
	}
	for _, ref := range predicateRefs {
		if _, ok := rc.RequestedPredicates[ref]; !ok {
			missing = append(missing, ref)
		}
	}
	sort.Strings(missing)
	return missing
}

// CredIDs returns the distinct credential IDs of the selection.
func (rc RequestedCredentials) CredIDs() []string {
	seen := make(map[string]struct{})
	for _, a := range rc.RequestedAttributes {
		seen[a.CredID] = struct{}{}
	}
	for _, p := range rc.RequestedPredicates {
		seen[p.CredID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
