package presentproof

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const (
	attributeReferent = "attribute_"
	predicateReferent = "predicate_"
)

// ProofRequest is the Indy proof request.
type ProofRequest struct {
	Name                string                   `json:"name"`
	Version             string                   `json:"version"`
	Nonce               string                   `json:"nonce"`
	RequestedAttributes map[string]AttrInfo      `json:"requested_attributes"`
	RequestedPredicates map[string]PredicateInfo `json:"requested_predicates"`
	NonRevoked          *NonRevokedInterval      `json:"non_revoked,omitempty"`
}

type AttrInfo struct {
	Name              string              `json:"name,omitempty"`
	Names             []string            `json:"names,omitempty"`
	Restrictions      []Filter            `json:"restrictions,omitempty"`
	NonRevoked        *NonRevokedInterval `json:"non_revoked,omitempty"`
	SelfAttestAllowed *bool               `json:"self_attest_allowed,omitempty"`
}

type PredicateInfo struct {
	Name         string              `json:"name"`
	PType        string              `json:"p_type"`
	PValue       int64               `json:"p_value"`
	Restrictions []Filter            `json:"restrictions,omitempty"`
	NonRevoked   *NonRevokedInterval `json:"non_revoked,omitempty"`
}

type Filter struct {
	SchemaID        string `json:"schema_id,omitempty"`
	SchemaIssuerDID string `json:"schema_issuer_did,omitempty"`
	SchemaName      string `json:"schema_name,omitempty"`
	SchemaVersion   string `json:"schema_version,omitempty"`
	IssuerDID       string `json:"issuer_did,omitempty"`
	CredDefID       string `json:"cred_def_id,omitempty"`
}

type NonRevokedInterval struct {
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

var ErrNonRevocation = errors.New("non-revocation interval not met")

// Proof is the part of the Indy proof we need.
type Proof struct {
	RequestedProof RequestedProof  `json:"requested_proof"`
	Identifiers    []Identifier    `json:"identifiers"`
	Proof          json.RawMessage `json:"proof,omitempty"`
}

type RequestedProof struct {
	RevealedAttrs     map[string]RevealedAttr `json:"revealed_attrs"`
	SelfAttestedAttrs map[string]string       `json:"self_attested_attrs,omitempty"`
	UnrevealedAttrs   map[string]any          `json:"unrevealed_attrs,omitempty"`
	Predicates        map[string]any          `json:"predicates,omitempty"`
}

type RevealedAttr struct {
	SubProofIndex int    `json:"sub_proof_index"`
	Raw           string `json:"raw"`
	Encoded       string `json:"encoded"`
}

type Identifier struct {
	SchemaID  string  `json:"schema_id"`
	CredDefID string  `json:"cred_def_id"`
	RevRegID  *string `json:"rev_reg_id,omitempty"`
	Timestamp *uint64 `json:"timestamp,omitempty"`
}

// RevealedAttribute is an attribute value the verifier has seen in a
// verified proof.
type RevealedAttribute struct {
	Referent  string `json:"referent"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	CredDefID string `json:"cred_def_id,omitempty"`
}

func ParseProofRequest(data []byte) (pr *ProofRequest, err error) {
	defer err2.Handle(&err, "parse proof request")
	pr = new(ProofRequest)
	try.To(json.Unmarshal(data, pr))
	return pr, nil
}

func ParseProof(data []byte) (p *Proof, err error) {
	defer err2.Handle(&err, "parse proof")
	p = new(Proof)
	try.To(json.Unmarshal(data, p))
	return p, nil
}

// ProofRequest converts the preview to a proof request. Attributes and
// predicates get the referents attribute_N and predicate_N in the preview
// order, and a cred def restriction when the preview names one.
func (p *Preview) ProofRequest(name string) *ProofRequest {
	reqAttrs := make(map[string]AttrInfo, len(p.Attributes))
	for index, attr := range p.Attributes {
		info := AttrInfo{Name: attr.Name}
		if attr.CredDefID != "" {
			info.Restrictions = []Filter{{CredDefID: attr.CredDefID}}
		}
		reqAttrs[attributeReferent+strconv.Itoa(index)] = info
	}
	reqPredicates := make(map[string]PredicateInfo, len(p.Predicates))
	for index, predicate := range p.Predicates {
		info := PredicateInfo{
			Name:   predicate.Name,
			PType:  predicate.Predicate,
			PValue: predicate.Threshold,
		}
		if predicate.CredDefID != "" {
			info.Restrictions = []Filter{{CredDefID: predicate.CredDefID}}
		}
		reqPredicates[predicateReferent+strconv.Itoa(index)] = info
	}
	return &ProofRequest{
		Name:                name,
		Version:             "1.0",
		Nonce:               utils.NewNonceStr(),
		RequestedAttributes: reqAttrs,
		RequestedPredicates: reqPredicates,
	}
}

// RevealedAttributes returns the revealed values of the proof by the names
// of the proof request.
func (p *Proof) RevealedAttributes(pr *ProofRequest) []RevealedAttribute {
	attrs := make([]RevealedAttribute, 0, len(p.RequestedProof.RevealedAttrs))
	for referent, revealed := range p.RequestedProof.RevealedAttrs {
		attr := RevealedAttribute{Referent: referent, Value: revealed.Raw}
		if info, ok := pr.RequestedAttributes[referent]; ok {
			attr.Name = info.Name
		}
		if revealed.SubProofIndex < len(p.Identifiers) {
			attr.CredDefID = p.Identifiers[revealed.SubProofIndex].CredDefID
		}
		attrs = append(attrs, attr)
	}
	for referent, value := range p.RequestedProof.SelfAttestedAttrs {
		attr := RevealedAttribute{Referent: referent, Value: value}
		if info, ok := pr.RequestedAttributes[referent]; ok {
			attr.Name = info.Name
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

// SchemaIDs returns the distinct schema IDs the proof refers to.
func (p *Proof) SchemaIDs() []string {
	return p.distinct(func(i Identifier) string { return i.SchemaID })
}

// CredDefIDs returns the distinct cred def IDs the proof refers to.
func (p *Proof) CredDefIDs() []string {
	return p.distinct(func(i Identifier) string { return i.CredDefID })
}

func (p *Proof) distinct(f func(Identifier) string) []string {
	seen := make(map[string]struct{}, len(p.Identifiers))
	ids := make([]string, 0, len(p.Identifiers))
	for _, i := range p.Identifiers {
		id := f(i)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// EnsureNonRevoked checks the revocable credentials of the proof against the
// non-revocation intervals of the request. Each credential is checked
// against the interval of every referent it satisfies. A referent without an
// own interval uses the interval of the whole request.
func (p *Proof) EnsureNonRevoked(pr *ProofRequest) error {
	if !pr.asksNonRevocation() {
		return nil
	}
	intervals := p.intervals(pr)
	for index, id := range p.Identifiers {
		if id.RevRegID == nil || *id.RevRegID == "" {
			continue
		}
		for referent, interval := range intervals[index] {
			if interval == nil {
				continue
			}
			if id.Timestamp == nil {
				return fmt.Errorf("%w: credential %d of %s has no timestamp for %s",
					ErrNonRevocation, index, id.CredDefID, referent)
			}
			if !interval.contains(*id.Timestamp) {
				return fmt.Errorf("%w: timestamp %d of %s for %s",
					ErrNonRevocation, *id.Timestamp, id.CredDefID, referent)
			}
		}
	}
	return nil
}

// intervals returns the non-revocation intervals by identifier index and
// referent. Identifiers no referent points to get the interval of the whole
// request.
func (p *Proof) intervals(pr *ProofRequest) map[int]map[string]*NonRevokedInterval {
	res := make(map[int]map[string]*NonRevokedInterval, len(p.Identifiers))
	add := func(index int, referent string, interval *NonRevokedInterval) {
		if interval == nil {
			interval = pr.NonRevoked
		}
		if res[index] == nil {
			res[index] = make(map[string]*NonRevokedInterval)
		}
		res[index][referent] = interval
	}
	for referent, revealed := range p.RequestedProof.RevealedAttrs {
		add(revealed.SubProofIndex, referent, pr.RequestedAttributes[referent].NonRevoked)
	}
	for referent, unrevealed := range p.RequestedProof.UnrevealedAttrs {
		if index, ok := subProofIndex(unrevealed); ok {
			add(index, referent, pr.RequestedAttributes[referent].NonRevoked)
		}
	}
	for referent, predicate := range p.RequestedProof.Predicates {
		if index, ok := subProofIndex(predicate); ok {
			add(index, referent, pr.RequestedPredicates[referent].NonRevoked)
		}
	}
	for index := range p.Identifiers {
		if _, ok := res[index]; !ok {
			add(index, "", nil)
		}
	}
	return res
}

func subProofIndex(v any) (int, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	index, ok := m["sub_proof_index"].(float64)
	return int(index), ok
}

func (pr *ProofRequest) asksNonRevocation() bool {
	if pr.NonRevoked != nil {
		return true
	}
	for _, a := range pr.RequestedAttributes {
		if a.NonRevoked != nil {
			return true
		}
	}
	for _, p := range pr.RequestedPredicates {
		if p.NonRevoked != nil {
			return true
		}
	}
	return false
}

func (i *NonRevokedInterval) contains(ts uint64) bool {
	if i == nil {
		return true
	}
	if i.From != nil && ts < *i.From {
		return false
	}
	return i.To == nil || ts <= *i.To
}
