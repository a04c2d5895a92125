package issuecredential

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/findy-network/findy-wrapper-go/anoncreds"
	"github.com/findy-network/findy-wrapper-go/dto"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var (
	ErrOfferMismatch      = errors.New("credential does not match the offer")
	ErrCredDefMismatch    = errors.New("offer does not match the credential definition")
	ErrMissingCredentials = errors.New("missing credential data")
)

const masterSecretAttr = "master_secret"

// CredOffer is the part of the Indy credential offer we need.
type CredOffer struct {
	SchemaID  string `json:"schema_id"`
	CredDefID string `json:"cred_def_id"`
}

// Credential is the part of the Indy credential we need.
type Credential struct {
	SchemaID  string               `json:"schema_id"`
	CredDefID string               `json:"cred_def_id"`
	RevRegID  string               `json:"rev_reg_id,omitempty"`
	Values    map[string]CredValue `json:"values"`
}

type CredValue struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// CredDef is the part of the Indy credential definition we need. The keys of
// primary.r are the attribute names in canonical form.
type CredDef struct {
	ID    string `json:"id"`
	Value struct {
		Primary struct {
			R map[string]json.RawMessage `json:"r"`
		} `json:"primary"`
	} `json:"value"`
}

// ParseCredOffer parses the Indy credential offer JSON.
func ParseCredOffer(data []byte) (co *CredOffer, err error) {
	defer err2.Handle(&err, "parse cred offer")
	co = new(CredOffer)
	try.To(json.Unmarshal(data, co))
	return co, nil
}

// ParseCredential parses the Indy credential JSON.
func ParseCredential(data []byte) (c *Credential, err error) {
	defer err2.Handle(&err, "parse credential")
	c = new(Credential)
	try.To(json.Unmarshal(data, c))
	return c, nil
}

// EnsureMatchOffer checks that the issued credential is the one offered:
// the schema, the cred def and every previewed raw value must be the same.
func (i *Issue) EnsureMatchOffer(offer *Offer) (err error) {
	defer err2.Handle(&err, "ensure match offer")

	cred := try.To1(ParseCredential(try.To1(i.Credential())))
	credOffer := try.To1(ParseCredOffer(try.To1(offer.CredOffer())))

	if cred.SchemaID != credOffer.SchemaID {
		return fmt.Errorf("%w: schema_id %q is not %q",
			ErrOfferMismatch, cred.SchemaID, credOffer.SchemaID)
	}
	if cred.CredDefID != credOffer.CredDefID {
		return fmt.Errorf("%w: cred_def_id %q is not %q",
			ErrOfferMismatch, cred.CredDefID, credOffer.CredDefID)
	}
	for _, attr := range offer.CredentialPreview.Attributes {
		value, ok := cred.Values[attr.Name]
		if !ok {
			return fmt.Errorf("%w: attribute %q missing",
				ErrOfferMismatch, attr.Name)
		}
		if value.Raw != attr.Value {
			return fmt.Errorf("%w: value %q of attribute %q is not %q",
				ErrOfferMismatch, value.Raw, attr.Name, attr.Value)
		}
	}
	return nil
}

// EnsureMatchCredentialDefinition checks that every attribute of the offer
// preview is declared by the credential definition. Names are compared in
// the canonical Indy form: lower case without spaces.
func (o *Offer) EnsureMatchCredentialDefinition(credDefJSON string) (err error) {
	defer err2.Handle(&err, "ensure match cred def")

	var credDef CredDef
	try.To(json.Unmarshal([]byte(credDefJSON), &credDef))

	declared := make(map[string]struct{}, len(credDef.Value.Primary.R))
	for name := range credDef.Value.Primary.R {
		if name == masterSecretAttr {
			continue
		}
		declared[canonicalAttr(name)] = struct{}{}
	}
	for _, attr := range o.CredentialPreview.Attributes {
		if _, ok := declared[canonicalAttr(attr.Name)]; !ok {
			return fmt.Errorf("%w: attribute %q not declared",
				ErrCredDefMismatch, attr.Name)
		}
	}
	return nil
}

func canonicalAttr(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// CodedValues returns the preview as the Indy credential values JSON where
// each raw value has its encoded form.
func (p PreviewCredential) CodedValues() string {
	rMap := make(map[string]anoncreds.CredDefAttr, len(p.Attributes))
	for _, attr := range p.Attributes {
		a := anoncreds.CredDefAttr{}
		a.SetRawAries(attr.Value)
		rMap[attr.Name] = a
	}
	return dto.ToJSON(rMap)
}
