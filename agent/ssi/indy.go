package ssi

import (
	"fmt"

	"github.com/findy-network/findy-wrapper-go"
	"github.com/findy-network/findy-wrapper-go/anoncreds"
	"github.com/findy-network/findy-wrapper-go/dto"
	"github.com/findy-network/findy-wrapper-go/ledger"
	"github.com/findy-network/findy-wrapper-go/pool"
	"github.com/findy-network/findy-wrapper-go/wallet"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const walletAlreadyExistsError = 203

// fetchMax is the batch size of the proof request credential search.
const fetchMax = 10

// Wallet is the Indy wallet configuration.
type Wallet struct {
	Config      wallet.Config
	Credentials wallet.Credentials
}

func NewWalletCfg(name, key string) *Wallet {
	return &Wallet{
		Config: wallet.Config{ID: name},
		Credentials: wallet.Credentials{
			Key:                 key,
			KeyDerivationMethod: "ARGON2I_MOD",
		},
	}
}

func NewRawWalletCfg(name, key string) *Wallet {
	w := NewWalletCfg(name, key)
	w.Credentials.KeyDerivationMethod = "RAW"
	return w
}

// Open creates the wallet if it doesn't exist and opens it.
func (w *Wallet) Open() (h int, err error) {
	defer err2.Handle(&err, "open wallet %s", w.Config.ID)

	r := <-wallet.Create(w.Config, w.Credentials)
	if r.Err() != nil && r.ErrCode() != walletAlreadyExistsError {
		return 0, r.Err()
	}
	glog.V(3).Infoln("opening wallet:", w.Config.ID)
	return NewFuture(wallet.Open(w.Config, w.Credentials)).Handle()
}

func CloseWallet(h int) error {
	_, err := NewFuture(wallet.Close(h)).Result()
	return err
}

// OpenPool opens the ledger connection with the pool name.
func OpenPool(name string) (h int, err error) {
	defer err2.Handle(&err, "open pool %s", name)

	try.To1(NewFuture(pool.SetProtocolVersion(2)).Result())
	return NewFuture(pool.OpenLedger(name)).Handle()
}

func ClosePool(h int) error {
	_, err := NewFuture(pool.CloseLedger(h)).Result()
	return err
}

// Indy implements the collaborators with an Indy wallet and ledger.
type Indy struct {
	Wallet       int
	Pool         int
	DID          string // submitter DID of the ledger reads
	MasterSecret string
}

// NewIndy returns the Indy collaborators for the opened wallet and pool. The
// master secret is created when it doesn't exist.
func NewIndy(w, p int, DID, masterSecret string) (i *Indy, err error) {
	defer err2.Handle(&err, "new indy")

	r := <-anoncreds.ProverCreateMasterSecret(w, masterSecret)
	if r.Err() != nil {
		glog.V(3).Infoln("master secret exists:", r.Err())
	}
	return &Indy{Wallet: w, Pool: p, DID: DID, MasterSecret: masterSecret}, nil
}

func (i *Indy) CreateCredentialRequest(offer, credDef string) (req, meta string, err error) {
	defer err2.Handle(&err, "create cred request")

	return NewFuture(anoncreds.ProverCreateCredentialReq(i.Wallet, i.DID,
		offer, credDef, i.MasterSecret)).Strs()
}

func (i *Indy) StoreCredential(reqMeta, cred, credDef, revRegDef string) (id string, err error) {
	defer err2.Handle(&err, "store credential")

	if revRegDef == "" {
		revRegDef = findy.NullString
	}
	return NewFuture(anoncreds.ProverStoreCredential(i.Wallet, findy.NullString,
		reqMeta, cred, credDef, revRegDef)).Str1()
}

// DeleteCredential is not available in the Indy wrapper.
func (i *Indy) DeleteCredential(id string) error {
	return ErrNotSupported
}

func (i *Indy) CredentialsForProofRequest(proofReq string) (c *Candidates, err error) {
	defer err2.Handle(&err, "credentials for proof request")

	var pr anoncreds.ProofRequest
	dto.FromJSONStr(proofReq, &pr)

	search := try.To1(NewFuture(anoncreds.ProverSearchCredentialsForProofReq(
		i.Wallet, proofReq, findy.NullString)).Handle())
	defer func() {
		r := <-anoncreds.ProverCloseCredentialsSearchForProofReq(search)
		if r.Err() != nil {
			glog.Warningln("close search:", r.Err())
		}
	}()

	c = &Candidates{
		Attributes: make(map[string][]CredInfo, len(pr.RequestedAttributes)),
		Predicates: make(map[string][]CredInfo, len(pr.RequestedPredicates)),
	}
	for ref := range pr.RequestedAttributes {
		c.Attributes[ref] = try.To1(i.fetch(search, ref))
	}
	for ref := range pr.RequestedPredicates {
		c.Predicates[ref] = try.To1(i.fetch(search, ref))
	}
	return c, nil
}

func (i *Indy) fetch(search int, ref string) (infos []CredInfo, err error) {
	defer err2.Handle(&err, "fetch %s", ref)

	for {
		s := try.To1(NewFuture(anoncreds.ProverFetchCredentialsForProofReq(search, ref, fetchMax)).Str1())
		var batch []struct {
			CredInfo CredInfo `json:"cred_info"`
		}
		dto.FromJSONStr(s, &batch)
		for _, b := range batch {
			infos = append(infos, b.CredInfo)
		}
		if len(batch) < fetchMax {
			return infos, nil
		}
	}
}

func (i *Indy) BuildPresentation(proofReq string, creds RequestedCredentials) (proof string, err error) {
	defer err2.Handle(&err, "build presentation")

	schemaIDs := make(map[string]struct{})
	credDefIDs := make(map[string]struct{})
	candidates := try.To1(i.CredentialsForProofRequest(proofReq))
	selected := make(map[string]struct{})
	for _, id := range creds.CredIDs() {
		selected[id] = struct{}{}
	}
	for _, infos := range [](map[string][]CredInfo){candidates.Attributes, candidates.Predicates} {
		for _, list := range infos {
			for _, info := range list {
				if _, ok := selected[info.Referent]; ok {
					schemaIDs[info.SchemaID] = struct{}{}
					credDefIDs[info.CredDefID] = struct{}{}
				}
			}
		}
	}
	schemas := try.To1(i.objects(schemaIDs, i.ResolveSchema))
	credDefs := try.To1(i.objects(credDefIDs, i.ResolveCredDef))

	return NewFuture(anoncreds.ProverCreateProof(i.Wallet, proofReq, dto.ToJSON(creds),
		i.MasterSecret, schemas, credDefs, "{}")).Str1()
}

func (i *Indy) CreateCredentialOffer(credDefID string) (offer string, err error) {
	defer err2.Handle(&err, "create cred offer")

	return NewFuture(anoncreds.IssuerCreateCredentialOffer(i.Wallet, credDefID)).Str1()
}

func (i *Indy) CreateCredential(offer, req, values string) (cred string, err error) {
	defer err2.Handle(&err, "create credential")

	return NewFuture(anoncreds.IssuerCreateCredential(i.Wallet, offer, req, values,
		findy.NullString, findy.NullHandle)).Str1()
}

func (i *Indy) ResolveCredDef(id string) (cd string, err error) {
	defer err2.Handle(&err, "resolve cred def %s", id)

	_, cd = try.To2(ledger.ReadCredDef(i.Pool, i.DID, id))
	return cd, nil
}

func (i *Indy) ResolveSchema(id string) (s string, err error) {
	defer err2.Handle(&err, "resolve schema %s", id)

	_, s = try.To2(ledger.ReadSchema(i.Pool, i.DID, id))
	return s, nil
}

// ResolveRevRegDef is not available in the Indy wrapper.
func (i *Indy) ResolveRevRegDef(id string) (string, error) {
	return "", fmt.Errorf("%w: revocation registry %s", ErrNotSupported, id)
}

func (i *Indy) VerifyProof(proofReq, proof string) (ok bool, err error) {
	defer err2.Handle(&err, "verify proof")

	var p anoncreds.Proof
	dto.FromJSONStr(proof, &p)

	schemaIDs := make(map[string]struct{}, len(p.Identifiers))
	credDefIDs := make(map[string]struct{}, len(p.Identifiers))
	for _, id := range p.Identifiers {
		schemaIDs[id.SchemaID] = struct{}{}
		credDefIDs[id.CredDefID] = struct{}{}
	}
	schemas := try.To1(i.objects(schemaIDs, i.ResolveSchema))
	credDefs := try.To1(i.objects(credDefIDs, i.ResolveCredDef))

	r := <-anoncreds.VerifierVerifyProof(proofReq, proof, schemas, credDefs, "{}", "{}")
	try.To(r.Err())
	return r.Yes(), nil
}

// objects resolves the ledger objects to the JSON map the anoncreds calls
// take.
func (i *Indy) objects(ids map[string]struct{}, resolve func(string) (string, error)) (s string, err error) {
	defer err2.Handle(&err, "ledger objects")

	objs := make(map[string]map[string]any, len(ids))
	for id := range ids {
		obj := map[string]any{}
		dto.FromJSONStr(try.To1(resolve(id)), &obj)
		objs[id] = obj
	}
	return dto.ToJSON(objs), nil
}
