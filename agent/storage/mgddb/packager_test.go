package mgddb_test

import (
	"flag"
	"os"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/storage/api"
	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/transport"
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/hyperledger/aries-framework-go/pkg/vdr/fingerprint"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

var agentStorage *mgddb.Storage

func TestMain(m *testing.M) {
	try.To(flag.Set("logtostderr", "true"))
	try.To(flag.Set("stderrthreshold", "WARNING"))
	try.To(flag.Set("v", "5"))
	flag.Parse()

	dir := try.To1(os.MkdirTemp("", "mgddb"))
	agentStorage = try.To1(mgddb.New(api.AgentStorageConfig{
		AgentKey: mgddb.GenerateKey(),
		AgentID:  "packager",
		FilePath: dir,
	}))
	code := m.Run()
	_ = agentStorage.Close()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newPackager() *mgddb.Packager {
	v := try.To1(vdr.New(agentStorage))
	return try.To1(mgddb.NewPackager(agentStorage, v.Registry()))
}

func didKey() string {
	_, pub := try.To2(agentStorage.KMS().CreateAndExportPubKeyBytes(kms.ED25519Type))
	k, _ := fingerprint.CreateDIDKey(pub)
	return k
}

func TestPackMessage(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	p := newPackager()
	from, to := didKey(), didKey()
	payload := []byte(`{"@type":"https://didcomm.org/basicmessage/1.0/message"}`)

	packed, err := p.PackMessage(&transport.Envelope{
		MediaTypeProfile: transport.MediaTypeProfileDIDCommAIP1,
		Message:          payload,
		FromKey:          []byte(from),
		ToKeys:           []string{to},
	})
	assert.NoError(err)
	assert.NotDeepEqual(payload, packed)

	env, err := p.UnpackMessage(packed)
	assert.NoError(err)
	assert.DeepEqual(payload, env.Message)
}

func TestPackAnonymous(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	packager := newPackager()

	to, err := agentStorage.CreateDID()
	assert.NoError(err)

	msg := []byte(`{"@type":"anon"}`)
	resBytes, err := packager.PackAnonymous(msg, [][]byte{try.To1(base58.Decode(to.VerKey))})
	assert.NoError(err)
	assert.SNotEmpty(resBytes)

	// the afgo packager doesn't know the anoncrypt alg
	_, err = packager.UnpackMessage(resBytes)
	assert.Error(err)

	env, err := packager.UnpackAnonymous(resBytes)
	assert.NoError(err)
	assert.DeepEqual(msg, env.Message)
}

func TestDIDStorage(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	d, err := agentStorage.CreateDID()
	assert.NoError(err)
	assert.NotEmpty(d.VerKey)
	assert.NotEmpty(d.KID)
	assert.Equal(d.DID, base58.Encode(try.To1(base58.Decode(d.VerKey))[:16]))

	got, err := agentStorage.DIDStorage().GetDID(d.VerKey)
	assert.NoError(err)
	assert.DeepEqual(*d, *got)

	_, err = agentStorage.GetDID("unknown")
	assert.Error(err)

	all, err := agentStorage.ListDIDs()
	assert.NoError(err)
	assert.That(len(all) >= 1)
}
