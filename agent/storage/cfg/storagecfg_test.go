package cfg

import (
	"flag"
	"os"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/storage/api"
	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

func TestMain(m *testing.M) {
	try.To(flag.Set("logtostderr", "true"))
	try.To(flag.Set("stderrthreshold", "WARNING"))
	try.To(flag.Set("v", "5"))
	flag.Parse()
	os.Exit(m.Run())
}

func newConf(t *testing.T, name string) AgentStorage {
	return AgentStorage{api.AgentStorageConfig{
		AgentKey: mgddb.GenerateKey(),
		AgentID:  name,
		FilePath: t.TempDir(),
	}}
}

func TestAgentStorage_Shared(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	wallet := newConf(t, "wallet")
	agency := newConf(t, "agency")

	for round := 0; round < 2; round++ {
		w1 := try.To1(wallet.Open())
		w2 := try.To1(wallet.Open())
		assert.That(w1 == w2)

		a := try.To1(agency.Open())
		assert.That(a != w1)

		d := try.To1(w1.CreateDID())
		assert.NoError(wallet.Close())

		got := try.To1(w2.GetDID(d.VerKey))
		assert.Equal(got.DID, d.DID)

		assert.NoError(wallet.Close())
		assert.NoError(agency.Close())
	}
}

func TestAgentStorage_CloseNotOpen(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	c := newConf(t, "closing")
	assert.NoError(c.Close())

	_ = try.To1(c.Open())
	assert.NoError(c.Close())
	assert.NoError(c.Close())
}
