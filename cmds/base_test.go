package cmds

import (
	"testing"

	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/lainio/err2/assert"
)

func TestValidateKey(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.NoError(ValidateKey(mgddb.GenerateKey()))
	assert.Error(ValidateKey(""))
	assert.Error(ValidateKey("6cih1cVgRH8yHD54nEYyPKLmdv67o8QbufxaTHot3Qxp"))
	assert.Error(ValidateKey("zz" + mgddb.GenerateKey()[2:]))
}

func TestCmd_Validate(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.Error(Cmd{}.Validate())

	c := Cmd{Settings: utils.NewSettings(utils.Config{
		AgencyURL:  "http://localhost:8090",
		WalletName: "alice",
		WalletKey:  mgddb.GenerateKey(),
	})}
	assert.NoError(c.Validate())

	c = Cmd{Settings: utils.NewSettings(utils.Config{
		WalletName: "alice",
		WalletKey:  mgddb.GenerateKey(),
	})}
	assert.Error(c.Validate())
}
