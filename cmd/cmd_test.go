package cmd

import (
	"os"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/lainio/err2/assert"
)

var walletKey = mgddb.GenerateKey()

func TestExecute(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	wallet := []string{"--wallet", "test_wallet1", "--wallet-key", walletKey}

	tests := []struct {
		name string
		args []string
	}{
		{"version", []string{"version"}},
		{"agency ping", []string{"agency", "ping", "--dry-run"}},
		{"agency start", []string{"agency", "start", "--dry-run",
			"--agency-key", walletKey, "--agency-path", t.TempDir()}},
		{"connection invitation", append([]string{"connection", "invitation", "--dry-run", "--outofband"}, wallet...)},
		{"connection accept", append([]string{"connection", "accept", "--dry-run",
			`{"@type":"https://didcomm.org/connections/1.0/invitation","@id":"1"}`}, wallet...)},
		{"connection list", append([]string{"connection", "list", "--dry-run"}, wallet...)},
		{"connection trustping", append([]string{"connection", "trustping", "--dry-run", "--id", "conn"}, wallet...)},
		{"message send", append([]string{"message", "send", "--dry-run", "--id", "conn", "hello"}, wallet...)},
		{"credential offer", append([]string{"credential", "offer", "--dry-run", "--id", "conn",
			"--cred-def-id", "cd", "--attrs", `[{"name":"email","value":"a@b.c"}]`}, wallet...)},
		{"credential accept", append([]string{"credential", "accept", "--dry-run", "--id", "holder"}, wallet...)},
		{"proof request", append([]string{"proof", "request", "--dry-run", "--id", "conn",
			"--attrs", `[{"name":"email"}]`, "--predicates", `[{"name":"age","predicate":">=","threshold":18}]`}, wallet...)},
		{"proof present", append([]string{"proof", "present", "--dry-run", "--id", "prover",
			"--self-attested", `{"nick":"bob"}`}, wallet...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			rootCmd.SetArgs(tt.args)
			assert.NoError(rootCmd.Execute())
		})
	}
}

func TestExecute_Invalid(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	tests := []struct {
		name string
		args []string
	}{
		{"no wallet key", []string{"connection", "list", "--dry-run", "--wallet", "w", "--wallet-key", ""}},
		{"no connection", []string{"message", "send", "--dry-run", "--id", "", "--wallet", "w",
			"--wallet-key", walletKey, "hello"}},
		{"bad attrs", []string{"credential", "offer", "--dry-run", "--id", "conn", "--wallet", "w",
			"--wallet-key", walletKey, "--cred-def-id", "cd", "--attrs", "not json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			rootCmd.SetArgs(tt.args)
			assert.Error(rootCmd.Execute())
		})
	}
}
