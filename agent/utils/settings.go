package utils

import (
	"path/filepath"
	"time"

	"github.com/golang/glog"
)

var Version = "0.1.0"

const (
	HTTPReqTimeout = 1 * time.Minute

	DefaultMediaType = "didcomm/aip1"
)

// Config is filled from the flags, the environment and the config file. The
// keys are the flag names.
type Config struct {
	AgencyURL   string        `mapstructure:"agency-url"`
	AgencyPath  string        `mapstructure:"agency-path"`
	AgencyKey   string        `mapstructure:"agency-key"`
	WalletName  string        `mapstructure:"wallet"`
	WalletKey   string        `mapstructure:"wallet-key"`
	WalletPath  string        `mapstructure:"wallet-path"`
	IndyKey     string        `mapstructure:"indy-key"`
	IndyDID     string        `mapstructure:"indy-did"`
	PoolName    string        `mapstructure:"pool"`
	MediaType   string        `mapstructure:"media-type"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Wait        bool          `mapstructure:"wait"`
	Label       string        `mapstructure:"label"`
	MasterSecID string        `mapstructure:"master-secret"`
}

// Settings are read once at the start and passed to the binder and the
// command implementations. There are no setters.
type Settings struct {
	c Config
}

func NewSettings(c Config) *Settings {
	c.AgencyPath = ExpandHome(c.AgencyPath)
	c.WalletPath = ExpandHome(c.WalletPath)
	if c.MediaType == "" {
		c.MediaType = DefaultMediaType
	}
	if c.Timeout == 0 {
		c.Timeout = HTTPReqTimeout
	}
	if c.Label == "" {
		c.Label = c.WalletName
	}
	return &Settings{c: c}
}

// AgencyURL is the base URL of the agency. Agents are reached at its
// /didcomm path.
func (s *Settings) AgencyURL() string {
	return s.c.AgencyURL
}

// AgencyEndpoint returns the DIDComm endpoint of the agency.
func (s *Settings) AgencyEndpoint() string {
	return s.c.AgencyURL + "/didcomm"
}

func (s *Settings) AgencyPath() string {
	return s.c.AgencyPath
}

func (s *Settings) AgencyKey() string {
	return s.c.AgencyKey
}

func (s *Settings) WalletName() string {
	return s.c.WalletName
}

func (s *Settings) WalletKey() string {
	return s.c.WalletKey
}

// WalletPath is the directory of the wallet's bolt file.
func (s *Settings) WalletPath() string {
	if s.c.WalletPath == "" {
		return filepath.Join(IndyBaseDir(), ".findy", "wallets")
	}
	return s.c.WalletPath
}

// IndyKey is the key of the Indy wallet which holds the credentials. Without
// it the commands run without the anoncreds collaborators.
func (s *Settings) IndyKey() string {
	return s.c.IndyKey
}

// IndyDID is our DID in the Indy wallet. It's the prover DID of the
// credential requests and the submitter of the ledger reads.
func (s *Settings) IndyDID() string {
	return s.c.IndyDID
}

func (s *Settings) PoolName() string {
	return s.c.PoolName
}

func (s *Settings) MasterSecretID() string {
	if s.c.MasterSecID == "" {
		return s.c.WalletName
	}
	return s.c.MasterSecID
}

func (s *Settings) MediaType() string {
	return s.c.MediaType
}

// Timeout is the timeout of the HTTP requests.
func (s *Settings) Timeout() time.Duration {
	return s.c.Timeout
}

// Wait tells if the messages are posted synchronously.
func (s *Settings) Wait() bool {
	return s.c.Wait
}

func (s *Settings) Label() string {
	return s.c.Label
}

func (s *Settings) String() string {
	if glog.V(5) {
		return s.c.WalletName + "@" + s.c.AgencyURL + " (" + s.WalletPath() + ")"
	}
	return s.c.WalletName + "@" + s.c.AgencyURL
}
