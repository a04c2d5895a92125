/*
Package prottest sets up the pairwise agents of the protocol tests. The
agents of both ends live in the same in-process agency, which delivers the
messages synchronously to the mailboxes.
*/
package prottest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/agency"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/sec"
	"github.com/findy-network/findy-didcomm/agent/storage/api"
	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/findy-network/findy-didcomm/agent/storage/wrapper"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const AgencyURL = "http://localhost:8090"

var ErrStatusDown = errors.New("status updates are down")

// StatusDown is an agency client which reads the mailbox but fails to mark
// the messages reviewed.
type StatusDown struct {
	agency.Client
}

func (StatusDown) UpdateStatus(string, string, agency.MessageStatus) error {
	return ErrStatusDown
}

// NewStorage returns a storage in the test's temp dir. It's closed when the
// test ends.
func NewStorage(t testing.TB) *mgddb.Storage {
	dir := t.TempDir()
	s := try.To1(mgddb.New(api.AgentStorageConfig{
		AgentKey: mgddb.GenerateKey(),
		AgentID:  filepath.Base(dir),
		FilePath: dir,
	}))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Wallet is one end of the tests: its binder and the storage of its keys
// and state machines.
type Wallet struct {
	*pairwise.Binder
	Storage *mgddb.Storage
}

// PSMStore returns the state machine bucket of the wallet.
func (w Wallet) PSMStore() wrapper.Store {
	return try.To1(w.Storage.Store(mgddb.NamePSM))
}

// NewWallets returns two wallets served by the same agency.
func NewWallets(t testing.TB) (alice, bob Wallet) {
	a := try.To1(agency.New(NewStorage(t), AgencyURL, ""))
	return newWallet(t, a), newWallet(t, a)
}

func newWallet(t testing.TB, a *agency.Agency) Wallet {
	s := NewStorage(t)
	b := pairwise.NewBinder(a, try.To1(sec.New(s, "")), a)
	b.Wait = true
	return Wallet{Binder: b, Storage: s}
}

// Connect runs the connection protocol from alice's invitation and returns
// the completed connections of both ends.
func Connect(alice, bob *pairwise.Binder) (inviter, invitee connection.CompletedConnection) {
	a := try.To1(connection.CreateInviter("alice").Connect(alice))
	b := try.To1(connection.CreateWithInvite("bob", a.Invitation))
	b = try.To1(b.Connect(bob))
	a = try.To1(a.UpdateState(alice, nil))
	b = try.To1(b.UpdateState(bob, nil))
	a = try.To1(a.UpdateState(alice, nil))
	assert.That(a.IsCompleted() && b.IsCompleted(), "connection not completed")

	return try.To1(a.GetCompletedConnection()), try.To1(b.GetCompletedConnection())
}
