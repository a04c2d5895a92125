package cmds

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/findy-network/findy-didcomm/agent/agency"
	"github.com/findy-network/findy-didcomm/agent/bus"
	"github.com/findy-network/findy-didcomm/agent/comm"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/sec"
	"github.com/findy-network/findy-didcomm/agent/ssi"
	"github.com/findy-network/findy-didcomm/agent/storage/api"
	"github.com/findy-network/findy-didcomm/agent/storage/cfg"
	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/protocol/basicmessage"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential"
	"github.com/findy-network/findy-didcomm/protocol/presentproof"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrNotReady = errors.New("not ready")

// Wallet is the storage of the CLI user and everything the protocols run
// on. The Indy collaborators are only there when the Indy wallet key is
// given.
type Wallet struct {
	*pairwise.Binder
	Storage *mgddb.Storage

	Connections *psm.Registry[connection.Connection]
	Messages    *basicmessage.Messages
	Issuing     *issuecredential.Processor
	Proving     *presentproof.Processor

	// Events gets a notification of every state change Update makes.
	Events *bus.Station

	label string
	indy  *ssi.Indy
	conf  cfg.AgentStorage
}

// Open opens the wallet of the command settings.
func (c Cmd) Open() (w *Wallet, err error) {
	defer err2.Handle(&err, "open wallet %s", c.WalletName())

	conf := cfg.AgentStorage{AgentStorageConfig: api.AgentStorageConfig{
		AgentKey: c.WalletKey(),
		AgentID:  c.WalletName(),
		FilePath: c.WalletPath(),
	}}
	s := try.To1(conf.Open())
	defer err2.Handle(&err, func(err error) error {
		_ = conf.Close()
		return err
	})
	env := try.To1(sec.New(s, c.MediaType()))
	b := pairwise.NewBinder(agency.NewHTTPClient(c.AgencyURL(), c.Timeout()),
		env, comm.HTTP{Timeout: c.Timeout()})
	b.Wait = c.Wait()

	store := try.To1(s.Store(mgddb.NamePSM))
	w = &Wallet{
		Binder:      b,
		Storage:     s,
		Connections: psm.New[connection.Connection](store, pltype.ProtocolConnection),
		Messages:    basicmessage.New(store),
		Events:      bus.NewStation(),
		label:       c.Label(),
		conf:        conf,
	}

	var (
		cs  ssi.CredentialStore
		l   ssi.Ledger
		iss ssi.Issuer
		pv  ssi.ProofVerifier
	)
	if c.IndyKey() != "" {
		w.indy = try.To1(openIndy(c.Settings))
		cs, l, iss, pv = w.indy, w.indy, w.indy, w.indy
	} else {
		glog.V(1).Infoln("no indy wallet, credential protocols not available")
	}
	w.Issuing = issuecredential.NewProcessor(store, cs, l, iss)
	w.Proving = presentproof.NewProcessor(store, cs, pv)
	return w, nil
}

func openIndy(s *utils.Settings) (i *ssi.Indy, err error) {
	defer err2.Handle(&err, "open indy")

	wh := try.To1(ssi.NewRawWalletCfg(s.WalletName(), s.IndyKey()).Open())
	ph, err := ssi.OpenPool(s.PoolName())
	if err != nil {
		_ = ssi.CloseWallet(wh)
		return nil, err
	}
	return ssi.NewIndy(wh, ph, s.IndyDID(), s.MasterSecretID())
}

// HasIndy tells if the credential protocols can be run.
func (w *Wallet) HasIndy() bool {
	return w.indy != nil
}

func (w *Wallet) Label() string {
	return w.label
}

func (w *Wallet) Close() error {
	if w.indy != nil {
		if err := ssi.ClosePool(w.indy.Pool); err != nil {
			glog.Warningln("close pool:", err)
		}
		if err := ssi.CloseWallet(w.indy.Wallet); err != nil {
			glog.Warningln("close indy wallet:", err)
		}
	}
	return w.conf.Close()
}

// Connection returns the completed connection by its ID.
func (w *Wallet) Connection(id string) (conn connection.CompletedConnection, err error) {
	defer err2.Handle(&err, "connection %s", id)

	c := try.To1(w.Connections.Get(id))
	return c.GetCompletedConnection()
}

// Update runs every protocol of the wallet one step forward with the
// messages in the mailboxes. The offers, the proof requests and the basic
// messages of the completed connections are received to their registries.
// A failing step is logged and the first error is returned after the
// others have run. The state changes are broadcast to the Events.
func (w *Wallet) Update() (err error) {
	defer err2.Handle(&err, "update wallet")

	var firstErr error
	keep := func(err error) {
		if err != nil {
			glog.Warningln(err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	prev := try.To1(w.states())
	defer func() {
		if next, err := w.states(); err == nil {
			w.notifyChanges(prev, next)
		}
	}()

	for _, id := range try.To1(w.Connections.IDs()) {
		c := try.To1(w.Connections.Get(id))
		if c.State == connection.Null || c.State == connection.Failed {
			continue
		}
		c, err := w.Connections.Update(id, func(c connection.Connection) (connection.Connection, error) {
			return c.UpdateState(w.Binder, nil)
		})
		keep(err)
		if !c.IsCompleted() {
			continue
		}
		conn := try.To1(c.GetCompletedConnection())
		_, err = w.Messages.Receive(w.Binder, id, conn)
		keep(err)
		if w.HasIndy() {
			_, err = w.Issuing.ReceiveOffers(w.Binder, conn)
			keep(err)
			_, err = w.Proving.ReceiveRequests(w.Binder, conn)
			keep(err)
		}
	}
	keep(w.Issuing.Update(w.Binder))
	keep(w.Proving.Update(w.Binder))
	return firstErr
}

// Wait updates the wallet until ready returns true or the timeout is
// reached. ready returning ErrNotReady means that it should be asked
// again, other errors stop the waiting.
func (w *Wallet) Wait(timeout time.Duration, ready func() (bool, error)) (err error) {
	defer err2.Handle(&err, "wait")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		if err := w.Update(); err != nil {
			glog.V(3).Infoln("update:", err)
		}
		ok, err := ready()
		switch {
		case errors.Is(err, ErrNotReady):
			return err
		case err != nil:
			return backoff.Permanent(err)
		case !ok:
			return ErrNotReady
		}
		return nil
	}, bo)
}
