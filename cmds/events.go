package cmds

import (
	"github.com/findy-network/findy-didcomm/agent/bus"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential/holder"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential/issuer"
	"github.com/findy-network/findy-didcomm/protocol/presentproof/prover"
	"github.com/findy-network/findy-didcomm/protocol/presentproof/verifier"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type machineKey struct {
	family string
	role   string
	id     string
}

type machineStates map[machineKey]string

// states returns the current state of every machine of the wallet.
func (w *Wallet) states() (s machineStates, err error) {
	defer err2.Handle(&err, "machine states")

	s = make(machineStates)
	try.To(collect(s, w.Connections, pltype.ProtocolConnection,
		func(c connection.Connection) (string, string) { return string(c.Role), string(c.State) }))
	try.To(collect(s, w.Issuing.Holders, pltype.ProtocolIssueCredential,
		func(h holder.Holder) (string, string) { return "holder", string(h.State()) }))
	try.To(collect(s, w.Issuing.Issuers, pltype.ProtocolIssueCredential,
		func(i issuer.Issuer) (string, string) { return "issuer", string(i.State()) }))
	try.To(collect(s, w.Proving.Provers, pltype.ProtocolPresentProof,
		func(p prover.Prover) (string, string) { return "prover", string(p.State()) }))
	try.To(collect(s, w.Proving.Verifiers, pltype.ProtocolPresentProof,
		func(v verifier.Verifier) (string, string) { return "verifier", string(v.State()) }))
	return s, nil
}

func collect[M any](s machineStates, r *psm.Registry[M], family string,
	state func(M) (role, state string)) (err error) {

	defer err2.Handle(&err)

	for _, id := range try.To1(r.IDs()) {
		role, st := state(try.To1(r.Get(id)))
		s[machineKey{family: family, role: role, id: id}] = st
	}
	return nil
}

// notifyChanges broadcasts the machines whose state differs from prev.
func (w *Wallet) notifyChanges(prev, next machineStates) {
	for k, st := range next {
		if old, ok := prev[k]; ok && old == st {
			continue
		}
		w.Events.Broadcast(bus.Notify{
			ID:             k.id,
			ProtocolFamily: k.family,
			Role:           k.role,
			PrevState:      prev[k],
			State:          st,
		})
	}
}
