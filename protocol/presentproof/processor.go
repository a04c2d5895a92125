/*
Package presentproof keeps the present proof machines of one wallet in the
persistent registries and drives them. The prover and verifier packages
implement the machines themselves.
*/
package presentproof

import (
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/ssi"
	"github.com/findy-network/findy-didcomm/agent/storage/wrapper"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/protocol/presentproof/prover"
	"github.com/findy-network/findy-didcomm/protocol/presentproof/verifier"
	"github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Processor struct {
	Provers   *psm.Registry[prover.Prover]
	Verifiers *psm.Registry[verifier.Verifier]

	Store    ssi.CredentialStore
	Verifier ssi.ProofVerifier
}

func NewProcessor(store wrapper.Store, cs ssi.CredentialStore, pv ssi.ProofVerifier) *Processor {
	return &Processor{
		Provers:   psm.New[prover.Prover](store, pltype.ProtocolPresentProof+"/prover"),
		Verifiers: psm.New[verifier.Verifier](store, pltype.ProtocolPresentProof+"/verifier"),
		Store:     cs,
		Verifier:  pv,
	}
}

// Request starts a new verifier and sends the proof request of the preview.
func (p *Processor) Request(b *pairwise.Binder, conn connection.CompletedConnection, name string,
	preview *presentproof.Preview, comment string) (id string, err error) {

	defer err2.Handle(&err, "request presentation")

	id = try.To1(p.Verifiers.Add(verifier.CreateWithPreview(conn, name, preview, comment)))
	try.To1(p.Verifiers.Update(id, func(v verifier.Verifier) (verifier.Verifier, error) {
		return v.SendPresentationRequest(b)
	}))
	return id, nil
}

// ReceiveRequests creates the provers of the unread requests of the
// connection and returns their IDs.
func (p *Processor) ReceiveRequests(b *pairwise.Binder, conn connection.CompletedConnection) (ids []string, err error) {
	defer err2.Handle(&err, "receive requests")

	for {
		pr, found := try.To2(prover.ReceiveRequest(b, conn))
		if !found {
			return ids, nil
		}
		ids = append(ids, try.To1(p.Provers.Add(pr)))
	}
}

// Present builds the presentation of the prover from the first candidate
// credentials and sends it. A failed preparation is reported to the
// verifier.
func (p *Processor) Present(b *pairwise.Binder, id string, selfAttested map[string]string) (prover.Prover, error) {
	return p.Provers.Update(id, func(pr prover.Prover) (next prover.Prover, err error) {
		defer err2.Handle(&err)

		candidates := try.To1(pr.RetrieveCredentials(p.Store))
		pr = try.To1(pr.GeneratePresentation(p.Store, candidates.Select(selfAttested), nil))
		return pr.SendPresentation(b)
	})
}

// Decline declines the request of the prover.
func (p *Processor) Decline(b *pairwise.Binder, id, reason string) (prover.Prover, error) {
	return p.Provers.Update(id, func(pr prover.Prover) (prover.Prover, error) {
		return pr.DeclinePresentationRequest(b, reason, nil)
	})
}

// Update handles the next mailbox message of every machine which waits for
// the other end. A failing machine doesn't stop the others, the first error
// is returned after.
func (p *Processor) Update(b *pairwise.Binder) (err error) {
	defer err2.Handle(&err, "update present proof")

	var firstErr error
	keep := func(err error) {
		if err != nil {
			glog.Warningln(err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	for _, id := range try.To1(p.Provers.IDs()) {
		pr := try.To1(p.Provers.Get(id))
		if s := pr.State(); s != prover.ProposalSent && s != prover.PresentationSent {
			continue
		}
		_, err := p.Provers.Update(id, func(pr prover.Prover) (prover.Prover, error) {
			return pr.UpdateState(b, nil)
		})
		keep(err)
	}
	for _, id := range try.To1(p.Verifiers.IDs()) {
		v := try.To1(p.Verifiers.Get(id))
		if v.State() != verifier.RequestSent {
			continue
		}
		_, err := p.Verifiers.Update(id, func(v verifier.Verifier) (verifier.Verifier, error) {
			return v.UpdateState(b, p.Verifier, nil)
		})
		keep(err)
	}
	return firstErr
}
