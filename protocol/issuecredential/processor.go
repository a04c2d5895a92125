/*
Package issuecredential keeps the issue credential machines of one wallet in
the persistent registries and drives them. The holder and issuer packages
implement the machines themselves.
*/
package issuecredential

import (
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/ssi"
	"github.com/findy-network/findy-didcomm/agent/storage/wrapper"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential/holder"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential/issuer"
	"github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Processor drives the machines by their registry IDs. The wallet
// collaborators are the same for all the machines.
type Processor struct {
	Holders *psm.Registry[holder.Holder]
	Issuers *psm.Registry[issuer.Issuer]

	Store  ssi.CredentialStore
	Ledger ssi.Ledger
	Issuer ssi.Issuer
}

func NewProcessor(store wrapper.Store, cs ssi.CredentialStore, l ssi.Ledger, iss ssi.Issuer) *Processor {
	return &Processor{
		Holders: psm.New[holder.Holder](store, pltype.ProtocolIssueCredential+"/holder"),
		Issuers: psm.New[issuer.Issuer](store, pltype.ProtocolIssueCredential+"/issuer"),
		Store:   cs,
		Ledger:  l,
		Issuer:  iss,
	}
}

// Offer starts a new issuer and sends the offer. The issuer is stored even
// when the sending fails, and the offer can be sent again by its ID.
func (p *Processor) Offer(b *pairwise.Binder, conn connection.CompletedConnection, credDefID string,
	preview issuecredential.PreviewCredential, comment string) (id string, err error) {

	defer err2.Handle(&err, "offer credential")

	id = try.To1(p.Issuers.Add(issuer.Create(conn, credDefID, preview, comment)))
	try.To1(p.SendOffer(b, id))
	return id, nil
}

func (p *Processor) SendOffer(b *pairwise.Binder, id string) (issuer.Issuer, error) {
	return p.Issuers.Update(id, func(i issuer.Issuer) (issuer.Issuer, error) {
		return i.SendOffer(b, p.Issuer)
	})
}

// ReceiveOffers creates the holders of the unread offers of the connection
// and returns their IDs.
func (p *Processor) ReceiveOffers(b *pairwise.Binder, conn connection.CompletedConnection) (ids []string, err error) {
	defer err2.Handle(&err, "receive offers")

	for {
		h, found := try.To2(holder.ReceiveOffer(b, conn))
		if !found {
			return ids, nil
		}
		ids = append(ids, try.To1(p.Holders.Add(h)))
	}
}

// Accept sends the credential request of the holder.
func (p *Processor) Accept(b *pairwise.Binder, id string) (holder.Holder, error) {
	return p.Holders.Update(id, func(h holder.Holder) (holder.Holder, error) {
		return h.CredentialRequestSend(b, p.Store, p.Ledger)
	})
}

// Reject rejects the offer of the holder.
func (p *Processor) Reject(b *pairwise.Binder, id, comment string) (holder.Holder, error) {
	return p.Holders.Update(id, func(h holder.Holder) (holder.Holder, error) {
		return h.CredentialRejectSend(b, comment)
	})
}

// Issue sends the credential of the issuer which has received the request.
func (p *Processor) Issue(b *pairwise.Binder, id string) (issuer.Issuer, error) {
	return p.Issuers.Update(id, func(i issuer.Issuer) (issuer.Issuer, error) {
		return i.SendCredential(b, p.Issuer)
	})
}

// Update handles the next mailbox message of every unfinished machine. A
// failing machine doesn't stop the others, its error is returned after.
func (p *Processor) Update(b *pairwise.Binder) (err error) {
	defer err2.Handle(&err, "update issue credential")

	var firstErr error
	keep := func(err error) {
		if err != nil {
			glog.Warningln(err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	for _, id := range try.To1(p.Holders.IDs()) {
		h := try.To1(p.Holders.Get(id))
		if h.State() == holder.Finished {
			continue
		}
		_, err := p.Holders.Update(id, func(h holder.Holder) (holder.Holder, error) {
			return h.UpdateState(b, p.Store, p.Ledger, nil)
		})
		keep(err)
	}
	for _, id := range try.To1(p.Issuers.IDs()) {
		i := try.To1(p.Issuers.Get(id))
		if i.State() == issuer.Finished || i.State() == issuer.Initial {
			continue
		}
		_, err := p.Issuers.Update(id, func(i issuer.Issuer) (issuer.Issuer, error) {
			return i.UpdateState(b, nil)
		})
		keep(err)
	}
	return firstErr
}
