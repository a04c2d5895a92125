package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential/holder"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential/issuer"
	"github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// IssueCmd offers the credential to the connection.
type IssueCmd struct {
	Cmd
	CredDefID  string
	Attributes string
	Comment    string
}

func (c IssueCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.CredDefID == "" {
		return errors.New("cred def id cannot be empty")
	}
	if _, err := parseAttrs(c.Attributes); err != nil {
		return err
	}
	return nil
}

func parseAttrs(a string) (credAttrs []issuecredential.Attribute, err error) {
	if err := json.Unmarshal([]byte(a), &credAttrs); err != nil {
		return nil, err
	}
	if len(credAttrs) == 0 {
		return nil, errors.New("credential attributes cannot be empty")
	}
	return credAttrs, nil
}

func (c IssueCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "offer credential")

	credAttrs := try.To1(parseAttrs(c.Attributes))
	return withIndy(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(wlt.Connection(c.Name))
		id := try.To1(wlt.Issuing.Offer(wlt.Binder, conn, c.CredDefID,
			issuecredential.NewPreviewCredential(credAttrs), c.Comment))
		cmds.Fprintln(w, "credential offered:", id)
		if !c.Wait {
			return Result{ID: id, State: string(issuer.OfferSent)}, nil
		}
		try.To(wlt.Wait(timeout, issuerReady(wlt, id, issuer.RequestReceived)))
		try.To1(wlt.Issuing.Issue(wlt.Binder, id))
		try.To(wlt.Wait(timeout, issuerReady(wlt, id, issuer.Finished)))
		i := try.To1(wlt.Issuing.Issuers.Get(id))
		cmds.Fprintln(w, "credential:", i.CredentialStatus())
		return Result{ID: id, State: string(i.State())}, nil
	})
}

func issuerReady(w *cmds.Wallet, id string, s issuer.State) func() (bool, error) {
	return func() (bool, error) {
		i, err := w.Issuing.Issuers.Get(id)
		if err != nil {
			return false, err
		}
		switch {
		case i.State() == s:
			return true, nil
		case i.State() == issuer.Finished:
			return false, fmt.Errorf("credential %s: %v", i.CredentialStatus(), i.GetProblemReport())
		}
		return false, nil
	}
}

// SendCredentialCmd sends the credential of the issuer which has got the
// request. Name is the issuer ID.
type SendCredentialCmd struct {
	Cmd
}

func (c SendCredentialCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "send credential")

	return withIndy(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		i := try.To1(wlt.Issuing.Issue(wlt.Binder, c.Name))
		cmds.Fprintln(w, "credential:", c.Name, i.State())
		return Result{ID: c.Name, State: string(i.State())}, nil
	})
}

// OffersCmd receives the offers of the connection and prints the holders.
type OffersCmd struct {
	Cmd
}

func (c OffersCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "credential offers")

	return withIndy(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(wlt.Connection(c.Name))
		try.To1(wlt.Issuing.ReceiveOffers(wlt.Binder, conn))
		for _, id := range try.To1(wlt.Issuing.Holders.IDs()) {
			h := try.To1(wlt.Issuing.Holders.Get(id))
			if h.Connection.Agent.PwDID != conn.Agent.PwDID {
				continue
			}
			cmds.Fprintf(w, "%s\t%s\t%s\n", id, h.State(), attrNames(h.GetCredentialOffer()))
		}
		return nil, nil
	})
}

func attrNames(offer *issuecredential.Offer) []string {
	if offer == nil {
		return nil
	}
	names := make([]string, 0, len(offer.CredentialPreview.Attributes))
	for _, a := range offer.CredentialPreview.Attributes {
		names = append(names, a.Name+"="+a.Value)
	}
	return names
}

// AcceptOfferCmd accepts the offer of the holder. Name is the holder ID.
type AcceptOfferCmd struct {
	Cmd
}

func (c AcceptOfferCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "accept offer")

	return withIndy(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		h := try.To1(wlt.Issuing.Accept(wlt.Binder, c.Name))
		if c.Wait {
			try.To(wlt.Wait(timeout, func() (bool, error) {
				h, err := wlt.Issuing.Holders.Get(c.Name)
				return h.State() == holder.Finished, err
			}))
			h = try.To1(wlt.Issuing.Holders.Get(c.Name))
		}
		cmds.Fprintln(w, "credential:", c.Name, h.State(), h.CredentialStatus())
		return Result{ID: c.Name, State: string(h.State())}, nil
	})
}

// RejectOfferCmd rejects the offer of the holder. Name is the holder ID.
type RejectOfferCmd struct {
	Cmd
	Comment string
}

func (c RejectOfferCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "reject offer")

	return withIndy(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		h := try.To1(wlt.Issuing.Reject(wlt.Binder, c.Name, c.Comment))
		cmds.Fprintln(w, "credential:", c.Name, h.State(), h.CredentialStatus())
		return Result{ID: c.Name, State: string(h.State())}, nil
	})
}
