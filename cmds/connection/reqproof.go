package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/findy-network/findy-didcomm/protocol/presentproof/prover"
	"github.com/findy-network/findy-didcomm/protocol/presentproof/verifier"
	"github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ReqProofCmd requests a proof of the attributes and predicates from the
// connection.
type ReqProofCmd struct {
	Cmd
	ProofName  string
	Attributes string
	Predicates string
	Comment    string
}

func (c ReqProofCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if _, err := parseProofAttrs(c.Attributes); err != nil {
		return err
	}
	if _, err := parsePredicates(c.Predicates); err != nil {
		return err
	}
	return nil
}

func parseProofAttrs(a string) (proofAttrs []presentproof.Attribute, err error) {
	if err := json.Unmarshal([]byte(a), &proofAttrs); err != nil {
		return nil, err
	}
	return proofAttrs, nil
}

func parsePredicates(p string) (predicates []presentproof.Predicate, err error) {
	if p == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(p), &predicates); err != nil {
		return nil, err
	}
	for _, pred := range predicates {
		switch pred.Predicate {
		case "<", "<=", ">=", ">":
		default:
			return nil, fmt.Errorf("invalid predicate %q", pred.Predicate)
		}
	}
	return predicates, nil
}

func (c ReqProofCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "request proof")

	attrs := try.To1(parseProofAttrs(c.Attributes))
	predicates := try.To1(parsePredicates(c.Predicates))
	name := c.ProofName
	if name == "" {
		name = "proof-request"
	}
	return withIndy(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(wlt.Connection(c.Name))
		id := try.To1(wlt.Proving.Request(wlt.Binder, conn, name,
			presentproof.NewPreview(attrs, predicates), c.Comment))
		cmds.Fprintln(w, "proof requested:", id)
		if !c.Wait {
			return Result{ID: id, State: string(verifier.RequestSent)}, nil
		}
		try.To(wlt.Wait(timeout, func() (bool, error) {
			v, err := wlt.Proving.Verifiers.Get(id)
			return v.State() == verifier.Finished, err
		}))
		v := try.To1(wlt.Proving.Verifiers.Get(id))
		cmds.Fprintln(w, "proof:", v.PresentationStatus())
		for _, a := range v.Revealed {
			cmds.Fprintf(w, "%s\t%s\t%s\n", a.Name, a.Value, a.CredDefID)
		}
		return Result{ID: id, State: string(v.State())}, nil
	})
}

// RequestsCmd receives the proof requests of the connection and prints the
// provers.
type RequestsCmd struct {
	Cmd
}

func (c RequestsCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "proof requests")

	return withIndy(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(wlt.Connection(c.Name))
		try.To1(wlt.Proving.ReceiveRequests(wlt.Binder, conn))
		for _, id := range try.To1(wlt.Proving.Provers.IDs()) {
			p := try.To1(wlt.Proving.Provers.Get(id))
			if p.Connection.Agent.PwDID != conn.Agent.PwDID {
				continue
			}
			name := ""
			if pr, err := p.GetProofRequest(); err == nil {
				name = pr.Name
			}
			cmds.Fprintf(w, "%s\t%s\t%s\n", id, p.State(), name)
		}
		return nil, nil
	})
}

// PresentCmd presents the proof for the request of the prover. Name is the
// prover ID. SelfAttested is a JSON object of the self attested values.
type PresentCmd struct {
	Cmd
	SelfAttested string
}

func (c PresentCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	_, err := parseSelfAttested(c.SelfAttested)
	return err
}

func parseSelfAttested(s string) (values map[string]string, err error) {
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, errors.New("self attested values must be a JSON object of strings")
	}
	return values, nil
}

func (c PresentCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "present proof")

	selfAttested := try.To1(parseSelfAttested(c.SelfAttested))
	return withIndy(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		p := try.To1(wlt.Proving.Present(wlt.Binder, c.Name, selfAttested))
		if c.Wait && p.State() != prover.Finished {
			try.To(wlt.Wait(timeout, func() (bool, error) {
				p, err := wlt.Proving.Provers.Get(c.Name)
				return p.State() == prover.Finished, err
			}))
			p = try.To1(wlt.Proving.Provers.Get(c.Name))
		}
		cmds.Fprintln(w, "proof:", c.Name, p.State(), p.PresentationStatus())
		return Result{ID: c.Name, State: string(p.State())}, nil
	})
}

// DeclineCmd declines the proof request of the prover. Name is the prover
// ID.
type DeclineCmd struct {
	Cmd
	Reason string
}

func (c DeclineCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "decline proof")

	return withIndy(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		p := try.To1(wlt.Proving.Decline(wlt.Binder, c.Name, c.Reason))
		cmds.Fprintln(w, "proof:", c.Name, p.State(), p.PresentationStatus())
		return Result{ID: c.Name, State: string(p.State())}, nil
	})
}
