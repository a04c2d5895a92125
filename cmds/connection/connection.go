/*
Package connection implements the commands run on the pairwise connections
of the wallet: the invitations, the basic messages and trust pings, and the
credential and proof protocols. A command opens the wallet, runs its
protocol step, and optionally waits until the other end has answered.
*/
package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/findy-network/findy-didcomm/agent/aries"
	"github.com/findy-network/findy-didcomm/agent/bus"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/std/didexchange"
	"github.com/findy-network/findy-didcomm/std/outofband"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// timeout to wait the other end before we stop. When real ledger is in use,
// this must be quite high.
const timeout = 8000 * time.Millisecond

var ErrNoIndy = errors.New("indy wallet key not given")

// Cmd is a command run on the connection Name.
type Cmd struct {
	cmds.Cmd
	Name string
	Wait bool
}

func (c Cmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Name == "" {
		return errors.New("connection name cannot be empty")
	}
	return nil
}

type Result struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

func (r Result) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// run opens the wallet for f and closes it after.
func run(c cmds.Cmd, f func(w *cmds.Wallet) (cmds.Result, error)) (r cmds.Result, err error) {
	defer err2.Handle(&err)

	w := try.To1(c.Open())
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return f(w)
}

func withIndy(c cmds.Cmd, f func(w *cmds.Wallet) (cmds.Result, error)) (cmds.Result, error) {
	return run(c, func(w *cmds.Wallet) (cmds.Result, error) {
		if !w.HasIndy() {
			return nil, ErrNoIndy
		}
		return f(w)
	})
}

// InvitationCmd creates a new connection and prints its invitation.
type InvitationCmd struct {
	cmds.Cmd
	Outofband bool
	GoalCode  string
	Goal      string
}

type InvitationResult struct {
	ID         string          `json:"id"`
	Invitation json.RawMessage `json:"invitation"`
}

func (r InvitationResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}

func (c InvitationCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if !c.Outofband && (c.GoalCode != "" || c.Goal != "") {
		return errors.New("goal is only for out-of-band invitations")
	}
	return nil
}

func (c InvitationCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "invitation")

	return run(c.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := connection.CreateInviter(wlt.Label())
		if c.Outofband {
			conn = connection.CreateOutofbandInviter(wlt.Label(), connection.OutofbandMeta{
				GoalCode:  c.GoalCode,
				Goal:      c.Goal,
				Handshake: true,
			})
		}
		conn = try.To1(conn.Connect(wlt.Binder))
		id := try.To1(wlt.Connections.Add(conn))
		inv := try.To1(conn.GetInviteDetails())

		cmds.Fprintln(w, "connection:", id)
		cmds.Fprintln(w, string(inv))
		return InvitationResult{ID: id, Invitation: inv}, nil
	})
}

// AcceptCmd accepts the invitation. The invitation is the JSON or an URL
// with the c_i or oob query parameter.
type AcceptCmd struct {
	cmds.Cmd
	Invitation string
	Wait       bool
}

func (c AcceptCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if _, err := DecodeInvitation(c.Invitation); err != nil {
		return err
	}
	return nil
}

func (c AcceptCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "accept invitation")

	data := try.To1(DecodeInvitation(c.Invitation))
	return run(c.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(createInvitee(wlt.Label(), data))
		conn = try.To1(conn.Connect(wlt.Binder))
		id := try.To1(wlt.Connections.Add(conn))
		cmds.Fprintln(w, "connection:", id, conn.State)

		if c.Wait {
			try.To(wlt.Wait(timeout, connectionReady(wlt, id)))
			conn = try.To1(wlt.Connections.Get(id))
			cmds.Fprintln(w, "connection:", id, conn.State)
		}
		return Result{ID: id, State: string(conn.State)}, nil
	})
}

func createInvitee(label string, data []byte) (c connection.Connection, err error) {
	defer err2.Handle(&err)

	switch inv := try.To1(aries.Decode(data)).(type) {
	case *didexchange.Invitation:
		return connection.CreateWithInvite(label, inv)
	case *outofband.Invitation:
		return connection.CreateWithOutofbandInvite(label, inv)
	default:
		return c, fmt.Errorf("%w: %s", connection.ErrInvitation, inv.Type())
	}
}

// DecodeInvitation returns the invitation JSON of the JSON or the
// invitation URL.
func DecodeInvitation(s string) (data []byte, err error) {
	defer err2.Handle(&err, "decode invitation")

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("invitation cannot be empty")
	}
	if strings.HasPrefix(s, "{") {
		return []byte(s), nil
	}
	u := try.To1(url.Parse(s))
	q := u.Query()
	for _, param := range []string{"oob", "c_i"} {
		if v := q.Get(param); v != "" {
			return utils.DecodeB64(v)
		}
	}
	return nil, fmt.Errorf("%w: no invitation in URL", connection.ErrInvitation)
}

func connectionReady(w *cmds.Wallet, id string) func() (bool, error) {
	return func() (bool, error) {
		c, err := w.Connections.Get(id)
		if err != nil {
			return false, err
		}
		switch c.State {
		case connection.Completed:
			return true, nil
		case connection.Failed:
			return false, fmt.Errorf("connection failed: %v", c.GetProblemReport())
		}
		return false, nil
	}
}

// UpdateCmd runs the protocols of the wallet with the received messages.
type UpdateCmd struct {
	cmds.Cmd
}

func (c UpdateCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "update")

	return run(c.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		key := bus.ListenerKey{WalletName: c.WalletName(), ClientID: "update"}
		events := wlt.Events.AddListener(key)
		if err := wlt.Update(); err != nil {
			cmds.Fprintln(w, "update:", err)
		}
		wlt.Events.RmListener(key)
		for n := range events {
			cmds.Fprintf(w, "%s %s %s: %s -> %s\n", n.ProtocolFamily, n.Role, n.ID, n.PrevState, n.State)
		}
		return nil, list(w, wlt)
	})
}

// ListCmd prints the connections of the wallet.
type ListCmd struct {
	cmds.Cmd
}

func (c ListCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return run(c.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		return nil, list(w, wlt)
	})
}

func list(w io.Writer, wlt *cmds.Wallet) (err error) {
	defer err2.Handle(&err, "list connections")

	for _, id := range try.To1(wlt.Connections.IDs()) {
		c := try.To1(wlt.Connections.Get(id))
		peer := ""
		if c.TheirDoc != nil {
			peer = c.TheirDoc.ID
		}
		cmds.Fprintf(w, "%s\t%s\t%s\t%s\n", id, c.Role, c.State, peer)
	}
	return nil
}

// InfoCmd prints the connection info of both ends.
type InfoCmd struct {
	Cmd
}

func (c InfoCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "connection info")

	return run(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(wlt.Connections.Get(c.Name))
		info := try.To1(conn.GetConnectionInfo())
		data := try.To1(json.MarshalIndent(info, "", "  "))
		cmds.Fprintln(w, string(data))
		return Result{ID: c.Name, State: string(conn.State)}, nil
	})
}
