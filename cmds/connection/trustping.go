package connection

import (
	"io"

	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type TrustPingCmd struct {
	Cmd
	Comment string
}

func (c TrustPingCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "trust ping")

	return run(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(wlt.Connections.Update(c.Name, func(conn connection.Connection) (connection.Connection, error) {
			return conn.SendPing(wlt.Binder, c.Comment)
		}))
		cmds.Fprintln(w, "ping sent to", c.Name)
		return Result{ID: c.Name, State: string(conn.State)}, nil
	})
}

// DiscoverCmd asks the protocols the other end supports. The answer is
// stored to the connection by the next update.
type DiscoverCmd struct {
	Cmd
	Query string
}

func (c DiscoverCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "discover features")

	query := c.Query
	if query == "" {
		query = "*"
	}
	return run(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(wlt.Connections.Get(c.Name))
		try.To(conn.SendDiscoveryFeatures(wlt.Binder, query, ""))
		if c.Wait {
			try.To(wlt.Wait(timeout, func() (bool, error) {
				conn, err := wlt.Connections.Get(c.Name)
				return len(conn.TheirProtocols) > 0, err
			}))
			conn = try.To1(wlt.Connections.Get(c.Name))
			for _, p := range conn.TheirProtocols {
				cmds.Fprintln(w, p.PID)
			}
		}
		return Result{ID: c.Name, State: string(conn.State)}, nil
	})
}
