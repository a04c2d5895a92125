package agency

import (
	"errors"
	"io"
	"time"

	"github.com/findy-network/findy-didcomm/agent/agency"
	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// PingCmd checks that the agency answers and prints what the agents get
// from it.
type PingCmd struct {
	BaseAddr string
	Timeout  time.Duration
}

func (c PingCmd) Validate() error {
	if c.BaseAddr == "" {
		return errors.New("server url cannot be empty")
	}
	return nil
}

func (c PingCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "ping agency")

	info := try.To1(agency.NewHTTPClient(c.BaseAddr, c.Timeout).Info())
	cmds.Fprintln(w, "ping ok.",
		"\nagency endpoint:", info.Endpoint,
		"\nagency verkey:", info.VerKey)
	return nil, nil
}
