package connection

import (
	"errors"
	"io"

	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type BasicMsgCmd struct {
	Cmd
	Message string
}

func (c BasicMsgCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Message == "" {
		return errors.New("message cannot be empty")
	}
	return nil
}

func (c BasicMsgCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "basic message")

	return run(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(wlt.Connection(c.Name))
		id := try.To1(wlt.Messages.Send(wlt.Binder, c.Name, conn, c.Message))
		cmds.Fprintln(w, "message sent:", id)
		return Result{ID: id}, nil
	})
}

// MessagesCmd receives the new basic messages of the connection and prints
// all of them.
type MessagesCmd struct {
	Cmd
}

func (c MessagesCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "basic messages")

	return run(c.Cmd.Cmd, func(wlt *cmds.Wallet) (cmds.Result, error) {
		conn := try.To1(wlt.Connection(c.Name))
		try.To1(wlt.Messages.Receive(wlt.Binder, c.Name, conn))
		for _, m := range try.To1(wlt.Messages.List(c.Name)) {
			dir := "<"
			if m.SentByMe {
				dir = ">"
			}
			cmds.Fprintf(w, "%s %s %s\n", m.SentTime.Format("2006-01-02 15:04:05"), dir, m.Content)
		}
		return nil, nil
	})
}
