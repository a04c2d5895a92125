/*
Package cmds implements the commands of the CLI. A command is validated
first and then executed against the wallet the settings name. The command
packages are free of cobra, the cmd package binds them to the flags.
*/
package cmds

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// walletKeyLength is the length of the hex encoded storage key.
const walletKeyLength = 64

var ErrInvalid = errors.New("invalid command, check arguments")

type Cmd struct {
	*utils.Settings
}

func (c Cmd) Validate() error {
	if c.Settings == nil {
		return fmt.Errorf("%w: no settings", ErrInvalid)
	}
	if c.WalletName() == "" {
		return errors.New("wallet name cannot be empty")
	}
	if err := ValidateKey(c.WalletKey()); err != nil {
		return err
	}
	if c.AgencyURL() == "" {
		return errors.New("agency URL cannot be empty")
	}
	return nil
}

func ValidateKey(k string) error {
	if k == "" {
		return errors.New("wallet key cannot be empty")
	}
	if len(k) != walletKeyLength {
		return errors.New("wallet key is not valid")
	}
	if _, err := hex.DecodeString(k); err != nil {
		return fmt.Errorf("wallet key is not valid: %w", err)
	}
	return nil
}

type Result interface {
	JSON() ([]byte, error)
}

type Command interface {
	Validate() error
	Exec(w io.Writer) (r Result, err error)
}

// Fprintln is fmt.Fprintln but it allows writer to be nil. Note! it throws an
// error.
func Fprintln(w io.Writer, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintln(w, a...))
	}
}

// Fprintf is fmt.Fprintf but it allows writer to be nil. Note! it throws an
// error.
func Fprintf(w io.Writer, format string, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintf(w, format, a...))
	}
}

func Fprint(w io.Writer, a ...any) {
	if w != nil {
		try.To1(fmt.Fprint(w, a...))
	}
}

// Progress prints dots to w until the returned channel is closed.
func Progress(w io.Writer) chan<- struct{} {
	done := make(chan struct{})
	go func() {
		defer err2.Catch()
		for {
			select {
			case <-done:
				return
			case <-time.After(300 * time.Millisecond):
				Fprint(w, ".")
			}
		}
	}()
	return done
}
