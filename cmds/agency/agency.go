/*
Package agency implements the commands of the mailbox agency: starting the
agency service and pinging a running one.
*/
package agency

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/findy-network/findy-didcomm/agent/agency"
	"github.com/findy-network/findy-didcomm/agent/storage/api"
	"github.com/findy-network/findy-didcomm/agent/storage/cfg"
	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// storageName is the bolt file of the agency under the agency path.
const storageName = "agency"

const shutdownTimeout = 5 * time.Second

// Cmd starts the agency. The agency URL of the settings is the public base
// URL which goes to the DIDDocs of the agents.
type Cmd struct {
	*utils.Settings
	ServerPort    uint
	SweepInterval time.Duration

	agency  *agency.Agency
	storage *mgddb.Storage
	conf    cfg.AgentStorage
	sweeper *gocron.Scheduler
}

func (c *Cmd) Validate() error {
	if c.Settings == nil {
		return cmds.ErrInvalid
	}
	if c.AgencyURL() == "" {
		return errors.New("agency URL cannot be empty")
	}
	if c.AgencyPath() == "" {
		return errors.New("agency storage path cannot be empty")
	}
	if err := cmds.ValidateKey(c.AgencyKey()); err != nil {
		return fmt.Errorf("agency key: %w", err)
	}
	if c.ServerPort == 0 {
		return errors.New("server port cannot be zero")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	return nil
}

// Exec runs the agency until it's interrupted.
func (c *Cmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "agency")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	try.To(c.Setup())
	defer c.closeAll()

	cmds.Fprintln(w, "agency started at port", c.ServerPort, "endpoint", c.AgencyEndpoint())
	return nil, c.Run(ctx)
}

// Setup opens the agency storage and starts the mailbox sweeper.
func (c *Cmd) Setup() (err error) {
	defer err2.Handle(&err, "agency setup")

	c.printStartupArgs()
	c.conf = cfg.AgentStorage{AgentStorageConfig: api.AgentStorageConfig{
		AgentKey: c.AgencyKey(),
		AgentID:  storageName,
		FilePath: c.AgencyPath(),
	}}
	c.storage = try.To1(c.conf.Open())
	c.agency = try.To1(agency.New(c.storage, c.AgencyURL(), c.MediaType()))
	c.sweeper = try.To1(c.agency.StartSweeper(c.SweepInterval))
	return nil
}

// Handler returns the HTTP API of the set up agency.
func (c *Cmd) Handler() http.Handler {
	return c.agency.Handler()
}

// Run serves the agency API until the context is done.
func (c *Cmd) Run(ctx context.Context) (err error) {
	defer err2.Handle(&err, "agency run")

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.ServerPort),
		Handler:           c.Handler(),
		ReadHeaderTimeout: utils.HTTPReqTimeout,
	}
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	glog.V(1).Infoln("agency listening on", srv.Addr)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	glog.Infoln("agency shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func (c *Cmd) closeAll() {
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
	if c.storage != nil {
		if err := c.conf.Close(); err != nil {
			glog.Warningln("close agency storage:", err)
		}
	}
}

func (c *Cmd) printStartupArgs() {
	glog.Infoln(
		"\nagency URL:", c.AgencyURL(),
		"\nstorage path:", c.AgencyPath(),
		"\nserver port:", c.ServerPort,
		"\nsweep interval:", c.SweepInterval)
}

// ParseLoggingArgs parses the glog flags from the string.
func ParseLoggingArgs(s string) {
	args := make([]string, 1, 12)
	args[0] = os.Args[0]
	args = append(args, strings.Split(s, " ")...)
	orgArgs := os.Args
	os.Args = args
	flag.Parse()
	os.Args = orgArgs
}
