package cmd

import (
	"log"
	"time"

	"github.com/findy-network/findy-didcomm/cmds/agency"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

// AgencyCmd represents the agency command
var AgencyCmd = &cobra.Command{
	Use:   "agency",
	Short: "Parent command for starting and pinging agency",
	Long: `
Parent command for starting and pinging agency
	`,
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var agencyStartEnvs = map[string]string{
	"agency-path":    "PATH",
	"agency-key":     "KEY",
	"server-port":    "SERVER_PORT",
	"sweep-interval": "SWEEP_INTERVAL",
}

// startAgencyCmd represents the agency start subcommand
var startAgencyCmd = &cobra.Command{
	Use:   "start",
	Short: "Command for starting agency",
	Long: `
Starts the mailbox agency. The agency URL is the public base URL of the
agency, the agents are reached at its /didcomm path.

Example
	findy-didcomm agency start \
		--agency-url http://localhost:8080 \
		--agency-path ~/.findy/agency \
		--agency-key 15308490f1e4026284594dd08d31291bc8ef2aeac730d0daf6ff87bb92d4336c \
		--server-port 8080
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(agencyStartEnvs, "AGENCY")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		aCmd.Settings = settings()
		return execute(cmd, &aCmd)
	},
}

var agencyPingEnvs = map[string]string{
	"base-address": "PING_BASE_ADDRESS",
}

// pingAgencyCmd represents the agency ping subcommand
var pingAgencyCmd = &cobra.Command{
	Use:   "ping",
	Short: "Command for pinging agency",
	Long: `
Pings agency.
If agency works fine, ping ok with agency's endpoint and verkey is printed.

Example
	findy-didcomm agency ping \
		--base-address http://localhost:8080
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(agencyPingEnvs, "AGENCY")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		paCmd.Timeout = settings().Timeout()
		return execute(cmd, paCmd)
	},
}

var (
	aCmd  = agency.Cmd{}
	paCmd = agency.PingCmd{}
)

const sweepInterval = 10 * time.Minute

func init() {
	defer err2.Catch(func(err error) error {
		log.Println(err)
		return nil
	})

	flags := startAgencyCmd.Flags()
	flags.String("agency-path", "~/.findy/agency", flagInfo("agency storage directory", AgencyCmd.Name(), agencyStartEnvs["agency-path"]))
	flags.String("agency-key", "", flagInfo("agency storage key, 32 bytes in hex", AgencyCmd.Name(), agencyStartEnvs["agency-key"]))
	flags.UintVar(&aCmd.ServerPort, "server-port", 8080, flagInfo("server port", AgencyCmd.Name(), agencyStartEnvs["server-port"]))
	flags.DurationVar(&aCmd.SweepInterval, "sweep-interval", sweepInterval, flagInfo("interval of removing the reviewed messages", AgencyCmd.Name(), agencyStartEnvs["sweep-interval"]))

	p := pingAgencyCmd.Flags()
	p.StringVar(&paCmd.BaseAddr, "base-address", "http://localhost:8080", flagInfo("base address of agency", AgencyCmd.Name(), agencyPingEnvs["base-address"]))

	rootCmd.AddCommand(AgencyCmd)
	AgencyCmd.AddCommand(startAgencyCmd)
	AgencyCmd.AddCommand(pingAgencyCmd)
}
