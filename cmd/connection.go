package cmd

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/findy-network/findy-didcomm/cmds/connection"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

// ConnectionCmd represents the connection command
var ConnectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "Parent command for the pairwise connections",
	Long: `
Parent command for the pairwise connections of the wallet
	`,
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var connectionEnvs = map[string]string{
	"id": "ID",
}

var invitationCmd = &cobra.Command{
	Use:   "invitation",
	Short: "Creates a new connection and prints its invitation",
	Long: `
Creates a new connection and prints its ID and invitation JSON.

Example
	findy-didcomm connection invitation \
		--wallet alice \
		--wallet-key 15308490f1e4026284594dd08d31291bc8ef2aeac730d0daf6ff87bb92d4336c \
		--outofband
	`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		invCmd.Cmd = walletCmd()
		return execute(cmd, invCmd)
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept [invitation|-]",
	Short: "Accepts the invitation",
	Long: `
Accepts the invitation JSON or URL. The invitation is read from the standard
input when the argument is -.

Example
	findy-didcomm connection accept --wallet bob \
		--wallet-key 5dd08d31291bc8ef2aeac730d0daf6ff87bb92d4336c15308490f1e402628459 \
		'https://example.com/invite?c_i=eyJAdHlwZSI6...'
	`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		accCmd.Cmd = walletCmd()
		accCmd.Invitation = args[0]
		if args[0] == "-" {
			accCmd.Invitation = string(try.To1(io.ReadAll(os.Stdin)))
		}
		return execute(cmd, accCmd)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Runs the protocols with the received messages",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.UpdateCmd{Cmd: walletCmd()})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the connections",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.ListCmd{Cmd: walletCmd()})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Prints the connection info of both ends",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connectionEnvs, "CONNECTION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.InfoCmd{Cmd: connCmd()})
	},
}

var trustPingCmd = &cobra.Command{
	Use:   "trustping",
	Short: "Sends a trust ping to the connection",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connectionEnvs, "CONNECTION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.TrustPingCmd{Cmd: connCmd(), Comment: strings.Join(args, " ")})
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover [query]",
	Short: "Asks the protocols the other end supports",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connectionEnvs, "CONNECTION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		c := connection.DiscoverCmd{Cmd: connCmd()}
		if len(args) > 0 {
			c.Query = args[0]
		}
		return execute(cmd, c)
	},
}

var (
	invCmd = connection.InvitationCmd{}
	accCmd = connection.AcceptCmd{}

	connFlags struct {
		id   string
		wait bool
	}
)

// connCmd returns the command base for the connection of the --id flag.
func connCmd() connection.Cmd {
	return connection.Cmd{Cmd: walletCmd(), Name: connFlags.id, Wait: connFlags.wait}
}

func init() {
	defer err2.Catch(func(err error) error {
		log.Println(err)
		return nil
	})

	f := invitationCmd.Flags()
	f.BoolVar(&invCmd.Outofband, "outofband", false, "create out-of-band invitation")
	f.StringVar(&invCmd.GoalCode, "goal-code", "", "out-of-band goal code")
	f.StringVar(&invCmd.Goal, "goal", "", "out-of-band goal")

	acceptCmd.Flags().BoolVar(&accCmd.Wait, "wait-completed", false, "wait until the connection is completed")

	p := ConnectionCmd.PersistentFlags()
	p.StringVar(&connFlags.id, "id", "", flagInfo("connection ID", ConnectionCmd.Name(), connectionEnvs["id"]))
	p.BoolVar(&connFlags.wait, "wait-answer", false, "wait until the other end has answered")

	rootCmd.AddCommand(ConnectionCmd)
	ConnectionCmd.AddCommand(invitationCmd, acceptCmd, updateCmd, listCmd, infoCmd,
		trustPingCmd, discoverCmd)
}
