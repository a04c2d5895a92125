package cmd

import (
	"github.com/findy-network/findy-didcomm/cmds/connection"
	"github.com/spf13/cobra"
)

// ProofCmd represents the present proof command
var ProofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Parent command for requesting and presenting proofs",
	Long: `
Parent command for the present proof protocol. The verifier requests the
proof from the connection and the prover presents or declines it.
	`,
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var requestProofCmd = &cobra.Command{
	Use:   "request",
	Short: "Requests a proof from the connection",
	Long: `
Requests a proof of the attributes and predicates from the connection.

Example
	findy-didcomm proof request --id 3f0a0b7c-a3c7-4e1c-a2d1-0df9a1d1a0c7 \
		--wallet alice \
		--wallet-key 15308490f1e4026284594dd08d31291bc8ef2aeac730d0daf6ff87bb92d4336c \
		--indy-key 6cih1cVgRH8yHD54nEYyPKLmdv67o8QbufxaTHot3Qxp \
		--attrs '[{"name":"email","cred_def_id":"Th7MpTaRZVRYnPiabds81Y:3:CL:123:TAG"}]' \
		--predicates '[{"name":"age","predicate":">=","threshold":18}]'
	`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		rpCmd.Cmd = connCmd()
		return execute(cmd, rpCmd)
	},
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Receives and lists the proof requests of the connection",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.RequestsCmd{Cmd: connCmd()})
	},
}

var presentCmd = &cobra.Command{
	Use:   "present",
	Short: "Presents the proof, the --id is the prover ID",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		pCmd.Cmd = connCmd()
		return execute(cmd, pCmd)
	},
}

var declineCmd = &cobra.Command{
	Use:   "decline [reason]",
	Short: "Declines the proof request, the --id is the prover ID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		c := connection.DeclineCmd{Cmd: connCmd()}
		if len(args) > 0 {
			c.Reason = args[0]
		}
		return execute(cmd, c)
	},
}

var (
	rpCmd = connection.ReqProofCmd{}
	pCmd  = connection.PresentCmd{}
)

func init() {
	f := requestProofCmd.Flags()
	f.StringVar(&rpCmd.ProofName, "name", "", "name of the proof request")
	f.StringVar(&rpCmd.Attributes, "attrs", "[]", "requested attributes as JSON array")
	f.StringVar(&rpCmd.Predicates, "predicates", "", "requested predicates as JSON array")
	f.StringVar(&rpCmd.Comment, "comment", "", "comment of the request")

	presentCmd.Flags().StringVar(&pCmd.SelfAttested, "self-attested", "", "self attested values as JSON object")

	p := ProofCmd.PersistentFlags()
	p.StringVar(&connFlags.id, "id", "", "connection ID for request and requests, protocol ID for the others")
	p.BoolVar(&connFlags.wait, "wait-answer", false, "wait until the other end has answered")

	rootCmd.AddCommand(ProofCmd)
	ProofCmd.AddCommand(requestProofCmd, requestsCmd, presentCmd, declineCmd)
}
