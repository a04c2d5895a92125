package cmd

import (
	"github.com/findy-network/findy-didcomm/cmds/connection"
	"github.com/spf13/cobra"
)

// CredentialCmd represents the issue credential command
var CredentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Parent command for issuing credentials",
	Long: `
Parent command for the issue credential protocol. The issuer offers the
credential to the connection, the holder accepts or rejects the offer, and
the issuer sends the credential for the request.
	`,
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var credentialEnvs = map[string]string{
	"cred-def-id": "CRED_DEF_ID",
}

var offerCmd = &cobra.Command{
	Use:   "offer",
	Short: "Offers the credential to the connection",
	Long: `
Offers the credential to the connection. With --wait-answer the credential is
issued when the holder's request arrives.

Example
	findy-didcomm credential offer --id 3f0a0b7c-a3c7-4e1c-a2d1-0df9a1d1a0c7 \
		--wallet alice \
		--wallet-key 15308490f1e4026284594dd08d31291bc8ef2aeac730d0daf6ff87bb92d4336c \
		--indy-key 6cih1cVgRH8yHD54nEYyPKLmdv67o8QbufxaTHot3Qxp \
		--cred-def-id Th7MpTaRZVRYnPiabds81Y:3:CL:123:TAG \
		--attrs '[{"name":"email","value":"alice@example.com"}]'
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(credentialEnvs, "CREDENTIAL")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		offCmd.Cmd = connCmd()
		return execute(cmd, offCmd)
	},
}

var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "Receives and lists the credential offers of the connection",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.OffersCmd{Cmd: connCmd()})
	},
}

var acceptOfferCmd = &cobra.Command{
	Use:   "accept",
	Short: "Accepts the offer, the --id is the holder ID",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.AcceptOfferCmd{Cmd: connCmd()})
	},
}

var rejectOfferCmd = &cobra.Command{
	Use:   "reject [comment]",
	Short: "Rejects the offer, the --id is the holder ID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		c := connection.RejectOfferCmd{Cmd: connCmd()}
		if len(args) > 0 {
			c.Comment = args[0]
		}
		return execute(cmd, c)
	},
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sends the credential for the request, the --id is the issuer ID",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.SendCredentialCmd{Cmd: connCmd()})
	},
}

var offCmd = connection.IssueCmd{}

func init() {
	f := offerCmd.Flags()
	f.StringVar(&offCmd.CredDefID, "cred-def-id", "", flagInfo("credential definition ID", CredentialCmd.Name(), credentialEnvs["cred-def-id"]))
	f.StringVar(&offCmd.Attributes, "attrs", "", "credential attributes as JSON array of name and value")
	f.StringVar(&offCmd.Comment, "comment", "", "comment of the offer")

	p := CredentialCmd.PersistentFlags()
	p.StringVar(&connFlags.id, "id", "", "connection ID for offer and offers, protocol ID for the others")
	p.BoolVar(&connFlags.wait, "wait-answer", false, "wait until the other end has answered")

	rootCmd.AddCommand(CredentialCmd)
	CredentialCmd.AddCommand(offerCmd, offersCmd, acceptOfferCmd, rejectOfferCmd, issueCmd)
}
