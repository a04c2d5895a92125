package cmd

import (
	"strings"

	"github.com/findy-network/findy-didcomm/cmds/connection"
	"github.com/spf13/cobra"
)

// MessageCmd represents the basic message command
var MessageCmd = &cobra.Command{
	Use:   "message",
	Short: "Parent command for the basic messages",
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var sendMessageCmd = &cobra.Command{
	Use:   "send message...",
	Short: "Sends a basic message to the connection",
	Long: `
Sends a basic message to the connection.

Example
	findy-didcomm message send --id 3f0a0b7c-a3c7-4e1c-a2d1-0df9a1d1a0c7 \
		--wallet alice \
		--wallet-key 15308490f1e4026284594dd08d31291bc8ef2aeac730d0daf6ff87bb92d4336c \
		hello bob
	`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.BasicMsgCmd{Cmd: connCmd(), Message: strings.Join(args, " ")})
	},
}

var listMessagesCmd = &cobra.Command{
	Use:   "list",
	Short: "Receives and lists the basic messages of the connection",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return execute(cmd, connection.MessagesCmd{Cmd: connCmd()})
	},
}

func init() {
	p := MessageCmd.PersistentFlags()
	p.StringVar(&connFlags.id, "id", "", flagInfo("connection ID", ConnectionCmd.Name(), connectionEnvs["id"]))

	rootCmd.AddCommand(MessageCmd)
	MessageCmd.AddCommand(sendMessageCmd, listMessagesCmd)
}
