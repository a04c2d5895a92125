package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/findy-network/findy-didcomm/cmds/agency"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FCLI"

var rootCmd = &cobra.Command{
	Version: utils.Version,
	Use:     "findy-didcomm",
	Short:   "Findy DIDComm agent cli tool",
	Long: `
Findy DIDComm agent cli tool

The tool runs the mailbox agency and the Aries protocols of the wallet:
connections, basic messages, trust pings, issue credential and present proof.
	`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		agency.ParseLoggingArgs(rootFlags.logging)
		handleViperFlags(cmd)
	},
}

// Execute runs the CLI. Cobra has already printed the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd lets other repos extend the CLI with their own commands.
func RootCmd() *cobra.Command {
	return rootCmd
}

// DryRun returns a value of a dry run flag.
func DryRun() bool {
	return rootFlags.dryRun
}

// RootFlags are the flags the root handles itself. The others go to viper.
type RootFlags struct {
	cfgFile string
	dryRun  bool
	logging string
}

var rootFlags = RootFlags{}

var rootEnvs = map[string]string{
	"config":        "CONFIG",
	"logging":       "LOGGING",
	"dry-run":       "DRY_RUN",
	"agency-url":    "AGENCY_URL",
	"wallet":        "WALLET",
	"wallet-key":    "WALLET_KEY",
	"wallet-path":   "WALLET_PATH",
	"indy-key":      "INDY_KEY",
	"indy-did":      "INDY_DID",
	"pool":          "POOL",
	"master-secret": "MASTER_SECRET",
	"media-type":    "MEDIA_TYPE",
	"timeout":       "TIMEOUT",
	"wait":          "WAIT",
	"label":         "LABEL",
}

func init() {
	defer err2.Catch(func(err error) error {
		log.Println(err)
		return nil
	})

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.cfgFile, "config", "", flagInfo("configuration file", "", rootEnvs["config"]))
	flags.StringVar(&rootFlags.logging, "logging", "-logtostderr=true -v=2", flagInfo("logging startup arguments", "", rootEnvs["logging"]))
	flags.BoolVarP(&rootFlags.dryRun, "dry-run", "n", false, flagInfo("perform a trial run with no changes made", "", rootEnvs["dry-run"]))

	flags.String("agency-url", "http://localhost:8080", flagInfo("base URL of the agency", "", rootEnvs["agency-url"]))
	flags.String("wallet", "", flagInfo("wallet name", "", rootEnvs["wallet"]))
	flags.String("wallet-key", "", flagInfo("wallet key, 32 bytes in hex", "", rootEnvs["wallet-key"]))
	flags.String("wallet-path", "", flagInfo("wallet directory", "", rootEnvs["wallet-path"]))
	flags.String("indy-key", "", flagInfo("indy wallet key for the credential protocols", "", rootEnvs["indy-key"]))
	flags.String("indy-did", "", flagInfo("our DID in the indy wallet", "", rootEnvs["indy-did"]))
	flags.String("pool", "findy-pool", flagInfo("ledger pool name", "", rootEnvs["pool"]))
	flags.String("master-secret", "", flagInfo("indy master secret ID", "", rootEnvs["master-secret"]))
	flags.String("media-type", utils.DefaultMediaType, flagInfo("DIDComm envelope media type", "", rootEnvs["media-type"]))
	flags.Duration("timeout", utils.HTTPReqTimeout, flagInfo("HTTP request timeout", "", rootEnvs["timeout"]))
	flags.Bool("wait", true, flagInfo("send messages synchronously", "", rootEnvs["wait"]))
	flags.String("label", "", flagInfo("our label in the invitations", "", rootEnvs["label"]))

	try.To(viper.BindPFlags(flags))
	try.To(BindEnvs(rootEnvs, ""))
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)
	readConfigFile()
	readBoundRootFlags()
}

func readBoundRootFlags() {
	rootFlags.logging = viper.GetString("logging")
	rootFlags.dryRun = viper.GetBool("dry-run")
}

// readConfigFile reads the config file given by the flag or the env. The
// flag wins, and only its use is reported.
func readConfigFile() {
	file, fromEnv := rootFlags.cfgFile, false
	if file == "" {
		file, fromEnv = os.Getenv(getEnvName("", "config")), true
	}
	if file == "" {
		return
	}
	rootFlags.cfgFile = file
	viper.SetConfigFile(file)
	if err := viper.ReadInConfig(); err != nil {
		log.Println("config file:", err)
		return
	}
	if !fromEnv {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// BindEnvs binds the flag keys to their env variables. The env names of the
// root flags have no command part, cmdName is empty for them.
func BindEnvs(envs map[string]string, cmdName string) (err error) {
	defer err2.Handle(&err, "bind envs")

	for key, env := range envs {
		try.To(viper.BindEnv(key, getEnvName(cmdName, env)))
	}
	return nil
}

func flagInfo(info, cmdPrefix, envName string) string {
	return info + ", " + getEnvName(cmdPrefix, envName)
}

func getEnvName(cmdName, envName string) string {
	if cmdName == "" {
		return envPrefix + "_" + strings.ToUpper(envName)
	}
	return envPrefix + "_" + strings.ToUpper(cmdName) + "_" + envName
}

// handleViperFlags copies the viper values to the flags of the command and
// its parents, so the env and config file values reach the flag variables.
func handleViperFlags(cmd *cobra.Command) {
	for c := cmd; c != nil; c = c.Parent() {
		setRequiredStringFlags(c)
	}
}

func setRequiredStringFlags(cmd *cobra.Command) {
	defer err2.Catch(func(err error) error {
		log.Println(err)
		return nil
	})

	try.To(viper.BindPFlags(cmd.LocalFlags()))
	if cmd.PreRunE != nil {
		try.To(cmd.PreRunE(cmd, nil))
	}
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if viper.GetString(f.Name) != "" {
			try.To(cmd.LocalFlags().Set(f.Name, viper.GetString(f.Name)))
		}
	})
}

// SubCmdNeeded is the Run of the commands which only group others.
func SubCmdNeeded(cmd *cobra.Command) {
	fmt.Println("subcommand needed")
	_ = cmd.Help()
	os.Exit(1)
}

// settings reads the configuration from the flags, the environment and the
// config file.
func settings() *utils.Settings {
	var c utils.Config
	try.To(viper.Unmarshal(&c))
	if c.Timeout == 0 {
		c.Timeout = viper.GetDuration("timeout")
	}
	return utils.NewSettings(c)
}

func walletCmd() cmds.Cmd {
	return cmds.Cmd{Settings: settings()}
}

// execute validates the command and runs it unless it's a dry run.
func execute(cmd *cobra.Command, c cmds.Command) (err error) {
	defer err2.Handle(&err)

	try.To(c.Validate())
	if !rootFlags.dryRun {
		cmd.SilenceUsage = true
		try.To1(c.Exec(os.Stdout))
	}
	return nil
}
