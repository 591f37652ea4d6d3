package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mailtriage/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configEnv string
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "mailtriage",
	Short: "Classify, summarize and answer incoming email",
	Long: `mailtriage fetches unread email, classifies its sentiment, summarizes it,
drafts a reply with Gemini and then sends the reply, drafts it for review or
skips it. Every processed email is written to the audit log.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "mailtriage", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configEnv, "env", config.GetConfigEnv(), "configuration environment (config/{env}.yaml)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.GetEnv("CONFIG_DIR", "config"), "configuration directory")

	rootCmd.AddCommand(runCmd, eventsCmd, credentialCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
