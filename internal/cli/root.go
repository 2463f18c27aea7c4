// Package cli implements the golembot command line interface.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/alexk-dev/golemcore-bot-sub013/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"   ____       _                ____        _\n" +
		"  / ___| ___ | | ___ _ __ ___ | __ )  ___ | |_\n" +
		" | |  _ / _ \\| |/ _ \\ '_ ` _ \\|  _ \\ / _ \\| __|\n" +
		" | |_| | (_) | |  __/ | | | | | |_) | (_) | |_\n" +
		"  \\____|\\___/|_|\\___|_| |_| |_|____/ \\___/ \\__|\n"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "golembot",
	Short: "GolemBot - conversational agent runtime",
	Long:  color.CyanString(logo) + "\nA turn-based agent runtime with a bounded tool loop.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}
