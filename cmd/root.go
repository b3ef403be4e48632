package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yz4230/deployboard/cmd/report"
	"github.com/yz4230/deployboard/internal/config"
)

var rootFlags struct {
	verbose bool
	envFile string
}

// appConfig is loaded once the flags are parsed.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:          "deployboard",
	Short:        "Record and browse deployment events",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		appConfig = config.Load(rootFlags.envFile)

		level := appConfig.Level()
		if rootFlags.verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rootFlags.envFile, "env-file", ".env", "Environment file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, cleanCmd, report.ReportCmd)
}
