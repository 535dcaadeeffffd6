// Package cmd wires the CLI: batch scoring runs, the HTTP facade, single
// flight scoring and reference-data seeding.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SKYSCORE"

var (
	cfgFile  string
	dbPath   string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skyscore",
	Short: "Flight track preprocessing and approach scoring engine",
	Long: `skyscore replays recorded ADS-B trajectories through a scoring
pipeline: ghost-flight filtering, touch-and-go segmentation, runway
projection and a six-category approach grade.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (TOML; built-in defaults when omitted)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "",
		"SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newSeedCmd())
}

// initConfig binds flags to environment variables
func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to
		// their equivalent keys with underscores, e.g. --log-level to
		// SKYSCORE_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper value to the flag when the flag is not set and
		// viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
