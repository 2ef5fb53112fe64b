package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	schema    string
)

var rootCmd = &cobra.Command{
	Use:   "gofactory",
	Short: "Dependency-ordered test data planning for MySQL schemas",
	Long: `Inspection companion for the gofactory library: connects to a MySQL
database, discovers foreign key dependencies from information_schema, and
computes the order in which tables can be bulk inserted without tripping
constraints.

Features:
  - Foreign key discovery with nullability awareness
  - Dependency-ordered insertion plans with cycle diagnosis
  - ASCII dependency layer diagrams`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "gofactory.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Inspection overrides
	rootCmd.PersistentFlags().StringVar(&schema, "schema", "",
		"Override schema to inspect (defaults to the connected database)")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	Schema    string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Schema:    schema,
	}
}
