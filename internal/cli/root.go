// Package cli implements the pacta command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	dbFlag  string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pacta",
	Short: "Pacta - commitment extraction and search for recorded calls",
	Long: `Pacta turns call transcripts into structured records: who promised
what to whom, and by when.

It resolves speaker identities, summarizes each call against a template,
extracts commitments with a local or remote LLM, and stores everything in
a searchable SQLite database. An evaluation harness measures extraction
quality against annotated ground truth.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pacta v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.pacta/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "path to the calls database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads defaults, the config file, PACTA_* environment variables,
// and sets up logging.
func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
		home = "."
	}
	dataDir := filepath.Join(home, ".pacta")

	viper.SetDefault("db.path", filepath.Join(dataDir, "calls.db"))
	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.model", "qwen3:14b")
	viper.SetDefault("llm.base_url", "http://localhost:11434")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("cache.mode", "disk")
	viper.SetDefault("cache.dir", filepath.Join(dataDir, "cache"))
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("summary.template", "default")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(dataDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PACTA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}

	if dbFlag != "" {
		viper.Set("db.path", dbFlag)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
