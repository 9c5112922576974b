package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the effective configuration after merging defaults, the config
file, PACTA_* environment variables, and flags. API keys are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		llm := llmConfig()
		effective := map[string]any{
			"db": map[string]any{
				"path": viper.GetString("db.path"),
			},
			"llm": map[string]any{
				"provider": llm.Provider,
				"model":    llm.Model,
				"base_url": llm.BaseURL,
				"api_key":  maskSecret(llm.APIKey),
				"timeout":  llm.Timeout.String(),
			},
			"cache": map[string]any{
				"mode": viper.GetString("cache.mode"),
				"dir":  viper.GetString("cache.dir"),
				"ttl":  viper.GetString("cache.ttl"),
			},
			"summary": map[string]any{
				"template": viper.GetString("summary.template"),
			},
		}

		out, err := yaml.Marshal(effective)
		if err != nil {
			return err
		}
		if viper.ConfigFileUsed() != "" {
			fmt.Printf("# config file: %s\n", viper.ConfigFileUsed())
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
