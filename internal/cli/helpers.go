package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/ppiankov/pacta/internal/cache"
	"github.com/ppiankov/pacta/internal/llm"
	"github.com/ppiankov/pacta/internal/store"
)

// openStore opens the calls database at the configured path.
func openStore() (*store.Store, error) {
	return store.Open(viper.GetString("db.path"))
}

// llmConfig assembles provider settings from config and environment.
func llmConfig() llm.Config {
	cfg := llm.DefaultConfig()

	if v := viper.GetString("llm.provider"); v != "" {
		cfg.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.Model = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.BaseURL = v
	}
	if v := viper.GetString("llm.api_key"); v != "" {
		cfg.APIKey = v
	}
	if v := viper.GetDuration("llm.timeout"); v > 0 {
		cfg.Timeout = v
	}

	// Provider-native key variables win over nothing, never over config.
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	cfg.HTTPProxy = os.Getenv("HTTP_PROXY")
	cfg.HTTPSProxy = os.Getenv("HTTPS_PROXY")
	cfg.NoProxy = os.Getenv("NO_PROXY")

	return cfg
}

// newProvider builds the configured LLM provider. A nil return with nil
// error means AI stages are disabled.
func newProvider() (llm.Provider, error) {
	return llm.NewProvider(llmConfig())
}

// newCache builds the extraction cache from config.
func newCache() (cache.Cache, error) {
	ttl := viper.GetDuration("cache.ttl")
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return cache.New(viper.GetString("cache.mode"), viper.GetString("cache.dir"), ttl, ttl)
}

// fmtDuration renders seconds as 1h05m or 4m30s.
func fmtDuration(seconds float64) string {
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%dh%02dm", total/3600, (total%3600)/60)
	}
	return fmt.Sprintf("%dm%02ds", total/60, total%60)
}

// fmtDate renders a stored ISO timestamp as "2026-01-15 10:00". Unparseable
// values pass through unchanged.
func fmtDate(iso string) string {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return iso
}
