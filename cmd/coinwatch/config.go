package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/spf13/viper"
)

// loadSettings builds the application settings from environment
// variables, falling back to the built-in defaults.
func loadSettings() *core.Settings {
	viper.AutomaticEnv()

	viper.SetDefault("LOCAL_CURRENCY", "twd")
	viper.SetDefault("CACHE_TTL", "24h")
	viper.SetDefault("TELEGRAM_ENABLED", false)
	viper.SetDefault("DIGEST_TIME", "09:00")

	settings := &core.Settings{
		LocalCurrency: viper.GetString("LOCAL_CURRENCY"),
		CacheTTL:      parseDuration(viper.GetString("CACHE_TTL"), 24*time.Hour),
		CoinGecko: core.ProviderSettings{
			BaseURL: viper.GetString("COINGECKO_BASE_URL"),
			APIKey:  viper.GetString("COINGECKO_API_KEY"),
		},
		NewsAPI: core.ProviderSettings{
			BaseURL: viper.GetString("NEWSAPI_BASE_URL"),
			APIKey:  viper.GetString("NEWSAPI_KEY"),
		},
		NewsData: core.ProviderSettings{
			BaseURL: viper.GetString("NEWSDATA_BASE_URL"),
			APIKey:  viper.GetString("NEWSDATA_KEY"),
		},
		QuickChart: core.ProviderSettings{
			BaseURL: viper.GetString("QUICKCHART_BASE_URL"),
		},
		Telegram: core.TelegramSettings{
			Enabled: viper.GetBool("TELEGRAM_ENABLED"),
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			Users:   parseUsers(viper.GetString("TELEGRAM_USERS")),
		},
		Schedule: core.ScheduleSettings{
			DigestTime: viper.GetString("DIGEST_TIME"),
			KeepAlive:  viper.GetString("KEEP_ALIVE"),
		},
	}

	settings.Defaults()
	return settings
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// parseUsers parses a comma-separated list of Telegram user IDs.
func parseUsers(value string) []int64 {
	var users []int64
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		user, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users
}
