package core

import "time"

// Settings represents the main configuration for the application.
type Settings struct {
	LocalCurrency string           // secondary quote currency for price cards (e.g. "twd")
	CacheTTL      time.Duration    // resolution cache entry lifetime
	CoinGecko     ProviderSettings // primary market-data provider
	NewsAPI       ProviderSettings // primary news provider
	NewsData      ProviderSettings // secondary news provider
	QuickChart    ProviderSettings // external chart renderer
	Telegram      TelegramSettings // Telegram delivery settings
	Schedule      ScheduleSettings // broadcast schedule
}

// ProviderSettings holds the connection surface of one upstream provider.
type ProviderSettings struct {
	BaseURL string        // provider base URL
	APIKey  string        // optional API key
	Timeout time.Duration // per-request timeout
}

// TelegramSettings holds configuration for Telegram integration.
type TelegramSettings struct {
	Enabled bool    // whether the Telegram bot is started
	Token   string  // bot token
	Users   []int64 // authorized user IDs; also the Notify audience
}

// ScheduleSettings holds the broadcast schedule.
type ScheduleSettings struct {
	DigestTime string // daily digest wall-clock time, "15:04" layout
	KeepAlive  string // keep-alive interval as a duration string (e.g. "30m"), empty disables
}

// Defaults fills zero-valued fields with the reference configuration.
func (s *Settings) Defaults() {
	if s.LocalCurrency == "" {
		s.LocalCurrency = "twd"
	}
	if s.CacheTTL == 0 {
		s.CacheTTL = 24 * time.Hour
	}
	if s.CoinGecko.BaseURL == "" {
		s.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if s.CoinGecko.Timeout == 0 {
		s.CoinGecko.Timeout = 10 * time.Second
	}
	if s.NewsAPI.BaseURL == "" {
		s.NewsAPI.BaseURL = "https://newsapi.org/v2"
	}
	if s.NewsAPI.Timeout == 0 {
		s.NewsAPI.Timeout = 20 * time.Second
	}
	if s.NewsData.BaseURL == "" {
		s.NewsData.BaseURL = "https://newsdata.io/api/1"
	}
	if s.NewsData.Timeout == 0 {
		s.NewsData.Timeout = 10 * time.Second
	}
	if s.QuickChart.BaseURL == "" {
		s.QuickChart.BaseURL = "https://quickchart.io"
	}
	if s.Schedule.DigestTime == "" {
		s.Schedule.DigestTime = "09:00"
	}
}
