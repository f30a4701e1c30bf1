package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"drb-balance-bot/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Logging     logging.Config    `mapstructure:"logging"`
	Ethereum    EthereumConfig    `mapstructure:"ethereum"`
	DexScreener DexScreenerConfig `mapstructure:"dexscreener"`
	Dashboard   DashboardConfig   `mapstructure:"dashboard"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Chart       ChartConfig       `mapstructure:"chart"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// TokenConfig identifies one tracked ERC-20 contract.
type TokenConfig struct {
	Symbol  string `mapstructure:"symbol"`
	Address string `mapstructure:"address"`
	Color   string `mapstructure:"color"`
}

// EthereumConfig covers on-chain data access.
type EthereumConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	WalletAddress  string        `mapstructure:"wallet_address"`
	Tokens         []TokenConfig `mapstructure:"tokens"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DexScreenerConfig captures price aggregator connectivity.
type DexScreenerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// DashboardConfig describes the scraped fees dashboard.
type DashboardConfig struct {
	URL            string        `mapstructure:"url"`
	LabelWords     []string      `mapstructure:"label_words"`
	LabelPhrase    string        `mapstructure:"label_phrase"`
	RequireFees    bool          `mapstructure:"require_fees"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// TelegramConfig holds bot credentials and routing.
type TelegramConfig struct {
	BotToken    string        `mapstructure:"bot_token"`
	AdminChatID string        `mapstructure:"admin_chat_id"`
	APIBase     string        `mapstructure:"api_base"`
	Command     string        `mapstructure:"command"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// ChartConfig tunes the rendered balance donut.
type ChartConfig struct {
	Title  string `mapstructure:"title"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DRBWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "drbwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("ethereum.rpc_url", "https://mainnet.base.org")
	v.SetDefault("ethereum.wallet_address", "0xb1058c959987e3513600eb5b4fd82aeee2a0e4f9")
	v.SetDefault("ethereum.tokens", []map[string]any{
		{"symbol": "DRB", "address": "0x3ec2156d4c0a9cbdab4a016633b7bcf6a8d68ea2", "color": "#B49C94"},
		{"symbol": "WETH", "address": "0x4200000000000000000000000000000000000006", "color": "#627EEA"},
	})
	v.SetDefault("ethereum.request_timeout", "20s")

	v.SetDefault("dexscreener.base_url", "https://api.dexscreener.com/latest/dex/tokens/")
	v.SetDefault("dexscreener.request_timeout", "20s")
	v.SetDefault("dexscreener.user_agent", "Mozilla/5.0 (compatible; DebtReliefBot/1.0)")

	v.SetDefault("dashboard.url", "https://thegrokwallet.com/")
	v.SetDefault("dashboard.label_words", []string{"historical", "fees", "claimed"})
	v.SetDefault("dashboard.label_phrase", "Historical Fees Claimed")
	v.SetDefault("dashboard.require_fees", false)
	v.SetDefault("dashboard.request_timeout", "25s")
	v.SetDefault("dashboard.user_agent", "Mozilla/5.0 (compatible; DebtReliefBot/1.0)")

	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.command", "grok")
	v.SetDefault("telegram.poll_timeout", "50s")
	v.SetDefault("telegram.send_timeout", "30s")

	v.SetDefault("chart.title", "DebtReliefBot Balance")
	v.SetDefault("chart.width", 900)
	v.SetDefault("chart.height", 900)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Ethereum.RPCURL == "" {
		return fmt.Errorf("ethereum.rpc_url must be configured")
	}
	if c.Ethereum.WalletAddress == "" {
		return fmt.Errorf("ethereum.wallet_address must be configured")
	}
	if len(c.Ethereum.Tokens) == 0 {
		return fmt.Errorf("ethereum.tokens must list at least one token")
	}
	seen := make(map[string]struct{}, len(c.Ethereum.Tokens))
	for _, token := range c.Ethereum.Tokens {
		if token.Symbol == "" || token.Address == "" {
			return fmt.Errorf("ethereum.tokens entries require symbol and address")
		}
		key := strings.ToUpper(token.Symbol)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("ethereum.tokens symbol %s listed twice", token.Symbol)
		}
		seen[key] = struct{}{}
	}
	if c.DexScreener.BaseURL == "" {
		return fmt.Errorf("dexscreener.base_url must be configured")
	}
	if c.Dashboard.URL == "" {
		return fmt.Errorf("dashboard.url must be configured")
	}
	if len(c.Dashboard.LabelWords) == 0 {
		return fmt.Errorf("dashboard.label_words must not be empty")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}
	return nil
}
