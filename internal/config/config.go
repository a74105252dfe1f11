// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	RPCList      []string `mapstructure:"rpc_list"`
	WebSocketURL string   `mapstructure:"websocket_url"`
	ProgramID    string   `mapstructure:"program_id"`

	PollInterval    int  `mapstructure:"poll_interval"`    // ms between signature polls
	FreshnessWindow int  `mapstructure:"freshness_window"` // seconds; older signatures are ignored
	Workers         int  `mapstructure:"workers"`
	BonkSuffixOnly  bool `mapstructure:"bonk_suffix_only"`

	// Name resolution cascade.
	Sources             []string `mapstructure:"sources"`
	ConfidenceThreshold float64  `mapstructure:"confidence_threshold"`
	CacheTTL            int      `mapstructure:"cache_ttl"`      // seconds
	RetryDelays         []int    `mapstructure:"retry_delays"`   // seconds per attempt
	SweepInterval       int      `mapstructure:"sweep_interval"` // ms between retry sweeps
	HTTPTimeout         int      `mapstructure:"http_timeout"`   // seconds per API call
	BirdeyeAPIKey       string   `mapstructure:"birdeye_api_key"`

	// Keyword matching.
	Keywords   []string `mapstructure:"keywords"`
	Exclusions []string `mapstructure:"exclusions"`

	// Notifications.
	WebhookURL     string `mapstructure:"webhook_url"`
	NotifyCooldown int    `mapstructure:"notify_cooldown"` // seconds per mint
	MetricsListen  string `mapstructure:"metrics_listen"`
	DebugLogging   bool   `mapstructure:"debug_logging"`
	LogFile        string `mapstructure:"log_file"`
}

const (
	DefaultPollInterval    = 2000
	DefaultFreshnessWindow = 15
	DefaultWorkers         = 8
	DefaultThreshold       = 0.8
	DefaultCacheTTL        = 300
	DefaultSweepInterval   = 1000
	DefaultHTTPTimeout     = 5
	DefaultNotifyCooldown  = 300
)

// LetsBonk launch program (Raydium LaunchLab).
const DefaultProgramID = "LanMV9sAd7wArD4vJFi2qDdfnVhFxYSUg6eADduJ3uj"

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"program_id":           DefaultProgramID,
		"poll_interval":        DefaultPollInterval,
		"freshness_window":     DefaultFreshnessWindow,
		"workers":              DefaultWorkers,
		"bonk_suffix_only":     true,
		"sources":              []string{"dexscreener", "pumpfun", "solscan", "birdeye"},
		"confidence_threshold": DefaultThreshold,
		"cache_ttl":            DefaultCacheTTL,
		"retry_delays":         []int{30, 120, 300},
		"sweep_interval":       DefaultSweepInterval,
		"http_timeout":         DefaultHTTPTimeout,
		"notify_cooldown":      DefaultNotifyCooldown,
		"log_file":             "logs/bot.log",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if cfg.WebSocketURL != "" {
		if err := validateURLWithCache(cfg.WebSocketURL, "ws"); err != nil {
			return errors.New("invalid WebSocket URL protocol")
		}
	}
	if cfg.ProgramID == "" {
		return errors.New("missing program_id in configuration")
	}
	if len(cfg.Sources) == 0 {
		return errors.New("sources is empty")
	}
	if cfg.WebhookURL != "" {
		if err := validateURLWithCache(cfg.WebhookURL, "https"); err != nil {
			return errors.New("webhook URL must use HTTPS")
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.PollInterval <= 0 {
		return errors.New("invalid poll_interval")
	}
	if cfg.FreshnessWindow <= 0 {
		return errors.New("invalid freshness_window")
	}
	if cfg.Workers <= 0 {
		return errors.New("invalid workers count")
	}
	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 1 {
		return errors.New("confidence_threshold must be in (0, 1]")
	}
	if cfg.CacheTTL <= 0 {
		return errors.New("invalid cache_ttl")
	}
	if len(cfg.RetryDelays) == 0 {
		return errors.New("retry_delays is empty")
	}
	for _, d := range cfg.RetryDelays {
		if d <= 0 {
			return errors.New("invalid retry delay")
		}
	}
	if cfg.SweepInterval <= 0 {
		return errors.New("invalid sweep_interval")
	}
	if cfg.HTTPTimeout <= 0 {
		return errors.New("invalid http_timeout")
	}
	if cfg.NotifyCooldown < 0 {
		return errors.New("invalid notify_cooldown")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("LETSBONK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}

	envWebhook := v.GetString("WEBHOOK_URL")
	if envWebhook != "" {
		cfg.WebhookURL = envWebhook
	}

	envBirdeye := v.GetString("BIRDEYE_API_KEY")
	if envBirdeye != "" {
		cfg.BirdeyeAPIKey = envBirdeye
	}
	return nil
}
