package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validConfigJSON = `{
    "rpc_list": ["https://api.mainnet-beta.solana.com"],
    "websocket_url": "wss://api.mainnet-beta.solana.com",
    "keywords": ["moon", "pepe"],
    "exclusions": ["bonk", "token"],
    "webhook_url": "https://discord.com/api/webhooks/123/abc"
}`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, validConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, DefaultProgramID, cfg.ProgramID)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultThreshold, cfg.ConfidenceThreshold)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, []int{30, 120, 300}, cfg.RetryDelays)
	assert.Equal(t, []string{"dexscreener", "pumpfun", "solscan", "birdeye"}, cfg.Sources)
	assert.True(t, cfg.BonkSuffixOnly)
}

func TestLoadConfigReadsValues(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, validConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://api.mainnet-beta.solana.com"}, cfg.RPCList)
	assert.Equal(t, "wss://api.mainnet-beta.solana.com", cfg.WebSocketURL)
	assert.Equal(t, []string{"moon", "pepe"}, cfg.Keywords)
	assert.Equal(t, []string{"bonk", "token"}, cfg.Exclusions)
	assert.Equal(t, "https://discord.com/api/webhooks/123/abc", cfg.WebhookURL)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, `{
        "rpc_list": ["https://rpc.example.com"],
        "confidence_threshold": 0.9,
        "retry_delays": [10, 20],
        "sources": ["dexscreener"],
        "workers": 2
    }`))
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.ConfidenceThreshold)
	assert.Equal(t, []int{10, 20}, cfg.RetryDelays)
	assert.Equal(t, []string{"dexscreener"}, cfg.Sources)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"empty rpc list", `{"rpc_list": []}`},
		{"bad rpc protocol", `{"rpc_list": ["ftp://example.com"]}`},
		{"bad websocket protocol", `{"rpc_list": ["https://rpc.example.com"], "websocket_url": "https://example.com"}`},
		{"plain http webhook", `{"rpc_list": ["https://rpc.example.com"], "webhook_url": "http://example.com/hook"}`},
		{"zero workers", `{"rpc_list": ["https://rpc.example.com"], "workers": 0}`},
		{"threshold above one", `{"rpc_list": ["https://rpc.example.com"], "confidence_threshold": 1.5}`},
		{"negative retry delay", `{"rpc_list": ["https://rpc.example.com"], "retry_delays": [30, -1]}`},
		{"empty sources", `{"rpc_list": ["https://rpc.example.com"], "sources": []}`},
		{"zero cache ttl", `{"rpc_list": ["https://rpc.example.com"], "cache_ttl": 0}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeTestConfig(t, tc.json))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("LETSBONK_RPC_LIST", "https://rpc-a.example.com, https://rpc-b.example.com")
	t.Setenv("LETSBONK_WEBHOOK_URL", "https://discord.com/api/webhooks/9/xyz")
	t.Setenv("LETSBONK_BIRDEYE_API_KEY", "env-key")

	cfg, err := LoadConfig(writeTestConfig(t, validConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://rpc-a.example.com", "https://rpc-b.example.com"}, cfg.RPCList)
	assert.Equal(t, "https://discord.com/api/webhooks/9/xyz", cfg.WebhookURL)
	assert.Equal(t, "env-key", cfg.BirdeyeAPIKey)
}
