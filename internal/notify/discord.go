// internal/notify/discord.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	discordTimeout = 10 * time.Second
	embedColor     = 0xFF6B35 // LetsBonk orange
)

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Timestamp   string              `json:"timestamp"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      *discordFooter      `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

// DiscordNotifier posts keyword alerts to a Discord webhook. A per-mint
// cooldown suppresses repeat alerts for the same token; duplicate candidate
// emissions upstream must not turn into alert spam.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	cooldown   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewDiscordNotifier(webhookURL string, cooldown time.Duration, logger *zap.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: discordTimeout},
		cooldown:   cooldown,
		logger:     logger.Named("discord"),
		lastSent:   make(map[string]time.Time),
	}
}

// Notify posts one embed per alert. Delivery is attempted once.
func (n *DiscordNotifier) Notify(ctx context.Context, alert Alert) error {
	if !n.shouldSend(alert.TokenMint) {
		n.logger.Debug("alert suppressed by cooldown",
			zap.String("token_mint", alert.TokenMint))
		return nil
	}

	payload := webhookPayload{
		Username: "LetsBonk Sniper",
		Embeds:   []discordEmbed{buildEmbed(alert)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(raw))
	}

	n.logger.Info("alert delivered",
		zap.String("token_mint", alert.TokenMint),
		zap.String("name", alert.Result.Name),
		zap.String("keyword", alert.Keyword))
	return nil
}

func (n *DiscordNotifier) shouldSend(mint string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now()
	if last, ok := n.lastSent[mint]; ok && now.Sub(last) < n.cooldown {
		return false
	}
	n.lastSent[mint] = now
	return true
}

func buildEmbed(alert Alert) discordEmbed {
	mint := alert.TokenMint
	return discordEmbed{
		Title:     fmt.Sprintf("🎯 Keyword Match: %s", alert.Result.Name),
		URL:       fmt.Sprintf("https://letsbonk.fun/token/%s", mint),
		Color:     embedColor,
		Timestamp: alert.DetectedAt.UTC().Format(time.RFC3339),
		Fields: []discordEmbedField{
			{Name: "Keyword", Value: alert.Keyword, Inline: true},
			{Name: "Source", Value: string(alert.Result.Source), Inline: true},
			{Name: "Confidence", Value: fmt.Sprintf("%.0f%%", alert.Result.Confidence*100), Inline: true},
			{Name: "Mint", Value: fmt.Sprintf("`%s`", mint), Inline: false},
			{
				Name: "Links",
				Value: fmt.Sprintf("[LetsBonk](https://letsbonk.fun/token/%s) • [DexScreener](https://dexscreener.com/solana/%s) • [Solscan](https://solscan.io/token/%s)",
					mint, mint, mint),
				Inline: false,
			},
		},
		Footer: &discordFooter{Text: "letsbonk-bot"},
	}
}
