// internal/notify/log.go
package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes alerts to the log. Used when no webhook is configured,
// and as the delivery stub in tests.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, alert Alert) error {
	n.logger.Info("🚨 keyword match",
		zap.String("token_mint", alert.TokenMint),
		zap.String("name", alert.Result.Name),
		zap.String("keyword", alert.Keyword),
		zap.String("source", string(alert.Result.Source)))
	return nil
}
