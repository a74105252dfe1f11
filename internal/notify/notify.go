// internal/notify/notify.go
package notify

import (
	"context"
	"time"

	"github.com/bonkwatch/letsbonk-bot/internal/resolver"
)

// Alert is one keyword hit ready for delivery.
type Alert struct {
	TokenMint  string
	Result     resolver.NameResult
	Keyword    string
	DetectedAt time.Time
}

// Notifier delivers alerts. Delivery failures are final; the pipeline never
// retries a notification.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}
