// Package notify delivers push notifications to Bark and PushPlus.
package notify

import (
	"context"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/logger"
)

// Sink is one notification channel
type Sink interface {
	Name() string
	Deliver(ctx context.Context, title, body string) error
}

// Dispatcher fans a notification out to every sink. Delivery is best-effort.
// ⭐ SSOT: 모든 알림 발송은 여기서만
type Dispatcher struct {
	sinks  []Sink
	logger *logger.Logger
}

// NewDispatcher creates a dispatcher over sinks
func NewDispatcher(log *logger.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, logger: log}
}

var _ contracts.Notifier = (*Dispatcher)(nil)

// Enabled reports whether any sink is configured
func (d *Dispatcher) Enabled() bool {
	return len(d.sinks) > 0
}

// Send implements contracts.Notifier. Sink failures are logged and swallowed.
func (d *Dispatcher) Send(ctx context.Context, title, body string) {
	if !d.Enabled() {
		d.logger.WithField("title", title).Warn("No notification sink configured, message dropped")
		return
	}

	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, title, body); err != nil {
			d.logger.WithFields(map[string]interface{}{
				"sink":  sink.Name(),
				"title": title,
				"error": err.Error(),
			}).Warn("Notification failed")
			continue
		}

		d.logger.WithFields(map[string]interface{}{
			"sink":  sink.Name(),
			"title": title,
		}).Info("Notification sent")
	}
}
