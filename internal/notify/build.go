package notify

import (
	"github.com/wonny/fundwatch/pkg/config"
	"github.com/wonny/fundwatch/pkg/httputil"
	"github.com/wonny/fundwatch/pkg/logger"
)

// minPushPlusToken filters placeholder tokens
const minPushPlusToken = 6

// FromConfig builds a dispatcher with every sink the configuration enables
func FromConfig(cfg config.NotifyConfig, log *logger.Logger) *Dispatcher {
	client := httputil.New(log, cfg.Timeout).DisableRetry()

	var sinks []Sink
	for _, key := range cfg.BarkKeys {
		sinks = append(sinks, NewBark(client, cfg.BarkBaseURL, key, cfg.BarkGroup))
	}
	if len(cfg.PushPlusToken) >= minPushPlusToken {
		sinks = append(sinks, NewPushPlus(client, cfg.PushPlusURL, cfg.PushPlusToken))
	}

	return NewDispatcher(log, sinks...)
}
