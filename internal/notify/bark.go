package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/fundwatch/pkg/httputil"
)

// Bark pushes to one Bark device: GET {base}/{title}/{body}?group={group}
type Bark struct {
	client *httputil.Client
	base   string
	group  string
}

// NewBark creates a Bark sink. key is a device key or a full device URL
// such as https://api.day.app/<key>/.
func NewBark(client *httputil.Client, baseURL, key, group string) *Bark {
	base := key
	if !strings.HasPrefix(key, "http://") && !strings.HasPrefix(key, "https://") {
		base = strings.TrimRight(baseURL, "/") + "/" + key
	}
	return &Bark{
		client: client,
		base:   strings.TrimRight(base, "/"),
		group:  group,
	}
}

// Name implements Sink
func (b *Bark) Name() string { return "bark" }

// Deliver implements Sink
func (b *Bark) Deliver(ctx context.Context, title, body string) error {
	target := fmt.Sprintf("%s/%s/%s", b.base, url.PathEscape(title), url.PathEscape(body))
	if b.group != "" {
		target += "?group=" + url.QueryEscape(b.group)
	}

	resp, err := b.client.Get(ctx, target)
	if err != nil {
		return fmt.Errorf("bark request: %w", err)
	}
	if _, err := httputil.ReadBody(resp); err != nil {
		return fmt.Errorf("bark response: %w", err)
	}
	return nil
}
