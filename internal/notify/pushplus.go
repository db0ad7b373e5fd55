package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/wonny/fundwatch/pkg/httputil"
)

// PushPlus posts an HTML message to the PushPlus relay
type PushPlus struct {
	client *httputil.Client
	url    string
	token  string
	md     goldmark.Markdown
}

type pushPlusRequest struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
}

type pushPlusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// NewPushPlus creates a PushPlus sink
func NewPushPlus(client *httputil.Client, url, token string) *PushPlus {
	return &PushPlus{
		client: client,
		url:    url,
		token:  token,
		md:     goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps())),
	}
}

// Name implements Sink
func (p *PushPlus) Name() string { return "pushplus" }

// RenderHTML converts a markdown body to HTML; single newlines become <br>
func (p *PushPlus) RenderHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Deliver implements Sink
func (p *PushPlus) Deliver(ctx context.Context, title, body string) error {
	content, err := p.RenderHTML(body)
	if err != nil {
		return err
	}

	resp, err := p.client.PostJSON(ctx, p.url, pushPlusRequest{
		Token:    p.token,
		Title:    title,
		Content:  content,
		Template: "html",
	})
	if err != nil {
		return fmt.Errorf("pushplus request: %w", err)
	}

	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return fmt.Errorf("pushplus response: %w", err)
	}

	var result pushPlusResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode pushplus response: %w", err)
	}
	if result.Code != 200 {
		return fmt.Errorf("pushplus rejected message: code=%d msg=%s", result.Code, result.Msg)
	}
	return nil
}
