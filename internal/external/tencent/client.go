package tencent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/httputil"
	"github.com/wonny/fundwatch/pkg/logger"
)

// DefaultBatchSize bounds the number of codes per request URL
const DefaultBatchSize = 60

// Client fetches realtime quotes from the Tencent quote feed
// ⭐ SSOT: qt.gtimg.cn 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	batchSize  int
}

// NewClient creates a new quote feed client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string, batchSize int) *Client {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		batchSize:  batchSize,
	}
}

var _ contracts.QuoteSource = (*Client)(nil)

// FetchQuotes implements contracts.QuoteSource.
// Codes are deduplicated and requested in batches; a failed batch is skipped
// as long as another batch produced quotes.
func (c *Client) FetchQuotes(ctx context.Context, codes []string) (contracts.QuoteSnapshot, error) {
	unique := dedupe(codes)
	snapshot := make(contracts.QuoteSnapshot, len(unique))
	if len(unique) == 0 {
		return snapshot, nil
	}

	var firstErr error
	for start := 0; start < len(unique); start += c.batchSize {
		end := start + c.batchSize
		if end > len(unique) {
			end = len(unique)
		}
		batch := unique[start:end]

		body, err := c.fetch(ctx, batch)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"codes": len(batch),
				"error": err.Error(),
			}).Warn("Quote batch failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for code, quote := range ParseQuotes(body) {
			snapshot[code] = quote
		}
	}

	if len(snapshot) == 0 && firstErr != nil {
		return nil, firstErr
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(unique),
		"received":  len(snapshot),
	}).Debug("Quotes fetched")

	return snapshot, nil
}

// fetch requests one batch and returns the UTF-8 body
func (c *Client) fetch(ctx context.Context, codes []string) (string, error) {
	url := fmt.Sprintf("%s/q=%s", c.baseURL, strings.Join(codes, ","))

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("quote request failed: %w", err)
	}

	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return "", fmt.Errorf("quote response: %w", err)
	}

	return decodeGBK(raw)
}

// decodeGBK converts the feed's GBK payload to UTF-8
func decodeGBK(raw []byte) (string, error) {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("decode GBK: %w", err)
	}
	return string(decoded), nil
}

func dedupe(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
