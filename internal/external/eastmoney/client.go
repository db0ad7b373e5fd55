package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/httputil"
	"github.com/wonny/fundwatch/pkg/logger"
)

// Headers the NAV API requires; requests without a fund.eastmoney.com referer are rejected
const (
	Referer   = "http://fund.eastmoney.com/"
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

const listPath = "$.Data.LSJZList"

// Client fetches official NAV history from the eastmoney JSON API
// ⭐ SSOT: api.fund.eastmoney.com 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a JSON NAV client. The http client should carry the
// Referer and User-Agent headers (see NewHTTPClient).
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		now:        time.Now,
	}
}

// NewHTTPClient builds the http client both NAV clients expect
func NewHTTPClient(log *logger.Logger, timeout time.Duration, rps float64) *httputil.Client {
	return httputil.New(log, timeout).
		WithRateLimit(rps).
		WithHeader("Referer", Referer).
		WithHeader("User-Agent", UserAgent)
}

var _ contracts.NavSource = (*Client)(nil)

// FetchHistory implements contracts.NavSource
func (c *Client) FetchHistory(ctx context.Context, fundCode string, limit int) ([]contracts.NavRecord, error) {
	params := url.Values{}
	params.Set("fundCode", fundCode)
	params.Set("pageIndex", "1")
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))

	resp, err := c.httpClient.Get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("nav request for %s: %w", fundCode, err)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("nav response for %s: %w", fundCode, err)
	}

	records, err := ParseHistoryJSON(body)
	if err != nil {
		return nil, fmt.Errorf("nav payload for %s: %w", fundCode, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"fund_code": fundCode,
		"records":   len(records),
	}).Debug("NAV history fetched")

	return records, nil
}

// ParseHistoryJSON extracts Data.LSJZList from an API payload.
// Rows without a date are skipped; a payload without the list is an error.
func ParseHistoryJSON(body []byte) ([]contracts.NavRecord, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	list, err := jsonpath.Get(listPath, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", listPath, err)
	}

	if list == nil {
		return nil, nil
	}
	rows, ok := list.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: not a list", listPath)
	}

	records := make([]contracts.NavRecord, 0, len(rows))
	for _, row := range rows {
		fields, ok := row.(map[string]interface{})
		if !ok {
			continue
		}

		date := strings.TrimSpace(stringField(fields, "FSRQ"))
		if date == "" {
			continue
		}

		nav, _ := parseNumber(stringField(fields, "DWJZ"))
		change, hasChange := parseNumber(stringField(fields, "JZZZL"))

		records = append(records, contracts.NavRecord{
			Date:      date,
			NAV:       nav,
			ChangePct: change,
			HasChange: hasChange,
		})
	}

	return records, nil
}

// stringField reads a field the API may send as a string or a number
func stringField(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// parseNumber parses "1.23", "1.23%" or reports false for "", "--", NaN/Inf and garbage
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" || s == "--" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !contracts.IsFinite(v) {
		return 0, false
	}
	return v, true
}
