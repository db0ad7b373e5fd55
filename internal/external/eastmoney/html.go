package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/httputil"
	"github.com/wonny/fundwatch/pkg/logger"
)

// HTMLClient reads NAV history from the F10 HTML table endpoint.
// Used when NAV_SOURCE=html or the JSON API is blocked.
type HTMLClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewHTMLClient creates an HTML NAV client
func NewHTMLClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *HTMLClient {
	return &HTMLClient{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

var _ contracts.NavSource = (*HTMLClient)(nil)

// FetchHistory implements contracts.NavSource
func (c *HTMLClient) FetchHistory(ctx context.Context, fundCode string, limit int) ([]contracts.NavRecord, error) {
	params := url.Values{}
	params.Set("type", "lsjz")
	params.Set("code", fundCode)
	params.Set("page", "1")
	params.Set("per", strconv.Itoa(limit))

	resp, err := c.httpClient.Get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("nav html request for %s: %w", fundCode, err)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("nav html response for %s: %w", fundCode, err)
	}

	records, err := ParseHistoryHTML(string(body))
	if err != nil {
		return nil, fmt.Errorf("nav html payload for %s: %w", fundCode, err)
	}

	if len(records) > limit {
		records = records[:limit]
	}

	c.logger.WithFields(map[string]interface{}{
		"fund_code": fundCode,
		"records":   len(records),
	}).Debug("NAV history fetched (html)")

	return records, nil
}

// ParseHistoryHTML parses the lsjz table. The endpoint wraps the table in a
// JavaScript string (`var apidata={ content:"<table>...</table>",...}`).
// Columns: date, unit NAV, accumulated NAV, daily change.
func ParseHistoryHTML(body string) ([]contracts.NavRecord, error) {
	start := strings.Index(body, "<table")
	end := strings.LastIndex(body, "</table>")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no table in response")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body[start : end+len("</table>")]))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var records []contracts.NavRecord
	doc.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		date := strings.TrimSpace(cells.Eq(0).Text())
		if len(date) != len(contracts.DateLayout) {
			return
		}

		nav, _ := parseNumber(cells.Eq(1).Text())
		change, hasChange := parseNumber(cells.Eq(3).Text())

		records = append(records, contracts.NavRecord{
			Date:      date,
			NAV:       nav,
			ChangePct: change,
			HasChange: hasChange,
		})
	})

	return records, nil
}
