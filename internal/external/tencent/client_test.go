package tencent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/wonny/fundwatch/pkg/httputil"
	"github.com/wonny/fundwatch/pkg/logger"
)

// record builds a feed record with the given name, price, previous close and timestamp
func record(code, name, price, prevClose, ts string) string {
	fields := make([]string, 40)
	fields[0] = "1"
	fields[fieldName] = name
	fields[2] = "000000"
	fields[fieldPrice] = price
	fields[fieldPrevClose] = prevClose
	fields[fieldTimestamp] = ts
	return `v_` + code + `="` + strings.Join(fields, "~") + `";` + "\n"
}

func TestParseQuotes(t *testing.T) {
	body := record("sh600519", "贵州 茅台", "101.00", "100.00", "20240105150003") +
		record("sz300750", "宁德时代", "95.00", "100.00", "20240105150003") +
		record("hkHSTECH", "恒生科技", "4040", "4000", "2024/01/05 16:08:02") +
		record("sh000000", "停牌", "10.00", "0.00", "20240105150003") +
		`v_sh601318="1~中国平安~601318~40.00~39.00";` + "\n" +
		`v_pv_none_match="1";` + "\n" +
		`garbage` + "\n"

	quotes := ParseQuotes(body)
	require.Len(t, quotes, 3)

	moutai := quotes["sh600519"]
	assert.Equal(t, "贵州茅台", moutai.Name)
	assert.InDelta(t, 1.0, moutai.ChangePct, 1e-9)
	assert.Equal(t, "2024-01-05", moutai.AsOf)

	assert.InDelta(t, -5.0, quotes["sz300750"].ChangePct, 1e-9)

	hk, ok := quotes["hkHSTECH"]
	require.True(t, ok)
	assert.InDelta(t, 1.0, hk.ChangePct, 1e-9)
	assert.Equal(t, "2024-01-05", hk.AsOf)

	_, ok = quotes["sh000000"]
	assert.False(t, ok, "previous close <= 0 must be dropped")
	_, ok = quotes["sh601318"]
	assert.False(t, ok, "short records must be dropped")
}

func TestParseQuotesDropsNonFinite(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		prevClose string
	}{
		{"nan price", "NaN", "10.00"},
		{"inf price", "Inf", "10.00"},
		{"negative infinity price", "-infinity", "10.00"},
		{"nan previous close", "10.00", "NaN"},
		{"inf previous close", "10.00", "+Inf"},
		{"overflowing change", "1e308", "1e-300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := record("sh600519", "贵州茅台", tt.price, tt.prevClose, "20240105150003") +
				record("sz300750", "宁德时代", "101.00", "100.00", "20240105150003")

			quotes := ParseQuotes(body)
			_, kept := quotes["sh600519"]
			assert.False(t, kept)
			assert.Len(t, quotes, 1)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"20240105150003", "2024-01-05"},
		{"2024/01/05 16:08:02", "2024-01-05"},
		{"2024-01-05", "2024-01-05"},
		{"", ""},
		{"1500", ""},
		{"20241399000000", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTimestamp(tt.raw))
		})
	}
}

func gbk(t *testing.T, s string) []byte {
	t.Helper()
	out, err := simplifiedchinese.GBK.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(out)
}

func TestFetchQuotesDecodesGBKAndBatches(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)

		codes := strings.Split(strings.TrimPrefix(r.URL.Path, "/q="), ",")
		assert.LessOrEqual(t, len(codes), 2)

		var body strings.Builder
		for _, code := range codes {
			body.WriteString(record(code, "上证指数", "3030", "3000", "20240105150003"))
		}
		w.Write(gbk(t, body.String()))
	}))
	defer server.Close()

	client := NewClient(httputil.New(logger.Nop(), time.Second).DisableRetry(), logger.Nop(), server.URL, 2)

	quotes, err := client.FetchQuotes(context.Background(), []string{"sh000001", "sz399006", "sh000001", " ", "hkHSTECH"})
	require.NoError(t, err)

	assert.Len(t, quotes, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
	assert.Equal(t, "上证指数", quotes["sh000001"].Name)
	assert.InDelta(t, 1.0, quotes["sz399006"].ChangePct, 1e-9)
}

func TestFetchQuotesEmptyCodes(t *testing.T) {
	client := NewClient(httputil.New(logger.Nop(), time.Second), logger.Nop(), "http://127.0.0.1:1", 0)

	quotes, err := client.FetchQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestFetchQuotesFeedDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(httputil.New(logger.Nop(), time.Second).DisableRetry(), logger.Nop(), server.URL, 60)

	_, err := client.FetchQuotes(context.Background(), []string{"sh000001"})
	assert.Error(t, err)
}
