package signals

import (
	"strings"

	"github.com/wonny/fundwatch/internal/contracts"
)

// Market index codes on the quote feed
const (
	CodeSSEComposite = "sh000001"
	CodeChiNext      = "sz399006"
	CodeHSTech       = "hkHSTECH"
)

// MarketIndex is an index shown on the dashboard
type MarketIndex struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// MarketIndices are fetched on every evaluation cycle
var MarketIndices = []MarketIndex{
	{Code: CodeSSEComposite, Name: "上证指数"},
	{Code: CodeChiNext, Name: "创业板指"},
	{Code: CodeHSTech, Name: "恒生科技"},
}

// Name keywords of the legacy benchmark shim
var (
	broadKeywords  = []string{"周期", "均衡"}
	growthKeywords = []string{"成长", "AI", "优选"}
)

// ClassFor returns the fund's benchmark class. An unset class falls back to
// name keywords: 周期/均衡 broad, 成长/AI/优选 growth, otherwise broad.
func ClassFor(fund contracts.Fund) contracts.BenchmarkClass {
	if fund.Benchmark != contracts.BenchmarkUnset {
		return fund.Benchmark
	}
	if containsAny(fund.Name, broadKeywords) {
		return contracts.BenchmarkBroad
	}
	if containsAny(fund.Name, growthKeywords) {
		return contracts.BenchmarkGrowth
	}
	return contracts.BenchmarkBroad
}

// BenchmarkFor resolves the benchmark index of a fund
func BenchmarkFor(fund contracts.Fund) contracts.Benchmark {
	class := ClassFor(fund)
	if class == contracts.BenchmarkGrowth {
		return contracts.Benchmark{Class: class, Code: CodeChiNext, Name: "创业板指"}
	}
	return contracts.Benchmark{Class: contracts.BenchmarkBroad, Code: CodeSSEComposite, Name: "上证指数"}
}

// BenchmarkReturn is the benchmark's % change in snapshot; a missing or non-finite quote counts as 0
func BenchmarkReturn(b contracts.Benchmark, snapshot contracts.QuoteSnapshot) float64 {
	pct := snapshot[b.Code].ChangePct
	if !contracts.IsFinite(pct) {
		return 0
	}
	return pct
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
