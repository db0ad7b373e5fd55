package signals

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/config"
)

func TestEvaluate(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name       string
		estimate   float64
		benchmark  float64
		wantOK     bool
		wantAction contracts.SignalAction
		wantAmount string
		wantStrong bool
	}{
		{"buy", -3.0, -1.0, true, contracts.ActionBuy, "1000", false},
		{"strong buy", -4.5, -1.0, true, contracts.ActionBuy, "2000", true},
		{"sell", 3.5, 1.0, true, contracts.ActionSell, "0", false},
		{"none between thresholds", -1.0, 0.0, false, "", "", false},
		{"buy blocked by weaker benchmark", -3.0, -3.5, false, "", "", false},
		{"sell blocked by benchmark offset", 3.5, 2.5, false, "", "", false},
		{"boundary buy threshold is exclusive", -2.5, 0.0, false, "", "", false},
		{"boundary sell threshold is exclusive", 3.0, 0.0, false, "", "", false},
		// reference cases at base unit 1000
		{"buy double at -5.0 vs 0.0", -5.0, 0.0, true, contracts.ActionBuy, "2000", true},
		{"buy single at -3.0 vs 1.0", -3.0, 1.0, true, contracts.ActionBuy, "1000", false},
		{"sell at 4.0 vs 1.0", 4.0, 1.0, true, contracts.ActionSell, "0", false},
		{"none at 1.0 vs 0.5", 1.0, 0.5, false, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal, ok := p.Evaluate(tt.estimate, tt.benchmark, 1000)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantAction, signal.Action)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(signal.Amount), signal.Amount.String())
			assert.Equal(t, tt.wantStrong, signal.Strong)
			assert.InDelta(t, math.Abs(tt.estimate-tt.benchmark), signal.Gap, 1e-9)
		})
	}
}

func TestEvaluateSellAdvice(t *testing.T) {
	signal, ok := DefaultPolicy().Evaluate(3.5, 1.0, 1000)
	require.True(t, ok)

	assert.Equal(t, 0.25, signal.SellFraction)
	assert.Equal(t, "跑赢基准 2.5%", signal.Rationale)
	assert.Equal(t, "建议卖出 1/4", signal.Advice)
	assert.Equal(t, "卖出 1/4", Action(signal))
}

func TestEvaluateBuyAdvice(t *testing.T) {
	signal, ok := DefaultPolicy().Evaluate(-4.5, -1.0, 1000)
	require.True(t, ok)

	assert.Equal(t, "跑输基准 3.5%", signal.Rationale)
	assert.Equal(t, "建议加仓 ¥2,000.00", signal.Advice)
	assert.Equal(t, "买入 ¥2,000.00", Action(signal))
	assert.Equal(t, "估值 -4.50% (跑输 3.5%)", Detail(signal))
	assert.Equal(t, "🟢【机会】摩根均衡C -4.50%\n📉 跑输基准 3.5%\n👉 建议加仓 ¥2,000.00", Message("摩根均衡C", signal))
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.PolicyConfig{
		BuyThreshold:        -2.5,
		StrongBuyThreshold:  -4.0,
		StrongBuyMultiplier: 2,
		SellThreshold:       3.0,
		SellBenchmarkOffset: 1.5,
		SellFraction:        0.25,
	})
	assert.Equal(t, DefaultPolicy(), p)
}

func TestFraction(t *testing.T) {
	assert.Equal(t, "1/4", fraction(0.25))
	assert.Equal(t, "1/3", fraction(1.0/3))
	assert.Equal(t, "1/1", fraction(1))
	assert.Equal(t, "40%", fraction(0.4))
}

func TestClassFor(t *testing.T) {
	tests := []struct {
		name  string
		fund  contracts.Fund
		want  contracts.BenchmarkClass
		index string
	}{
		{"explicit growth wins over keyword", contracts.Fund{Name: "摩根均衡C", Benchmark: contracts.BenchmarkGrowth}, contracts.BenchmarkGrowth, CodeChiNext},
		{"explicit broad", contracts.Fund{Name: "AI优选", Benchmark: contracts.BenchmarkBroad}, contracts.BenchmarkBroad, CodeSSEComposite},
		{"shim broad keyword", contracts.Fund{Name: "摩根均衡C (梁鹏/周期)"}, contracts.BenchmarkBroad, CodeSSEComposite},
		{"shim growth keyword", contracts.Fund{Name: "泰康新锐成长C"}, contracts.BenchmarkGrowth, CodeChiNext},
		{"shim AI", contracts.Fund{Name: "易方达AI主题"}, contracts.BenchmarkGrowth, CodeChiNext},
		{"shim default", contracts.Fund{Name: "沪深300指数"}, contracts.BenchmarkBroad, CodeSSEComposite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassFor(tt.fund))
			assert.Equal(t, tt.index, BenchmarkFor(tt.fund).Code)
		})
	}
}

func TestBenchmarkReturnMissingQuoteIsZero(t *testing.T) {
	b := BenchmarkFor(contracts.Fund{Name: "成长"})
	assert.Equal(t, 0.0, BenchmarkReturn(b, contracts.QuoteSnapshot{}))

	snap := contracts.QuoteSnapshot{CodeChiNext: {Code: CodeChiNext, ChangePct: -1.2}}
	assert.Equal(t, -1.2, BenchmarkReturn(b, snap))
}

// End-to-end: raw -1.0 with factor 1.1 gives -1.1, no signal against a flat benchmark
func TestNoSignalForMildDecline(t *testing.T) {
	_, ok := DefaultPolicy().Evaluate(-1.1, 0, 1000)
	assert.False(t, ok)
}
