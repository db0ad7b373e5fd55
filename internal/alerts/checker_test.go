package alerts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/dashboard"
	"github.com/wonny/fundwatch/internal/journal"
	"github.com/wonny/fundwatch/internal/signals"
	"github.com/wonny/fundwatch/pkg/logger"
)

type evalStub struct {
	eval *dashboard.Evaluation
	err  error
}

func (s *evalStub) Evaluate(context.Context) (*dashboard.Evaluation, error) {
	return s.eval, s.err
}

type sent struct{ title, body string }

type notifierStub struct{ sent []sent }

func (n *notifierStub) Send(_ context.Context, title, body string) {
	n.sent = append(n.sent, sent{title, body})
}

var closeWindow = Window{Start: "15:00", End: "16:30"}

func sampleEvaluation() *dashboard.Evaluation {
	buy := contracts.Signal{
		Action:    contracts.ActionBuy,
		Estimate:  -3.0,
		Benchmark: -1.0,
		Gap:       2.0,
		Amount:    decimal.NewFromInt(1000),
		Rationale: "跑输基准 2.0%",
		Advice:    "建议加仓 ¥1,000.00",
	}
	return &dashboard.Evaluation{
		RunID: "run-1",
		Date:  "2024-01-05",
		Funds: []dashboard.FundCard{
			{Name: "泰康新锐C (韩庆/成长)", ShortName: "泰康新锐C", Result: contracts.EstimationResult{Estimate: -3.0, Known: true}},
			{Name: "摩根均衡C (梁鹏/周期)", ShortName: "摩根均衡C", Result: contracts.EstimationResult{Estimate: 0.5, Known: true}},
		},
		Signals: []signals.FundSignal{{Fund: "泰康新锐C (韩庆/成长)", Signal: buy}},
	}
}

func at(hm string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04", "2024-01-05 "+hm)
	return t
}

func TestWindowContains(t *testing.T) {
	assert.False(t, closeWindow.Contains(at("14:45")))
	assert.True(t, closeWindow.Contains(at("15:00")))
	assert.True(t, closeWindow.Contains(at("16:30")))
	assert.False(t, closeWindow.Contains(at("16:31")))
}

func TestCheckSendsSignalsAndJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.md")
	notifier := &notifierStub{}
	checker := NewChecker(&evalStub{eval: sampleEvaluation()}, notifier, journal.New(path, logger.Nop()), closeWindow, logger.Nop())

	result, err := checker.Check(context.Background(), at("14:45"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Signals)
	assert.False(t, result.ReportSent)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, SignalTitle, notifier.sent[0].title)
	assert.Equal(t, "🟢【机会】泰康新锐C -3.00%\n📉 跑输基准 2.0%\n👉 建议加仓 ¥1,000.00", notifier.sent[0].body)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "| 2024-01-05 | 泰康新锐C | 🟢 买入机会 | 估值 -3.00% (跑输 2.0%) | 买入 ¥1,000.00 |")
}

func TestCheckInsideCloseWindowSendsReport(t *testing.T) {
	eval := sampleEvaluation()
	eval.Signals = nil
	notifier := &notifierStub{}
	checker := NewChecker(&evalStub{eval: eval}, notifier, nil, closeWindow, logger.Nop())

	result, err := checker.Check(context.Background(), at("15:15"))
	require.NoError(t, err)
	assert.True(t, result.ReportSent)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "收盘估值播报 15:15", notifier.sent[0].title)
	assert.Equal(t, "📅 2024-01-05\n\n🟢 泰康新锐C: -3.00%\n🔴 摩根均衡C: +0.50%", notifier.sent[0].body)
}

func TestCheckPropagatesNoQuotes(t *testing.T) {
	notifier := &notifierStub{}
	checker := NewChecker(&evalStub{err: dashboard.ErrNoQuotes}, notifier, nil, closeWindow, logger.Nop())

	_, err := checker.Check(context.Background(), at("15:15"))
	assert.ErrorIs(t, err, dashboard.ErrNoQuotes)
	assert.Empty(t, notifier.sent)
}

func TestSignalBodyJoinsParagraphs(t *testing.T) {
	eval := sampleEvaluation()
	eval.Signals = append(eval.Signals, signals.FundSignal{
		Fund: "摩根均衡C (梁鹏/周期)",
		Signal: contracts.Signal{
			Action: contracts.ActionSell, Estimate: 3.5, Rationale: "跑赢基准 2.0%", Advice: "建议卖出 1/4",
		},
	})

	body := SignalBody(eval)
	parts := strings.Split(body, "\n\n")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[1], "🔴【止盈】摩根均衡C +3.50%"))
}
