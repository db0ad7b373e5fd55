package nightly

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundwatch/internal/blobstore"
	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/history"
	"github.com/wonny/fundwatch/internal/portfolio"
	"github.com/wonny/fundwatch/pkg/logger"
)

const today = "2024-01-05"

// navStub serves two records per code: today (or yesterday) and the day before
type navStub struct {
	records map[string][]contracts.NavRecord
	errs    map[string]error
	calls   map[string]int
}

func (s *navStub) FetchHistory(_ context.Context, code string, limit int) ([]contracts.NavRecord, error) {
	s.calls[code]++
	if err := s.errs[code]; err != nil {
		return nil, err
	}
	r := s.records[code]
	if limit < len(r) {
		r = r[:limit]
	}
	return r, nil
}

type notifierStub struct{ titles, bodies []string }

func (n *notifierStub) Send(_ context.Context, title, body string) {
	n.titles = append(n.titles, title)
	n.bodies = append(n.bodies, body)
}

type fixture struct {
	store    *blobstore.MemoryStore
	hist     *history.Cache
	nav      *navStub
	notifier *notifierStub
	rec      *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := blobstore.NewMemoryStore()
	funds := map[string]contracts.Fund{
		"泰康新锐C (韩庆/成长)": {Code: "017366", HoldingValue: 10000, Holdings: []contracts.Holding{{Code: "X", Weight: 1}}},
		"摩根均衡C (梁鹏/周期)": {Code: "021274", HoldingValue: 5000, Holdings: []contracts.Holding{{Code: "Y", Weight: 1}}},
		"No code":         {HoldingValue: 1000},
	}
	_, err := blobstore.WriteJSON(context.Background(), store, blobstore.KeyFunds, funds, "", "seed")
	require.NoError(t, err)

	nav := &navStub{
		records: map[string][]contracts.NavRecord{
			"017366": {{Date: today, NAV: 1.02}, {Date: "2024-01-04", NAV: 1.0}},
			"021274": {{Date: "2024-01-04", NAV: 1.0}, {Date: "2024-01-03", NAV: 1.0}},
		},
		errs:  map[string]error{},
		calls: map[string]int{},
	}

	f := &fixture{store: store, nav: nav, notifier: &notifierStub{}}
	f.hist = history.NewCache(store, nav, history.DefaultLimit, logger.Nop())
	f.rec = NewReconciler(portfolio.NewRepository(store, logger.Nop()), f.hist, nav, store, f.notifier,
		Config{Interval: time.Millisecond, Deadline: "23:30", Location: time.UTC}, logger.Nop())
	return f
}

func TestPollOnceRecordsPublishedAndWaits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	poll, err := f.rec.PollOnce(ctx, today)
	require.NoError(t, err)
	assert.False(t, poll.Done)
	assert.InDelta(t, 2.0, poll.Recorded["泰康新锐C (韩庆/成长)"], 1e-9)
	assert.Equal(t, []string{"摩根均衡C (梁鹏/周期)"}, poll.Pending)
	assert.Empty(t, f.notifier.titles)

	h, _, err := f.hist.Load(ctx)
	require.NoError(t, err)
	assert.True(t, h.Has("泰康新锐C (韩庆/成长)", today))

	// A recorded fund is not fetched again
	_, err = f.rec.PollOnce(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, f.nav.calls["017366"])
	assert.Equal(t, 2, f.nav.calls["021274"])
}

func TestPollOnceReportsOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.nav.records["021274"] = []contracts.NavRecord{{Date: today, NAV: 0.99}, {Date: "2024-01-04", NAV: 1.0}}

	poll, err := f.rec.PollOnce(ctx, today)
	require.NoError(t, err)
	assert.True(t, poll.Done)
	assert.True(t, poll.Reported)

	require.Len(t, f.notifier.titles, 1)
	// 10000*2% - 5000*1% = 150 over 15000 principal
	assert.Equal(t, "今日实际: +150 (+1.00%)", f.notifier.titles[0])
	assert.Equal(t, "📅 2024-01-05 净值已出炉\n\n🟢 摩根均衡C: -1.00% (¥-50)\n🔴 泰康新锐C: +2.00% (¥+200)", f.notifier.bodies[0])

	// Restarted job: state marker suppresses a second report
	poll, err = f.rec.PollOnce(ctx, today)
	require.NoError(t, err)
	assert.True(t, poll.Done)
	assert.False(t, poll.Reported)
	assert.Len(t, f.notifier.titles, 1)

	var state State
	_, err = blobstore.ReadJSON(ctx, f.store, blobstore.KeyNightly, &state)
	require.NoError(t, err)
	assert.Equal(t, today, state.LastReported)
}

func TestPollOnceFeedFailureStaysPending(t *testing.T) {
	f := newFixture(t)
	f.nav.errs["017366"] = errors.New("timeout")

	poll, err := f.rec.PollOnce(context.Background(), today)
	require.NoError(t, err)
	assert.Contains(t, poll.Pending, "泰康新锐C (韩庆/成长)")
	assert.Empty(t, poll.Recorded)
}

func TestRunStopsAtDeadline(t *testing.T) {
	f := newFixture(t)
	f.rec.now = func() time.Time { return time.Date(2024, 1, 5, 23, 29, 0, 0, time.UTC) }
	f.rec.interval = 2 * time.Minute

	poll, err := f.rec.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, poll.Done)
	assert.Equal(t, today, poll.Date)
}

func TestRunCompletes(t *testing.T) {
	f := newFixture(t)
	f.rec.now = func() time.Time { return time.Date(2024, 1, 5, 20, 0, 0, 0, time.UTC) }
	f.nav.records["021274"] = []contracts.NavRecord{{Date: today, NAV: 1.0}, {Date: "2024-01-04", NAV: 1.0}}

	poll, err := f.rec.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, poll.Done)
	assert.True(t, poll.Reported)
}

func TestSignedWhole(t *testing.T) {
	assert.Equal(t, "+0", signedWhole(decimal.NewFromFloat(0.2)))
	assert.Equal(t, "+0", signedWhole(decimal.NewFromFloat(-0.2)))
	assert.Equal(t, "-13", signedWhole(decimal.NewFromFloat(-12.6)))
	assert.Equal(t, "+1235", signedWhole(decimal.NewFromFloat(1234.5)))
}
