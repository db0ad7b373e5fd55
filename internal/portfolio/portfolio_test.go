package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundwatch/internal/blobstore"
	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/logger"
)

const fundsJSON = `{
	"摩根均衡C (梁鹏/周期)": {
		"fund_code": "012414",
		"holdings": [{"code": "sh600519", "weight": 0.6}, {"code": "sz300750", "weight": 0.4}],
		"factor": 1.05,
		"holding_value": 20000
	},
	"AI优选": {
		"holdings": [{"code": "sz300750", "weight": 1}],
		"calibration_factor": 0.9,
		"holding_value": 5000,
		"base_unit": 500
	}
}`

func seeded(t *testing.T) (*Repository, *blobstore.MemoryStore) {
	t.Helper()
	store := blobstore.NewMemoryStore()
	_, err := store.Write(context.Background(), blobstore.KeyFunds, []byte(fundsJSON), "", "seed")
	require.NoError(t, err)
	return NewRepository(store, logger.Nop()), store
}

func TestLoad(t *testing.T) {
	repo, _ := seeded(t)

	p, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, p.Token)
	assert.Equal(t, []string{"AI优选", "摩根均衡C (梁鹏/周期)"}, p.Names())

	morgan, ok := p.Get("摩根均衡C (梁鹏/周期)")
	require.True(t, ok)
	assert.Equal(t, "摩根均衡C (梁鹏/周期)", morgan.Name)
	assert.Equal(t, 1.05, morgan.Factor)
	assert.Equal(t, contracts.DefaultBaseUnit, morgan.BaseUnit)

	assert.Equal(t, []string{"sh000001", "sh600519", "sz300750"}, p.SecurityCodes("sh000001"))
	require.Len(t, p.WithCode(), 1)
	assert.Equal(t, "012414", p.WithCode()[0].Code)
}

func TestLoadMissingIsEmpty(t *testing.T) {
	repo := NewRepository(blobstore.NewMemoryStore(), logger.Nop())

	p, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, p.Funds)
	assert.Empty(t, p.Token)
}

func TestSaveRoundTripsWithCurrentKeys(t *testing.T) {
	repo, store := seeded(t)
	ctx := context.Background()

	p, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, p.SetFactor("AI优选", 0.95))
	require.NoError(t, repo.Save(ctx, p, "Calibrate"))

	raw, token, err := store.Read(ctx, blobstore.KeyFunds)
	require.NoError(t, err)
	assert.Equal(t, p.Token, token)
	assert.Contains(t, string(raw), `"calibration_factor": 0.95`)
	assert.NotContains(t, string(raw), `"factor"`)

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.05, reloaded.Funds["摩根均衡C (梁鹏/周期)"].Factor)
}

func TestSaveStaleTokenConflicts(t *testing.T) {
	repo, _ := seeded(t)
	ctx := context.Background()

	first, err := repo.Load(ctx)
	require.NoError(t, err)
	second, err := repo.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first, "first"))
	err = repo.Save(ctx, second, "second")
	assert.ErrorIs(t, err, blobstore.ErrConflict)
}

func TestUpdate(t *testing.T) {
	repo, _ := seeded(t)
	ctx := context.Background()

	value := 25000.0
	growth := contracts.BenchmarkGrowth
	p, err := repo.Update(ctx, "AI优选", "", Patch{HoldingValue: &value, Benchmark: &growth})
	require.NoError(t, err)

	f := p.Funds["AI优选"]
	assert.Equal(t, 25000.0, f.HoldingValue)
	assert.Equal(t, contracts.BenchmarkGrowth, f.Benchmark)
	assert.Equal(t, 0.9, f.Factor)

	_, err = repo.Update(ctx, "AI优选", "stale", Patch{HoldingValue: &value})
	assert.ErrorIs(t, err, blobstore.ErrConflict)

	_, err = repo.Update(ctx, "missing", "", Patch{HoldingValue: &value})
	assert.ErrorIs(t, err, ErrUnknownFund)
}

func TestPatchValidate(t *testing.T) {
	negative := -1.0
	zero := 0.0
	bad := contracts.BenchmarkClass("nasdaq")

	assert.ErrorIs(t, Patch{HoldingValue: &negative}.Validate(), ErrInvalidUpdate)
	assert.ErrorIs(t, Patch{BaseUnit: &zero}.Validate(), ErrInvalidUpdate)
	assert.ErrorIs(t, Patch{Benchmark: &bad}.Validate(), ErrInvalidUpdate)
	assert.NoError(t, Patch{HoldingValue: &zero}.Validate())
	assert.True(t, Patch{}.Empty())
}
