package contracts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFundUnmarshalDefaults(t *testing.T) {
	var f Fund
	require.NoError(t, json.Unmarshal([]byte(`{"holdings":[{"code":"sh600519","weight":10}]}`), &f))

	assert.Equal(t, DefaultFactor, f.Factor)
	assert.Equal(t, DefaultBaseUnit, f.BaseUnit)
	assert.Equal(t, []string{"sh600519"}, f.SecurityCodes())
}

func TestFundUnmarshalLegacyFactor(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"legacy key", `{"factor":1.05}`, 1.05},
		{"current key", `{"calibration_factor":0.9}`, 0.9},
		{"current wins", `{"factor":1.05,"calibration_factor":0.9}`, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Fund
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &f))
			assert.Equal(t, tt.want, f.Factor)
		})
	}
}

func TestFundMarshalUsesCurrentKeys(t *testing.T) {
	f := Fund{Name: "ignored", Factor: 1.1, BaseUnit: 500, Benchmark: BenchmarkGrowth}

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 1.1, m["calibration_factor"])
	assert.Equal(t, "growth", m["benchmark"])
	assert.NotContains(t, m, "factor")
	assert.NotContains(t, m, "Name")
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "摩根均衡C", Fund{Name: "摩根均衡C (梁鹏/周期)"}.ShortName())
	assert.Equal(t, "Plain", Fund{Name: "Plain"}.ShortName())
}

func TestBenchmarkClassValid(t *testing.T) {
	assert.True(t, BenchmarkUnset.Valid())
	assert.True(t, BenchmarkGrowth.Valid())
	assert.False(t, BenchmarkClass("value").Valid())
}
