// Package strategyconfig loads the optional policy file (POLICY_FILE): the
// signal thresholds, the calibration smoothing and the report windows as YAML.
package strategyconfig

// Config is the policy file
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Calibration Calibration `yaml:"calibration" json:"calibration"`
	Signals     Signals     `yaml:"signals" json:"signals"`
	Schedule    Schedule    `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Calibration holds the factor smoothing
type Calibration struct {
	Smoothing float64 `yaml:"smoothing" json:"smoothing"` // weight kept on the old factor
}

// Signals holds the buy/sell thresholds (percent)
type Signals struct {
	BuyThreshold        float64 `yaml:"buy_threshold" json:"buy_threshold"`
	StrongBuyThreshold  float64 `yaml:"strong_buy_threshold" json:"strong_buy_threshold"`
	StrongBuyMultiplier int64   `yaml:"strong_buy_multiplier" json:"strong_buy_multiplier"`
	SellThreshold       float64 `yaml:"sell_threshold" json:"sell_threshold"`
	SellBenchmarkOffset float64 `yaml:"sell_benchmark_offset" json:"sell_benchmark_offset"`
	SellFraction        float64 `yaml:"sell_fraction" json:"sell_fraction"`
}

// Schedule holds the local time windows
type Schedule struct {
	CloseWindow     Window `yaml:"close_window" json:"close_window"`
	NightlyStart    string `yaml:"nightly_start" json:"nightly_start"`       // HH:MM
	NightlyDeadline string `yaml:"nightly_deadline" json:"nightly_deadline"` // HH:MM
}

// Window is a HH:MM range
type Window struct {
	Start string `yaml:"start" json:"start"` // HH:MM
	End   string `yaml:"end" json:"end"`     // HH:MM
}
