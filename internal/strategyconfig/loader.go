package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/fundwatch/pkg/config"
)

// Load reads the YAML policy file and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes and validates a policy document
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode policy file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// FromConfig captures the environment-derived policy as a Config
func FromConfig(c *config.Config) *Config {
	p := c.Policy
	return &Config{
		Meta:        Meta{StrategyID: "env"},
		Calibration: Calibration{Smoothing: p.Smoothing},
		Signals: Signals{
			BuyThreshold:        p.BuyThreshold,
			StrongBuyThreshold:  p.StrongBuyThreshold,
			StrongBuyMultiplier: p.StrongBuyMultiplier,
			SellThreshold:       p.SellThreshold,
			SellBenchmarkOffset: p.SellBenchmarkOffset,
			SellFraction:        p.SellFraction,
		},
		Schedule: Schedule{
			CloseWindow:     Window{Start: c.Schedule.CloseWindowStart, End: c.Schedule.CloseWindowEnd},
			NightlyStart:    c.Schedule.NightlyStart,
			NightlyDeadline: c.Schedule.NightlyDeadline,
		},
	}
}

// Apply overrides the policy and window settings of c
func (cfg *Config) Apply(c *config.Config) {
	c.Policy = config.PolicyConfig{
		Smoothing:           cfg.Calibration.Smoothing,
		BuyThreshold:        cfg.Signals.BuyThreshold,
		StrongBuyThreshold:  cfg.Signals.StrongBuyThreshold,
		StrongBuyMultiplier: cfg.Signals.StrongBuyMultiplier,
		SellThreshold:       cfg.Signals.SellThreshold,
		SellBenchmarkOffset: cfg.Signals.SellBenchmarkOffset,
		SellFraction:        cfg.Signals.SellFraction,
	}
	c.Schedule.CloseWindowStart = cfg.Schedule.CloseWindow.Start
	c.Schedule.CloseWindowEnd = cfg.Schedule.CloseWindow.End
	c.Schedule.NightlyStart = cfg.Schedule.NightlyStart
	c.Schedule.NightlyDeadline = cfg.Schedule.NightlyDeadline
}
