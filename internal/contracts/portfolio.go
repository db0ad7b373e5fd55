package contracts

import (
	"encoding/json"
	"strings"
)

// BenchmarkClass is the enumerated benchmark of a fund
type BenchmarkClass string

const (
	BenchmarkUnset  BenchmarkClass = ""
	BenchmarkBroad  BenchmarkClass = "broad"  // SSE Composite
	BenchmarkGrowth BenchmarkClass = "growth" // ChiNext
)

// Valid reports whether c is a known class (unset included)
func (c BenchmarkClass) Valid() bool {
	switch c {
	case BenchmarkUnset, BenchmarkBroad, BenchmarkGrowth:
		return true
	}
	return false
}

// Default values applied when a fund record omits them
const (
	DefaultFactor   = 1.0
	DefaultBaseUnit = 1000.0
)

// Holding is one constituent of a fund with its static weight
type Holding struct {
	Code   string  `json:"code"`
	Weight float64 `json:"weight"`
}

// Fund is a named investment held by the user
// ⭐ SSOT: fund record shape of funds.json
type Fund struct {
	Name         string         `json:"-"`
	Code         string         `json:"fund_code,omitempty"`
	Holdings     []Holding      `json:"holdings"`
	Factor       float64        `json:"calibration_factor"`
	HoldingValue float64        `json:"holding_value"`
	BaseUnit     float64        `json:"base_unit"`
	Benchmark    BenchmarkClass `json:"benchmark,omitempty"`
}

type fundRecord struct {
	Code         string         `json:"fund_code,omitempty"`
	Holdings     []Holding      `json:"holdings"`
	Factor       *float64       `json:"calibration_factor,omitempty"`
	LegacyFactor *float64       `json:"factor,omitempty"`
	HoldingValue float64        `json:"holding_value"`
	BaseUnit     *float64       `json:"base_unit,omitempty"`
	Benchmark    BenchmarkClass `json:"benchmark,omitempty"`
}

// UnmarshalJSON accepts the legacy "factor" key and fills defaults
func (f *Fund) UnmarshalJSON(data []byte) error {
	var rec fundRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	factor := DefaultFactor
	switch {
	case rec.Factor != nil:
		factor = *rec.Factor
	case rec.LegacyFactor != nil:
		factor = *rec.LegacyFactor
	}

	baseUnit := DefaultBaseUnit
	if rec.BaseUnit != nil {
		baseUnit = *rec.BaseUnit
	}

	*f = Fund{
		Name:         f.Name,
		Code:         rec.Code,
		Holdings:     rec.Holdings,
		Factor:       factor,
		HoldingValue: rec.HoldingValue,
		BaseUnit:     baseUnit,
		Benchmark:    rec.Benchmark,
	}
	return nil
}

// ShortName is the display name without the parenthesized manager/style suffix
func (f Fund) ShortName() string {
	if i := strings.Index(f.Name, "("); i > 0 {
		return strings.TrimSpace(f.Name[:i])
	}
	return f.Name
}

// SecurityCodes returns the holding codes in order
func (f Fund) SecurityCodes() []string {
	codes := make([]string, 0, len(f.Holdings))
	for _, h := range f.Holdings {
		codes = append(codes, h.Code)
	}
	return codes
}
