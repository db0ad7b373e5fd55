// Package portfolio holds the configured funds and persists them as funds.json.
package portfolio

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wonny/fundwatch/internal/contracts"
)

var (
	// ErrUnknownFund is returned when a fund name is not configured
	ErrUnknownFund = errors.New("portfolio: unknown fund")

	// ErrInvalidUpdate is returned when a patch carries an invalid value
	ErrInvalidUpdate = errors.New("portfolio: invalid update")
)

// Portfolio is the set of configured funds plus the store token it was read with
// ⭐ SSOT: fund configuration in memory
type Portfolio struct {
	Funds map[string]contracts.Fund
	Token string
}

// New creates a portfolio from funds keyed by name; Name fields are filled in
func New(funds map[string]contracts.Fund, token string) *Portfolio {
	p := &Portfolio{Funds: make(map[string]contracts.Fund, len(funds)), Token: token}
	for name, f := range funds {
		f.Name = name
		p.Funds[name] = f
	}
	return p
}

// Names returns fund names in sorted order
func (p *Portfolio) Names() []string {
	names := make([]string, 0, len(p.Funds))
	for name := range p.Funds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns funds sorted by name
func (p *Portfolio) List() []contracts.Fund {
	funds := make([]contracts.Fund, 0, len(p.Funds))
	for _, name := range p.Names() {
		funds = append(funds, p.Funds[name])
	}
	return funds
}

// Get returns a fund by name
func (p *Portfolio) Get(name string) (contracts.Fund, bool) {
	f, ok := p.Funds[name]
	return f, ok
}

// WithCode returns the funds that have an official fund code
func (p *Portfolio) WithCode() []contracts.Fund {
	var funds []contracts.Fund
	for _, f := range p.List() {
		if f.Code != "" {
			funds = append(funds, f)
		}
	}
	return funds
}

// SecurityCodes returns every holding code plus extra, deduplicated and sorted
func (p *Portfolio) SecurityCodes(extra ...string) []string {
	seen := make(map[string]bool)
	var codes []string
	add := func(code string) {
		if code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}

	for _, code := range extra {
		add(code)
	}
	for _, f := range p.Funds {
		for _, h := range f.Holdings {
			add(h.Code)
		}
	}

	sort.Strings(codes)
	return codes
}

// SetFactor replaces a fund's calibration factor
func (p *Portfolio) SetFactor(name string, factor float64) error {
	f, ok := p.Funds[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFund, name)
	}
	f.Factor = factor
	p.Funds[name] = f
	return nil
}

// Patch is a partial update of a fund's user-editable fields
type Patch struct {
	HoldingValue *float64                  `json:"holding_value,omitempty"`
	BaseUnit     *float64                  `json:"base_unit,omitempty"`
	Benchmark    *contracts.BenchmarkClass `json:"benchmark,omitempty"`
	Code         *string                   `json:"fund_code,omitempty"`
}

// Empty reports whether the patch changes nothing
func (pt Patch) Empty() bool {
	return pt.HoldingValue == nil && pt.BaseUnit == nil && pt.Benchmark == nil && pt.Code == nil
}

// Validate checks patch values
func (pt Patch) Validate() error {
	if pt.HoldingValue != nil && *pt.HoldingValue < 0 {
		return fmt.Errorf("%w: holding_value must be >= 0", ErrInvalidUpdate)
	}
	if pt.BaseUnit != nil && *pt.BaseUnit <= 0 {
		return fmt.Errorf("%w: base_unit must be > 0", ErrInvalidUpdate)
	}
	if pt.Benchmark != nil && !pt.Benchmark.Valid() {
		return fmt.Errorf("%w: benchmark %q", ErrInvalidUpdate, *pt.Benchmark)
	}
	return nil
}

// Apply validates and applies a patch to the named fund
func (p *Portfolio) Apply(name string, pt Patch) (contracts.Fund, error) {
	f, ok := p.Funds[name]
	if !ok {
		return contracts.Fund{}, fmt.Errorf("%w: %s", ErrUnknownFund, name)
	}
	if err := pt.Validate(); err != nil {
		return contracts.Fund{}, err
	}

	if pt.HoldingValue != nil {
		f.HoldingValue = *pt.HoldingValue
	}
	if pt.BaseUnit != nil {
		f.BaseUnit = *pt.BaseUnit
	}
	if pt.Benchmark != nil {
		f.Benchmark = *pt.Benchmark
	}
	if pt.Code != nil {
		f.Code = *pt.Code
	}

	p.Funds[name] = f
	return f, nil
}
