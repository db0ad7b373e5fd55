package strategyconfig

import (
	"fmt"
	"time"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Calibration ===
	if s := cfg.Calibration.Smoothing; s < 0 || s > 1 {
		return ValidationError{"calibration.smoothing", "must be in [0, 1]"}
	}

	// === Signals ===
	sig := cfg.Signals
	if sig.BuyThreshold >= 0 {
		return ValidationError{"signals.buy_threshold", "must be < 0"}
	}
	if sig.StrongBuyThreshold > sig.BuyThreshold {
		return ValidationError{"signals.strong_buy_threshold", "must be <= buy_threshold"}
	}
	if sig.StrongBuyMultiplier < 1 {
		return ValidationError{"signals.strong_buy_multiplier", "must be >= 1"}
	}
	if sig.SellThreshold <= 0 {
		return ValidationError{"signals.sell_threshold", "must be > 0"}
	}
	if sig.SellBenchmarkOffset < 0 {
		return ValidationError{"signals.sell_benchmark_offset", "must be >= 0"}
	}
	if sig.SellFraction <= 0 || sig.SellFraction > 1 {
		return ValidationError{"signals.sell_fraction", "must be in (0, 1]"}
	}

	// === Schedule ===
	sch := cfg.Schedule
	for field, hm := range map[string]string{
		"schedule.close_window.start": sch.CloseWindow.Start,
		"schedule.close_window.end":   sch.CloseWindow.End,
		"schedule.nightly_start":      sch.NightlyStart,
		"schedule.nightly_deadline":   sch.NightlyDeadline,
	} {
		if err := validateHHMM(hm); err != nil {
			return ValidationError{field, err.Error()}
		}
	}

	// windows: start < end
	if sch.CloseWindow.Start >= sch.CloseWindow.End {
		return ValidationError{"schedule.close_window", "start must be before end"}
	}
	if sch.NightlyStart >= sch.NightlyDeadline {
		return ValidationError{"schedule.nightly_deadline", "must be after nightly_start"}
	}

	return nil
}

// validateHHMM checks HH:MM (zero padded, so ranges compare as strings)
func validateHHMM(s string) error {
	t, err := time.Parse("15:04", s)
	if err != nil || t.Format("15:04") != s {
		return fmt.Errorf("invalid HH:MM %q", s)
	}
	return nil
}
