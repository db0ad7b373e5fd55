package signals

import (
	"fmt"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/cny"
)

// FundSignal is a signal bound to the fund that raised it
type FundSignal struct {
	Fund   string           `json:"fund"`
	Signal contracts.Signal `json:"signal"`
}

// Message renders the notification paragraph of a signal
func Message(shortName string, s contracts.Signal) string {
	switch s.Action {
	case contracts.ActionBuy:
		return fmt.Sprintf("🟢【机会】%s %.2f%%\n📉 %s\n👉 %s", shortName, s.Estimate, s.Rationale, s.Advice)
	case contracts.ActionSell:
		return fmt.Sprintf("🔴【止盈】%s %+.2f%%\n🔥 %s\n👉 %s", shortName, s.Estimate, s.Rationale, s.Advice)
	}
	return ""
}

// Label is the journal "signal" column of an action
func Label(a contracts.SignalAction) string {
	if a == contracts.ActionBuy {
		return "🟢 买入机会"
	}
	return "🔴 止盈提醒"
}

// Detail is the journal "detail" column
func Detail(s contracts.Signal) string {
	if s.Action == contracts.ActionBuy {
		return fmt.Sprintf("估值 %.2f%% (跑输 %.1f%%)", s.Estimate, s.Gap)
	}
	return fmt.Sprintf("估值 %+.2f%% (跑赢 %.1f%%)", s.Estimate, s.Gap)
}

// Action is the journal "action" column
func Action(s contracts.Signal) string {
	if s.Action == contracts.ActionBuy {
		return "买入 " + cny.Format(s.Amount)
	}
	return "卖出 " + fraction(s.SellFraction)
}
