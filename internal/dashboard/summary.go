package dashboard

import (
	"fmt"
	"strings"

	"github.com/wonny/fundwatch/internal/signals"
	"github.com/wonny/fundwatch/pkg/cny"
)

// Icon marks the direction of a return
func Icon(pct float64) string {
	switch {
	case pct > 0:
		return "🔴"
	case pct < 0:
		return "🟢"
	default:
		return "⚪"
	}
}

// Summary renders an evaluation as plain text for the terminal
func Summary(eval *Evaluation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n\n", eval.Date, eval.At.Format("15:04:05"))

	for _, idx := range eval.Indices {
		if !idx.Available {
			fmt.Fprintf(&b, "%s: --\n", idx.Name)
			continue
		}
		fmt.Fprintf(&b, "%s: %+.2f%%\n", idx.Name, idx.ChangePct)
	}
	b.WriteString("\n")

	for _, card := range eval.Funds {
		est := "--"
		if card.Result.Known {
			est = fmt.Sprintf("%+.2f%%", card.Result.Estimate)
		}
		fmt.Fprintf(&b, "%s %s: %s  %s", Icon(card.Result.Estimate), card.ShortName, est, cny.FormatSigned(card.Profit))
		if card.Signal != nil {
			fmt.Fprintf(&b, "  [%s]", signals.Action(*card.Signal))
		}
		b.WriteString("\n")
	}

	t := eval.Totals
	fmt.Fprintf(&b, "\n预估收益 %s (%+.2f%%)\n", cny.FormatSigned(t.EstimatedProfit), t.EstimatedYield)
	if t.ActualReady {
		fmt.Fprintf(&b, "实际收益 %s (%+.2f%%) 差额 %s\n", cny.FormatSigned(t.ActualProfit), t.ActualYield, cny.FormatSigned(t.Delta))
	}

	return b.String()
}
