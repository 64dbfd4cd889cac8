package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/quantflow/quantflow/internal/agents"
)

// WriteSummary renders the ticker summary table: price, action, quantity,
// confidence, and reasoning for each decision.
func WriteSummary(w io.Writer, data *OutputNodeData) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tPRICE\tACTION\tQUANTITY\tCONFIDENCE\tREASONING")
	for _, ticker := range data.Tickers() {
		d := data.Decisions[ticker]
		price := "N/A"
		if p, ok := data.CurrentPrice(ticker); ok {
			price = fmt.Sprintf("$%.2f", p)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%g\t%.1f%%\t%s\n",
			ticker, price, ActionLabel(d.Action), d.Action, d.Quantity, d.Confidence,
			firstLine(ReasoningText(d.Reasoning)))
	}
	return tw.Flush()
}

// WriteSignals renders the expandable per-ticker per-agent signal detail as
// a flat text breakdown. The risk-management entry is excluded.
func WriteSignals(w io.Writer, data *OutputNodeData) error {
	for _, ticker := range data.Tickers() {
		d := data.Decisions[ticker]
		fmt.Fprintf(w, "%s: %s (%s) %g\n", ticker, ActionLabel(d.Action), d.Action, d.Quantity)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, agentKey := range data.Agents() {
			sig, ok := data.AnalystSignals[agentKey][ticker]
			if !ok {
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s (%s)\t%.1f%%\t%s\n",
				agents.DisplayName(agentKey), SignalLabel(sig.Signal), sig.Signal,
				sig.Confidence, firstLine(ReasoningText(sig.Reasoning)))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// firstLine truncates multi-line reasoning for tabular display. The cut
// lands on a rune boundary so multi-byte text stays valid.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	const max = 120
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
