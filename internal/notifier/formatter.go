package notifier

import (
	"fmt"
	"html"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"IntradayScreener/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatLines writes the headless console report: one line per symbol.
func FormatLines(w io.Writer, res *model.ScanResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Scan started: %s\n", res.StartedAt.Format(timeLayout))
	for _, row := range res.Rows {
		b.WriteString(consoleLine(row))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func consoleLine(row model.Row) string {
	if row.Err != nil || row.Error != "" {
		return fmt.Sprintf("⚠️ %s: %s", row.Symbol, strings.TrimPrefix(row.Label, "⚠️ "))
	}
	fired := row.Fired()
	if len(fired) == 0 {
		return fmt.Sprintf("❌ %s: %s", row.Symbol, row.Label)
	}
	parts := make([]string, len(fired))
	for i, s := range fired {
		parts[i] = fmt.Sprintf("[%s] %s", s.Name, s.Note)
	}
	return fmt.Sprintf("🔔 %s: %s", row.Symbol, strings.Join(parts, " | "))
}

// FormatTable writes the two-column Stock/Signals table of the dashboard.
func FormatTable(w io.Writer, res *model.ScanResult) error {
	if len(res.Rows) == 0 {
		_, err := io.WriteString(w, "⚠️ No signals found.\n")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Stock\tSignals")
	fmt.Fprintln(tw, "-----\t-------")
	for _, row := range res.Rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.Symbol, row.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "✅ Scan Complete\n")
	return err
}

// FormatAlert builds the Telegram HTML message for rows with fired signals.
// It returns "" when no row fired.
func FormatAlert(interval model.Interval, at time.Time, rows []model.Row) string {
	var b strings.Builder
	n := 0
	for _, row := range rows {
		fired := row.Fired()
		if len(fired) == 0 {
			continue
		}
		n++
		fmt.Fprintf(&b, "\n<b>%s</b>", html.EscapeString(row.Symbol))
		if row.Snapshot != nil {
			fmt.Fprintf(&b, " @ %.2f", row.Snapshot.Close)
		}
		b.WriteByte('\n')
		for _, s := range fired {
			fmt.Fprintf(&b, "  %s %s", kindIcon(s.Kind), html.EscapeString(s.Name))
			if s.Note != "" {
				fmt.Fprintf(&b, " <i>(%s)</i>", html.EscapeString(s.Note))
			}
			b.WriteByte('\n')
		}
	}
	if n == 0 {
		return ""
	}
	header := fmt.Sprintf("🔔 <b>Intraday signals</b> | %s | %s\n", interval, at.Format("2006-01-02 15:04"))
	return header + b.String()
}

// FormatScanReply renders a full scan, errors included, as a Telegram reply.
func FormatScanReply(res *model.ScanResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Scan</b> | %s | %dd | %s\n\n", res.Interval, res.Lookback, res.StartedAt.Format("2006-01-02 15:04"))
	if len(res.Rows) == 0 {
		b.WriteString("⚠️ No signals found.")
		return b.String()
	}
	for _, row := range res.Rows {
		icon := "❌"
		switch {
		case row.Err != nil || row.Error != "":
			icon = "⚠️"
		case len(row.Fired()) > 0:
			icon = "🔔"
		}
		fmt.Fprintf(&b, "%s <b>%s</b>: %s\n", icon, html.EscapeString(row.Symbol), html.EscapeString(strings.TrimPrefix(row.Label, "⚠️ ")))
	}
	b.WriteString("\n✅ Scan Complete")
	return b.String()
}

// HelpText lists the bot commands.
func HelpText() string {
	return "🤖 <b>Intraday screener</b>\n\n" +
		"/scan - scan the configured symbols\n" +
		"/scan RELIANCE.NS,INFY.NS - scan the given symbols\n" +
		"/help - show this message"
}

func kindIcon(k model.Kind) string {
	switch k {
	case model.KindBuy:
		return "🟢"
	case model.KindSell:
		return "🔴"
	default:
		return "⚪"
	}
}
