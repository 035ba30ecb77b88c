package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/kilianp07/fillcast/core/forecast"
)

// urgentHours is the time to full below which the text output flags the bin.
const urgentHours = 2.0

// formatTimeToFull renders the time until full the way the dashboard card
// does: minutes under one hour, hours otherwise.
func formatTimeToFull(t forecast.TimeToFull) string {
	h, ok := t.Hours()
	if !ok {
		return "Stable level"
	}
	if h < 1 {
		return fmt.Sprintf("%d min", int(math.Round(h*60)))
	}
	return fmt.Sprintf("%.1f hrs", h)
}

func formatPeakHours(hours []int) string {
	if len(hours) == 0 {
		return "N/A"
	}
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%02d:00", h)
	}
	return strings.Join(parts, ", ")
}

func renderText(w io.Writer, r forecast.Report) error {
	var b strings.Builder
	bin := r.BinID
	if bin == "" {
		bin = "default"
	}
	fmt.Fprintf(&b, "Bin %s: %d samples", bin, r.Samples)
	if r.Samples > 0 {
		fmt.Fprintf(&b, ", latest %.1f%% at %s", r.CurrentFill, r.AsOf.Format(time.RFC3339))
	}
	b.WriteString("\n")

	if r.Insufficient {
		fmt.Fprintf(&b, "Collecting data for prediction... Need at least %d data points.\n", forecast.MinSamples)
	} else {
		res := r.Forecast
		fmt.Fprintf(&b, "Time until full: %s", formatTimeToFull(res.HoursUntilFull))
		if h, ok := res.HoursUntilFull.Hours(); ok && h < urgentHours {
			b.WriteString(" (urgent)")
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "Trend:           %s\n", strings.ToUpper(string(res.Trend)))
		fmt.Fprintf(&b, "Confidence:      %d%%\n", res.Confidence)
		fmt.Fprintf(&b, "In 1 hour:       %.1f%%\n", res.Projected.At1h)
		fmt.Fprintf(&b, "In 2 hours:      %.1f%%\n", res.Projected.At2h)
		fmt.Fprintf(&b, "In 6 hours:      %.1f%%\n", res.Projected.At6h)
	}
	fmt.Fprintf(&b, "Peak hours:      %s\n", formatPeakHours(r.Pattern.PeakHours))
	fmt.Fprintf(&b, "Avg fill:        %.1f%%\n", r.Pattern.AverageFillPercent)

	_, err := io.WriteString(w, b.String())
	return err
}
