package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"classcheckin/internal/checkin"
)

const (
	loadingMessage = "Loading check-ins..."
	emptyMessage   = "No check-ins found in selected time range"
)

// Render writes one frame of the feed.
func Render(w io.Writer, v checkin.View, now time.Time, loc *time.Location) {
	var b strings.Builder
	fmt.Fprintf(&b, "== Check-ins: %s ==\n", v.Window.Label())

	switch {
	case v.Phase == checkin.PhaseLoading:
		b.WriteString(loadingMessage + "\n")
	case v.Empty:
		b.WriteString(emptyMessage + "\n")
	default:
		for _, e := range v.Entries {
			marker := " "
			if e.Latest {
				marker = "*"
			}
			at := time.Unix(e.Timestamp, 0)
			fmt.Fprintf(&b, "%s %s <%s>  %s  (%s)\n",
				marker, e.Name, e.Email, at.In(loc).Format("1/2/2006 3:04:05 PM"), Ago(now, at))
		}
	}
	io.WriteString(w, b.String())
}

// Ago renders the distance between at and now in coarse human units.
func Ago(now, at time.Time) string {
	d := now.Sub(at)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	default:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
