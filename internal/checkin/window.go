package checkin

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownWindow is returned by ParseWindow for unrecognised names.
var ErrUnknownWindow = errors.New("unknown time window")

// Window is a fixed-duration lookback filter relative to now.
type Window int

const (
	WindowAll Window = iota
	WindowLast30Min
	WindowLast1Hour
	WindowLast24Hours
	WindowLast7Days
)

// Windows lists every selectable window in display order.
var Windows = []Window{WindowAll, WindowLast30Min, WindowLast1Hour, WindowLast24Hours, WindowLast7Days}

var windowNames = map[Window]string{
	WindowAll:         "ALL",
	WindowLast30Min:   "LAST_30_MIN",
	WindowLast1Hour:   "LAST_1_HOUR",
	WindowLast24Hours: "LAST_24_HOURS",
	WindowLast7Days:   "LAST_7_DAYS",
}

var windowLabels = map[Window]string{
	WindowAll:         "All Records",
	WindowLast30Min:   "Last 30 Minutes",
	WindowLast1Hour:   "Last 1 Hour",
	WindowLast24Hours: "Last 24 Hours",
	WindowLast7Days:   "Last 7 Days",
}

// Seconds is the lookback length. WindowAll has none and returns 0.
func (w Window) Seconds() int64 {
	switch w {
	case WindowLast30Min:
		return 30 * 60
	case WindowLast1Hour:
		return 60 * 60
	case WindowLast24Hours:
		return 24 * 60 * 60
	case WindowLast7Days:
		return 7 * 24 * 60 * 60
	default:
		return 0
	}
}

func (w Window) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("Window(%d)", int(w))
}

// Label is the human-readable name shown in window pickers.
func (w Window) Label() string {
	return windowLabels[w]
}

func (w Window) MarshalText() ([]byte, error) {
	if _, ok := windowNames[w]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWindow, int(w))
	}
	return []byte(w.String()), nil
}

func (w *Window) UnmarshalText(b []byte) error {
	parsed, err := ParseWindow(string(b))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseWindow accepts a window name in any case. The empty string means ALL.
func ParseWindow(s string) (Window, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return WindowAll, nil
	}
	for w, name := range windowNames {
		if name == s {
			return w, nil
		}
	}
	return WindowAll, fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// FilterByWindow keeps records with Timestamp >= now - w.Seconds(). For
// WindowAll the input slice is returned as is. The input is never modified.
func FilterByWindow(records []Record, w Window, now int64) []Record {
	if w == WindowAll {
		return records
	}
	threshold := now - w.Seconds()
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Timestamp >= threshold {
			out = append(out, r)
		}
	}
	return out
}
