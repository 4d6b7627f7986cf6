package checkin

import (
	"fmt"
	"time"
)

// Phase is the feed lifecycle stage.
type Phase int

const (
	// PhaseLoading means no snapshot has arrived yet.
	PhaseLoading Phase = iota
	// PhaseReady means a snapshot is present, possibly empty.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "LOADING"
	case PhaseReady:
		return "READY"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is the complete feed state. It is a value: transitions return a new
// State and never touch the receiver or the snapshot it holds.
type State struct {
	Phase    Phase
	Window   Window
	snapshot []Record
}

// WithSnapshot replaces the snapshot wholesale and marks the feed ready.
func (s State) WithSnapshot(records []Record) State {
	s.snapshot = append(make([]Record, 0, len(records)), records...)
	s.Phase = PhaseReady
	return s
}

// WithWindow changes the selected window.
func (s State) WithWindow(w Window) State {
	s.Window = w
	return s
}

// Snapshot returns a copy of the current snapshot.
func (s State) Snapshot() []Record {
	return append([]Record(nil), s.snapshot...)
}

// Visible is the snapshot filtered by the selected window, in snapshot order.
func (s State) Visible(now int64) []Record {
	if s.Phase != PhaseReady {
		return nil
	}
	return FilterByWindow(s.Snapshot(), s.Window, now)
}

// View is what a presentation layer renders.
type View struct {
	Phase   Phase   `json:"phase"`
	Window  Window  `json:"window"`
	Entries []Entry `json:"entries"`
	// Empty is set only when ready with nothing visible, so a renderer can
	// tell "no records" apart from loading.
	Empty bool `json:"empty"`
}

// View filters and orders the snapshot for display.
func (s State) View(now int64) View {
	v := View{Phase: s.Phase, Window: s.Window, Entries: []Entry{}}
	if s.Phase != PhaseReady {
		return v
	}
	v.Entries = OrderForDisplay(s.Visible(now))
	v.Empty = len(v.Entries) == 0
	return v
}

// CanExport reports whether an export would produce a file.
func (s State) CanExport(now int64) bool {
	return len(s.Visible(now)) > 0
}

// Export renders the visible records. It is a no-op while loading or when
// the window hides every record.
func (s State) Export(now int64, at time.Time, loc *time.Location) (Table, bool) {
	return ExportToTable(s.Visible(now), at, loc)
}
