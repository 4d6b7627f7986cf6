package checkin

import "sort"

// Entry is a record positioned in the display feed. Latest marks the first
// entry only and has no meaning outside presentation.
type Entry struct {
	Record
	Latest bool `json:"latest"`
}

// OrderForDisplay returns the records newest first. Equal timestamps keep
// their input order; there is no secondary key.
func OrderForDisplay(records []Record) []Entry {
	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{Record: r}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	if len(entries) > 0 {
		entries[0].Latest = true
	}
	return entries
}
