package checkin

import (
	"strconv"
	"strings"
	"time"
)

const (
	exportDateLayout = "1/2/2006"
	exportTimeLayout = "3:04:05 PM"
)

// ExportHeader is the fixed first row of every export.
var ExportHeader = []string{"Name", "Email", "Date", "Time", "Timestamp"}

// Table is a rendered CSV export ready to be written or downloaded.
type Table struct {
	Filename string
	Content  string
	Rows     int
}

// ExportFilename names the export file after the UTC calendar date of at.
func ExportFilename(at time.Time) string {
	return "checkin-records-" + at.UTC().Format("2006-01-02") + ".csv"
}

// ExportToTable renders records, in the given order, as comma-separated text.
// Date and time columns are shown in loc. Values are written verbatim: a
// comma inside a name or email shifts that row's columns.
//
// It reports false and produces nothing when records is empty.
func ExportToTable(records []Record, at time.Time, loc *time.Location) (Table, bool) {
	if len(records) == 0 {
		return Table{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(ExportHeader, ","))
	for _, r := range records {
		t := time.Unix(r.Timestamp, 0).In(loc)
		lines = append(lines, strings.Join([]string{
			r.Name,
			r.Email,
			t.Format(exportDateLayout),
			t.Format(exportTimeLayout),
			strconv.FormatInt(r.Timestamp, 10),
		}, ","))
	}
	return Table{
		Filename: ExportFilename(at),
		Content:  strings.Join(lines, "\n"),
		Rows:     len(records),
	}, true
}
