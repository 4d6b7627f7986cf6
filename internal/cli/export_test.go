package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkins" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExportWritesVisibleRecords(t *testing.T) {
	now := time.Now().Unix()
	srv := listServer(t, fmt.Sprintf(`{"checkins":[
		{"id":"a","name":"Ancient","email":"a@example.com","timestamp":%d},
		{"id":"b","name":"Recent","email":"b@example.com","timestamp":%d}]}`, now-3*86400, now-60))
	dir := t.TempDir()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"export", "--server", srv.URL, "--tz", "UTC", "--window", "last_24_hours", "--dir", dir})
	require.NoError(t, cmd.Execute())

	path := strings.TrimSpace(out.String())
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "checkin-records-"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,Email,Date,Time,Timestamp", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Recent,b@example.com,"))
}

func TestExportNothingVisibleWritesNoFile(t *testing.T) {
	srv := listServer(t, `{"checkins":[]}`)
	dir := t.TempDir()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"export", "--server", srv.URL, "--dir", dir})
	require.NoError(t, cmd.Execute())

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "nothing to export")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListPrintsTable(t *testing.T) {
	srv := listServer(t, `{"checkins":[{"id":"a","name":"Loya Niu","email":"zn23","timestamp":1700000000}]}`)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list", "--server", srv.URL, "--tz", "UTC"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "Loya Niu")
	assert.Contains(t, out.String(), "2023-11-14 22:13:20")
}
