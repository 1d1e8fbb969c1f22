package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
)

const testBase = `Name,Registration_URL,Description,Attendees_Shown
Alpha,https://lu.ma/alpha,old,10
Beta,https://lu.ma/beta,beta,20
Gamma,https://other.example/gamma,gamma,30
`

const testSheet = `"Registration","Description","Attendees Shown","Categories"
"https://lu.ma/alpha","new","12","DeFi"
"https://lu.ma/beta","","",""
`

type cli struct {
	dir    string
	base   string
	output string
	sheet  *httptest.Server
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EVENTMERGE_LOG_OUTPUT", "discard")

	c := &cli{
		dir:    dir,
		base:   filepath.Join(dir, "base.csv"),
		output: filepath.Join(dir, "final.csv"),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	require.NoError(t, os.WriteFile(c.base, []byte(testBase), 0o600))
	c.sheet = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testSheet))
	}))
	t.Cleanup(c.sheet.Close)
	return c
}

func (c *cli) run(t *testing.T, args ...string) error {
	t.Helper()
	a, err := New("1.2.3", "abc123", "2025-02-20", "test", WithOutput(c.stdout, c.stderr))
	require.NoError(t, err)
	return a.Execute(context.Background(), args)
}

func (c *cli) mergeArgs(extra ...string) []string {
	return append([]string{"--sheet-url", c.sheet.URL, "--base", c.base, "--output", c.output, "--no-color"}, extra...)
}

func TestExecuteMerge(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, c.run(t, c.mergeArgs()...))

	assert.Equal(t, strings.Join([]string{
		"📥 Downloading latest data from Google Sheet...",
		"🔗 Matched 1 rows out of 2 enriched events.",
		"✅ Merge complete! Saved: " + c.output,
		"📊 Final row count: 1",
		"",
	}, "\n"), c.stdout.String())

	data, err := os.ReadFile(c.output)
	require.NoError(t, err)
	assert.Equal(t, "name,registration_url,description,attendees_shown,categories\n"+
		"Alpha,https://lu.ma/alpha,new,12,DeFi\n", string(data))
}

func TestExecuteQuiet(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, c.run(t, c.mergeArgs("-q")...))
	assert.Empty(t, c.stdout.String())
	assert.FileExists(t, c.output)
}

func TestExecuteSummaryJSON(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, c.run(t, c.mergeArgs("-q", "--dry-run", "--summary", "json")...))

	var got map[string]any
	require.NoError(t, json.Unmarshal(c.stdout.Bytes(), &got))
	assert.Equal(t, false, got["written"])
	counts := got["counts"].(map[string]any)
	assert.EqualValues(t, 1, counts["matched"])
	assert.NoFileExists(t, c.output)
}

func TestExecuteSummaryAutoOnPipe(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, c.run(t, c.mergeArgs("-q", "--dry-run", "--summary", "auto")...))

	var got map[string]any
	require.NoError(t, json.Unmarshal(c.stdout.Bytes(), &got), c.stdout.String())
	assert.Equal(t, false, got["written"])
}

func TestExecuteInvalidSummary(t *testing.T) {
	c := newCLI(t)
	err := c.run(t, c.mergeArgs("--summary", "xml")...)
	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestExecuteInvalidCardinality(t *testing.T) {
	c := newCLI(t)
	err := c.run(t, c.mergeArgs("--cardinality", "sideways")...)
	var valErr *errors.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestExecuteMissingBase(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, os.Remove(c.base))

	err := c.run(t, c.mergeArgs()...)
	var ioErr *errors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.NotContains(t, c.stdout.String(), "Downloading")
	assert.NoFileExists(t, c.output)
}

func TestExecuteConfigFromEnvironment(t *testing.T) {
	c := newCLI(t)
	t.Setenv("EVENTMERGE_SHEET_URL", c.sheet.URL)
	t.Setenv("EVENTMERGE_BASE_FILE", c.base)
	t.Setenv("EVENTMERGE_OUTPUT_FILE", c.output)
	t.Setenv("EVENTMERGE_QUIET", "true")

	require.NoError(t, c.run(t))
	assert.FileExists(t, c.output)
}

func TestExecuteFlagBeatsEnvironment(t *testing.T) {
	c := newCLI(t)
	t.Setenv("EVENTMERGE_OUTPUT_FILE", filepath.Join(c.dir, "env.csv"))

	require.NoError(t, c.run(t, c.mergeArgs("-q")...))
	assert.FileExists(t, c.output)
	assert.NoFileExists(t, filepath.Join(c.dir, "env.csv"))
}

func TestVersionCommand(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, c.run(t, "version"))
	assert.Contains(t, c.stdout.String(), "eventmerge 1.2.3")
	assert.Contains(t, c.stdout.String(), "abc123")
}

func TestURLCommand(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, c.run(t, "url"))
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/"+constants.DefaultSheetID+
		"/gviz/tq?tqx=out:csv&sheet="+constants.DefaultSheetName+"\n", c.stdout.String())

	c.stdout.Reset()
	require.NoError(t, c.run(t, "url", "--sheet-url", c.sheet.URL))
	assert.Equal(t, c.sheet.URL+"\n", c.stdout.String())
}

func TestExecuteRejectsArgs(t *testing.T) {
	c := newCLI(t)
	require.Error(t, c.run(t, "extra"))
}

// chdir switches the working directory for the rest of the test and
// restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
