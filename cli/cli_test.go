// ABOUTME: End-to-end tests for the workly command tree
// ABOUTME: Runs commands against a temp sqlite database and checks their output
package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type cliEnv struct {
	t      *testing.T
	config string
	dir    string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := "storage:\n  backend: sqlite\n  path: " + filepath.Join(dir, "workly.db") + "\nlog:\n  level: error\nlocation:\n  interval: 1ms\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0600))
	return &cliEnv{t: t, config: path, dir: dir}
}

func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	var out bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config, "--salesperson", "rep"}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

func TestQuoteCommand(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun("quote", "--sqft", "1000", "--crack-feet", "200", "--asphalt-sqft", "10")
	assert.Contains(t, out, "$884.00")
}

func TestFieldDayFlow(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("session", "start", "--kind", "canvassing")
	assert.Contains(t, out, "canvassing session started: C-")

	out = env.mustRun("hanger", "--lat", "41.8781", "--lng", "-87.6298")
	assert.Contains(t, out, "Visit at 41.8781, -87.6298")
	assert.Contains(t, out, "(1 this session)")

	out = env.mustRun("visit", "log",
		"--first-name", "Dana", "--email", "dana@example.com",
		"--street", "12 Oak St", "--status", "Opportunity", "--sqft", "2500")
	assert.Contains(t, out, "canvassing session converted: C-")
	assert.Contains(t, out, "Driveway Quote - 12 Oak St")
	assert.Contains(t, out, "2 visits")

	out = env.mustRun("session", "status")
	assert.Contains(t, out, "visit session C-")
	assert.Contains(t, out, "Left Door Hanger")

	out = env.mustRun("visit", "list")
	assert.Contains(t, out, "12 Oak St")
	assert.Contains(t, out, "Left Door Hanger")

	out = env.mustRun("crm", "contacts", "--query", "dana")
	assert.Contains(t, out, "Dana")

	out = env.mustRun("crm", "deals")
	assert.Contains(t, out, "1 deals")
	assert.Contains(t, out, "$635.00")

	xlsx := filepath.Join(env.dir, "out.xlsx")
	out = env.mustRun("export", "-o", xlsx)
	assert.Contains(t, out, "1 sessions and 2 visits")
	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	rows, err := f.GetRows("Visits")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	_ = f.Close()

	out = env.mustRun("session", "end")
	assert.Contains(t, out, "ended")

	out = env.mustRun("session", "status")
	assert.Contains(t, out, "no active session")

	out = env.mustRun("session", "list")
	assert.True(t, strings.Contains(out, "visit"), out)
}

func TestSessionStartRejectsUnknownKind(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run("session", "start", "--kind", "jog")
	assert.Error(t, err)
}

func TestHangerNeedsCanvassingSession(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run("hanger", "--lat", "1", "--lng", "1")
	assert.Error(t, err)
}

func TestSessionStartReplaysTrack(t *testing.T) {
	env := newCLIEnv(t)
	track := filepath.Join(env.dir, "track.json")
	require.NoError(t, os.WriteFile(track, []byte(`[
		{"lat": 41.8781, "lng": -87.6298},
		{"lat": 41.8791, "lng": -87.6298},
		{"lat": 41.8801, "lng": -87.6308}
	]`), 0600))

	out := env.mustRun("session", "start", "--track", track)
	assert.Contains(t, out, "visit session started")

	out = env.mustRun("session", "status")
	assert.Equal(t, "3", fieldValue(out, "GPS points"))
	assert.NotEqual(t, "0.00", fieldValue(out, "Miles walked"))
}

// fieldValue finds the value printed after label in a summary block.
func fieldValue(out, label string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, label+":") {
			return strings.TrimSpace(strings.TrimPrefix(line, label+":"))
		}
	}
	return ""
}

func TestSyncNeedsCharmBackend(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run("sync", "status")
	assert.Error(t, err)
}

func TestSyncWipeNeedsConfirm(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("session", "start")

	out := env.mustRun("sync", "wipe")
	assert.Contains(t, out, "--confirm")

	// Nothing was removed
	out = env.mustRun("session", "status")
	assert.Contains(t, out, "visit session")

	_, err := env.run("sync", "wipe", "--confirm")
	assert.Error(t, err, "wipe is only for the charm backend")
}
