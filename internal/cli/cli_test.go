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

	"github.com/ralt/upgrade-advisor/internal/advisor"
	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompareCmd(t *testing.T) {
	out, err := execute(t, "", "compare", "1.10", "1.9")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = execute(t, "", "compare", "2.0", "2.0")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	_, err = execute(t, "", "compare", "1.0")
	assert.Error(t, err)
}

func TestTagsCmd(t *testing.T) {
	out, err := execute(t, "release_1_2\nrelease_1_10\nrelease_1_9\n",
		"tags", "--tag-prefix", "release_", "--separator", "_", "--current", "1.9", "--policy", "latest")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "1.2\n1.9\n1.10\n"), out)
	assert.Contains(t, out, "Recommended is     1.10 (latest)")
}

func TestTagsCmd_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.txt")
	require.NoError(t, os.WriteFile(path, []byte("v2\nv10\n"), 0644))

	out, err := execute(t, "", "tags", "--tag-pattern", `^v(\d+)$`, path)
	require.NoError(t, err)
	assert.Equal(t, "2\n10\n", out)
}

func TestTagsCmd_InvalidPolicy(t *testing.T) {
	_, err := execute(t, "", "tags", "--policy", "newest")
	assert.Error(t, err)
}

func TestSpecCmd(t *testing.T) {
	dir := t.TempDir()
	spec := "Name: foo\nVersion: 1.2\nRelease: 3\nRequires: bar >= 1.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.spec"), []byte(spec), 0644))

	out, err := execute(t, "", "spec", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "foo.spec:")
	assert.Contains(t, out, "version:        1.2")
	assert.Contains(t, out, "requires:       bar")
}

func TestCheckCmd_MissingRepo(t *testing.T) {
	_, err := execute(t, "", "check")
	assert.ErrorIs(t, err, models.ErrMissingProject)
}

func TestCheckCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "tip\t9:ff\n1.4\t8:aa\n1.3\t7:bb\n")
	}))
	defer server.Close()

	dataDir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dataDir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	t.Setenv("UPGRADE_ADVISOR_DATA_DIR", dataDir)
	t.Setenv("UPGRADE_ADVISOR_HTTP_MAX_RETRIES", "0")

	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "known-issues"), 0755))
	record := fmt.Sprintf("version_control: hg\nsrc_repo: %s\n", server.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "known-issues", "foo.yaml"), []byte(record), 0644))

	specPath := filepath.Join(dataDir, "foo.spec")
	require.NoError(t, os.WriteFile(specPath, []byte("Name: foo\nVersion: 1.3\n"), 0644))

	out, err := execute(t, "", "check", "-r", "foo", "--spec", specPath)
	require.NoError(t, err)
	assert.Contains(t, out, "foo:")
	assert.Contains(t, out, "1.4")
	assert.Contains(t, out, "Current version is 1.3")

	// A healthy check moves the record out of known-issues
	assert.FileExists(t, filepath.Join(dataDir, "upstream-info", "foo.yaml"))
	assert.NoFileExists(t, filepath.Join(dataDir, "known-issues", "foo.yaml"))
}

func TestPrintSummary(t *testing.T) {
	results := []advisor.Result{
		{Project: "a", Report: &models.Report{Project: "a", Outdated: true}},
		{Project: "b", Report: &models.Report{Project: "b", Flagged: true}},
		{Project: "c", Report: &models.Report{Project: "c"}},
		{Project: "d", Err: models.ErrNoSpec},
	}

	var out bytes.Buffer
	printSummary(&out, results)
	assert.Contains(t, out.String(), "Checked 4 projects: 1 outdated, 1 flagged, 1 failed")
}
