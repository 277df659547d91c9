package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/salesreport/pkg/core"
)

const referenceCSV = "Customer;Age;Item;Quantity\n" +
	"1;21;x;10\n" +
	"2;23;x;1\n" +
	"2;23;y;1\n" +
	"2;23;z;1\n" +
	"3;35;z;2\n"

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	root := newRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append(args, "--log-file", ""))
	err := root.Execute()
	return buf.String(), err
}

// seeded creates the reference database in a temp dir and returns its path.
func seeded(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "sales_data.db")
	out, err := executeCommand("seed", "--db", db)
	require.NoError(t, err, out)
	require.FileExists(t, db)
	return db
}

func TestCLI_Help(t *testing.T) {
	out, err := executeCommand("--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "seed")
}

func TestCLI_Version(t *testing.T) {
	root := newRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "salesreport "))
}

func TestCLI_DefaultCommandRunsBothRealizations(t *testing.T) {
	db := seeded(t)
	outDir := t.TempDir()

	out, err := executeCommand("--db", db, "--out-dir", outDir, "--no-spinner")
	require.NoError(t, err, out)
	assert.Contains(t, out, "IDENTICAL")

	for _, name := range []string{"sales_report_sql.csv", "sales_report_transform.csv"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.Equal(t, referenceCSV, string(data))
	}
}

func TestCLI_RunParallelWithSummary(t *testing.T) {
	db := seeded(t)
	outDir := t.TempDir()
	summaryPath := filepath.Join(outDir, "summary.json")
	htmlPath := filepath.Join(outDir, "summary.html")

	out, err := executeCommand("run", "--db", db, "--out-dir", outDir, "--parallel",
		"--no-spinner", "--summary", summaryPath, "--html", htmlPath, "--age-min", "30", "--age-max", "40")
	require.NoError(t, err, out)

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	var summary struct {
		AgeRange string `json:"age_range"`
		Engines  []struct {
			Engine string `json:"engine"`
			Rows   int    `json:"rows"`
		} `json:"engines"`
	}
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "30-40", summary.AgeRange)
	require.Len(t, summary.Engines, 2)
	for _, e := range summary.Engines {
		assert.Equal(t, 1, e.Rows, e.Engine)
	}
	assert.FileExists(t, htmlPath)
}

func TestCLI_RunToStdout(t *testing.T) {
	db := seeded(t)
	out, err := executeCommand("run", "--db", db, "--out-dir", "-", "--engine", "transform")
	require.NoError(t, err)
	// With reports on stdout nothing else is printed there.
	assert.Contains(t, out, referenceCSV)
}

func TestCLI_MissingDatabase(t *testing.T) {
	_, err := executeCommand("run", "--db", filepath.Join(t.TempDir(), "absent.db"), "--out-dir", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataAccess)
}

func TestCLI_InvalidAgeRange(t *testing.T) {
	db := seeded(t)
	_, err := executeCommand("--db", db, "--age-min", "40", "--age-max", "30")
	assert.Error(t, err)
}

func TestCLI_ConfigFile(t *testing.T) {
	db := seeded(t)
	outDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "salesreport.yaml")
	cfg := "store:\n  path: " + db + "\noutput:\n  dir: " + outDir + "\n  format: json\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := executeCommand("run", "--config", cfgPath, "--no-spinner", "--preview", "0")
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(outDir, "sales_report_sql.json"))
	assert.FileExists(t, filepath.Join(outDir, "sales_report_transform.json"))
}

func TestCLI_Commands(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "seed", "serve", "diff", "version"} {
		assert.True(t, names[want], want)
	}
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("port"))
}

func TestCLI_DiffIdenticalReports(t *testing.T) {
	db := seeded(t)
	outDir := t.TempDir()
	_, err := executeCommand("--db", db, "--out-dir", outDir, "--no-spinner")
	require.NoError(t, err)

	out, err := executeCommand("diff",
		filepath.Join(outDir, "sales_report_sql.csv"),
		filepath.Join(outDir, "sales_report_transform.csv"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "IDENTICAL")
}

func TestCLI_DiffDetectsDifference(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte(referenceCSV), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(strings.Replace(referenceCSV, "3;35;z;2", "3;35;z;3", 1)), 0o644))

	out, err := executeCommand("diff", "--json", a, b)
	require.ErrorIs(t, err, errReportsDiffer)

	var res struct {
		Identical bool   `json:"identical"`
		Mismatch  string `json:"mismatch"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Identical)
	assert.Contains(t, res.Mismatch, "row 4")
}
