// File: cmd/analyze_test.go
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/config"
)

func TestReadSourceFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widget.js")
	require.NoError(t, os.WriteFile(path, []byte("var x = 1;"), 0o644))

	name, data, err := readSource(path)
	require.NoError(t, err)
	assert.Equal(t, "widget.js", name)
	assert.Equal(t, "var x = 1;", string(data))
}

func TestReadSourceMissingFile(t *testing.T) {
	_, _, err := readSource(filepath.Join(t.TempDir(), "absent.js"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading script")
}

func TestWriteReportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	result := &schemas.ScriptAnalysis{ID: "abc", Name: "widget.js"}

	err := writeReport(result, config.OutputConfig{Path: path, Format: "json", Pretty: true}, zaptest.NewLogger(t))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "abc"`)

	var decoded schemas.ScriptAnalysis
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "widget.js", decoded.Name)
}

func TestWriteReportRejectsUnknownFormat(t *testing.T) {
	err := writeReport(&schemas.ScriptAnalysis{}, config.OutputConfig{Format: "xml"}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
