package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCmd_ReportsDocumentCount(t *testing.T) {
	idxPath := filepath.Join(t.TempDir(), "idx")
	cfgPath := writeConfig(t, idxPath)
	seedIndex(t, cfgPath,
		`[{"id": 1, "title": "a", "content": "x"},
		  {"id": 2, "title": "b", "content": "y"}]`, 2)

	out, err := runCmd(t, "-c", cfgPath, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "documents: 2")
	assert.Contains(t, out, idxPath)
}

func TestStatsCmd_InMemoryIndex(t *testing.T) {
	cfgPath := writeConfig(t, "")

	out, err := runCmd(t, "-c", cfgPath, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "(in-memory)")
	assert.Contains(t, out, "documents: 0")
}
