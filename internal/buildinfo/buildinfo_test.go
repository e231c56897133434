package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	var buf bytes.Buffer
	PrintBuildData(&buf)
	assert.Equal(t, "Build version: N/A\nBuild date: N/A\nBuild commit: N/A\n", buf.String())

	buildVersion, buildDate, buildCommit = "v1.2.0", "2024-05-01", "abc123"
	t.Cleanup(func() { buildVersion, buildDate, buildCommit = "", "", "" })

	buf.Reset()
	PrintBuildData(&buf)
	assert.Contains(t, buf.String(), "Build version: v1.2.0\n")
	assert.Contains(t, buf.String(), "Build commit: abc123\n")
}
