package runbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runbooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, `
runbooks:
  - slug: feature-nulls
    url: https://runbooks.example.com/feature-nulls
  - slug: label-drift
    url: https://runbooks.example.com/label-drift
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "https://runbooks.example.com/feature-nulls", c.URL("feature-nulls"))
	assert.Empty(t, c.URL("unknown"))
}

func TestLoad_EmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad yaml", "runbooks: [", "parse runbook catalog"},
		{"missing url", "runbooks:\n  - slug: x\n", "need both slug and url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCatalog(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCatalog_Annotate(t *testing.T) {
	links := map[string]string{"feature-nulls": "https://rb/nulls"}
	c := New(links)
	links["feature-nulls"] = "mutated"

	in := []model.Scenario{{Slug: "feature-nulls"}, {Slug: "label-drift"}}
	out := c.Annotate(in)

	assert.Equal(t, "https://rb/nulls", out[0].RunbookURL)
	assert.Empty(t, out[1].RunbookURL)
	assert.Empty(t, in[0].RunbookURL)

	var nilCatalog *Catalog
	assert.Empty(t, nilCatalog.URL("feature-nulls"))
}
