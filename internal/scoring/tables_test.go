package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTablesValid(t *testing.T) {
	require.NoError(t, DefaultTables().Validate())
}

func TestLoadTablesDefaults(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		tables, err := LoadTables("")
		require.NoError(t, err)
		assert.Equal(t, 0.75, tables.Thresholds.HotLead)
	})

	t.Run("missing file", func(t *testing.T) {
		tables, err := LoadTables("/nonexistent/tables.yaml")
		require.NoError(t, err)
		assert.Equal(t, 0.75, tables.Thresholds.HotLead)
		assert.Equal(t, 0.3, tables.DefaultWoE)
	})
}

func TestLoadTablesOverrides(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tables_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "tables.yaml")
	override := `
default_woe: 0.4
thresholds:
  hot_lead: 0.8
woe:
  dependency_injection: 2.1
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	tables, err := LoadTables(path)
	require.NoError(t, err)

	// Overridden keys take effect, untouched keys keep their defaults.
	assert.Equal(t, 0.4, tables.DefaultWoE)
	assert.Equal(t, 0.8, tables.Thresholds.HotLead)
	assert.Equal(t, 0.50, tables.Thresholds.WarmLead)
	assert.Equal(t, 2.1, tables.WoE["dependency_injection"])
	assert.Equal(t, 2.5, tables.WoE["smoking_gun_fork"])
}

func TestLoadTablesRejectsInvalid(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tables_invalid_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	tests := []struct {
		name    string
		content string
	}{
		{"prior out of range", "segment_priors:\n  preparing: 1.5\n"},
		{"zero half-life", "half_life_days:\n  branch_commit: 0\n"},
		{"negative strength", "raw_strength:\n  ghost_branch: -1.0\n"},
		{"bad flag pattern", "detectors:\n  feature_flag_locale:\n    - \"(\"\n"},
		{"malformed yaml", "woe: [not, a, map\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadTables(path)
			assert.Error(t, err)
		})
	}
}

func TestTableLookupFallbacks(t *testing.T) {
	tables := DefaultTables()

	assert.Equal(t, 0.3, tables.woeFor("never_seen_before"))
	assert.Equal(t, 1.0, tables.strengthFor("never_seen_before"))
	assert.Equal(t, 0.10, tables.priorFor(MaturitySegment("unknown_segment")))
	assert.Equal(t, 60.0, tables.halfLifeFor(SignalCategory("UNKNOWN_CATEGORY")))

	// Resolved subtypes fall back to the doc-mention decay curve unless
	// listed explicitly.
	assert.Equal(t, CategoryDocMention, tables.categoryFor("dependency_injection_preparing"))
	assert.Equal(t, CategoryLibraryInstall, tables.categoryFor("dependency_injection"))
}
