package categorizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleTable_Match(t *testing.T) {
	table := DefaultRuleTable()

	tests := []struct {
		key      string
		familyID int64
		ok       bool
	}{
		{"LECHE ENTERA", 4, true},
		{"PLATANO", 1, true},
		{"PIZZA JAMON", 15, true}, // prepared meals beat the generic ham rule
		{"ARROZ AL HORNO", 15, true},
		{"ARROZ BOMBA", 7, true},
		{"PECHUGA POLLO", 2, true},
		{"GALERAS", 3, true},
		{"DETERGENTE MARSELLA", 12, true},
		{"COSA RARA INCLASIFICABLE", 0, false},
	}
	for _, tt := range tests {
		id, ok := table.Match(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		if tt.ok {
			assert.Equal(t, tt.familyID, id, tt.key)
		}
	}
}

func TestRuleTable_MatchFoldsAccents(t *testing.T) {
	table := &RuleTable{Version: 1, Rules: []Rule{
		{Keywords: []string{"PATÉ"}, FamilyID: 15},
	}}

	id, ok := table.Match("PATE IBERICO")
	require.True(t, ok, "accented keyword must match the folded key")
	assert.Equal(t, int64(15), id)
}

func TestRuleTable_FirstMatchWins(t *testing.T) {
	table := &RuleTable{Version: 1, Rules: []Rule{
		{Keywords: []string{"TOMATE"}, FamilyID: 1},
		{Keywords: []string{"TOMATE FRITO"}, FamilyID: 8},
	}}

	id, ok := table.Match("TOMATE FRITO")
	require.True(t, ok)
	assert.Equal(t, int64(1), id, "rule order decides, not specificity")
}

func TestLoadRuleTable_FallsBackToBuiltin(t *testing.T) {
	table, err := LoadRuleTable("", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, table.Rules)

	table, err = LoadRuleTable(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, table.Rules)
}

func TestLoadRuleTable_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `version: 1
rules:
  - keywords: ["LECHE"]
    family_id: 4
  - keywords: ["PAN"]
    family_id: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadRuleTable(path, nil)
	require.NoError(t, err)
	require.Len(t, table.Rules, 2)

	id, ok := table.Match("LECHE DESNATADA")
	require.True(t, ok)
	assert.Equal(t, int64(4), id)
}

func TestLoadRuleTable_Invalid(t *testing.T) {
	dir := t.TempDir()

	noVersion := filepath.Join(dir, "noversion.yaml")
	require.NoError(t, os.WriteFile(noVersion, []byte("rules:\n  - keywords: [\"X\"]\n    family_id: 1\n"), 0o644))
	_, err := LoadRuleTable(noVersion, nil)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("version: 1\nrules: []\n"), 0o644))
	_, err = LoadRuleTable(empty, nil)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("version: [not a number\n"), 0o644))
	_, err = LoadRuleTable(garbage, nil)
	assert.Error(t, err)
}
