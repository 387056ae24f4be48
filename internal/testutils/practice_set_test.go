package testutils

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePracticeSet(t *testing.T) {
	bank, err := LoadSampleBank(context.Background())
	require.NoError(t, err)

	set, err := GeneratePracticeSet(context.Background(), bank, 42, 3)
	require.NoError(t, err)

	assert.Equal(t, "sample", set.Metadata.Name)
	assert.EqualValues(t, 42, set.Metadata.Seed)
	assert.Len(t, set.Items, 9, "three families, three items each, one gradeable view per family")

	for _, item := range set.Items {
		assert.NotEmpty(t, item.InstanceID)
		assert.NotEmpty(t, item.Prompt)
		assert.NotContains(t, item.Prompt, "{{", "all placeholders substituted")
		assert.NotEmpty(t, item.Environment)
	}

	stats := ComputePracticeSetStatistics(set)
	assert.Equal(t, 9, stats.TotalItems)
	assert.Equal(t, 3, stats.FamilyCount["QF.int_roots"])
	assert.Equal(t, 3, stats.FamilyCount["AR.sum"])
	assert.Equal(t, 3, stats.FamilyCount["AR.division"])
}

func TestGeneratePracticeSet_Deterministic(t *testing.T) {
	bank, err := LoadSampleBank(context.Background())
	require.NoError(t, err)

	first, err := GeneratePracticeSet(context.Background(), bank, 7, 2)
	require.NoError(t, err)
	second, err := GeneratePracticeSet(context.Background(), bank, 7, 2)
	require.NoError(t, err)

	require.Len(t, second.Items, len(first.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].Prompt, second.Items[i].Prompt)
		assert.Equal(t, first.Items[i].Environment, second.Items[i].Environment)
	}
}

func TestGeneratePracticeSet_RejectsBadCount(t *testing.T) {
	bank, err := LoadSampleBank(context.Background())
	require.NoError(t, err)

	_, err = GeneratePracticeSet(context.Background(), bank, 1, 0)
	assert.Error(t, err)
}

func TestSavePracticeSet(t *testing.T) {
	bank, err := LoadSampleBank(context.Background())
	require.NoError(t, err)

	set, err := GeneratePracticeSet(context.Background(), bank, 1, 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "practice_set.json")
	require.NoError(t, SavePracticeSet(set, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded PracticeSet
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, set.Metadata.Name, loaded.Metadata.Name)
	assert.Len(t, loaded.Items, len(set.Items))
}
