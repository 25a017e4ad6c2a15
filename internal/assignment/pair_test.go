package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectConflictsReportsExistingPairs(t *testing.T) {
	existing := NewPairSet([]PairKey{
		{ProductID: 1, ProductionStepID: 1},
	})

	report := DetectConflicts([]uint{1, 2}, []uint{1, 2}, existing)

	assert.Equal(t, 4, report.TotalCombinations)
	assert.Equal(t, []PairKey{{ProductID: 1, ProductionStepID: 1}}, report.Conflicts)
	assert.False(t, report.AllConflicted)
}

func TestDetectConflictsAllConflicted(t *testing.T) {
	existing := NewPairSet([]PairKey{
		{ProductID: 1, ProductionStepID: 1},
		{ProductID: 1, ProductionStepID: 2},
		{ProductID: 2, ProductionStepID: 1},
		{ProductID: 2, ProductionStepID: 2},
	})

	report := DetectConflicts([]uint{1, 2}, []uint{1, 2}, existing)

	assert.Equal(t, 4, report.TotalCombinations)
	assert.Len(t, report.Conflicts, 4)
	assert.True(t, report.AllConflicted)
}

func TestDetectConflictsEmptySelections(t *testing.T) {
	existing := NewPairSet([]PairKey{{ProductID: 1, ProductionStepID: 1}})

	for _, tc := range []struct {
		name     string
		products []uint
		steps    []uint
	}{
		{"no products", nil, []uint{1}},
		{"no steps", []uint{1}, nil},
		{"nothing selected", nil, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			report := DetectConflicts(tc.products, tc.steps, existing)
			assert.Equal(t, 0, report.TotalCombinations)
			assert.Empty(t, report.Conflicts)
			// An empty selection is never "fully conflicted".
			assert.False(t, report.AllConflicted)
		})
	}
}

func TestDetectConflictsProductMajorOrder(t *testing.T) {
	existing := NewPairSet([]PairKey{
		{ProductID: 2, ProductionStepID: 1},
		{ProductID: 1, ProductionStepID: 2},
	})

	report := DetectConflicts([]uint{1, 2}, []uint{1, 2}, existing)

	assert.Equal(t, []PairKey{
		{ProductID: 1, ProductionStepID: 2},
		{ProductID: 2, ProductionStepID: 1},
	}, report.Conflicts)
}

func TestPairSetContains(t *testing.T) {
	set := NewPairSet([]PairKey{{ProductID: 3, ProductionStepID: 7}})

	assert.True(t, set.Contains(PairKey{ProductID: 3, ProductionStepID: 7}))
	assert.False(t, set.Contains(PairKey{ProductID: 7, ProductionStepID: 3}))
}
