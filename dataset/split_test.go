package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sevenClassLabels(perClass int) []int {
	var labels []int
	for class := 0; class < len(ClassNames); class++ {
		for i := 0; i < perClass; i++ {
			labels = append(labels, class)
		}
	}
	return labels
}

func TestStratifiedSplitPartitionsAllIndices(t *testing.T) {
	labels := sevenClassLabels(10)
	split, err := StratifiedSplit(labels, 0.2, 42)
	require.NoError(t, err)

	seen := make(map[int]int)
	for _, i := range split.Train {
		seen[i]++
	}
	for _, i := range split.Val {
		seen[i]++
	}
	require.Len(t, seen, len(labels), "union must cover every index")
	for i, n := range seen {
		assert.Equal(t, 1, n, "index %d must appear in exactly one subset", i)
	}
}

func TestStratifiedSplitPreservesClassProportions(t *testing.T) {
	labels := sevenClassLabels(10)
	split, err := StratifiedSplit(labels, 0.2, 42)
	require.NoError(t, err)

	valPerClass := make(map[int]int)
	for _, i := range split.Val {
		valPerClass[labels[i]]++
	}
	require.Len(t, split.Val, 2*len(ClassNames))
	for class := 0; class < len(ClassNames); class++ {
		assert.Equal(t, 2, valPerClass[class], "class %d should contribute 20%% of its 10 samples", class)
	}
}

func TestStratifiedSplitIsDeterministic(t *testing.T) {
	labels := sevenClassLabels(5)
	first, err := StratifiedSplit(labels, 0.2, 42)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := StratifiedSplit(labels, 0.2, 42)
		require.NoError(t, err)
		assert.Equal(t, first, again, "same labels and seed must reproduce the same split")
	}

	other, err := StratifiedSplit(labels, 0.2, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.Val, other.Val, "a different seed should draw a different validation set")
}

func TestStratifiedSplitMinimumDataset(t *testing.T) {
	// Two samples per class, the smallest stratifiable dataset.
	labels := sevenClassLabels(2)
	split, err := StratifiedSplit(labels, 0.2, 42)
	require.NoError(t, err)

	trainPerClass := make(map[int]int)
	valPerClass := make(map[int]int)
	for _, i := range split.Train {
		trainPerClass[labels[i]]++
	}
	for _, i := range split.Val {
		valPerClass[labels[i]]++
	}
	for class := 0; class < len(ClassNames); class++ {
		assert.Equal(t, 1, trainPerClass[class], "class %d must keep a train representative", class)
		assert.Equal(t, 1, valPerClass[class], "class %d must keep a val representative", class)
	}
}

func TestStratifiedSplitRejectsSingletonClass(t *testing.T) {
	labels := []int{0, 0, 1}
	_, err := StratifiedSplit(labels, 0.2, 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 per class")
}

func TestStratifiedSplitRejectsBadInputs(t *testing.T) {
	_, err := StratifiedSplit(nil, 0.2, 42)
	require.Error(t, err)

	labels := sevenClassLabels(2)
	for _, frac := range []float64{0, 1, -0.5, 1.5} {
		_, err := StratifiedSplit(labels, frac, 42)
		require.Error(t, err, "fraction %v must be rejected", frac)
	}
}
