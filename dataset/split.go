package dataset

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// Split is a disjoint train/validation partition of sample indices.
type Split struct {
	Train []int
	Val   []int
}

// StratifiedSplit partitions [0, len(labels)) into train and validation
// subsets. Each class contributes valFraction of its samples (rounded, but
// at least one and at most all-but-one) to the validation set, so both
// subsets preserve the global class distribution. The shuffle is driven by
// seed alone; the same inputs always produce the same split.
//
// A class with fewer than two samples cannot appear in both subsets and is
// an error, not a silent degradation.
func StratifiedSplit(labels []int, valFraction float64, seed int64) (Split, error) {
	if len(labels) == 0 {
		return Split{}, errors.New("dataset: cannot split an empty label list")
	}
	if valFraction <= 0 || valFraction >= 1 {
		return Split{}, errors.Errorf("dataset: validation fraction %v outside (0, 1)", valFraction)
	}

	byClass := map[int][]int{}
	var classes []int
	for i, label := range labels {
		if _, seen := byClass[label]; !seen {
			classes = append(classes, label)
		}
		byClass[label] = append(byClass[label], i)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	split := Split{}
	for _, class := range classes {
		indices := byClass[class]
		if len(indices) < 2 {
			return Split{}, errors.Errorf(
				"dataset: class %d has %d sample(s); stratified split needs at least 2 per class",
				class, len(indices))
		}
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nVal := int(math.Round(valFraction * float64(len(indices))))
		if nVal < 1 {
			nVal = 1
		}
		if nVal > len(indices)-1 {
			nVal = len(indices) - 1
		}
		split.Val = append(split.Val, indices[:nVal]...)
		split.Train = append(split.Train, indices[nVal:]...)
	}

	sort.Ints(split.Train)
	sort.Ints(split.Val)
	return split, nil
}
