package loader

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Take returns s[idx[0]], s[idx[1]], ... as a new slice.
func Take[T any](s []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = s[j]
	}
	return out
}

// byClass groups row indices by label, classes in ascending order and
// indices in input order.
func byClass(y []int) ([]int, map[int][]int) {
	groups := make(map[int][]int)
	for i, lab := range y {
		groups[lab] = append(groups[lab], i)
	}
	classes := make([]int, 0, len(groups))
	for c := range groups {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes, groups
}

// StratifiedTrainTestSplit splits row indices into train and test sets so
// that each class keeps roughly the same proportion in both. The result is
// fully determined by seed.
func StratifiedTrainTestSplit(y []int, testRatio float64, seed int64) (train, test []int, err error) {
	if len(y) == 0 {
		return nil, nil, errors.New("split: empty y")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("split: test ratio %v outside (0,1)", testRatio)
	}
	rnd := rand.New(rand.NewSource(seed))
	classes, groups := byClass(y)
	for _, c := range classes {
		idx := append([]int(nil), groups[c]...)
		rnd.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		nTest := int(math.Round(float64(len(idx)) * testRatio))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	if len(test) == 0 {
		return nil, nil, fmt.Errorf("split: %d rows too few for test ratio %v", len(y), testRatio)
	}
	rnd.Shuffle(len(train), func(a, b int) { train[a], train[b] = train[b], train[a] })
	rnd.Shuffle(len(test), func(a, b int) { test[a], test[b] = test[b], test[a] })
	return train, test, nil
}

// StratifiedKFold deals the rows of each class round-robin into k
// validation folds, without shuffling. Fold indices are ascending.
func StratifiedKFold(y []int, k int) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("kfold: k=%d, need at least 2", k)
	}
	if len(y) < k {
		return nil, fmt.Errorf("kfold: %d rows cannot fill %d folds", len(y), k)
	}
	folds := make([][]int, k)
	classes, groups := byClass(y)
	next := 0
	for _, c := range classes {
		for _, i := range groups[c] {
			folds[next%k] = append(folds[next%k], i)
			next++
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds, nil
}

// FoldTrain returns every index not in folds[hold], ascending.
func FoldTrain(folds [][]int, hold int) []int {
	var out []int
	for i, f := range folds {
		if i != hold {
			out = append(out, f...)
		}
	}
	sort.Ints(out)
	return out
}
