// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"math"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/bpmf/base"
)

// Rating is one observed cell of the rating matrix.
type Rating struct {
	User  int
	Item  int
	Value float64
}

// Cell addresses one cell of the rating matrix.
type Cell struct {
	Row int
	Col int
}

// GenerateRatings builds a synthetic low-rank rating matrix with Gaussian
// noise and reveals a random subset of its cells. Returns the full matrix and
// the revealed ratings.
func GenerateRatings(numUsers, numItems, latentD, numRatings int, noise float64, rng base.RandomGenerator) ([][]float64, []Rating) {
	users := rng.NormalMatrix(numUsers, latentD, 0, 2)
	items := rng.NormalMatrix(numItems, latentD, 0, 2)
	real := base.NewMatrix(numUsers, numItems)
	for i := 0; i < numUsers; i++ {
		for j := 0; j < numItems; j++ {
			var dot float64
			for d := 0; d < latentD; d++ {
				dot += users[i][d] * items[j][d]
			}
			real[i][j] = dot
		}
	}
	if numRatings > numUsers*numItems {
		numRatings = numUsers * numItems
	}
	cells := rng.Sample(0, numUsers*numItems, numRatings)
	ratings := make([]Rating, 0, numRatings)
	for _, c := range cells {
		i, j := c/numItems, c%numItems
		ratings = append(ratings, Rating{
			User:  i,
			Item:  j,
			Value: real[i][j] + rng.NormFloat64()*noise,
		})
	}
	return real, ratings
}

// Split splits ratings into a training set and a held-out test set. The test
// set holds testCount ratings sampled without replacement.
func Split(ratings []Rating, testCount int, rng base.RandomGenerator) (train, test []Rating) {
	if testCount > len(ratings) {
		testCount = len(ratings)
	}
	testIndices := mapset.NewSet(rng.Sample(0, len(ratings), testCount)...)
	train = make([]Rating, 0, len(ratings)-testCount)
	test = make([]Rating, 0, testCount)
	for i, r := range ratings {
		if testIndices.Contains(i) {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}
	return
}

// NewNaNMatrix creates a matrix filled with NaN.
func NewNaNMatrix(row, col int) [][]float64 {
	ret := base.NewMatrix(row, col)
	for i := range ret {
		for j := range ret[i] {
			ret[i][j] = math.NaN()
		}
	}
	return ret
}
