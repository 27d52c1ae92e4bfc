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
	"testing"

	"github.com/gorse-io/bpmf/base"
	"github.com/stretchr/testify/assert"
)

func TestGenerateRatings(t *testing.T) {
	rng := base.NewRandomGenerator(42)
	real, ratings := GenerateRatings(8, 6, 2, 12, 0.1, rng)
	assert.Len(t, real, 8)
	for _, row := range real {
		assert.Len(t, row, 6)
	}
	assert.Len(t, ratings, 12)
	seen := make(map[Cell]bool)
	for _, r := range ratings {
		assert.GreaterOrEqual(t, r.User, 0)
		assert.Less(t, r.User, 8)
		assert.GreaterOrEqual(t, r.Item, 0)
		assert.Less(t, r.Item, 6)
		cell := Cell{Row: r.User, Col: r.Item}
		assert.False(t, seen[cell], "duplicate cell")
		seen[cell] = true
	}
}

func TestGenerateRatingsCapped(t *testing.T) {
	rng := base.NewRandomGenerator(0)
	_, ratings := GenerateRatings(2, 2, 1, 100, 0, rng)
	assert.Len(t, ratings, 4)
}

func TestSplit(t *testing.T) {
	rng := base.NewRandomGenerator(0)
	ratings := make([]Rating, 20)
	for i := range ratings {
		ratings[i] = Rating{User: i, Item: i, Value: float64(i)}
	}
	train, test := Split(ratings, 5, rng)
	assert.Len(t, train, 15)
	assert.Len(t, test, 5)
	total := make(map[int]bool)
	for _, r := range append(train, test...) {
		total[r.User] = true
	}
	assert.Len(t, total, 20)
}

func TestNewNaNMatrix(t *testing.T) {
	m := NewNaNMatrix(2, 3)
	for i := range m {
		for j := range m[i] {
			assert.True(t, math.IsNaN(m[i][j]))
		}
	}
}
