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

package base

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

func TestUniformMatrix(t *testing.T) {
	rng := NewRandomGenerator(0)
	m := rng.UniformMatrix(3, 4, 2, 5)
	assert.Len(t, m, 3)
	for _, row := range m {
		assert.Len(t, row, 4)
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 2.0)
			assert.Less(t, v, 5.0)
		}
	}
}

func TestSample(t *testing.T) {
	rng := NewRandomGenerator(0)
	sampled := rng.Sample(0, 100, 10)
	assert.Len(t, sampled, 10)
	assert.Len(t, mapset.NewSet(sampled...).ToSlice(), 10)
}

func TestSampleExclude(t *testing.T) {
	rng := NewRandomGenerator(0)
	exclude := mapset.NewSet(0, 1, 2, 3, 4)
	sampled := rng.Sample(0, 10, 10, exclude)
	assert.Len(t, sampled, 5)
	for _, v := range sampled {
		assert.False(t, exclude.Contains(v))
	}
}

func TestCopyMatrix(t *testing.T) {
	m := [][]float64{{1, 2}, {3, 4}}
	c := CopyMatrix(m)
	c[0][0] = 9
	assert.Equal(t, 1.0, m[0][0])
}
