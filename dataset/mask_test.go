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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	m := NewMask(3, 4)
	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 4, m.Cols())
	assert.Zero(t, m.Count())
	m.Set(1, 2)
	m.Set(2, 3)
	assert.True(t, m.Test(1, 2))
	assert.False(t, m.Test(0, 0))
	assert.Equal(t, 2, m.Count())
}

func TestMaskClone(t *testing.T) {
	m := NewMask(2, 2)
	m.Set(0, 0)
	clone := m.Clone()
	clone.Set(1, 1)
	assert.True(t, clone.Test(0, 0))
	assert.False(t, m.Test(1, 1))
}

func TestFromRatings(t *testing.T) {
	m := FromRatings(2, 3, []Rating{
		{User: 0, Item: 1, Value: 5},
		{User: 1, Item: 2, Value: 3},
	})
	assert.True(t, m.Test(0, 1))
	assert.True(t, m.Test(1, 2))
	assert.Equal(t, 2, m.Count())
}

func TestUnknownCellsRowMajor(t *testing.T) {
	m := NewMask(2, 2)
	m.Set(0, 1)
	cells := m.UnknownCells()
	assert.Equal(t, []Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}, cells)
}
