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

import "github.com/bits-and-blooms/bitset"

// Mask marks which cells of the rating matrix are observed. The zero value is
// not usable; create with NewMask or FromRatings.
type Mask struct {
	rows, cols int
	bits       *bitset.BitSet
}

// NewMask creates an all-unknown mask.
func NewMask(rows, cols int) *Mask {
	return &Mask{
		rows: rows,
		cols: cols,
		bits: bitset.New(uint(rows * cols)),
	}
}

// FromRatings creates a mask with the rated cells observed.
func FromRatings(rows, cols int, ratings []Rating) *Mask {
	m := NewMask(rows, cols)
	for _, r := range ratings {
		m.Set(r.User, r.Item)
	}
	return m
}

func (m *Mask) Rows() int {
	return m.rows
}

func (m *Mask) Cols() int {
	return m.cols
}

// Set marks a cell as observed.
func (m *Mask) Set(i, j int) {
	m.bits.Set(uint(i*m.cols + j))
}

// Test reports whether a cell is observed.
func (m *Mask) Test(i, j int) bool {
	return m.bits.Test(uint(i*m.cols + j))
}

// Count returns the number of observed cells.
func (m *Mask) Count() int {
	return int(m.bits.Count())
}

// Clone deep copies the mask.
func (m *Mask) Clone() *Mask {
	return &Mask{
		rows: m.rows,
		cols: m.cols,
		bits: m.bits.Clone(),
	}
}

// UnknownCells returns all unobserved cells in row-major order.
func (m *Mask) UnknownCells() []Cell {
	cells := make([]Cell, 0, m.rows*m.cols-m.Count())
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if !m.Test(i, j) {
				cells = append(cells, Cell{Row: i, Col: j})
			}
		}
	}
	return cells
}
