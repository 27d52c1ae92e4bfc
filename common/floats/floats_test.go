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

package floats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	assert.Equal(t, float64(32), Dot(a, b))
	assert.Panics(t, func() { Dot(a, []float64{1}) })
}

func TestZero(t *testing.T) {
	a := []float64{1, 2, 3}
	Zero(a)
	assert.Equal(t, []float64{0, 0, 0}, a)
}

func TestMatZero(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}}
	MatZero(x)
	assert.Equal(t, [][]float64{{0, 0}, {0, 0}}, x)
}

func TestAddTo(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	dst := make([]float64, 3)
	AddTo(a, b, dst)
	assert.Equal(t, []float64{5, 7, 9}, dst)
	assert.Panics(t, func() { AddTo(a, b, nil) })
}

func TestSubTo(t *testing.T) {
	a := []float64{4, 5, 6}
	b := []float64{1, 2, 3}
	dst := make([]float64, 3)
	SubTo(a, b, dst)
	assert.Equal(t, []float64{3, 3, 3}, dst)
}

func TestMulConstTo(t *testing.T) {
	a := []float64{1, 2, 3}
	dst := make([]float64, 3)
	MulConstTo(a, 2, dst)
	assert.Equal(t, []float64{2, 4, 6}, dst)
}

func TestMulConstAdd(t *testing.T) {
	a := []float64{1, 2, 3}
	dst := []float64{1, 1, 1}
	MulConstAdd(a, 2, dst)
	assert.Equal(t, []float64{3, 5, 7}, dst)
}

func TestMean(t *testing.T) {
	assert.Equal(t, float64(2), Mean([]float64{1, 2, 3}))
	assert.Equal(t, float64(0), Mean(nil))
}

func TestRMSE(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}}
	// distance to self is zero
	assert.Zero(t, RMSE(x, x))
	pred := [][]float64{{2, 3}, {4, 5}}
	assert.InDelta(t, 1, RMSE(pred, x), 1e-12)
}
