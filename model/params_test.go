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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsGet(t *testing.T) {
	p := Params{
		NFactors:     3,
		Lr:           0.1,
		SubtractMean: true,
		RandomState:  int64(42),
	}
	assert.Equal(t, 3, p.GetInt(NFactors, 1))
	assert.Equal(t, 1, p.GetInt(MaxEpochs, 1))
	assert.Equal(t, 0.1, p.GetFloat64(Lr, 0))
	assert.Equal(t, float64(3), p.GetFloat64(NFactors, 0))
	assert.True(t, p.GetBool(SubtractMean, false))
	assert.Equal(t, int64(42), p.GetInt64(RandomState, 0))
}

func TestParamsGetWrongType(t *testing.T) {
	p := Params{NFactors: "three"}
	assert.Equal(t, 5, p.GetInt(NFactors, 5))
}

func TestParamsCopy(t *testing.T) {
	p := Params{NFactors: 3}
	q := p.Copy()
	q[NFactors] = 5
	assert.Equal(t, 3, p.GetInt(NFactors, 0))
	assert.Equal(t, 5, q.GetInt(NFactors, 0))
}

func TestParamsOverwrite(t *testing.T) {
	p := Params{NFactors: 3, Lr: 0.1}
	q := p.Overwrite(Params{NFactors: 5, Sigma: 1.0})
	assert.Equal(t, 5, q.GetInt(NFactors, 0))
	assert.Equal(t, 0.1, q.GetFloat64(Lr, 0))
	assert.Equal(t, 1.0, q.GetFloat64(Sigma, 0))
	// the receiver is untouched
	assert.Equal(t, 3, p.GetInt(NFactors, 0))
}
