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

package main

import (
	"testing"

	"github.com/gorse-io/bpmf/config"
	"github.com/gorse-io/bpmf/model"
	"github.com/stretchr/testify/assert"
)

func TestModelParams(t *testing.T) {
	conf, err := config.LoadConfig("")
	assert.NoError(t, err)
	params := modelParams(conf)
	assert.Equal(t, 5, params.GetInt(model.NFactors, 0))
	assert.Equal(t, 2.0, params.GetFloat64(model.SigmaU, 0))
	assert.Equal(t, 1e-2, params.GetFloat64(model.StopThresh, 0))
	assert.True(t, params.GetBool(model.SubtractMean, false))
}

func TestBoostParams(t *testing.T) {
	conf, err := config.LoadConfig("")
	assert.NoError(t, err)
	params := boostParams(conf)
	// the boost section's tightened fit keys win over the model section
	assert.Equal(t, 1, params.GetInt(model.NFactors, 0))
	assert.Equal(t, 1e2, params.GetFloat64(model.SigmaU, 0))
	assert.Equal(t, 1e2, params.GetFloat64(model.SigmaV, 0))
	assert.Equal(t, 1e-10, params.GetFloat64(model.StopThresh, 0))
	assert.Equal(t, 1e-20, params.GetFloat64(model.MinLr, 0))
	// generic fit keys still come from the model section
	assert.Equal(t, 1e-4, params.GetFloat64(model.Lr, 0))
	assert.Equal(t, 300, params.GetInt(model.MaxEpochs, 0))
}
