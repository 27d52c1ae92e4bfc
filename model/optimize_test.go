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
	"context"
	"testing"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

type mockModelForSearch struct {
	BaseModel
}

func newMockModelForSearch() *mockModelForSearch {
	return &mockModelForSearch{BaseModel{Params: Params{}}}
}

func (m *mockModelForSearch) SuggestParams(trial goptuna.Trial) Params {
	return Params{
		SigmaU: lo.Must(trial.SuggestDiscreteFloat(string(SigmaU), 1, 4, 1)),
		SigmaV: lo.Must(trial.SuggestDiscreteFloat(string(SigmaV), 1, 4, 1)),
	}
}

func (m *mockModelForSearch) Evaluate(_ context.Context, _ []dataset.Rating) (float64, error) {
	return m.Params.GetFloat64(SigmaU, 0) + m.Params.GetFloat64(SigmaV, 0), nil
}

func TestTPE(t *testing.T) {
	search := NewParamsSearch(func() SearchModel {
		return newMockModelForSearch()
	}, nil)
	study, err := goptuna.CreateStudy("TestTPE",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler()))
	assert.NoError(t, err)
	err = study.Optimize(search.Objective, 10)
	assert.NoError(t, err)
	v, err := study.GetBestValue()
	assert.NoError(t, err)
	result := search.Result()
	assert.Equal(t, v, result.RMSE)
	// the tracked best matches its own parameters
	assert.Equal(t, result.RMSE,
		result.Params.GetFloat64(SigmaU, 0)+result.Params.GetFloat64(SigmaV, 0))
	assert.GreaterOrEqual(t, result.RMSE, float64(2))
	assert.LessOrEqual(t, result.RMSE, float64(8))
}
