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
	"math"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// SearchModel is a model whose hyper-parameters can be searched: it proposes
// parameters per trial and scores itself on a held-out rating set.
type SearchModel interface {
	SetParams(params Params)
	GetParams() Params
	SuggestParams(trial goptuna.Trial) Params
	Evaluate(ctx context.Context, test []dataset.Rating) (float64, error)
}

// SuggestParams proposes PMF hyper-parameters for one trial.
func (pmf *PMF) SuggestParams(trial goptuna.Trial) Params {
	return Params{
		NFactors: int(lo.Must(trial.SuggestDiscreteFloat(string(NFactors), 1, 10, 1))),
		Lr:       lo.Must(trial.SuggestLogUniform(string(Lr), 1e-6, 1e-2)),
		SigmaU:   lo.Must(trial.SuggestLogUniform(string(SigmaU), 1e-1, 1e3)),
		SigmaV:   lo.Must(trial.SuggestLogUniform(string(SigmaV), 1e-1, 1e3)),
	}
}

// Evaluate fits the model on its own ratings and returns the RMSE over the
// held-out test ratings.
func (pmf *PMF) Evaluate(ctx context.Context, test []dataset.Rating) (float64, error) {
	if err := pmf.Fit(ctx); err != nil {
		return 0, errors.Trace(err)
	}
	var sum float64
	for _, r := range test {
		err := r.Value - pmf.Predict(r.User, r.Item)
		sum += err * err
	}
	return math.Sqrt(sum / float64(len(test))), nil
}

// ModelCreator creates a fresh model per trial.
type ModelCreator func() SearchModel

// ParamsSearch searches a model's hyper-parameters with TPE, minimizing the
// RMSE over a held-out rating set.
type ParamsSearch struct {
	creator ModelCreator
	testSet []dataset.Rating
	result  SearchResult
}

// SearchResult is the best trial seen so far.
type SearchResult struct {
	Params Params
	RMSE   float64
}

func NewParamsSearch(creator ModelCreator, testSet []dataset.Rating) *ParamsSearch {
	return &ParamsSearch{
		creator: creator,
		testSet: testSet,
		result:  SearchResult{RMSE: math.Inf(1)},
	}
}

func (ps *ParamsSearch) Objective(trial goptuna.Trial) (float64, error) {
	m := ps.creator()
	m.SetParams(m.GetParams().Overwrite(m.SuggestParams(trial)))
	rmse, err := m.Evaluate(context.Background(), ps.testSet)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if rmse < ps.result.RMSE {
		ps.result = SearchResult{
			Params: m.GetParams(),
			RMSE:   rmse,
		}
	}
	return rmse, nil
}

func (ps *ParamsSearch) Result() SearchResult {
	return ps.result
}

// Search runs trials TPE trials and returns the best result.
func (ps *ParamsSearch) Search(name string, trials int) (SearchResult, error) {
	study, err := goptuna.CreateStudy(name,
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler()))
	if err != nil {
		return SearchResult{}, errors.Trace(err)
	}
	if err := study.Optimize(ps.Objective, trials); err != nil {
		return SearchResult{}, errors.Trace(err)
	}
	return ps.result, nil
}
