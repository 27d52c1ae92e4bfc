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

package ensemble

import (
	"context"

	"github.com/gorse-io/bpmf/bayes"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/gorse-io/bpmf/model"
	"github.com/juju/errors"
)

// FitFunc runs one independently-initialized fit over the cells of truth
// marked known and returns the reconstructed matrix.
type FitFunc func(ctx context.Context, truth [][]float64, known *dataset.Mask, seed int64) ([][]float64, error)

// maskRatings extracts the known cells of truth as a rating set, row-major.
func maskRatings(truth [][]float64, known *dataset.Mask) []dataset.Rating {
	ratings := make([]dataset.Rating, 0, known.Count())
	for i := range truth {
		for j := range truth[i] {
			if known.Test(i, j) {
				ratings = append(ratings, dataset.Rating{User: i, Item: j, Value: truth[i][j]})
			}
		}
	}
	return ratings
}

// MAPFit returns a FitFunc that runs one MAP fit. The given parameters are
// laid over defaults tightened for ensemble work, where each fit is cheap and
// run many times: a single latent factor, tight priors and a deep convergence
// threshold.
func MAPFit(params model.Params) FitFunc {
	base := model.Params{
		model.NFactors:   1,
		model.SigmaU:     1e2,
		model.SigmaV:     1e2,
		model.StopThresh: 1e-10,
		model.MinLr:      1e-20,
	}.Overwrite(params)
	return func(ctx context.Context, truth [][]float64, known *dataset.Mask, seed int64) ([][]float64, error) {
		fitParams := base.Copy()
		fitParams[model.RandomState] = seed
		pmf := model.NewPMF(len(truth), len(truth[0]), maskRatings(truth, known), fitParams)
		if err := pmf.Fit(ctx); err != nil {
			return nil, errors.Trace(err)
		}
		return pmf.PredictedMatrix(), nil
	}
}

// BayesFit returns a FitFunc that seeds a Gibbs chain with a MAP fit and
// returns the posterior-mean reconstruction. Non-positive burnIn and samples
// fall back to 10 and 200.
func BayesFit(params model.Params, burnIn, samples int) FitFunc {
	if burnIn <= 0 {
		burnIn = 10
	}
	if samples <= 0 {
		samples = 200
	}
	base := model.Params{
		model.NFactors:   1,
		model.SigmaU:     1e2,
		model.SigmaV:     1e2,
		model.StopThresh: 1e-10,
		model.MinLr:      1e-20,
	}.Overwrite(params)
	return func(ctx context.Context, truth [][]float64, known *dataset.Mask, seed int64) ([][]float64, error) {
		fitParams := base.Copy()
		fitParams[model.RandomState] = seed
		pmf := model.NewPMF(len(truth), len(truth[0]), maskRatings(truth, known), fitParams)
		if err := pmf.Fit(ctx); err != nil {
			return nil, errors.Trace(err)
		}
		sampler := bayes.NewSampler(bayes.FactorsFromModel(pmf), pmf.Ratings(), bayes.Config{Seed: seed})
		batch, err := sampler.Collect(ctx, burnIn, samples)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return bayes.Predict(batch), nil
	}
}
