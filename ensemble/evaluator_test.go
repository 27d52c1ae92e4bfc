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
	"math"
	"testing"
	"time"

	"github.com/gorse-io/bpmf/base"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/gorse-io/bpmf/model"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

// offsetFit fabricates a fit whose RMSE is a known function of the seed, so
// order statistics can be checked against hand-computed values.
func offsetFit(offsets map[int64]float64) FitFunc {
	return func(_ context.Context, truth [][]float64, _ *dataset.Mask, seed int64) ([][]float64, error) {
		pred := base.NewMatrix(len(truth), len(truth[0]))
		for i := range truth {
			for j := range truth[i] {
				pred[i][j] = truth[i][j] + offsets[seed]
			}
		}
		return pred, nil
	}
}

func TestEvaluatePickOrderStatistic(t *testing.T) {
	truth := [][]float64{{1, 2}, {3, 4}}
	known := dataset.NewMask(2, 2)
	known.Set(0, 0)
	known.Set(0, 1)
	known.Set(1, 0)
	known.Set(1, 1)
	// a constant offset of c gives RMSE exactly |c|; five known values in
	// arbitrary input order
	fit := offsetFit(map[int64]float64{0: 0.5, 1: 0.1, 2: 0.9, 3: 0.3, 4: 0.7})
	result, err := Evaluate(context.Background(), truth, known, fit, Config{
		NumFits: 5,
		Pick:    2,
		Workers: 2,
	})
	assert.NoError(t, err)
	// pick=2 retains the third smallest of {0.1, 0.3, 0.5, 0.7, 0.9}
	assert.InDelta(t, 0.5, result.Baseline, 1e-12)
	assert.Equal(t, []float64{0.1, 0.3, 0.5, 0.7, 0.9}, roundAll(result.BaselineRMSEs))
	assert.Empty(t, result.CellRMSEs)
}

func roundAll(values []float64) []float64 {
	rounded := make([]float64, len(values))
	for i, v := range values {
		rounded[i] = math.Round(v*1e9) / 1e9
	}
	return rounded
}

func TestEvaluateWorkerPool(t *testing.T) {
	truth := [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	known := dataset.FromRatings(3, 3, []dataset.Rating{
		{User: 0, Item: 0, Value: 1},
		{User: 1, Item: 1, Value: 5},
	})
	fit := func(_ context.Context, truth [][]float64, _ *dataset.Mask, seed int64) ([][]float64, error) {
		return truth, nil
	}
	result, err := Evaluate(context.Background(), truth, known, fit, Config{
		NumFits: 3,
		Pick:    -1,
		Workers: 4,
	})
	assert.NoError(t, err)
	// one result per unobserved cell, regardless of processing order
	assert.Len(t, result.CellRMSEs, 7)
	for _, cell := range known.UnknownCells() {
		rmses, ok := result.CellRMSEs[cell]
		assert.True(t, ok)
		assert.Len(t, rmses, 3)
		assert.False(t, math.IsNaN(result.Boosts[cell.Row][cell.Col]))
	}
	// known cells carry NaN in the boost map
	assert.True(t, math.IsNaN(result.Boosts[0][0]))
	assert.True(t, math.IsNaN(result.Boosts[1][1]))
}

func TestEvaluateConfig(t *testing.T) {
	truth := [][]float64{{1}}
	known := dataset.NewMask(1, 1)
	fit := offsetFit(nil)
	// even ensemble size without an explicit pick index
	_, err := Evaluate(context.Background(), truth, known, fit, Config{NumFits: 4, Pick: -1})
	assert.Error(t, err)
	// pick out of range
	_, err = Evaluate(context.Background(), truth, known, fit, Config{NumFits: 3, Pick: 3})
	assert.Error(t, err)
	// no fits
	_, err = Evaluate(context.Background(), truth, known, fit, Config{NumFits: 0})
	assert.Error(t, err)
}

func TestEvaluateFitError(t *testing.T) {
	truth := [][]float64{{1, 2}, {3, 4}}
	known := dataset.FromRatings(2, 2, []dataset.Rating{{User: 0, Item: 0, Value: 1}})
	fit := func(_ context.Context, _ [][]float64, _ *dataset.Mask, _ int64) ([][]float64, error) {
		return nil, errors.New("degenerate fit")
	}
	_, err := Evaluate(context.Background(), truth, known, fit, Config{NumFits: 3, Pick: -1, Workers: 2})
	assert.ErrorContains(t, err, "degenerate fit")
}

func TestEvaluateRevealedMask(t *testing.T) {
	truth := [][]float64{{1, 2}, {3, 4}}
	known := dataset.FromRatings(2, 2, []dataset.Rating{
		{User: 0, Item: 0, Value: 1},
		{User: 0, Item: 1, Value: 2},
		{User: 1, Item: 0, Value: 3},
	})
	fit := func(_ context.Context, _ [][]float64, mask *dataset.Mask, _ int64) ([][]float64, error) {
		// the per-cell ensemble must see the hypothetically revealed cell
		if mask.Count() == 4 {
			assert.True(t, mask.Test(1, 1))
		}
		return truth, nil
	}
	result, err := Evaluate(context.Background(), truth, known, fit, Config{NumFits: 1, Pick: 0, Workers: 1})
	assert.NoError(t, err)
	assert.Len(t, result.CellRMSEs, 1)
	// the caller's mask is untouched
	assert.Equal(t, 3, known.Count())
}

func TestMAPFitRunsOnMask(t *testing.T) {
	rng := base.NewRandomGenerator(5)
	truth, ratings := dataset.GenerateRatings(4, 4, 1, 10, 0.1, rng)
	known := dataset.FromRatings(4, 4, ratings)
	fit := MAPFit(model.Params{model.MaxEpochs: 50})
	pred, err := fit(context.Background(), truth, known, 1)
	assert.NoError(t, err)
	assert.Len(t, pred, 4)
	for _, row := range pred {
		assert.Len(t, row, 4)
	}
}

func TestPushResultTimeout(t *testing.T) {
	results := make(chan cellResult, 1)
	assert.NoError(t, pushResult(results, cellResult{done: true}, 10*time.Millisecond))
	// the channel is full and nobody drains it: the bounded push must give up
	err := pushResult(results, cellResult{done: true}, 10*time.Millisecond)
	assert.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
}
