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
	"io"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/bpmf/base"
	"github.com/gorse-io/bpmf/base/encoding"
	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/base/progress"
	"github.com/gorse-io/bpmf/common/floats"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// PMF is the probabilistic matrix factorization model, fit by maximum a
// posteriori estimation: batch gradient ascent on the log posterior with an
// adaptive learning rate. An accepted step grows the rate by 1.25; a rejected
// step is undone and halves it. Fitting stops when the improvement of an
// accepted step falls below StopThresh, or when the rate falls below MinLr.
// Hitting the rate floor is a degraded result, not an error.
//
// Hyper-parameters:
//
//	NFactors     - The number of latent factors. Default is 1.
//	Lr           - The initial learning rate. Default is 1e-4.
//	MinLr        - The learning rate floor. Default is 1e-10.
//	StopThresh   - The convergence threshold. Default is 1e-2.
//	MaxEpochs    - Cap on accepted gradient steps. Default is 300.
//	Sigma        - Observation noise standard deviation. Default is 1.
//	SigmaU       - User factor prior standard deviation. Default is 1e10.
//	SigmaV       - Item factor prior standard deviation. Default is 1e10.
//	SubtractMean - Subtract the mean rating before fitting. Default is false.
type PMF struct {
	BaseModel
	// Model parameters
	Users      [][]float64 // u_i
	Items      [][]float64 // v_j
	MeanRating float64
	// Data
	numUsers int
	numItems int
	ratings  []dataset.Rating
	rated    mapset.Set[dataset.Cell]
	// Hyper parameters
	nFactors     int
	lr           float64
	minLr        float64
	stopThresh   float64
	maxEpochs    int
	sigmaSq      float64
	sigmaUSq     float64
	sigmaVSq     float64
	subtractMean bool
}

// NewPMF creates a PMF model over a numUsers by numItems rating matrix with
// the given observed ratings.
func NewPMF(numUsers, numItems int, ratings []dataset.Rating, params Params) *PMF {
	pmf := &PMF{
		numUsers: numUsers,
		numItems: numItems,
		rated:    mapset.NewSet[dataset.Cell](),
	}
	pmf.SetParams(params)
	for _, r := range ratings {
		pmf.AddRating(r.User, r.Item, r.Value)
	}
	return pmf
}

// SetParams sets hyper-parameters of the PMF model.
func (pmf *PMF) SetParams(params Params) {
	pmf.BaseModel.SetParams(params)
	pmf.nFactors = pmf.Params.GetInt(NFactors, 1)
	pmf.lr = pmf.Params.GetFloat64(Lr, 1e-4)
	pmf.minLr = pmf.Params.GetFloat64(MinLr, 1e-10)
	pmf.stopThresh = pmf.Params.GetFloat64(StopThresh, 1e-2)
	pmf.maxEpochs = pmf.Params.GetInt(MaxEpochs, 300)
	sigma := pmf.Params.GetFloat64(Sigma, 1)
	sigmaU := pmf.Params.GetFloat64(SigmaU, 1e10)
	sigmaV := pmf.Params.GetFloat64(SigmaV, 1e10)
	pmf.sigmaSq = sigma * sigma
	pmf.sigmaUSq = sigmaU * sigmaU
	pmf.sigmaVSq = sigmaV * sigmaV
	pmf.subtractMean = pmf.Params.GetBool(SubtractMean, false)
}

func (pmf *PMF) NumUsers() int {
	return pmf.numUsers
}

func (pmf *PMF) NumItems() int {
	return pmf.numItems
}

func (pmf *PMF) NumFactors() int {
	return pmf.nFactors
}

// Ratings returns the observed ratings. Callers must not mutate the slice.
func (pmf *PMF) Ratings() []dataset.Rating {
	return pmf.ratings
}

// AddRating reveals one cell. Revealing an already rated cell is a no-op.
func (pmf *PMF) AddRating(user, item int, value float64) {
	cell := dataset.Cell{Row: user, Col: item}
	if pmf.rated.Contains(cell) {
		return
	}
	pmf.rated.Add(cell)
	pmf.ratings = append(pmf.ratings, dataset.Rating{User: user, Item: item, Value: value})
}

// NumRated returns the number of observed cells.
func (pmf *PMF) NumRated() int {
	return pmf.rated.Cardinality()
}

// Rated reports whether a cell is observed.
func (pmf *PMF) Rated(user, item int) bool {
	return pmf.rated.Contains(dataset.Cell{Row: user, Col: item})
}

// UnratedCells returns all unobserved cells in row-major order.
func (pmf *PMF) UnratedCells() []dataset.Cell {
	cells := make([]dataset.Cell, 0, pmf.numUsers*pmf.numItems-pmf.rated.Cardinality())
	for i := 0; i < pmf.numUsers; i++ {
		for j := 0; j < pmf.numItems; j++ {
			if !pmf.rated.Contains(dataset.Cell{Row: i, Col: j}) {
				cells = append(cells, dataset.Cell{Row: i, Col: j})
			}
		}
	}
	return cells
}

// Init re-initializes the latent factors randomly, discarding any prior fit.
func (pmf *PMF) Init() {
	pmf.Users = pmf.rng.UniformMatrix(pmf.numUsers, pmf.nFactors, 0, 1)
	pmf.Items = pmf.rng.UniformMatrix(pmf.numItems, pmf.nFactors, 0, 1)
	pmf.MeanRating = 0
	if pmf.subtractMean && len(pmf.ratings) > 0 {
		sum := 0.0
		for _, r := range pmf.ratings {
			sum += r.Value
		}
		pmf.MeanRating = sum / float64(len(pmf.ratings))
	}
}

// Fit the PMF model from a fresh random initialization.
func (pmf *PMF) Fit(ctx context.Context) error {
	fitStart := time.Now()
	pmf.Init()
	lr := pmf.lr
	last := pmf.logPosterior(pmf.Users, pmf.Items)
	tryUsers := base.NewMatrix(pmf.numUsers, pmf.nFactors)
	tryItems := base.NewMatrix(pmf.numItems, pmf.nFactors)
	gradUsers := base.NewMatrix(pmf.numUsers, pmf.nFactors)
	gradItems := base.NewMatrix(pmf.numItems, pmf.nFactors)
	converged := false
	epoch := 0
	_, span := progress.Start(ctx, "PMF.Fit", pmf.maxEpochs)
	defer span.End()
	for epoch = 0; epoch < pmf.maxEpochs && !converged; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		pmf.gradients(pmf.Users, pmf.Items, gradUsers, gradItems)
		for {
			for i := range tryUsers {
				floats.MulConstTo(gradUsers[i], lr, tryUsers[i])
				floats.AddTo(tryUsers[i], pmf.Users[i], tryUsers[i])
			}
			for j := range tryItems {
				floats.MulConstTo(gradItems[j], lr, tryItems[j])
				floats.AddTo(tryItems[j], pmf.Items[j], tryItems[j])
			}
			ll := pmf.logPosterior(tryUsers, tryItems)
			if ll > last {
				pmf.Users, tryUsers = tryUsers, pmf.Users
				pmf.Items, tryItems = tryItems, pmf.Items
				lr *= 1.25
				if ll-last < pmf.stopThresh {
					converged = true
				}
				last = ll
				break
			}
			lr *= 0.5
			if lr < pmf.minLr {
				// Out of learning rate: stop with the current estimate.
				converged = true
				break
			}
		}
		span.Add(1)
	}
	log.Logger().Debug("fit pmf",
		zap.Int("n_ratings", len(pmf.ratings)),
		zap.Int("epochs", epoch),
		zap.Bool("converged", converged),
		zap.Float64("log_posterior", last),
		zap.Duration("fit_time", time.Since(fitStart)))
	return nil
}

// logPosterior is the unnormalized log posterior of a candidate factorization.
func (pmf *PMF) logPosterior(users, items [][]float64) float64 {
	var sum float64
	for _, r := range pmf.ratings {
		err := r.Value - pmf.MeanRating - floats.Dot(users[r.User], items[r.Item])
		sum -= err * err / (2 * pmf.sigmaSq)
	}
	for i := range users {
		sum -= floats.Dot(users[i], users[i]) / (2 * pmf.sigmaUSq)
	}
	for j := range items {
		sum -= floats.Dot(items[j], items[j]) / (2 * pmf.sigmaVSq)
	}
	return sum
}

// gradients of the log posterior with respect to the user and item factors,
// written into the reused buffers.
func (pmf *PMF) gradients(users, items, gradUsers, gradItems [][]float64) {
	floats.MatZero(gradUsers)
	floats.MatZero(gradItems)
	for _, r := range pmf.ratings {
		err := r.Value - pmf.MeanRating - floats.Dot(users[r.User], items[r.Item])
		floats.MulConstAdd(items[r.Item], err/pmf.sigmaSq, gradUsers[r.User])
		floats.MulConstAdd(users[r.User], err/pmf.sigmaSq, gradItems[r.Item])
	}
	for i := range users {
		floats.MulConstAdd(users[i], -1/pmf.sigmaUSq, gradUsers[i])
	}
	for j := range items {
		floats.MulConstAdd(items[j], -1/pmf.sigmaVSq, gradItems[j])
	}
}

// Predict one cell of the rating matrix from the current fit.
func (pmf *PMF) Predict(user, item int) float64 {
	return floats.Dot(pmf.Users[user], pmf.Items[item]) + pmf.MeanRating
}

// PredictedMatrix reconstructs the full rating matrix from the current fit.
func (pmf *PMF) PredictedMatrix() [][]float64 {
	pred := base.NewMatrix(pmf.numUsers, pmf.numItems)
	for i := 0; i < pmf.numUsers; i++ {
		for j := 0; j < pmf.numItems; j++ {
			pred[i][j] = floats.Dot(pmf.Users[i], pmf.Items[j]) + pmf.MeanRating
		}
	}
	return pred
}

// RMSE of the current fit against the ground truth.
func (pmf *PMF) RMSE(truth [][]float64) float64 {
	return floats.RMSE(pmf.PredictedMatrix(), truth)
}

// Clone a model with deep copy. The clone's random generator is re-seeded.
func (pmf *PMF) Clone() *PMF {
	ratings := make([]dataset.Rating, len(pmf.ratings))
	copy(ratings, pmf.ratings)
	copied := NewPMF(pmf.numUsers, pmf.numItems, ratings, pmf.Params.Copy())
	if pmf.Users != nil {
		copied.Users = base.CopyMatrix(pmf.Users)
		copied.Items = base.CopyMatrix(pmf.Items)
		copied.MeanRating = pmf.MeanRating
	}
	return copied
}

// Marshal model into byte stream. The factor matrices are framed flat, after
// a model name header and the gob-encoded params, shape and ratings.
func (pmf *PMF) Marshal(w io.Writer) error {
	if err := encoding.WriteString(w, "PMF"); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, pmf.Params); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, [2]int{pmf.numUsers, pmf.numItems}); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, pmf.ratings); err != nil {
		return errors.Trace(err)
	}
	hasFit := pmf.Users != nil
	if err := encoding.WriteGob(w, hasFit); err != nil {
		return errors.Trace(err)
	}
	if !hasFit {
		return nil
	}
	if err := encoding.WriteGob(w, pmf.MeanRating); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteMatrix(w, pmf.Users); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteMatrix(w, pmf.Items))
}

// Unmarshal model from byte stream.
func (pmf *PMF) Unmarshal(r io.Reader) error {
	name, err := encoding.ReadString(r)
	if err != nil {
		return errors.Trace(err)
	}
	if name != "PMF" {
		return errors.NotValidf("model name %q", name)
	}
	var params Params
	if err := encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	var shape [2]int
	if err := encoding.ReadGob(r, &shape); err != nil {
		return errors.Trace(err)
	}
	var ratings []dataset.Rating
	if err := encoding.ReadGob(r, &ratings); err != nil {
		return errors.Trace(err)
	}
	*pmf = *NewPMF(shape[0], shape[1], ratings, params)
	var hasFit bool
	if err := encoding.ReadGob(r, &hasFit); err != nil {
		return errors.Trace(err)
	}
	if !hasFit {
		return nil
	}
	if err := encoding.ReadGob(r, &pmf.MeanRating); err != nil {
		return errors.Trace(err)
	}
	pmf.Users = base.NewMatrix(pmf.numUsers, pmf.nFactors)
	pmf.Items = base.NewMatrix(pmf.numItems, pmf.nFactors)
	if err := encoding.ReadMatrix(r, pmf.Users); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.ReadMatrix(r, pmf.Items))
}
