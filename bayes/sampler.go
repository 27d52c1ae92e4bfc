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

package bayes

import (
	"context"
	"math/rand/v2"

	"github.com/gorse-io/bpmf/dataset"
	"github.com/juju/errors"
)

// Config holds the sampler's tunables. The zero value gives the defaults.
type Config struct {
	// GibbsSweeps is the number of inner Gibbs sweeps per hyperparameter
	// round. Default is 2.
	GibbsSweeps int
	// Beta is the observation noise precision. Default is 2.
	Beta float64
	// Seed of the random source.
	Seed int64
}

// ratedIndex holds, for one user, the indices of the items it rated and the
// rating values (symmetrically for one item).
type ratedIndex struct {
	indices []int
	values  []float64
}

// Sampler runs a Gibbs chain over the posterior of the factorization. Each
// round resamples the user and item hyperparameters from their Normal-Wishart
// posteriors, then runs a fixed number of Gibbs sweeps over all user and item
// feature vectors.
//
// The chain is a single Markov chain seeded from a MAP estimate; it is not
// restartable. Ratings added to the model after construction are not
// observed: the rating indexes are snapshots taken at construction time.
type Sampler struct {
	users      [][]float64
	items      [][]float64
	meanRating float64
	d          int

	itemsByUser []ratedIndex
	usersByItem []ratedIndex

	uPrior normalWishartPrior
	vPrior normalWishartPrior

	gibbs int
	beta  float64
	src   rand.Source
	rng   *rand.Rand
}

// NewSampler creates a sampler seeded with a deep copy of the given factors
// over a snapshot of the given ratings.
func NewSampler(seed Factors, ratings []dataset.Rating, config Config) *Sampler {
	state := seed.Clone()
	d := len(state.Users[0])
	s := &Sampler{
		users:       state.Users,
		items:       state.Items,
		meanRating:  state.MeanRating,
		d:           d,
		itemsByUser: make([]ratedIndex, len(state.Users)),
		usersByItem: make([]ratedIndex, len(state.Items)),
		uPrior:      defaultPrior(d),
		vPrior:      defaultPrior(d),
		gibbs:       config.GibbsSweeps,
		beta:        config.Beta,
	}
	if s.gibbs <= 0 {
		s.gibbs = 2
	}
	if s.beta <= 0 {
		s.beta = 2
	}
	s.src = rand.NewPCG(uint64(config.Seed), uint64(config.Seed)+1)
	s.rng = rand.New(s.src)
	for _, r := range ratings {
		s.itemsByUser[r.User].indices = append(s.itemsByUser[r.User].indices, r.Item)
		s.itemsByUser[r.User].values = append(s.itemsByUser[r.User].values, r.Value)
		s.usersByItem[r.Item].indices = append(s.usersByItem[r.Item].indices, r.User)
		s.usersByItem[r.Item].values = append(s.usersByItem[r.Item].values, r.Value)
	}
	return s
}

// Next advances the chain one round and returns the new state. The returned
// Factors borrow the sampler's backing storage and are overwritten by the
// next call: use Collect, or Factors.Clone, to retain samples.
//
// A non-positive-definite covariance anywhere in the round is fatal and
// surfaced as an error; the chain must not be advanced afterwards.
func (s *Sampler) Next(ctx context.Context) (Factors, error) {
	if err := ctx.Err(); err != nil {
		return Factors{}, errors.Trace(err)
	}
	// sample hyperparameters
	muU, alphaU, err := s.sampleHyper(s.users, s.uPrior)
	if err != nil {
		return Factors{}, errors.Trace(err)
	}
	muV, alphaV, err := s.sampleHyper(s.items, s.vPrior)
	if err != nil {
		return Factors{}, errors.Trace(err)
	}
	// Gibbs updates for user, item feature vectors
	for g := 0; g < s.gibbs; g++ {
		for i := range s.users {
			s.users[i], err = s.sampleFeature(muU, alphaU, s.items, s.itemsByUser[i], s.meanRating)
			if err != nil {
				return Factors{}, errors.Trace(err)
			}
		}
		for j := range s.items {
			s.items[j], err = s.sampleFeature(muV, alphaV, s.users, s.usersByItem[j], s.meanRating)
			if err != nil {
				return Factors{}, errors.Trace(err)
			}
		}
	}
	return Factors{Users: s.users, Items: s.items, MeanRating: s.meanRating}, nil
}

// Collect discards burnIn rounds, then materializes n deep-copied samples.
func (s *Sampler) Collect(ctx context.Context, burnIn, n int) ([]Factors, error) {
	for i := 0; i < burnIn; i++ {
		if _, err := s.Next(ctx); err != nil {
			return nil, errors.Trace(err)
		}
	}
	samples := make([]Factors, 0, n)
	for i := 0; i < n; i++ {
		sample, err := s.Next(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		samples = append(samples, sample.Clone())
	}
	return samples, nil
}
