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

package active

import (
	"sort"

	"github.com/gorse-io/bpmf/base"
	"github.com/gorse-io/bpmf/bayes"
	"github.com/juju/errors"
)

// Strategy scores every cell of the rating matrix from a batch of posterior
// samples. Higher scores mark cells more worth querying.
type Strategy interface {
	Name() string
	Score(samples []bayes.Factors, rows, cols int) [][]float64
}

// Random scores cells uniformly at random.
type Random struct {
	rng base.RandomGenerator
}

func (r *Random) Name() string { return "random" }

func (r *Random) Score(_ []bayes.Factors, rows, cols int) [][]float64 {
	return r.rng.UniformMatrix(rows, cols, 0, 1)
}

// PredictiveVariance scores cells by the posterior variance of their
// reconstruction.
type PredictiveVariance struct{}

func (PredictiveVariance) Name() string { return "pred-variance" }

func (PredictiveVariance) Score(samples []bayes.Factors, _, _ int) [][]float64 {
	return bayes.Variance(samples)
}

// PredictiveMean scores cells by their posterior-mean prediction.
type PredictiveMean struct{}

func (PredictiveMean) Name() string { return "pred" }

func (PredictiveMean) Score(samples []bayes.Factors, _, _ int) [][]float64 {
	return bayes.Predict(samples)
}

// ProbAboveCutoff scores cells by the posterior probability of their
// reconstruction reaching the cutoff. Constructed through New only, so the
// name and cutoff always agree.
type ProbAboveCutoff struct {
	name   string
	cutoff float64
}

func (p ProbAboveCutoff) Name() string { return p.name }

func (p ProbAboveCutoff) Score(samples []bayes.Factors, _, _ int) [][]float64 {
	return bayes.ProbGreaterEqual(samples, p.cutoff)
}

var strategies = map[string]func(seed int64) Strategy{
	"random": func(seed int64) Strategy {
		return &Random{rng: base.NewRandomGenerator(seed)}
	},
	"pred-variance": func(int64) Strategy { return PredictiveVariance{} },
	"pred":          func(int64) Strategy { return PredictiveMean{} },
	"prob-ge-3.5":   func(int64) Strategy { return ProbAboveCutoff{name: "prob-ge-3.5", cutoff: 3.5} },
	"prob-ge-.5":    func(int64) Strategy { return ProbAboveCutoff{name: "prob-ge-.5", cutoff: 0.5} },
}

// New creates a strategy by name. Unknown names are a configuration error.
func New(name string, seed int64) (Strategy, error) {
	create, ok := strategies[name]
	if !ok {
		return nil, errors.NotValidf("unknown strategy %q (options are %v)", name, Names())
	}
	return create(seed), nil
}

// Names returns the names of all registered strategies, sorted.
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
