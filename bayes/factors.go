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
	"github.com/gorse-io/bpmf/base"
	"github.com/gorse-io/bpmf/common/floats"
	"github.com/gorse-io/bpmf/model"
)

// Factors is one latent state of the factorization: either a MAP point
// estimate or one posterior sample.
type Factors struct {
	Users      [][]float64
	Items      [][]float64
	MeanRating float64
}

// Clone deep copies the factors.
func (f Factors) Clone() Factors {
	return Factors{
		Users:      base.CopyMatrix(f.Users),
		Items:      base.CopyMatrix(f.Items),
		MeanRating: f.MeanRating,
	}
}

// Predicted reconstructs the rating matrix from this single factorization.
func (f Factors) Predicted() [][]float64 {
	pred := base.NewMatrix(len(f.Users), len(f.Items))
	for i := range f.Users {
		for j := range f.Items {
			pred[i][j] = floats.Dot(f.Users[i], f.Items[j]) + f.MeanRating
		}
	}
	return pred
}

// FactorsFromModel deep copies the MAP estimate out of a fitted model, for
// seeding a sampler.
func FactorsFromModel(m *model.PMF) Factors {
	return Factors{
		Users:      base.CopyMatrix(m.Users),
		Items:      base.CopyMatrix(m.Items),
		MeanRating: m.MeanRating,
	}
}
