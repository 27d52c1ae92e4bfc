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
	"math"

	"github.com/gorse-io/bpmf/common/floats"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// normalWishartPrior is the conjugate prior of one side's hyperparameters.
type normalWishartPrior struct {
	wi  *mat.SymDense // Wishart scale matrix (d x d)
	b0  float64       // scale on the Gaussian's precision
	df  float64       // degrees of freedom
	mu0 []float64     // mean of the Gaussian
}

func defaultPrior(d int) normalWishartPrior {
	wi := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		wi.SetSym(i, i, 1)
	}
	return normalWishartPrior{
		wi:  wi,
		b0:  2,
		df:  float64(d),
		mu0: make([]float64, d),
	}
}

// sampleWishart draws a precision matrix from the Wishart distribution with
// the given scale matrix and degrees of freedom. Small integral degrees of
// freedom use direct sampling; otherwise the Bartlett decomposition with
// chi-squared diagonal entries is used.
func (s *Sampler) sampleWishart(sigma *mat.SymDense, dof float64) (*mat.SymDense, error) {
	n := sigma.SymmetricDim()
	var chol mat.Cholesky
	if !chol.Factorize(sigma) {
		return nil, errors.New("wishart scale matrix is not positive definite")
	}
	var l mat.TriDense
	chol.LTo(&l)
	var x mat.Dense
	if dof <= float64(81+n) && dof == math.Round(dof) {
		// direct
		z := mat.NewDense(n, int(dof), nil)
		for i := 0; i < n; i++ {
			for j := 0; j < int(dof); j++ {
				z.Set(i, j, s.rng.NormFloat64())
			}
		}
		x.Mul(&l, z)
	} else {
		// Bartlett decomposition
		a := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			chi := distuv.ChiSquared{K: dof - float64(i), Src: s.src}
			a.Set(i, i, math.Sqrt(chi.Rand()))
			for j := 0; j < i; j++ {
				a.Set(i, j, s.rng.NormFloat64())
			}
		}
		x.Mul(&l, a)
	}
	w := mat.NewSymDense(n, nil)
	w.SymOuterK(1, &x)
	return w, nil
}

// sampleHyper draws one side's (mu, alpha) hyperparameters conditional on the
// current factor matrix, from the Normal-Wishart posterior.
func (s *Sampler) sampleHyper(feats [][]float64, prior normalWishartPrior) ([]float64, *mat.SymDense, error) {
	n := float64(len(feats))
	d := s.d
	dense := rowsToDense(feats)
	xBar := make([]float64, d)
	for j := 0; j < d; j++ {
		var sum float64
		for i := range feats {
			sum += feats[i][j]
		}
		xBar[j] = sum / n
	}
	sBar := mat.NewSymDense(d, nil)
	stat.CovarianceMatrix(sBar, dense, nil)

	// posterior Wishart scale:
	// inv(inv(wi) + N*S_bar + (b0*N)/(b0+N) * (mu0-xbar)(mu0-xbar)^T)
	var wiInv mat.Dense
	if err := wiInv.Inverse(prior.wi); err != nil {
		return nil, nil, errors.Trace(err)
	}
	diffData := make([]float64, d)
	floats.SubTo(prior.mu0, xBar, diffData)
	diff := mat.NewVecDense(d, diffData)
	var inner mat.Dense
	inner.Scale(n, sBar)
	inner.Add(&inner, &wiInv)
	var corr mat.Dense
	corr.Outer(prior.b0*n/(prior.b0+n), diff, diff)
	inner.Add(&inner, &corr)
	var post mat.Dense
	if err := post.Inverse(&inner); err != nil {
		return nil, nil, errors.Trace(err)
	}
	wiPost := symmetrize(&post)

	alpha, err := s.sampleWishart(wiPost, prior.df+n)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}

	// mu ~ N((b0*mu0 + N*xbar)/(b0+N), inv((b0+N)*alpha))
	muTemp := make([]float64, d)
	for j := 0; j < d; j++ {
		muTemp[j] = (prior.b0*prior.mu0[j] + n*xBar[j]) / (prior.b0 + n)
	}
	scaled := mat.NewSymDense(d, nil)
	scaled.ScaleSym(prior.b0+n, alpha)
	var alphaChol mat.Cholesky
	if !alphaChol.Factorize(scaled) {
		return nil, nil, errors.New("precision matrix is not positive definite")
	}
	var muCov mat.SymDense
	if err := alphaChol.InverseTo(&muCov); err != nil {
		return nil, nil, errors.Trace(err)
	}
	normal, ok := distmv.NewNormal(muTemp, &muCov, s.src)
	if !ok {
		return nil, nil, errors.New("mean covariance is not positive definite")
	}
	mu := normal.Rand(nil)
	return mu, alpha, nil
}

// sampleFeature draws one user/item feature vector conditional on the entire
// matrix of other item/user features and this side's hyperparameters.
func (s *Sampler) sampleFeature(mu []float64, alpha *mat.SymDense, othFeats [][]float64, rated ratedIndex, meanRating float64) ([]float64, error) {
	d := s.d
	// cov = inv(alpha + beta * X^T X)
	prec := mat.NewSymDense(d, nil)
	prec.CopySym(alpha)
	for _, idx := range rated.indices {
		x := mat.NewVecDense(d, othFeats[idx])
		prec.SymRankOne(prec, s.beta, x)
	}
	var precChol mat.Cholesky
	if !precChol.Factorize(prec) {
		return nil, errors.New("conditional covariance is not positive definite")
	}
	var cov mat.SymDense
	if err := precChol.InverseTo(&cov); err != nil {
		return nil, errors.Trace(err)
	}
	// mean = cov * (beta * X^T (r - mean_rating) + alpha * mu)
	b := mat.NewVecDense(d, nil)
	for k, idx := range rated.indices {
		x := mat.NewVecDense(d, othFeats[idx])
		b.AddScaledVec(b, s.beta*(rated.values[k]-meanRating), x)
	}
	var alphaMu mat.VecDense
	alphaMu.MulVec(alpha, mat.NewVecDense(d, mu))
	b.AddVec(b, &alphaMu)
	var mean mat.VecDense
	mean.MulVec(&cov, b)
	normal, ok := distmv.NewNormal(mean.RawVector().Data, &cov, s.src)
	if !ok {
		return nil, errors.New("conditional covariance is not positive definite")
	}
	return normal.Rand(nil), nil
}

func rowsToDense(rows [][]float64) *mat.Dense {
	r, c := len(rows), len(rows[0])
	dense := mat.NewDense(r, c, nil)
	for i := range rows {
		dense.SetRow(i, rows[i])
	}
	return dense
}

func symmetrize(m *mat.Dense) *mat.SymDense {
	r, _ := m.Dims()
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return sym
}
