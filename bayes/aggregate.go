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
)

// Predict returns the mean reconstruction over a finite batch of posterior
// samples, computed as a running mean.
func Predict(samples []Factors) [][]float64 {
	if len(samples) == 0 {
		return nil
	}
	mean := samples[0].Predicted()
	for k := 1; k < len(samples); k++ {
		pred := samples[k].Predicted()
		w := 1 / float64(k+1)
		for i := range mean {
			for j := range mean[i] {
				mean[i][j] += (pred[i][j] - mean[i][j]) * w
			}
		}
	}
	return mean
}

// Variance returns the per-cell variance of the reconstruction over a batch
// of posterior samples.
func Variance(samples []Factors) [][]float64 {
	if len(samples) == 0 {
		return nil
	}
	rows, cols := len(samples[0].Users), len(samples[0].Items)
	sum := base.NewMatrix(rows, cols)
	sumSq := base.NewMatrix(rows, cols)
	for _, sample := range samples {
		pred := sample.Predicted()
		for i := range pred {
			for j := range pred[i] {
				sum[i][j] += pred[i][j]
				sumSq[i][j] += pred[i][j] * pred[i][j]
			}
		}
	}
	n := float64(len(samples))
	variance := base.NewMatrix(rows, cols)
	for i := range variance {
		for j := range variance[i] {
			mean := sum[i][j] / n
			variance[i][j] = sumSq[i][j]/n - mean*mean
		}
	}
	return variance
}

// ProbGreaterEqual returns, per cell, the fraction of samples whose
// reconstruction is greater than or equal to cutoff.
func ProbGreaterEqual(samples []Factors, cutoff float64) [][]float64 {
	if len(samples) == 0 {
		return nil
	}
	rows, cols := len(samples[0].Users), len(samples[0].Items)
	counts := base.NewMatrix(rows, cols)
	for _, sample := range samples {
		pred := sample.Predicted()
		for i := range pred {
			for j := range pred[i] {
				if pred[i][j] >= cutoff {
					counts[i][j]++
				}
			}
		}
	}
	n := float64(len(samples))
	for i := range counts {
		for j := range counts[i] {
			counts[i][j] /= n
		}
	}
	return counts
}

// RMSE returns the root-mean-square error of the posterior-mean prediction
// against the ground truth.
func RMSE(samples []Factors, truth [][]float64) float64 {
	return floats.RMSE(Predict(samples), truth)
}
