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
	"context"
	"time"

	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/base/progress"
	"github.com/gorse-io/bpmf/bayes"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/gorse-io/bpmf/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Config holds the tunables of one active-query run.
type Config struct {
	// BurnIn is the number of discarded leading samples per batch. Default
	// is 0.
	BurnIn int
	// Samples is the number of retained posterior samples per batch. Default
	// is 128.
	Samples int
	// Steps caps the number of revealed cells. Zero means run until no
	// unrated cells remain.
	Steps int
	// Sampler configures the Gibbs chains. The seed is advanced per batch so
	// successive chains do not repeat each other.
	Sampler bayes.Config
}

func (config Config) fillDefaults() Config {
	if config.Samples <= 0 {
		config.Samples = 128
	}
	return config
}

// Step is one entry of the RMSE trajectory: the state of the run after a cell
// has been revealed and the model refit. Cell and Scores are nil on the
// initial entry; Scores is also nil when the reveal short-circuited scoring.
type Step struct {
	NumKnown int
	RMSE     float64
	Cell     *dataset.Cell
	Scores   [][]float64
}

// Run reveals cells of the ground-truth matrix one at a time, each time
// picking the unrated cell the strategy scores highest, refitting the model
// from scratch and drawing a fresh batch of posterior samples. Ties are
// broken by row-major order: the first maximum wins. A single remaining
// unrated cell is selected directly, without scoring.
//
// The model is fit first unless it already carries a fit. The returned
// trajectory starts with an entry for the initial state.
func Run(ctx context.Context, m *model.PMF, truth [][]float64, strategy Strategy, config Config) ([]Step, error) {
	config = config.fillDefaults()
	if m.Users == nil {
		if err := m.Fit(ctx); err != nil {
			return nil, errors.Trace(err)
		}
	}
	samples, err := drawBatch(ctx, m, config, 0)
	if err != nil {
		return nil, errors.Trace(err)
	}
	total := len(m.UnratedCells())
	if config.Steps > 0 && config.Steps < total {
		total = config.Steps
	}
	newCtx, span := progress.Start(ctx, "active.Run", total)
	defer span.End()

	trajectory := []Step{{NumKnown: m.NumRated(), RMSE: bayes.RMSE(samples, truth)}}
	for batch := 1; ; batch++ {
		unrated := m.UnratedCells()
		if len(unrated) == 0 || (config.Steps > 0 && batch > config.Steps) {
			break
		}
		stepStart := time.Now()
		var cell dataset.Cell
		var scores [][]float64
		if len(unrated) == 1 {
			// A score matrix over a single candidate is pointless.
			cell = unrated[0]
		} else {
			scores = strategy.Score(samples, len(truth), len(truth[0]))
			cell = unrated[0]
			best := scores[cell.Row][cell.Col]
			for _, candidate := range unrated[1:] {
				if scores[candidate.Row][candidate.Col] > best {
					best = scores[candidate.Row][candidate.Col]
					cell = candidate
				}
			}
		}
		m.AddRating(cell.Row, cell.Col, truth[cell.Row][cell.Col])
		if err := m.Fit(newCtx); err != nil {
			return nil, errors.Trace(err)
		}
		if samples, err = drawBatch(newCtx, m, config, batch); err != nil {
			return nil, errors.Trace(err)
		}
		rmse := bayes.RMSE(samples, truth)
		trajectory = append(trajectory, Step{
			NumKnown: m.NumRated(),
			RMSE:     rmse,
			Cell:     &dataset.Cell{Row: cell.Row, Col: cell.Col},
			Scores:   scores,
		})
		span.Add(1)
		log.Logger().Debug("revealed cell",
			zap.String("strategy", strategy.Name()),
			zap.Int("row", cell.Row),
			zap.Int("col", cell.Col),
			zap.Int("n_known", m.NumRated()),
			zap.Float64("rmse", rmse),
			zap.Duration("step_time", time.Since(stepStart)))
	}
	return trajectory, nil
}

// drawBatch runs a fresh Gibbs chain seeded from the model's current fit.
func drawBatch(ctx context.Context, m *model.PMF, config Config, batch int) ([]bayes.Factors, error) {
	samplerConfig := config.Sampler
	samplerConfig.Seed += int64(batch)
	sampler := bayes.NewSampler(bayes.FactorsFromModel(m), m.Ratings(), samplerConfig)
	samples, err := sampler.Collect(ctx, config.BurnIn, config.Samples)
	return samples, errors.Trace(err)
}
