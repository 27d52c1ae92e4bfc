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
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/gorse-io/bpmf/base/encoding"
	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/gorse-io/bpmf/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Results is the persisted outcome of one strategy comparison: the dataset it
// ran on, the shared initial MAP fit, and one RMSE trajectory per strategy.
type Results struct {
	Real         [][]float64
	Ratings      []dataset.Rating
	RatingVals   []float64
	InitialModel []byte
	Trajectories map[string][]Step
}

// Write the results to a byte stream.
func (r *Results) Write(w io.Writer) error {
	return errors.Trace(encoding.WriteGob(w, r))
}

// Read the results from a byte stream.
func (r *Results) Read(rd io.Reader) error {
	return errors.Trace(encoding.ReadGob(rd, r))
}

// SaveResults writes comparison results to a file.
func SaveResults(path string, results *Results) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err := results.Write(f); err != nil {
		_ = f.Close()
		return errors.Trace(err)
	}
	return errors.Trace(f.Close())
}

// LoadResults reads comparison results from a file.
func LoadResults(path string) (*Results, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	results := new(Results)
	if err := results.Read(f); err != nil {
		return nil, errors.Trace(err)
	}
	return results, nil
}

// Compare runs the active-query loop once per named strategy over the same
// dataset, starting every strategy from one shared initial MAP fit. Strategy
// names are validated before any fitting work starts.
func Compare(ctx context.Context, record *dataset.Record, names []string, params model.Params, config Config) (*Results, error) {
	strategies := make([]Strategy, 0, len(names))
	for i, name := range names {
		strategy, err := New(name, config.Sampler.Seed+int64(i))
		if err != nil {
			return nil, errors.Trace(err)
		}
		strategies = append(strategies, strategy)
	}

	numUsers, numItems := len(record.Real), len(record.Real[0])
	shared := model.NewPMF(numUsers, numItems, record.Ratings, params)
	if err := shared.Fit(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	var buf bytes.Buffer
	if err := shared.Marshal(&buf); err != nil {
		return nil, errors.Trace(err)
	}

	results := &Results{
		Real:         record.Real,
		Ratings:      record.Ratings,
		RatingVals:   record.RatingVals,
		InitialModel: buf.Bytes(),
		Trajectories: make(map[string][]Step),
	}
	for _, strategy := range strategies {
		start := time.Now()
		trajectory, err := Run(ctx, shared.Clone(), record.Real, strategy, config)
		if err != nil {
			return nil, errors.Trace(err)
		}
		results.Trajectories[strategy.Name()] = trajectory
		log.Logger().Info("compared strategy",
			zap.String("strategy", strategy.Name()),
			zap.Int("steps", len(trajectory)-1),
			zap.Float64("final_rmse", trajectory[len(trajectory)-1].RMSE),
			zap.Duration("run_time", time.Since(start)))
	}
	return results, nil
}
