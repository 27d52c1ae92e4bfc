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
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gorse-io/bpmf/base"
	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/base/progress"
	"github.com/gorse-io/bpmf/common/floats"
	"github.com/gorse-io/bpmf/common/parallel"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// DefaultPushTimeout bounds a worker's wait when pushing onto the result
// channel. A push that cannot complete within the timeout means the consumer
// is stuck or gone, which is fatal for the whole pipeline.
const DefaultPushTimeout = 5 * time.Second

// Config holds the tunables of the ensemble evaluation pipeline.
type Config struct {
	// NumFits is the ensemble size. Must be odd when Pick is negative, so the
	// median is well-defined.
	NumFits int
	// Pick is the index into the sorted ensemble RMSEs retained as the robust
	// estimate. Negative means the middle index.
	Pick int
	// Workers is the worker count. Non-positive means GOMAXPROCS.
	Workers int
	// Seed of the per-fit random initializations.
	Seed int64
	// PushTimeout overrides DefaultPushTimeout when positive.
	PushTimeout time.Duration
}

func (config Config) validate() (Config, error) {
	if config.NumFits <= 0 {
		return config, errors.NotValidf("num_fits %d", config.NumFits)
	}
	if config.Pick < 0 {
		if config.NumFits%2 == 0 {
			return config, errors.NotValidf("num_fits %d must be odd when no pick index is given", config.NumFits)
		}
		config.Pick = config.NumFits / 2
	}
	if config.Pick >= config.NumFits {
		return config, errors.NotValidf("pick index %d out of range for %d fits", config.Pick, config.NumFits)
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.PushTimeout <= 0 {
		config.PushTimeout = DefaultPushTimeout
	}
	return config, nil
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Baseline is the robust RMSE of fits over the current known set.
	Baseline float64
	// BaselineRMSEs is the sorted baseline ensemble.
	BaselineRMSEs []float64
	// CellRMSEs maps each unobserved cell to its sorted ensemble RMSEs.
	CellRMSEs map[dataset.Cell][]float64
	// Boosts is Baseline minus each cell's robust RMSE, NaN at known cells.
	Boosts [][]float64
}

// cellJob asks a worker for one cell's ensemble, or tells it to stop.
type cellJob struct {
	cell dataset.Cell
	stop bool
}

// cellResult carries one cell's sorted ensemble RMSEs back to the main
// goroutine, or a worker's done marker.
type cellResult struct {
	cell  dataset.Cell
	rmses []float64
	err   error
	done  bool
}

// Evaluate estimates, for every unobserved cell, the RMSE achievable by
// refitting with that cell revealed. Each cell gets an ensemble of NumFits
// independently-initialized fits; the Pick-th smallest RMSE is retained as
// the cell's robust estimate. Cells are distributed over a fixed pool of
// workers; results are harvested in arrival order.
//
// The pipeline runs to completion or fails fatally. A worker whose result
// push times out aborts the whole run.
func Evaluate(ctx context.Context, truth [][]float64, known *dataset.Mask, fit FitFunc, config Config) (*Result, error) {
	config, err := config.validate()
	if err != nil {
		return nil, errors.Trace(err)
	}
	evalStart := time.Now()

	baselineRMSEs, err := ensembleRMSEs(ctx, truth, known, fit, config, config.Seed, config.Workers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	result := &Result{
		Baseline:      baselineRMSEs[config.Pick],
		BaselineRMSEs: baselineRMSEs,
		CellRMSEs:     make(map[dataset.Cell][]float64),
		Boosts:        dataset.NewNaNMatrix(known.Rows(), known.Cols()),
	}
	log.Logger().Info("computed baseline",
		zap.Float64("baseline_rmse", result.Baseline),
		zap.Int("num_fits", config.NumFits))

	cells := known.UnknownCells()
	newCtx, span := progress.Start(ctx, "ensemble.Evaluate", len(cells))
	defer span.End()

	// One job per unobserved cell, then one stop marker per worker. The job
	// channel holds everything up-front; only the result channel is bounded.
	jobs := make(chan cellJob, len(cells)+config.Workers)
	for _, cell := range cells {
		jobs <- cellJob{cell: cell}
	}
	for p := 0; p < config.Workers; p++ {
		jobs <- cellJob{stop: true}
	}
	close(jobs)

	results := make(chan cellResult, config.Workers)
	pushErrs := make([]error, config.Workers)
	var wg sync.WaitGroup
	for p := 0; p < config.Workers; p++ {
		workerId := p
		wg.Go(func() {
			defer base.CheckPanic()
			for job := range jobs {
				if job.stop {
					pushErrs[workerId] = pushResult(results, cellResult{done: true}, config.PushTimeout)
					return
				}
				revealed := known.Clone()
				revealed.Set(job.cell.Row, job.cell.Col)
				seed := config.Seed + int64(job.cell.Row*known.Cols()+job.cell.Col+1)*int64(config.NumFits)
				rmses, err := ensembleRMSEs(newCtx, truth, revealed, fit, config, seed, 1)
				res := cellResult{cell: job.cell, rmses: rmses, err: errors.Trace(err)}
				if pushErr := pushResult(results, res, config.PushTimeout); pushErr != nil {
					pushErrs[workerId] = pushErr
					return
				}
			}
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Drain until every worker has either sent its done marker or recorded a
	// push timeout. Per-cell results arrive in no particular order.
	doneCount := 0
	var firstErr error
	for res := range results {
		if res.done {
			doneCount++
			continue
		}
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		result.CellRMSEs[res.cell] = res.rmses
		result.Boosts[res.cell.Row][res.cell.Col] = result.Baseline - res.rmses[config.Pick]
		span.Add(1)
	}
	for _, pushErr := range pushErrs {
		if pushErr != nil {
			return nil, errors.Trace(pushErr)
		}
	}
	if firstErr != nil {
		return nil, errors.Trace(firstErr)
	}
	if doneCount != config.Workers {
		return nil, errors.Errorf("expected %d done markers, got %d", config.Workers, doneCount)
	}
	log.Logger().Info("evaluated ensemble",
		zap.Int("n_cells", len(cells)),
		zap.Int("workers", config.Workers),
		zap.Duration("eval_time", time.Since(evalStart)))
	return result, nil
}

// pushResult pushes one result within the bounded wait.
func pushResult(results chan<- cellResult, res cellResult, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case results <- res:
		return nil
	case <-timer.C:
		return errors.Timeoutf("pushing result after %v", timeout)
	}
}

// ensembleRMSEs runs NumFits independent fits over the given mask and returns
// their RMSEs sorted ascending.
func ensembleRMSEs(ctx context.Context, truth [][]float64, known *dataset.Mask, fit FitFunc, config Config, seed int64, workers int) ([]float64, error) {
	rmses := make([]float64, config.NumFits)
	err := parallel.Parallel(ctx, config.NumFits, workers, func(_, jobId int) error {
		pred, err := fit(ctx, truth, known, seed+int64(jobId))
		if err != nil {
			return errors.Trace(err)
		}
		rmses[jobId] = floats.RMSE(pred, truth)
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	sort.Float64s(rmses)
	return rmses, nil
}
