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

	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// AddBoosts computes the RMSE boost map for the dataset record at path and
// writes it back in place with the atomic update protocol. A record that
// already has boosts is left untouched unless force is set.
func AddBoosts(ctx context.Context, path string, fit FitFunc, config Config, force bool) error {
	record, err := dataset.LoadRecord(path)
	if err != nil {
		return errors.Trace(err)
	}
	if record.HasBoosts() && !force {
		log.Logger().Info("record already has boosts, skipping",
			zap.String("path", path))
		return nil
	}
	result, err := Evaluate(ctx, record.Real, record.Mask(), fit, config)
	if err != nil {
		return errors.Trace(err)
	}
	record.RMSEBoosts = result.Boosts
	record.ChildRMSEs = result.CellRMSEs
	if err := dataset.UpdateRecord(path, record); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("updated record",
		zap.String("path", path),
		zap.Float64("baseline_rmse", result.Baseline),
		zap.Int("n_boosted_cells", len(result.CellRMSEs)))
	return nil
}
