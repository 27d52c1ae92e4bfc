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
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/bpmf/dataset"
	"github.com/stretchr/testify/assert"
)

func writeBoostRecord(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "data.gob")
	record := &dataset.Record{
		Real: [][]float64{{1, 2}, {3, 4}},
		Ratings: []dataset.Rating{
			{User: 0, Item: 0, Value: 1},
			{User: 0, Item: 1, Value: 2},
			{User: 1, Item: 0, Value: 3},
		},
	}
	assert.NoError(t, dataset.SaveRecord(path, record))
	return path
}

func identityFit(_ context.Context, truth [][]float64, _ *dataset.Mask, _ int64) ([][]float64, error) {
	return truth, nil
}

func TestAddBoosts(t *testing.T) {
	path := writeBoostRecord(t)
	config := Config{NumFits: 3, Pick: -1, Workers: 2}
	assert.NoError(t, AddBoosts(context.Background(), path, identityFit, config, false))

	record, err := dataset.LoadRecord(path)
	assert.NoError(t, err)
	assert.True(t, record.HasBoosts())
	assert.Len(t, record.ChildRMSEs, 1)
	assert.Contains(t, record.ChildRMSEs, dataset.Cell{Row: 1, Col: 1})
	// the backup holds the boost-less original
	backup, err := dataset.LoadRecord(path + ".bak")
	assert.NoError(t, err)
	assert.False(t, backup.HasBoosts())
}

// Re-running without force must leave the file byte-identical.
func TestAddBoostsIdempotent(t *testing.T) {
	path := writeBoostRecord(t)
	config := Config{NumFits: 3, Pick: -1, Workers: 2}
	assert.NoError(t, AddBoosts(context.Background(), path, identityFit, config, false))
	before, err := os.ReadFile(path)
	assert.NoError(t, err)

	assert.NoError(t, AddBoosts(context.Background(), path, identityFit, config, false))
	after, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, before, after)
}

// With force the boosts are recomputed and the file rewritten.
func TestAddBoostsForce(t *testing.T) {
	path := writeBoostRecord(t)
	config := Config{NumFits: 3, Pick: -1, Workers: 2}
	assert.NoError(t, AddBoosts(context.Background(), path, identityFit, config, false))

	biasedFit := func(_ context.Context, truth [][]float64, _ *dataset.Mask, _ int64) ([][]float64, error) {
		pred := make([][]float64, len(truth))
		for i := range truth {
			pred[i] = make([]float64, len(truth[i]))
			for j := range truth[i] {
				pred[i][j] = truth[i][j] + 1
			}
		}
		return pred, nil
	}
	assert.NoError(t, AddBoosts(context.Background(), path, biasedFit, config, true))
	record, err := dataset.LoadRecord(path)
	assert.NoError(t, err)
	// boost = baseline - per-cell robust RMSE = 1 - 1 = 0 under a constant bias
	assert.InDelta(t, 0, record.RMSEBoosts[1][1], 1e-12)
}

func TestAddBoostsMissingFile(t *testing.T) {
	err := AddBoosts(context.Background(), filepath.Join(t.TempDir(), "nope.gob"),
		identityFit, Config{NumFits: 1, Pick: 0}, false)
	assert.Error(t, err)
}
