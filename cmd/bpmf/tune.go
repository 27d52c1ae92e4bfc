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

package main

import (
	"fmt"
	"os"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/gorse-io/bpmf/base"
	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/gorse-io/bpmf/model"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tuneCommand = &cobra.Command{
	Use:   "tune DATA_FILE",
	Short: "Search hyper-parameters of the MAP fitter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		trials, _ := cmd.Flags().GetInt("trials")
		testSize, _ := cmd.Flags().GetInt("test-size")
		seed, _ := cmd.Flags().GetInt64("seed")

		path := args[0]
		record, err := dataset.LoadRecord(path)
		if err != nil {
			log.Logger().Fatal("failed to load record", zap.String("path", path), zap.Error(err))
		}
		rng := base.NewRandomGenerator(seed)
		train, test := dataset.Split(record.Ratings, testSize, rng)
		if len(test) == 0 {
			log.Logger().Fatal("empty test set", zap.Int("n_ratings", len(record.Ratings)))
		}
		numUsers, numItems := len(record.Real), len(record.Real[0])
		search := model.NewParamsSearch(func() model.SearchModel {
			return model.NewPMF(numUsers, numItems, train, modelParams(conf))
		}, test)

		study, err := goptuna.CreateStudy("bpmf-tune",
			goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
			goptuna.StudyOptionSampler(tpe.NewSampler()))
		if err != nil {
			log.Logger().Fatal("failed to create study", zap.Error(err))
		}
		bar := progressbar.Default(int64(trials), "tune")
		err = study.Optimize(func(trial goptuna.Trial) (float64, error) {
			defer func() { _ = bar.Add(1) }()
			return search.Objective(trial)
		}, trials)
		if err != nil {
			log.Logger().Fatal("failed to optimize", zap.Error(err))
		}

		result := search.Result()
		table := tablewriter.NewTable(os.Stdout)
		table.Header("Hyper-parameter", "Value")
		for _, name := range []model.ParamName{model.NFactors, model.Lr, model.SigmaU, model.SigmaV} {
			_ = table.Append([]string{string(name), fmt.Sprint(result.Params[name])})
		}
		_ = table.Append([]string{"test RMSE", fmt.Sprintf("%.6f", result.RMSE)})
		_ = table.Render()
	},
}

func init() {
	tuneCommand.Flags().Int("trials", 30, "number of TPE trials")
	tuneCommand.Flags().Int("test-size", 5, "held-out ratings for scoring trials")
	tuneCommand.Flags().Int64("seed", 0, "random seed of the train/test split")
}
