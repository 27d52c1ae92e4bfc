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
	"sort"

	"github.com/gorse-io/bpmf/active"
	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/bayes"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var activeCommand = &cobra.Command{
	Use:   "active DATA_FILE",
	Short: "Compare active-query strategies on a dataset",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		if cmd.Flags().Changed("strategies") {
			conf.Active.Strategies, _ = cmd.Flags().GetStringSlice("strategies")
			if err := conf.Validate(); err != nil {
				log.Logger().Fatal("invalid strategies", zap.Strings("strategies", conf.Active.Strategies), zap.Error(err))
			}
		}
		if cmd.Flags().Changed("samples") {
			conf.Active.Samples, _ = cmd.Flags().GetInt("samples")
		}
		if cmd.Flags().Changed("burn-in") {
			conf.Active.BurnIn, _ = cmd.Flags().GetInt("burn-in")
		}
		if cmd.Flags().Changed("steps") {
			conf.Active.Steps, _ = cmd.Flags().GetInt("steps")
		}
		if cmd.Flags().Changed("latent-d") {
			conf.Model.LatentD, _ = cmd.Flags().GetInt("latent-d")
		}
		savePath, _ := cmd.Flags().GetString("save")

		path := args[0]
		record, err := dataset.LoadRecord(path)
		if err != nil {
			log.Logger().Fatal("failed to load record", zap.String("path", path), zap.Error(err))
		}
		results, err := active.Compare(cmd.Context(), record, conf.Active.Strategies, modelParams(conf), active.Config{
			BurnIn:  conf.Active.BurnIn,
			Samples: conf.Active.Samples,
			Steps:   conf.Active.Steps,
			Sampler: bayes.Config{Seed: conf.Active.Seed},
		})
		if err != nil {
			log.Logger().Fatal("failed to compare strategies", zap.Error(err))
		}
		if savePath != "" {
			if err := active.SaveResults(savePath, results); err != nil {
				log.Logger().Fatal("failed to save results", zap.String("path", savePath), zap.Error(err))
			}
		}

		names := make([]string, 0, len(results.Trajectories))
		for name := range results.Trajectories {
			names = append(names, name)
		}
		sort.Strings(names)
		table := tablewriter.NewTable(os.Stdout)
		table.Header("Strategy", "Initial RMSE", "Final RMSE", "Reveals")
		for _, name := range names {
			trajectory := results.Trajectories[name]
			_ = table.Append([]string{
				name,
				fmt.Sprintf("%.6f", trajectory[0].RMSE),
				fmt.Sprintf("%.6f", trajectory[len(trajectory)-1].RMSE),
				fmt.Sprint(len(trajectory) - 1),
			})
		}
		_ = table.Render()
	},
}

func init() {
	activeCommand.Flags().StringSlice("strategies", []string{"random", "pred-variance"},
		fmt.Sprintf("strategies to compare (options are %v)", active.Names()))
	activeCommand.Flags().Int("samples", 128, "posterior samples per batch")
	activeCommand.Flags().Int("burn-in", 0, "discarded leading samples per batch")
	activeCommand.Flags().Int("steps", 0, "cap on revealed cells (0 for no cap)")
	activeCommand.Flags().Int("latent-d", 5, "latent dimensionality of the model")
	activeCommand.Flags().String("save", "", "path to save comparison results")
}
