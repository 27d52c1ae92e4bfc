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
	"math"
	"os"
	"sort"

	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/gorse-io/bpmf/ensemble"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var boostCommand = &cobra.Command{
	Use:   "boost DATA_FILE",
	Short: "Compute the RMSE boost map of a dataset",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		if cmd.Flags().Changed("num-fits") {
			conf.Boost.NumFits, _ = cmd.Flags().GetInt("num-fits")
		}
		if cmd.Flags().Changed("pick") {
			conf.Boost.Pick, _ = cmd.Flags().GetInt("pick")
		}
		if cmd.Flags().Changed("workers") {
			conf.Boost.Workers, _ = cmd.Flags().GetInt("workers")
		}
		if cmd.Flags().Changed("bayes") {
			conf.Boost.Bayes, _ = cmd.Flags().GetBool("bayes")
		}
		if cmd.Flags().Changed("latent-d") {
			conf.Boost.LatentD, _ = cmd.Flags().GetInt("latent-d")
		}
		force, _ := cmd.Flags().GetBool("force")

		fit := ensemble.MAPFit(boostParams(conf))
		if conf.Boost.Bayes {
			fit = ensemble.BayesFit(boostParams(conf), conf.Active.BurnIn, conf.Active.Samples)
		}
		path := args[0]
		err := ensemble.AddBoosts(cmd.Context(), path, fit, ensemble.Config{
			NumFits:     conf.Boost.NumFits,
			Pick:        conf.Boost.Pick,
			Workers:     conf.Boost.Workers,
			PushTimeout: conf.Boost.PushTimeout,
		}, force)
		if err != nil {
			log.Logger().Fatal("failed to add boosts", zap.String("path", path), zap.Error(err))
		}

		record, err := dataset.LoadRecord(path)
		if err != nil {
			log.Logger().Fatal("failed to load record", zap.String("path", path), zap.Error(err))
		}
		printTopBoosts(record, 10)
	},
}

// printTopBoosts prints the most valuable cells to acquire.
func printTopBoosts(record *dataset.Record, limit int) {
	type boost struct {
		cell  dataset.Cell
		value float64
	}
	boosts := make([]boost, 0)
	for i := range record.RMSEBoosts {
		for j := range record.RMSEBoosts[i] {
			if !math.IsNaN(record.RMSEBoosts[i][j]) {
				boosts = append(boosts, boost{dataset.Cell{Row: i, Col: j}, record.RMSEBoosts[i][j]})
			}
		}
	}
	sort.Slice(boosts, func(i, j int) bool {
		return boosts[i].value > boosts[j].value
	})
	if limit > len(boosts) {
		limit = len(boosts)
	}
	table := tablewriter.NewTable(os.Stdout)
	table.Header("Row", "Col", "RMSE Boost")
	for _, b := range boosts[:limit] {
		_ = table.Append([]string{
			fmt.Sprint(b.cell.Row),
			fmt.Sprint(b.cell.Col),
			fmt.Sprintf("%.6f", b.value),
		})
	}
	_ = table.Render()
}

func init() {
	boostCommand.Flags().Int("num-fits", 5, "ensemble size per cell")
	boostCommand.Flags().Int("pick", -1, "index into the sorted ensemble RMSEs (negative for the median)")
	boostCommand.Flags().Int("workers", 0, "worker count (0 for all cores)")
	boostCommand.Flags().Bool("bayes", false, "use posterior-mean fits instead of MAP fits")
	boostCommand.Flags().Bool("force", false, "recompute boosts even if the record already has them")
	boostCommand.Flags().Int("latent-d", 1, "latent dimensionality of the ensemble fits")
}
