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

	"github.com/gorse-io/bpmf/base"
	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/dataset"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var datasetCommand = &cobra.Command{
	Use:   "dataset DATA_FILE",
	Short: "Generate a synthetic low-rank dataset",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		if cmd.Flags().Changed("num-users") {
			conf.Dataset.NumUsers, _ = cmd.Flags().GetInt("num-users")
		}
		if cmd.Flags().Changed("num-items") {
			conf.Dataset.NumItems, _ = cmd.Flags().GetInt("num-items")
		}
		if cmd.Flags().Changed("latent-d") {
			conf.Dataset.LatentD, _ = cmd.Flags().GetInt("latent-d")
		}
		if cmd.Flags().Changed("num-ratings") {
			conf.Dataset.NumRatings, _ = cmd.Flags().GetInt("num-ratings")
		}
		if cmd.Flags().Changed("noise") {
			conf.Dataset.Noise, _ = cmd.Flags().GetFloat64("noise")
		}
		if cmd.Flags().Changed("seed") {
			conf.Dataset.Seed, _ = cmd.Flags().GetInt64("seed")
		}

		rng := base.NewRandomGenerator(conf.Dataset.Seed)
		real, ratings := dataset.GenerateRatings(conf.Dataset.NumUsers, conf.Dataset.NumItems,
			conf.Dataset.LatentD, conf.Dataset.NumRatings, conf.Dataset.Noise, rng)
		record := &dataset.Record{Real: real, Ratings: ratings}
		path := args[0]
		if err := dataset.SaveRecord(path, record); err != nil {
			log.Logger().Fatal("failed to save record", zap.String("path", path), zap.Error(err))
		}

		table := tablewriter.NewTable(os.Stdout)
		table.Header("Users", "Items", "Latent D", "Known", "Unknown")
		_ = table.Append([]string{
			fmt.Sprint(conf.Dataset.NumUsers),
			fmt.Sprint(conf.Dataset.NumItems),
			fmt.Sprint(conf.Dataset.LatentD),
			fmt.Sprint(len(ratings)),
			fmt.Sprint(conf.Dataset.NumUsers*conf.Dataset.NumItems - len(ratings)),
		})
		_ = table.Render()
	},
}

func init() {
	datasetCommand.Flags().Int("num-users", 10, "number of rows of the rating matrix")
	datasetCommand.Flags().Int("num-items", 10, "number of columns of the rating matrix")
	datasetCommand.Flags().Int("latent-d", 5, "latent dimensionality of the generated matrix")
	datasetCommand.Flags().Int("num-ratings", 15, "number of revealed cells")
	datasetCommand.Flags().Float64("noise", 0.25, "standard deviation of the observation noise")
	datasetCommand.Flags().Int64("seed", 0, "random seed")
}
