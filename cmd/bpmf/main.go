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

	"github.com/gorse-io/bpmf/base/log"
	"github.com/gorse-io/bpmf/cmd/version"
	"github.com/gorse-io/bpmf/config"
	"github.com/gorse-io/bpmf/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "bpmf",
	Short: "Bayesian probabilistic matrix factorization toolkit.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Root().PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.Root().PersistentFlags(), debug)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Check the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().BoolP("version", "v", false, "bpmf version")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.AddCommand(datasetCommand)
	rootCommand.AddCommand(boostCommand)
	rootCommand.AddCommand(activeCommand)
	rootCommand.AddCommand(tuneCommand)
	rootCommand.AddCommand(versionCommand)
}

// loadConfig loads the configuration file named by the --config flag.
func loadConfig(cmd *cobra.Command) *config.Config {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	conf, err := config.LoadConfig(path)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.String("config", path), zap.Error(err))
	}
	return conf
}

// modelParams converts the model section of the configuration into
// hyper-parameters of the MAP fitter.
func modelParams(conf *config.Config) model.Params {
	return model.Params{
		model.NFactors:     conf.Model.LatentD,
		model.Lr:           conf.Model.Lr,
		model.MinLr:        conf.Model.MinLr,
		model.StopThresh:   conf.Model.StopThresh,
		model.MaxEpochs:    conf.Model.MaxEpochs,
		model.Sigma:        conf.Model.Sigma,
		model.SigmaU:       conf.Model.SigmaU,
		model.SigmaV:       conf.Model.SigmaV,
		model.SubtractMean: conf.Model.SubtractMean,
	}
}

// boostParams lays the boost section's tightened fit keys over the model
// section, so the ensemble pipeline never inherits the comparison defaults.
func boostParams(conf *config.Config) model.Params {
	return modelParams(conf).Overwrite(model.Params{
		model.NFactors:   conf.Boost.LatentD,
		model.SigmaU:     conf.Boost.SigmaU,
		model.SigmaV:     conf.Boost.SigmaV,
		model.StopThresh: conf.Boost.StopThresh,
		model.MinLr:      conf.Boost.MinLr,
	})
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute command", zap.Error(err))
	}
}
