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

package config

import (
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of the pipelines. Every key can be overridden
// by a BPMF_* environment variable, e.g. BPMF_BOOST_NUM_FITS.
type Config struct {
	Dataset DatasetConfig `mapstructure:"dataset"`
	Model   ModelConfig   `mapstructure:"model"`
	Active  ActiveConfig  `mapstructure:"active"`
	Boost   BoostConfig   `mapstructure:"boost"`
}

// DatasetConfig configures synthetic dataset generation.
type DatasetConfig struct {
	NumUsers   int     `mapstructure:"num_users" validate:"gt=0"`
	NumItems   int     `mapstructure:"num_items" validate:"gt=0"`
	LatentD    int     `mapstructure:"latent_d" validate:"gt=0"`
	NumRatings int     `mapstructure:"num_ratings" validate:"gt=0"`
	Noise      float64 `mapstructure:"noise" validate:"gte=0"`
	Seed       int64   `mapstructure:"seed"`
}

// ModelConfig configures the MAP fitter.
type ModelConfig struct {
	LatentD      int     `mapstructure:"latent_d" validate:"gt=0"`
	Lr           float64 `mapstructure:"lr" validate:"gt=0"`
	MinLr        float64 `mapstructure:"min_lr" validate:"gt=0"`
	StopThresh   float64 `mapstructure:"stop_thresh" validate:"gt=0"`
	MaxEpochs    int     `mapstructure:"max_epochs" validate:"gt=0"`
	Sigma        float64 `mapstructure:"sigma" validate:"gt=0"`
	SigmaU       float64 `mapstructure:"sigma_u" validate:"gt=0"`
	SigmaV       float64 `mapstructure:"sigma_v" validate:"gt=0"`
	SubtractMean bool    `mapstructure:"subtract_mean"`
}

// ActiveConfig configures the active-query loop.
type ActiveConfig struct {
	Samples    int      `mapstructure:"samples" validate:"gt=0"`
	BurnIn     int      `mapstructure:"burn_in" validate:"gte=0"`
	Steps      int      `mapstructure:"steps" validate:"gte=0"`
	Strategies []string `mapstructure:"strategies" validate:"min=1,dive,strategy"`
	Seed       int64    `mapstructure:"seed"`
}

// BoostConfig configures the ensemble evaluation pipeline. The fit keys
// shadow the model section with values tightened for ensemble work, where
// each fit is cheap and run many times: a single latent factor, tight priors
// and a deep convergence threshold.
type BoostConfig struct {
	NumFits     int           `mapstructure:"num_fits" validate:"gt=0"`
	Pick        int           `mapstructure:"pick"`
	Workers     int           `mapstructure:"workers" validate:"gte=0"`
	Bayes       bool          `mapstructure:"bayes"`
	PushTimeout time.Duration `mapstructure:"push_timeout" validate:"gt=0"`
	LatentD     int           `mapstructure:"latent_d" validate:"gt=0"`
	SigmaU      float64       `mapstructure:"sigma_u" validate:"gt=0"`
	SigmaV      float64       `mapstructure:"sigma_v" validate:"gt=0"`
	StopThresh  float64       `mapstructure:"stop_thresh" validate:"gt=0"`
	MinLr       float64       `mapstructure:"min_lr" validate:"gt=0"`
}

func setDefault(v *viper.Viper) {
	// dataset
	v.SetDefault("dataset.num_users", 10)
	v.SetDefault("dataset.num_items", 10)
	v.SetDefault("dataset.latent_d", 5)
	v.SetDefault("dataset.num_ratings", 15)
	v.SetDefault("dataset.noise", 0.25)
	v.SetDefault("dataset.seed", 0)
	// model
	v.SetDefault("model.latent_d", 5)
	v.SetDefault("model.lr", 1e-4)
	v.SetDefault("model.min_lr", 1e-10)
	v.SetDefault("model.stop_thresh", 1e-2)
	v.SetDefault("model.max_epochs", 300)
	v.SetDefault("model.sigma", 1.0)
	v.SetDefault("model.sigma_u", 2.0)
	v.SetDefault("model.sigma_v", 2.0)
	v.SetDefault("model.subtract_mean", true)
	// active
	v.SetDefault("active.samples", 128)
	v.SetDefault("active.burn_in", 0)
	v.SetDefault("active.steps", 0)
	v.SetDefault("active.strategies", []string{"random", "pred-variance"})
	v.SetDefault("active.seed", 0)
	// boost
	v.SetDefault("boost.num_fits", 5)
	v.SetDefault("boost.pick", -1)
	v.SetDefault("boost.workers", 0)
	v.SetDefault("boost.bayes", false)
	v.SetDefault("boost.push_timeout", 5*time.Second)
	v.SetDefault("boost.latent_d", 1)
	v.SetDefault("boost.sigma_u", 1e2)
	v.SetDefault("boost.sigma_v", 1e2)
	v.SetDefault("boost.stop_thresh", 1e-10)
	v.SetDefault("boost.min_lr", 1e-20)
}

// LoadConfig loads the configuration from a TOML file, layered under BPMF_*
// environment variables. An empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix("bpmf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigType("toml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var config Config
	if err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &config, nil
}
