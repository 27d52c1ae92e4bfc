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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/bpmf/active"
	"github.com/juju/errors"
)

// Validate checks field constraints and the cross-field rules the tags cannot
// express: strategy names must come from the registered set, and the ensemble
// size must be odd when no explicit pick index is given.
func (config *Config) Validate() error {
	validate := validator.New()
	names := mapset.NewSet(active.Names()...)
	if err := validate.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
		return names.Contains(fl.Field().String())
	}); err != nil {
		return errors.Trace(err)
	}
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		boost := sl.Current().Interface().(BoostConfig)
		if boost.Pick < 0 && boost.NumFits%2 == 0 {
			sl.ReportError(boost.NumFits, "NumFits", "num_fits", "oddfits", "")
		}
		if boost.Pick >= boost.NumFits {
			sl.ReportError(boost.Pick, "Pick", "pick", "pickrange", "")
		}
	}, BoostConfig{})
	return errors.Trace(validate.Struct(config))
}
