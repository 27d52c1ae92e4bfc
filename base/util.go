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

package base

import (
	"runtime/debug"

	"github.com/gorse-io/bpmf/base/log"
	"go.uber.org/zap"
)

// NewMatrix creates a 2D matrix of 64-bit floats.
func NewMatrix(row, col int) [][]float64 {
	ret := make([][]float64, row)
	for i := range ret {
		ret[i] = make([]float64, col)
	}
	return ret
}

// CopyMatrix deep copies a 2D matrix of 64-bit floats.
func CopyMatrix(m [][]float64) [][]float64 {
	ret := make([][]float64, len(m))
	for i := range m {
		ret[i] = make([]float64, len(m[i]))
		copy(ret[i], m[i])
	}
	return ret
}

// CheckPanic logs panics.
func CheckPanic() {
	if r := recover(); r != nil {
		log.Logger().Error("panic recovered",
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())))
	}
}
