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

package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpan(t *testing.T) {
	ctx, span := Start(context.Background(), "test", 10)
	assert.Equal(t, "test", span.Name())
	assert.Equal(t, StatusRunning, span.Status())
	span.Add(3)
	assert.Equal(t, 3, span.Count())
	span.End()
	assert.Equal(t, StatusComplete, span.Status())
	assert.Equal(t, 10, span.Count())

	_, child := Start(ctx, "child", 5)
	assert.Equal(t, "child", child.Name())
}

func TestSpanNilContext(t *testing.T) {
	ctx, span := Start(nil, "test", 1)
	assert.Nil(t, ctx)
	assert.NotNil(t, span)
}
