// Copyright 2026 The SOFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sofsclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimulatedClock_AdvanceAndSet(t *testing.T) {
	start := time.Unix(1_000, 0)
	c := NewSimulatedClock(start)
	assert.Equal(t, start, c.Now())

	c.AdvanceTime(30 * time.Second)
	assert.Equal(t, start.Add(30*time.Second), c.Now())

	later := time.Unix(5_000, 0)
	c.SetTime(later)
	assert.Equal(t, later, c.Now())
}

func TestRealClock_MovesForward(t *testing.T) {
	var c Clock = RealClock{}
	first := c.Now()
	time.Sleep(time.Millisecond)
	second := c.Now()
	assert.True(t, second.After(first) || second.Equal(first))
}
