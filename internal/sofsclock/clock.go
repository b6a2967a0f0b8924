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

// Package sofsclock supplies the aTime/mTime timestamps that the inode
// allocator and the formatter stamp onto on-disk records. It exists so that
// those two components can be driven with a deterministic clock in tests
// instead of wall-clock time.
package sofsclock

import "time"

// Clock is the time source consumed by the inode allocator and formatter.
type Clock interface {
	// Now returns the current time. It is not truncated; callers keep
	// whole seconds via Unix(), since the on-disk aTime/mTime fields are
	// seconds since the epoch.
	Now() time.Time
}

// RealClock implements Clock with the host's wall-clock time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// SimulatedClock is a Clock that only advances when told to. The zero value
// is a clock initialized to the zero time.
type SimulatedClock struct {
	t time.Time
}

func NewSimulatedClock(startTime time.Time) *SimulatedClock {
	return &SimulatedClock{t: startTime}
}

func (sc *SimulatedClock) Now() time.Time {
	return sc.t
}

// SetTime sets the current time according to the clock.
func (sc *SimulatedClock) SetTime(t time.Time) {
	sc.t = t
}

// AdvanceTime advances the current time by the supplied duration.
func (sc *SimulatedClock) AdvanceTime(d time.Duration) {
	sc.t = sc.t.Add(d)
}
