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

package sofscore

import "github.com/sofs14/sofs/internal/sofserrors"

// slotState is a tri-valued state machine: a slot is Unloaded, Loaded (with
// a known coordinate), or Errored. Once Errored, it stays that way for the
// life of the process — fail-stop on the first corruption or I/O failure.
type slotState int

const (
	slotUnloaded slotState = iota
	slotLoaded
	slotErrored
)

// slot is a single-entry staging area: not a performance cache, but an
// enforcement mechanism that exactly one block/cluster of a given kind is
// in memory at a time. It is generic over the coordinate type C (e.g. a
// block index or an LCN) and the staged value type T.
//
// Modeled on gcsproxy.MutableContent's own staging-area shape: a
// CheckInvariants-style internal consistency (enforced here by the state
// machine itself rather than a panic method) and a terminal failure state
// that poisons all further use.
type slot[C comparable, T any] struct {
	state slotState
	coord C
	value T
	err   error

	load  func(C) (T, error)
	store func(C, T) error
}

func newSlot[C comparable, T any](load func(C) (T, error), store func(C, T) error) *slot[C, T] {
	return &slot[C, T]{load: load, store: store}
}

// Load makes coord the slot's current coordinate. It is a no-op if coord is
// already loaded; otherwise it reads through to the backing store.
func (s *slot[C, T]) Load(coord C) error {
	if s.state == slotErrored {
		return s.err
	}
	if s.state == slotLoaded && s.coord == coord {
		return nil
	}

	v, err := s.load(coord)
	if err != nil {
		s.state = slotErrored
		s.err = err
		return err
	}

	s.state = slotLoaded
	s.coord = coord
	s.value = v
	return nil
}

// Get returns a mutable pointer to the slot's staged value. The slot must
// be loaded.
func (s *slot[C, T]) Get() (*T, error) {
	if s.state == slotErrored {
		return nil, s.err
	}
	if s.state != slotLoaded {
		return nil, sofserrors.New(sofserrors.ELIBBAD, "accessor slot read before load")
	}
	return &s.value, nil
}

// Store writes the slot's staged value back to its current coordinate.
// Calling Store without a prior successful Load is an error.
func (s *slot[C, T]) Store() error {
	if s.state == slotErrored {
		return s.err
	}
	if s.state != slotLoaded {
		return sofserrors.New(sofserrors.ELIBBAD, "accessor slot store before load")
	}

	if err := s.store(s.coord, s.value); err != nil {
		s.state = slotErrored
		s.err = err
		return err
	}
	return nil
}

// Coord returns the slot's current coordinate and whether it is loaded.
func (s *slot[C, T]) Coord() (C, bool) {
	return s.coord, s.state == slotLoaded
}
