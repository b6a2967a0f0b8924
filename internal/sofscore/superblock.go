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

import "github.com/sofs14/sofs/internal/sofsdisk"

// loadSuperblock ensures the superblock slot is loaded and returns a
// mutable pointer to it.
func (fs *FileSystem) loadSuperblock() (*sofsdisk.Superblock, error) {
	if err := fs.sbSlot.Load(struct{}{}); err != nil {
		return nil, err
	}
	return fs.sbSlot.Get()
}

// storeSuperblock persists the currently staged superblock.
func (fs *FileSystem) storeSuperblock() error {
	return fs.sbSlot.Store()
}

// Superblock returns a copy of the current on-disk superblock, for callers
// (fsck, tests) that only need to inspect it.
func (fs *FileSystem) Superblock() (sofsdisk.Superblock, error) {
	sb, err := fs.loadSuperblock()
	if err != nil {
		return sofsdisk.Superblock{}, err
	}
	return *sb, nil
}
