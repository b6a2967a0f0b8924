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

// accessGranted checks classic owner/group/other unix permission bits
// against the caller's (uid, gid). Root gets R and W unconditionally but
// still needs an x-bit set somewhere in the mode to pass X.
func (fs *FileSystem) accessGranted(nInode uint32, uid, gid uint32, requestedOpsMask uint16) (bool, error) {
	in, err := fs.getInode(nInode)
	if err != nil {
		return false, err
	}
	if in.IsFree() {
		return false, nil
	}
	if _, ok := in.Type(); !ok {
		return false, nil
	}

	if uid == 0 {
		granted := uint16(sofsdisk.R | sofsdisk.W)
		perm := in.Perm()
		if perm&(sofsdisk.X<<6|sofsdisk.X<<3|sofsdisk.X) != 0 {
			granted |= sofsdisk.X
		}
		return granted&requestedOpsMask == requestedOpsMask, nil
	}

	var shift uint16
	switch {
	case in.Owner == uid:
		shift = 6
	case in.Group == gid:
		shift = 3
	default:
		shift = 0
	}

	granted := (in.Perm() >> shift) & 0o7
	return granted&requestedOpsMask == requestedOpsMask, nil
}
