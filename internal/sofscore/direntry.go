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

import (
	"github.com/sofs14/sofs/internal/sofsdisk"
	"github.com/sofs14/sofs/internal/sofserrors"
)

// dirOp selects what removeOrDetach does with a matched entry: Remove
// marks it a tombstone (the name is still visible as a mangled string,
// e.g. for an inode still open elsewhere); Detach clears it to the clean
// state outright.
type dirOp int

const (
	dirDetach dirOp = iota
	dirRemove
)

// forEachDirCluster walks a directory inode's allocated content clusters
// in order, stopping at the first unallocated one (directories never have
// holes) or when fn asks to stop.
func (fs *FileSystem) forEachDirCluster(nDir uint32, fn func(clustInd uint64, lcn uint32) (stop bool, err error)) error {
	for clustInd := uint64(0); ; clustInd++ {
		lcn, err := fs.handleFileCluster(nDir, clustInd, opGet)
		if err != nil {
			return err
		}
		if lcn == sofsdisk.NullCluster {
			return nil
		}
		stop, err := fn(clustInd, lcn)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// lookupDirEntry implements the supplemented directory lookup: scan nDir's
// content clusters for an in-use entry named name.
func (fs *FileSystem) lookupDirEntry(nDir uint32, name string) (inode uint32, found bool, err error) {
	err = fs.forEachDirCluster(nDir, func(_ uint64, lcn uint32) (bool, error) {
		if err := fs.dataSlot.Load(lcn); err != nil {
			return false, err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return false, err
		}
		for _, e := range dc.AsDirEntries() {
			if e.IsInUse() && e.NameString() == name {
				inode = e.NInode
				found = true
				return true, nil
			}
		}
		return false, nil
	})
	return inode, found, err
}

// addDirEntry implements the supplemented directory insert: reuse a clean
// or tombstoned slot in an existing content cluster if one exists,
// otherwise grow the directory by one cluster.
func (fs *FileSystem) addDirEntry(nDir uint32, name string, inode uint32) error {
	if len(name) > sofsdisk.MaxName {
		return sofserrors.New(sofserrors.ENAMETOOLONG, "")
	}

	var lastClustInd uint64
	var sawAny bool
	placed := false

	err := fs.forEachDirCluster(nDir, func(clustInd uint64, lcn uint32) (bool, error) {
		sawAny = true
		lastClustInd = clustInd
		if err := fs.dataSlot.Load(lcn); err != nil {
			return false, err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return false, err
		}
		entries := dc.AsDirEntries()
		for i, e := range entries {
			if e.IsInUse() {
				if e.NameString() == name {
					return false, sofserrors.New(sofserrors.EINVAL, "directory entry %q already exists", name)
				}
				continue
			}
			entries[i] = sofsdisk.MakeDirEntry(name, inode)
			dc.PutDirEntries(entries)
			placed = true
			return true, fs.dataSlot.Store()
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if placed {
		return nil
	}

	nextClustInd := uint64(0)
	if sawAny {
		nextClustInd = lastClustInd + 1
	}
	lcn, err := fs.handleFileCluster(nDir, nextClustInd, opAlloc)
	if err != nil {
		return err
	}
	if err := fs.dataSlot.Load(lcn); err != nil {
		return err
	}
	dc, err := fs.dataSlot.Get()
	if err != nil {
		return err
	}
	entries := make([]sofsdisk.DirEntry, sofsdisk.DPC)
	for i := range entries {
		entries[i] = sofsdisk.DirEntry{NInode: sofsdisk.NullInode}
	}
	entries[0] = sofsdisk.MakeDirEntry(name, inode)
	dc.PutDirEntries(entries)
	return fs.dataSlot.Store()
}

// isDirEmpty reports whether n's only in-use entries are "." and "..".
func (fs *FileSystem) isDirEmpty(n uint32) (bool, error) {
	empty := true
	err := fs.forEachDirCluster(n, func(_ uint64, lcn uint32) (bool, error) {
		if err := fs.dataSlot.Load(lcn); err != nil {
			return false, err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return false, err
		}
		for _, e := range dc.AsDirEntries() {
			if !e.IsInUse() {
				continue
			}
			name := e.NameString()
			if name != "." && name != ".." {
				empty = false
				return true, nil
			}
		}
		return false, nil
	})
	return empty, err
}

// removeOrDetach unlinks or tombstones the entry named name inside the
// directory nDir. uid/gid are the effective caller credentials
// accessGranted needs (see DESIGN.md for why they're threaded explicitly
// rather than read from some ambient caller identity).
func (fs *FileSystem) removeOrDetach(nDir uint32, name string, op dirOp, uid, gid uint32) error {
	if len(name) == 0 || len(name) > sofsdisk.MaxName {
		return sofserrors.New(sofserrors.EINVAL, "illegal directory entry name")
	}

	dirInode, err := fs.getInode(nDir)
	if err != nil {
		return err
	}
	if dirInode.IsFree() {
		return sofserrors.New(sofserrors.ENOTDIR, "inode %d is not in use", nDir)
	}
	if typ, ok := dirInode.Type(); !ok || typ != sofsdisk.TypeDir {
		return sofserrors.New(sofserrors.ENOTDIR, "")
	}
	granted, err := fs.accessGranted(nDir, uid, gid, sofsdisk.W|sofsdisk.X)
	if err != nil {
		return err
	}
	if !granted {
		return sofserrors.New(sofserrors.EACCES, "")
	}

	var foundLCN uint32
	var slotIdx int
	var nEnt uint32
	found := false
	err = fs.forEachDirCluster(nDir, func(_ uint64, lcn uint32) (bool, error) {
		if err := fs.dataSlot.Load(lcn); err != nil {
			return false, err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return false, err
		}
		for i, e := range dc.AsDirEntries() {
			if e.IsInUse() && e.NameString() == name {
				foundLCN, slotIdx, nEnt, found = lcn, i, e.NInode, true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return sofserrors.New(sofserrors.ENOENT, "")
	}

	entInode, err := fs.getInode(nEnt)
	if err != nil {
		return err
	}
	entType, ok := entInode.Type()
	if !ok {
		return sofserrors.New(sofserrors.EBADINUSEINODE, "")
	}
	isDir := entType == sofsdisk.TypeDir

	if op == dirRemove && isDir {
		empty, err := fs.isDirEmpty(nEnt)
		if err != nil {
			return err
		}
		if !empty {
			return sofserrors.New(sofserrors.ENOTEMPTY, "")
		}
		// The entry's own "." self-reference and the parent's ".."
		// reference to the entry both go away with the directory.
		entInode.RefCount--
		dirInode.RefCount--
	}

	if err := fs.dataSlot.Load(foundLCN); err != nil {
		return err
	}
	dc, err := fs.dataSlot.Get()
	if err != nil {
		return err
	}
	entries := dc.AsDirEntries()
	if op == dirRemove {
		entries[slotIdx] = entries[slotIdx].Tombstone()
	} else {
		entries[slotIdx] = entries[slotIdx].Clean()
	}
	dc.PutDirEntries(entries)
	if err := fs.dataSlot.Store(); err != nil {
		return err
	}

	entInode.RefCount--

	if op == dirRemove && entInode.RefCount == 0 {
		if err := fs.handleFileClusters(nEnt, 0, opFree); err != nil {
			return err
		}
		// handleFileClusters persisted its own fetch of the inode as it
		// cleared D/I1/I2/CluCount; re-fetch before writing refCount=0
		// so that work isn't clobbered by this stale copy.
		entInode, err = fs.getInode(nEnt)
		if err != nil {
			return err
		}
		entInode.RefCount = 0
		if err := fs.persistInode(nEnt, entInode); err != nil {
			return err
		}
		if err := fs.freeInode(nEnt); err != nil {
			return err
		}
		// freeInode left the free-list tail's block staged; persistInode
		// writes into whatever block is staged.
		if err := fs.loadInodeBlock(nDir); err != nil {
			return err
		}
		return fs.persistInode(nDir, dirInode)
	}

	if err := fs.persistInode(nEnt, entInode); err != nil {
		return err
	}
	if err := fs.loadInodeBlock(nDir); err != nil {
		return err
	}
	return fs.persistInode(nDir, dirInode)
}
