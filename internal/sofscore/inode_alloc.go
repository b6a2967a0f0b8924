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

// allocInode unlinks the head of the free inode list, reinitializes it
// as an in-use inode of the given type, and returns its number.
func (fs *FileSystem) allocInode(typ sofsdisk.InodeType) (uint32, error) {
	sb, err := fs.loadSuperblock()
	if err != nil {
		return 0, err
	}
	if sb.IFree == 0 {
		return 0, sofserrors.New(sofserrors.ENOSPC, "")
	}

	n := sb.IHead
	in, err := fs.getInode(n)
	if err != nil {
		return 0, err
	}
	if !in.IsFree() {
		return 0, sofserrors.New(sofserrors.EBADIFREELIST, "free-list head inode %d is not marked free", n)
	}

	// A freed inode is free-and-dirty: freeInode leaves D/I1/I2/CluCount/
	// Size untouched, so the content and indirection clusters it last
	// owned are still allocated and stamped with its number. Release them
	// before handing n out again, or they leak forever.
	if in.CluCount != 0 || in.Size != 0 || in.I1 != sofsdisk.NullCluster || in.I2 != sofsdisk.NullCluster {
		if err := fs.cleanInode(n); err != nil {
			return 0, err
		}
	} else {
		for _, d := range in.D {
			if d != sofsdisk.NullCluster {
				if err := fs.cleanInode(n); err != nil {
					return 0, err
				}
				break
			}
		}
	}

	newHead := in.Next()

	*in = sofsdisk.Inode{}
	in.Mode = typ.ModeBit() // permissions default to 0; caller sets them separately
	in.RefCount = 0
	now := uint32(fs.clock.Now().Unix())
	in.SetATime(now)
	in.SetMTime(now)
	for i := range in.D {
		in.D[i] = sofsdisk.NullCluster
	}
	in.I1 = sofsdisk.NullCluster
	in.I2 = sofsdisk.NullCluster

	if err := fs.persistInode(n, in); err != nil {
		return 0, err
	}

	if newHead != sofsdisk.NullInode {
		newHeadInode, err := fs.getInode(newHead)
		if err != nil {
			return 0, err
		}
		newHeadInode.SetPrev(sofsdisk.NullInode)
		if err := fs.persistInode(newHead, newHeadInode); err != nil {
			return 0, err
		}
	}

	sb.IHead = newHead
	if newHead == sofsdisk.NullInode {
		sb.ITail = sofsdisk.NullInode
	}
	sb.IFree--
	if err := fs.storeSuperblock(); err != nil {
		return 0, err
	}
	return n, nil
}

// freeInode validates that n is a releasable in-use inode, marks it
// free, and appends it at the tail of the free list.
func (fs *FileSystem) freeInode(n uint32) error {
	if n == 0 {
		return sofserrors.New(sofserrors.EINVAL, "the root inode may never be freed")
	}

	sb, err := fs.loadSuperblock()
	if err != nil {
		return err
	}
	if n >= sb.ITotal {
		return sofserrors.New(sofserrors.EINVAL, "inode number %d out of range (iTotal=%d)", n, sb.ITotal)
	}

	in, err := fs.getInode(n)
	if err != nil {
		return err
	}
	if in.IsFree() {
		return sofserrors.New(sofserrors.EBADINUSEINODE, "inode %d is already free", n)
	}
	if _, ok := in.Type(); !ok {
		return sofserrors.New(sofserrors.EBADINUSEINODE, "inode %d has illegal type bits", n)
	}
	if in.RefCount != 0 {
		return sofserrors.New(sofserrors.EINVAL, "inode %d still has %d references", n, in.RefCount)
	}

	in.Mode = sofsdisk.ModeFree
	in.SetPrev(sb.ITail)
	in.SetNext(sofsdisk.NullInode)
	if err := fs.persistInode(n, in); err != nil {
		return err
	}

	if sb.ITail != sofsdisk.NullInode {
		tail, err := fs.getInode(sb.ITail)
		if err != nil {
			return err
		}
		tail.SetNext(n)
		if err := fs.persistInode(sb.ITail, tail); err != nil {
			return err
		}
	}

	sb.ITail = n
	if sb.IHead == sofsdisk.NullInode {
		sb.IHead = n
	}
	sb.IFree++
	return fs.storeSuperblock()
}

// cleanInode releases every content and indirection cluster n still
// references. Unlike handleFileClusters
// (used for ordinary content release, e.g. by removeOrDetach with
// opFree), cleanInode additionally verifies each cluster's stat
// equals n before freeing it, since n is expected to be free-and-dirty —
// carrying references left over from its previous life — and a mismatch
// signals the free list itself is corrupt.
func (fs *FileSystem) cleanInode(n uint32) error {
	in, err := fs.getInode(n)
	if err != nil {
		return err
	}

	freeOwned := func(lcn uint32) error {
		if lcn == sofsdisk.NullCluster {
			return nil
		}
		if err := fs.dataSlot.Load(lcn); err != nil {
			return err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return err
		}
		if dc.Stat != n {
			return sofserrors.New(sofserrors.EWGINODENB, "cluster %d stat=%d does not match cleaned inode %d", lcn, dc.Stat, n)
		}
		if err := fs.freeDataCluster(lcn); err != nil {
			return err
		}
		in.CluCount--
		return nil
	}

	for i, lcn := range in.D {
		if err := freeOwned(lcn); err != nil {
			return err
		}
		in.D[i] = sofsdisk.NullCluster
	}

	if in.I1 != sofsdisk.NullCluster {
		if err := fs.indirSlot.Load(in.I1); err != nil {
			return err
		}
		dc, err := fs.indirSlot.Get()
		if err != nil {
			return err
		}
		for _, r := range dc.AsRefs() {
			if err := freeOwned(r); err != nil {
				return err
			}
		}
		if err := freeOwned(in.I1); err != nil {
			return err
		}
		in.I1 = sofsdisk.NullCluster
	}

	if in.I2 != sofsdisk.NullCluster {
		if err := fs.indirSlot.Load(in.I2); err != nil {
			return err
		}
		outerDC, err := fs.indirSlot.Get()
		if err != nil {
			return err
		}
		outerRefs := outerDC.AsRefs()
		for _, innerLCN := range outerRefs {
			if innerLCN == sofsdisk.NullCluster {
				continue
			}
			if err := fs.indirSlot.Load(innerLCN); err != nil {
				return err
			}
			innerDC, err := fs.indirSlot.Get()
			if err != nil {
				return err
			}
			for _, leaf := range innerDC.AsRefs() {
				if err := freeOwned(leaf); err != nil {
					return err
				}
			}
			if err := freeOwned(innerLCN); err != nil {
				return err
			}
		}
		if err := freeOwned(in.I2); err != nil {
			return err
		}
		in.I2 = sofsdisk.NullCluster
	}

	in.Size = 0
	return fs.persistInode(n, in)
}
