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

// fileClusterOp selects what handleFileCluster/handleFileClusters do with
// the reference they find.
type fileClusterOp int

const (
	// opGet only resolves clustInd to an LCN, allocating nothing.
	opGet fileClusterOp = iota
	// opAlloc resolves clustInd to an LCN, allocating content and
	// indirection clusters along the way if they don't exist yet.
	opAlloc
	// opFree releases the content cluster at clustInd, if any, leaving
	// any indirection clusters on its path allocated even if now empty.
	opFree
	// opFreeAndClean releases the content cluster at clustInd and bubbles
	// up, freeing any indirection cluster that becomes entirely empty as
	// a result.
	opFreeAndClean
)

// handleFileCluster translates a 0-based cluster index within a file to
// its direct/single-indirect/double-indirect reference slot and applies
// op to it.
func (fs *FileSystem) handleFileCluster(nInode uint32, clustInd uint64, op fileClusterOp) (uint32, error) {
	if clustInd >= sofsdisk.MaxFileClusters {
		return 0, sofserrors.New(sofserrors.EINVAL, "cluster index %d exceeds the maximum file size", clustInd)
	}
	in, err := fs.getInode(nInode)
	if err != nil {
		return 0, err
	}

	switch {
	case clustInd < sofsdisk.NDirect:
		return fs.handleDirectRef(nInode, in, uint32(clustInd), op)
	case clustInd < sofsdisk.NDirect+sofsdisk.RPC:
		return fs.handleIndirectRef(nInode, in, uint32(clustInd-sofsdisk.NDirect), op)
	default:
		idx2 := clustInd - sofsdisk.NDirect - sofsdisk.RPC
		return fs.handleDoubleIndirectRef(nInode, in, uint32(idx2/sofsdisk.RPC), uint32(idx2%sofsdisk.RPC), op)
	}
}

// handleFileClusters walks every cluster reference from logical index from
// onward, applying op to each. Used by removeOrDetach (from=0, opFree)
// to release an entire file's content clusters.
func (fs *FileSystem) handleFileClusters(nInode uint32, from uint64, op fileClusterOp) error {
	in, err := fs.getInode(nInode)
	if err != nil {
		return err
	}

	if start, skip := sectionStart(from, 0, sofsdisk.NDirect); !skip {
		for idx := start; idx < sofsdisk.NDirect; idx++ {
			if _, err := fs.handleDirectRef(nInode, in, idx, op); err != nil {
				return err
			}
		}
	}

	singleBase := uint64(sofsdisk.NDirect)
	if start, skip := sectionStart(from, singleBase, sofsdisk.RPC); !skip {
		for idx := start; idx < sofsdisk.RPC; idx++ {
			if in.I1 == sofsdisk.NullCluster {
				break
			}
			if _, err := fs.handleIndirectRef(nInode, in, idx, op); err != nil {
				return err
			}
		}
	}

	doubleBase := singleBase + sofsdisk.RPC
	if start, skip := sectionStart(from, doubleBase, sofsdisk.RPC*sofsdisk.RPC); !skip {
		outerStart := start / sofsdisk.RPC
		for outer := outerStart; outer < sofsdisk.RPC; outer++ {
			if in.I2 == sofsdisk.NullCluster {
				break
			}
			innerStart := uint32(0)
			if outer == outerStart {
				innerStart = start % sofsdisk.RPC
			}
			for inner := innerStart; inner < sofsdisk.RPC; inner++ {
				if _, err := fs.handleDoubleIndirectRef(nInode, in, outer, inner, op); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// sectionStart computes, for a section of count logical indices starting
// at base, the local start offset within that section for a walk
// beginning at global index from, and whether the section lies entirely
// before from and should be skipped.
func sectionStart(from, base, count uint64) (start uint32, skip bool) {
	if from >= base+count {
		return 0, true
	}
	if from <= base {
		return 0, false
	}
	return uint32(from - base), false
}

func (fs *FileSystem) handleDirectRef(nInode uint32, in *sofsdisk.Inode, idx uint32, op fileClusterOp) (uint32, error) {
	cur := in.D[idx]
	switch op {
	case opGet:
		return cur, nil

	case opAlloc:
		if cur != sofsdisk.NullCluster {
			return cur, nil
		}
		lcn, err := fs.allocDataCluster(nInode)
		if err != nil {
			return 0, err
		}
		in.D[idx] = lcn
		in.CluCount++
		if err := fs.persistInode(nInode, in); err != nil {
			return 0, err
		}
		return lcn, nil

	case opFree, opFreeAndClean:
		if cur == sofsdisk.NullCluster {
			return sofsdisk.NullCluster, nil
		}
		if err := fs.freeDataCluster(cur); err != nil {
			return 0, err
		}
		in.D[idx] = sofsdisk.NullCluster
		in.CluCount--
		if err := fs.persistInode(nInode, in); err != nil {
			return 0, err
		}
		return sofsdisk.NullCluster, nil
	}
	return 0, sofserrors.New(sofserrors.EINVAL, "unknown file-cluster operation")
}

func (fs *FileSystem) handleIndirectRef(nInode uint32, in *sofsdisk.Inode, innerIdx uint32, op fileClusterOp) (uint32, error) {
	switch op {
	case opGet:
		if in.I1 == sofsdisk.NullCluster {
			return sofsdisk.NullCluster, nil
		}
		return fs.refAt(in.I1, innerIdx)

	case opAlloc:
		if in.I1 == sofsdisk.NullCluster {
			lcn, err := fs.allocIndirCluster(nInode)
			if err != nil {
				return 0, err
			}
			in.I1 = lcn
			in.CluCount++
			if err := fs.persistInode(nInode, in); err != nil {
				return 0, err
			}
		}
		leaf, err := fs.refAt(in.I1, innerIdx)
		if err != nil {
			return 0, err
		}
		if leaf == sofsdisk.NullCluster {
			newLeaf, err := fs.allocDataCluster(nInode)
			if err != nil {
				return 0, err
			}
			if err := fs.setRefAt(in.I1, innerIdx, newLeaf); err != nil {
				return 0, err
			}
			in.CluCount++
			if err := fs.persistInode(nInode, in); err != nil {
				return 0, err
			}
			leaf = newLeaf
		}
		return leaf, nil

	case opFree, opFreeAndClean:
		if in.I1 == sofsdisk.NullCluster {
			return sofsdisk.NullCluster, nil
		}
		leaf, err := fs.refAt(in.I1, innerIdx)
		if err != nil {
			return 0, err
		}
		if leaf != sofsdisk.NullCluster {
			if err := fs.freeDataCluster(leaf); err != nil {
				return 0, err
			}
			if err := fs.setRefAt(in.I1, innerIdx, sofsdisk.NullCluster); err != nil {
				return 0, err
			}
			in.CluCount--
			if err := fs.persistInode(nInode, in); err != nil {
				return 0, err
			}
		}
		if op == opFree {
			return sofsdisk.NullCluster, nil
		}
		empty, err := fs.clusterAllNull(in.I1)
		if err != nil {
			return 0, err
		}
		if empty {
			if err := fs.freeDataCluster(in.I1); err != nil {
				return 0, err
			}
			in.I1 = sofsdisk.NullCluster
			in.CluCount--
			if err := fs.persistInode(nInode, in); err != nil {
				return 0, err
			}
		}
		return sofsdisk.NullCluster, nil
	}
	return 0, sofserrors.New(sofserrors.EINVAL, "unknown file-cluster operation")
}

func (fs *FileSystem) handleDoubleIndirectRef(nInode uint32, in *sofsdisk.Inode, outerIdx, innerIdx uint32, op fileClusterOp) (uint32, error) {
	switch op {
	case opGet:
		if in.I2 == sofsdisk.NullCluster {
			return sofsdisk.NullCluster, nil
		}
		innerLCN, err := fs.refAt(in.I2, outerIdx)
		if err != nil {
			return 0, err
		}
		if innerLCN == sofsdisk.NullCluster {
			return sofsdisk.NullCluster, nil
		}
		return fs.refAt(innerLCN, innerIdx)

	case opAlloc:
		if in.I2 == sofsdisk.NullCluster {
			lcn, err := fs.allocIndirCluster(nInode)
			if err != nil {
				return 0, err
			}
			in.I2 = lcn
			in.CluCount++
			if err := fs.persistInode(nInode, in); err != nil {
				return 0, err
			}
		}
		innerLCN, err := fs.refAt(in.I2, outerIdx)
		if err != nil {
			return 0, err
		}
		if innerLCN == sofsdisk.NullCluster {
			newInner, err := fs.allocIndirCluster(nInode)
			if err != nil {
				return 0, err
			}
			if err := fs.setRefAt(in.I2, outerIdx, newInner); err != nil {
				return 0, err
			}
			in.CluCount++
			if err := fs.persistInode(nInode, in); err != nil {
				return 0, err
			}
			innerLCN = newInner
		}
		leaf, err := fs.refAt(innerLCN, innerIdx)
		if err != nil {
			return 0, err
		}
		if leaf == sofsdisk.NullCluster {
			newLeaf, err := fs.allocDataCluster(nInode)
			if err != nil {
				return 0, err
			}
			if err := fs.setRefAt(innerLCN, innerIdx, newLeaf); err != nil {
				return 0, err
			}
			in.CluCount++
			if err := fs.persistInode(nInode, in); err != nil {
				return 0, err
			}
			leaf = newLeaf
		}
		return leaf, nil

	case opFree, opFreeAndClean:
		if in.I2 == sofsdisk.NullCluster {
			return sofsdisk.NullCluster, nil
		}
		innerLCN, err := fs.refAt(in.I2, outerIdx)
		if err != nil {
			return 0, err
		}
		if innerLCN == sofsdisk.NullCluster {
			return sofsdisk.NullCluster, nil
		}
		leaf, err := fs.refAt(innerLCN, innerIdx)
		if err != nil {
			return 0, err
		}
		if leaf != sofsdisk.NullCluster {
			if err := fs.freeDataCluster(leaf); err != nil {
				return 0, err
			}
			if err := fs.setRefAt(innerLCN, innerIdx, sofsdisk.NullCluster); err != nil {
				return 0, err
			}
			in.CluCount--
			if err := fs.persistInode(nInode, in); err != nil {
				return 0, err
			}
		}
		if op == opFree {
			return sofsdisk.NullCluster, nil
		}

		innerEmpty, err := fs.clusterAllNull(innerLCN)
		if err != nil {
			return 0, err
		}
		if !innerEmpty {
			return sofsdisk.NullCluster, nil
		}
		if err := fs.freeDataCluster(innerLCN); err != nil {
			return 0, err
		}
		if err := fs.setRefAt(in.I2, outerIdx, sofsdisk.NullCluster); err != nil {
			return 0, err
		}
		in.CluCount--
		if err := fs.persistInode(nInode, in); err != nil {
			return 0, err
		}

		outerEmpty, err := fs.clusterAllNull(in.I2)
		if err != nil {
			return 0, err
		}
		if outerEmpty {
			if err := fs.freeDataCluster(in.I2); err != nil {
				return 0, err
			}
			in.I2 = sofsdisk.NullCluster
			in.CluCount--
			if err := fs.persistInode(nInode, in); err != nil {
				return 0, err
			}
		}
		return sofsdisk.NullCluster, nil
	}
	return 0, sofserrors.New(sofserrors.EINVAL, "unknown file-cluster operation")
}

// persistInode writes in back to n's slot of the already-staged inode
// block and flushes the block.
func (fs *FileSystem) persistInode(n uint32, in *sofsdisk.Inode) error {
	if err := fs.putInode(n, in); err != nil {
		return err
	}
	return fs.persistInodeBlock()
}

// allocIndirCluster allocates a fresh cluster charged to owner and
// initializes its body as an all-NullCluster reference array, ready to
// serve as a single- or double-indirection cluster.
func (fs *FileSystem) allocIndirCluster(owner uint32) (uint32, error) {
	lcn, err := fs.allocDataCluster(owner)
	if err != nil {
		return 0, err
	}
	if err := fs.indirSlot.Load(lcn); err != nil {
		return 0, err
	}
	dc, err := fs.indirSlot.Get()
	if err != nil {
		return 0, err
	}
	refs := make([]uint32, sofsdisk.RPC)
	for i := range refs {
		refs[i] = sofsdisk.NullCluster
	}
	dc.PutRefs(refs)
	if err := fs.indirSlot.Store(); err != nil {
		return 0, err
	}
	return lcn, nil
}

func (fs *FileSystem) refAt(lcn uint32, idx uint32) (uint32, error) {
	if err := fs.indirSlot.Load(lcn); err != nil {
		return 0, err
	}
	dc, err := fs.indirSlot.Get()
	if err != nil {
		return 0, err
	}
	return dc.AsRefs()[idx], nil
}

func (fs *FileSystem) setRefAt(lcn uint32, idx uint32, val uint32) error {
	if err := fs.indirSlot.Load(lcn); err != nil {
		return err
	}
	dc, err := fs.indirSlot.Get()
	if err != nil {
		return err
	}
	refs := dc.AsRefs()
	refs[idx] = val
	dc.PutRefs(refs)
	return fs.indirSlot.Store()
}

func (fs *FileSystem) clusterAllNull(lcn uint32) (bool, error) {
	if err := fs.indirSlot.Load(lcn); err != nil {
		return false, err
	}
	dc, err := fs.indirSlot.Get()
	if err != nil {
		return false, err
	}
	for _, r := range dc.AsRefs() {
		if r != sofsdisk.NullCluster {
			return false, nil
		}
	}
	return true, nil
}
