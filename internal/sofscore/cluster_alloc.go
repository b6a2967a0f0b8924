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
	"github.com/sofs14/sofs/internal/sofslog"
)

// allocDataCluster hands out a cluster from the retrieval cache,
// replenishing it from the free-list backbone (and, as a last resort,
// from the insertion cache — see DESIGN.md's note on the Open Question
// this resolves) when it runs dry.
func (fs *FileSystem) allocDataCluster(owner uint32) (uint32, error) {
	sb, err := fs.loadSuperblock()
	if err != nil {
		return 0, err
	}
	if sb.DZoneFree == 0 {
		return 0, sofserrors.New(sofserrors.ENOSPC, "")
	}

	if sb.DZoneRetriev.Idx == sofsdisk.DZoneCacheSize {
		if err := fs.replenishRetrievalCache(sb); err != nil {
			return 0, err
		}
	}
	if sb.DZoneRetriev.Idx == sofsdisk.DZoneCacheSize {
		fs.promoteInsertToRetrieval(sb)
	}
	if sb.DZoneRetriev.Idx == sofsdisk.DZoneCacheSize {
		return 0, sofserrors.New(sofserrors.EBADDCACHES, "dZoneFree=%d but both caches and backbone are empty", sb.DZoneFree)
	}

	lcn := sb.DZoneRetriev.Cache[sb.DZoneRetriev.Idx]
	sb.DZoneRetriev.Idx++

	if err := fs.dataSlot.Load(lcn); err != nil {
		return 0, err
	}
	dc, err := fs.dataSlot.Get()
	if err != nil {
		return 0, err
	}
	dc.Prev = sofsdisk.NullCluster
	dc.Next = sofsdisk.NullCluster
	dc.Stat = owner
	if err := fs.dataSlot.Store(); err != nil {
		return 0, err
	}

	sb.DZoneFree--
	if err := fs.storeSuperblock(); err != nil {
		return 0, err
	}
	sofslog.Debugf("sofscore: allocDataCluster lcn=%d owner=%d dZoneFree=%d", lcn, owner, sb.DZoneFree)
	return lcn, nil
}

// replenishRetrievalCache copies up to DZoneCacheSize LCNs off the head of
// the free-list backbone into the retrieval cache.
func (fs *FileSystem) replenishRetrievalCache(sb *sofsdisk.Superblock) error {
	var collected []uint32
	cur := sb.DHead
	for len(collected) < sofsdisk.DZoneCacheSize && cur != sofsdisk.NullCluster {
		if err := fs.dataSlot.Load(cur); err != nil {
			return err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return err
		}
		next := dc.Next
		collected = append(collected, cur)
		cur = next
	}

	newHead := cur
	if newHead != sofsdisk.NullCluster {
		if err := fs.dataSlot.Load(newHead); err != nil {
			return err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return err
		}
		dc.Prev = sofsdisk.NullCluster
		if err := fs.dataSlot.Store(); err != nil {
			return err
		}
	} else {
		sb.DTail = sofsdisk.NullCluster
	}
	sb.DHead = newHead

	idx := sofsdisk.DZoneCacheSize - len(collected)
	sb.DZoneRetriev.Cache = [sofsdisk.DZoneCacheSize]uint32{}
	for i, lcn := range collected {
		sb.DZoneRetriev.Cache[idx+i] = lcn
	}
	sb.DZoneRetriev.Idx = uint32(idx)
	sofslog.Debugf("sofscore: replenished retrieval cache with %d clusters, new dHead=%d", len(collected), sb.DHead)
	return nil
}

// promoteInsertToRetrieval moves the insertion cache's contents directly
// into the retrieval cache. This covers the case where the retrieval
// cache and the backbone are both empty while the insertion cache still
// holds recently-freed clusters; without this step dZoneFree could be
// positive while allocDataCluster finds nothing to hand out, violating
// the free-count invariant. See DESIGN.md.
func (fs *FileSystem) promoteInsertToRetrieval(sb *sofsdisk.Superblock) {
	n := int(sb.DZoneInsert.Idx)
	if n == 0 {
		return
	}
	idx := sofsdisk.DZoneCacheSize - n
	sb.DZoneRetriev.Cache = [sofsdisk.DZoneCacheSize]uint32{}
	for i := 0; i < n; i++ {
		sb.DZoneRetriev.Cache[idx+i] = sb.DZoneInsert.Cache[i]
	}
	sb.DZoneRetriev.Idx = uint32(idx)
	sb.DZoneInsert.Cache = [sofsdisk.DZoneCacheSize]uint32{}
	sb.DZoneInsert.Idx = 0
}

// freeDataCluster parks lcn in the insertion cache, depleting it onto the
// backbone tail first if it is full.
func (fs *FileSystem) freeDataCluster(lcn uint32) error {
	if lcn == 0 {
		return sofserrors.New(sofserrors.EINVAL, "the root data cluster may never be freed")
	}

	sb, err := fs.loadSuperblock()
	if err != nil {
		return err
	}
	if lcn >= sb.DZoneTotal {
		return sofserrors.New(sofserrors.EINVAL, "lcn %d out of range (dZoneTotal=%d)", lcn, sb.DZoneTotal)
	}
	if fs.isClusterInAnyCache(sb, lcn) {
		return sofserrors.New(sofserrors.EDCNALINVAL, "")
	}

	if sb.DZoneInsert.Idx == sofsdisk.DZoneCacheSize {
		if err := fs.depleteInsertionCache(sb); err != nil {
			return err
		}
	}

	if err := fs.dataSlot.Load(lcn); err != nil {
		return err
	}
	dc, err := fs.dataSlot.Get()
	if err != nil {
		return err
	}
	dc.Prev = sofsdisk.NullCluster
	dc.Next = sofsdisk.NullCluster
	// Stat is left alone: the cluster becomes free-and-dirty, still
	// carrying its last owner until reallocated or cleaned.
	if err := fs.dataSlot.Store(); err != nil {
		return err
	}

	sb.DZoneInsert.Cache[sb.DZoneInsert.Idx] = lcn
	sb.DZoneInsert.Idx++
	sb.DZoneFree++
	if err := fs.storeSuperblock(); err != nil {
		return err
	}
	sofslog.Debugf("sofscore: freeDataCluster lcn=%d dZoneFree=%d", lcn, sb.DZoneFree)
	return nil
}

// depleteInsertionCache drains the insertion cache onto the backbone
// tail. dHead and dTail are mutated only after every backbone cluster has
// been successfully rewritten, localizing the failure domain of a
// mid-deplete I/O error to the insertion cache's own clusters.
func (fs *FileSystem) depleteInsertionCache(sb *sofsdisk.Superblock) error {
	cache := sb.DZoneInsert.Cache

	for k := 0; k < sofsdisk.DZoneCacheSize; k++ {
		lcn := cache[k]
		var prev, next uint32
		if k == 0 {
			prev = sb.DTail
		} else {
			prev = cache[k-1]
		}
		if k == sofsdisk.DZoneCacheSize-1 {
			next = sofsdisk.NullCluster
		} else {
			next = cache[k+1]
		}

		if err := fs.dataSlot.Load(lcn); err != nil {
			return err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return err
		}
		dc.Prev = prev
		dc.Next = next
		if err := fs.dataSlot.Store(); err != nil {
			return err
		}
	}

	if sb.DTail != sofsdisk.NullCluster {
		if err := fs.dataSlot.Load(sb.DTail); err != nil {
			return err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return err
		}
		dc.Next = cache[0]
		if err := fs.dataSlot.Store(); err != nil {
			return err
		}
	}

	sb.DTail = cache[sofsdisk.DZoneCacheSize-1]
	if sb.DHead == sofsdisk.NullCluster {
		sb.DHead = cache[0]
	}
	sb.DZoneInsert.Cache = [sofsdisk.DZoneCacheSize]uint32{}
	sb.DZoneInsert.Idx = 0
	sofslog.Debugf("sofscore: depleted insertion cache onto backbone, new dTail=%d", sb.DTail)
	return nil
}

// isClusterInAnyCache is the "quick" allocation check freeDataCluster
// needs before re-freeing a cluster. Checking full backbone membership
// would require an O(backbone length) walk; that exhaustive check is
// left to the consistency checker (checkDataZone), which already walks
// the backbone.
func (fs *FileSystem) isClusterInAnyCache(sb *sofsdisk.Superblock, lcn uint32) bool {
	for i := sb.DZoneRetriev.Idx; i < sofsdisk.DZoneCacheSize; i++ {
		if sb.DZoneRetriev.Cache[i] == lcn {
			return true
		}
	}
	for i := uint32(0); i < sb.DZoneInsert.Idx; i++ {
		if sb.DZoneInsert.Cache[i] == lcn {
			return true
		}
	}
	return false
}
