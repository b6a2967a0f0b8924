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
	"context"

	"github.com/sofs14/sofs/internal/sofsdisk"
	"github.com/sofs14/sofs/internal/sofserrors"
)

// CheckReport collects every violation a full consistency pass finds. Used
// by cmd/fsck; unlike the core's own accessors, the checkers never trip
// the fail-stop slot machinery on a semantic violation — only a genuine
// I/O failure does that.
type CheckReport struct {
	Errors []error
}

func (r *CheckReport) OK() bool { return len(r.Errors) == 0 }

func (r *CheckReport) add(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
}

// Check runs every consistency checker in turn and collects their
// findings. It returns a non-nil error only on a genuine I/O failure or
// if ctx is canceled before the pass completes; structural violations
// are reported in the returned CheckReport instead.
func (fs *FileSystem) Check(ctx context.Context) (*CheckReport, error) {
	report := &CheckReport{}

	sb, err := fs.checkSuperblockHeader(report)
	if err != nil {
		return nil, err
	}
	if sb == nil {
		return report, nil
	}

	if err := fs.checkInodeFreeList(report, sb); err != nil {
		return nil, err
	}
	if err := fs.checkDataZone(report, sb); err != nil {
		return nil, err
	}
	if err := fs.checkInodes(ctx, report, sb); err != nil {
		return nil, err
	}
	return report, nil
}

// checkSuperblockHeader validates the fields the rest of the checker
// depends on (magic/version/geometry). A bad magic number means nothing
// else in the filesystem can be trusted, so it returns a nil *Superblock
// and the caller stops early; other header violations are reported and
// checking continues.
func (fs *FileSystem) checkSuperblockHeader(report *CheckReport) (*sofsdisk.Superblock, error) {
	sb, err := fs.loadSuperblock()
	if err != nil {
		return nil, err
	}
	bad := func(format string, args ...any) {
		report.add(sofserrors.New(sofserrors.EBADSB, format, args...))
	}

	if sb.Magic != sofsdisk.MagicNumber {
		bad("bad magic number 0x%x", sb.Magic)
		return nil, nil
	}
	if sb.Version != sofsdisk.VersionNumber {
		bad("unsupported version 0x%x", sb.Version)
	}
	if sb.ITableStart == 0 {
		bad("inode table cannot start at block 0 (superblock)")
	}
	if sb.DZoneStart < sb.ITableStart+sb.ITableSize {
		bad("data zone (block %d) overlaps the inode table", sb.DZoneStart)
	}
	if sb.ITotal == 0 {
		bad("inode table is empty")
	}
	if sb.IFree > sb.ITotal {
		bad("iFree (%d) exceeds iTotal (%d)", sb.IFree, sb.ITotal)
	}
	if sb.DZoneFree > sb.DZoneTotal {
		bad("dZoneFree (%d) exceeds dZoneTotal (%d)", sb.DZoneFree, sb.DZoneTotal)
	}
	if sb.DZoneRetriev.Idx > sofsdisk.DZoneCacheSize {
		bad("retrieval cache index %d out of range", sb.DZoneRetriev.Idx)
	}
	if sb.DZoneInsert.Idx > sofsdisk.DZoneCacheSize {
		bad("insertion cache index %d out of range", sb.DZoneInsert.Idx)
	}

	sbCopy := *sb
	return &sbCopy, nil
}

// checkInodeFreeList walks the inode free list forward from iHead,
// checking each member's prev link against its predecessor, and verifies
// its length matches iFree.
func (fs *FileSystem) checkInodeFreeList(report *CheckReport, sb *sofsdisk.Superblock) error {
	bad := func(format string, args ...any) {
		report.add(sofserrors.New(sofserrors.EBADIFREELIST, format, args...))
	}

	seen := make(map[uint32]bool)
	count := uint32(0)
	prev := sofsdisk.NullInode
	cur := sb.IHead
	for cur != sofsdisk.NullInode {
		if seen[cur] {
			bad("free list cycles back to inode %d", cur)
			break
		}
		seen[cur] = true

		in, err := fs.getInode(cur)
		if err != nil {
			return err
		}
		if !in.IsFree() {
			report.add(sofserrors.New(sofserrors.EBADFREEINODE, "free-list member inode %d is not marked free", cur))
		} else if in.Prev() != prev {
			report.add(sofserrors.New(sofserrors.EBADFREEINODE, "inode %d's prev link (%d) does not match its predecessor (%d)", cur, in.Prev(), prev))
		}

		count++
		prev = cur
		if in.IsFree() {
			cur = in.Next()
		} else {
			break
		}
	}

	if prev != sofsdisk.NullInode && prev != sb.ITail {
		if in, err := fs.getInode(prev); err == nil && in.IsFree() && in.Next() != sofsdisk.NullInode {
			bad("free-list tail inode %d still has a successor", prev)
		}
	}
	if count != sb.IFree {
		bad("free list has %d members, iFree says %d", count, sb.IFree)
	}
	return nil
}

// checkDataZone verifies the free-cluster accounting identity and that
// the backbone is a simple acyclic doubly-linked list.
func (fs *FileSystem) checkDataZone(report *CheckReport, sb *sofsdisk.Superblock) error {
	retrievCount := sofsdisk.DZoneCacheSize - sb.DZoneRetriev.Idx
	insertCount := sb.DZoneInsert.Idx

	seen := make(map[uint32]bool)
	backboneCount := uint32(0)
	prev := sofsdisk.NullCluster
	cur := sb.DHead
	for cur != sofsdisk.NullCluster {
		if seen[cur] {
			report.add(sofserrors.New(sofserrors.EBADBACKBONE, "backbone cycles back to cluster %d", cur))
			break
		}
		seen[cur] = true

		if err := fs.dataSlot.Load(cur); err != nil {
			return err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return err
		}
		if dc.Prev != prev {
			report.add(sofserrors.New(sofserrors.EBADBACKBONE, "cluster %d's prev link (%d) does not match its predecessor (%d)", cur, dc.Prev, prev))
		}
		backboneCount++
		prev = cur
		cur = dc.Next
	}
	if prev != sofsdisk.NullCluster && prev != sb.DTail {
		report.add(sofserrors.New(sofserrors.EBADBACKBONE, "backbone tail is cluster %d, superblock says %d", prev, sb.DTail))
	}

	total := retrievCount + insertCount + backboneCount
	if total != sb.DZoneFree {
		report.add(sofserrors.New(sofserrors.EBADDCACHES, "retrieval(%d)+insertion(%d)+backbone(%d)=%d clusters free, dZoneFree says %d",
			retrievCount, insertCount, backboneCount, total, sb.DZoneFree))
	}
	return nil
}

// checkInodes walks every inode-table slot once, dispatching to the
// free-inode or in-use-inode shape checker and, for directories,
// checkDirectoryContents. ctx is polled once per inode so a caller can
// cancel a pass over a large table.
func (fs *FileSystem) checkInodes(ctx context.Context, report *CheckReport, sb *sofsdisk.Superblock) error {
	for n := uint32(0); n < sb.ITotal; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		in, err := fs.getInode(n)
		if err != nil {
			return err
		}
		if in.IsFree() {
			continue
		}

		typ, ok := in.Type()
		if !ok {
			report.add(sofserrors.New(sofserrors.EBADINUSEINODE, "inode %d has illegal type bits 0x%x", n, in.Mode))
			continue
		}
		if in.RefCount == 0 {
			report.add(sofserrors.New(sofserrors.EBADINUSEINODE, "in-use inode %d has a zero reference count", n))
		}

		if err := fs.checkInodeClusterRefs(report, n, in); err != nil {
			return err
		}
		if typ == sofsdisk.TypeDir {
			if err := fs.checkDirectoryContents(report, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkInodeClusterRefs verifies every content/indirection cluster an
// in-use inode references is itself allocated and stamped with this
// inode's number.
func (fs *FileSystem) checkInodeClusterRefs(report *CheckReport, n uint32, in *sofsdisk.Inode) error {
	check := func(lcn uint32) error {
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
		if dc.Prev != sofsdisk.NullCluster || dc.Next != sofsdisk.NullCluster {
			report.add(sofserrors.New(sofserrors.EBADCLUHDR, "cluster %d referenced by inode %d looks free (prev/next not NULL)", lcn, n))
		}
		if dc.Stat != n {
			report.add(sofserrors.New(sofserrors.EWGINODENB, "cluster %d referenced by inode %d is stamped with owner %d", lcn, n, dc.Stat))
		}
		return nil
	}

	for _, lcn := range in.D {
		if err := check(lcn); err != nil {
			return err
		}
	}
	if in.I1 != sofsdisk.NullCluster {
		if err := check(in.I1); err != nil {
			return err
		}
		if err := fs.indirSlot.Load(in.I1); err != nil {
			return err
		}
		dc, err := fs.indirSlot.Get()
		if err != nil {
			return err
		}
		for _, r := range dc.AsRefs() {
			if err := check(r); err != nil {
				return err
			}
		}
	}
	if in.I2 != sofsdisk.NullCluster {
		if err := check(in.I2); err != nil {
			return err
		}
		if err := fs.indirSlot.Load(in.I2); err != nil {
			return err
		}
		dc, err := fs.indirSlot.Get()
		if err != nil {
			return err
		}
		for _, outer := range dc.AsRefs() {
			if err := check(outer); err != nil {
				return err
			}
			if outer == sofsdisk.NullCluster {
				continue
			}
			if err := fs.indirSlot.Load(outer); err != nil {
				return err
			}
			inner, err := fs.indirSlot.Get()
			if err != nil {
				return err
			}
			for _, leaf := range inner.AsRefs() {
				if err := check(leaf); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// checkDirectoryContents verifies every in-use entry names a legal,
// in-use inode.
func (fs *FileSystem) checkDirectoryContents(report *CheckReport, nDir uint32) error {
	return fs.forEachDirCluster(nDir, func(_ uint64, lcn uint32) (bool, error) {
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
			if len(e.NameString()) == 0 || len(e.NameString()) > sofsdisk.MaxName {
				report.add(sofserrors.New(sofserrors.EBADDIRENTRY, "directory %d has an entry with an illegal name length", nDir))
				continue
			}
			target, err := fs.getInode(e.NInode)
			if err != nil {
				report.add(sofserrors.New(sofserrors.EBADDIRCONTENTS, "directory %d entry %q names unreadable inode %d", nDir, e.NameString(), e.NInode))
				continue
			}
			if target.IsFree() {
				report.add(sofserrors.New(sofserrors.EBADDIRCONTENTS, "directory %d entry %q names free inode %d", nDir, e.NameString(), e.NInode))
			}
		}
		return false, nil
	})
}
